package shortener

import (
	"testing"
)

func TestEncodeID_Zero(t *testing.T) {
	t.Parallel()

	if got := EncodeID(0); got != "0" {
		t.Fatalf("expected %q, got %q", "0", got)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	ids := []uint{1, 61, 62, 63, 3843, 3844, 123456789}
	for _, id := range ids {
		encoded := EncodeID(id)
		if decoded := DecodeID(encoded); decoded != id {
			t.Fatalf("round trip failed for %d: encoded %q decoded %d", id, encoded, decoded)
		}
	}
}

func TestDecodeID_SkipsInvalidCharacters(t *testing.T) {
	t.Parallel()

	if DecodeID("a-b") != DecodeID("ab") {
		t.Fatalf("invalid characters should be ignored")
	}
}
