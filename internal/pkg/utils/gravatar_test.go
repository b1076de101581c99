package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGravatarURL(t *testing.T) {
	t.Parallel()

	// Case and whitespace must not change the hash.
	assert.Equal(t,
		GravatarURL("seller@example.com", 64),
		GravatarURL("  Seller@Example.COM ", 64))

	url := GravatarURL("seller@example.com", 0)
	assert.Contains(t, url, "s=200", "non-positive size falls back to the default")
	assert.Contains(t, url, "d=identicon")
}
