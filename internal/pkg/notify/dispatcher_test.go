package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Only accepted offers and completed sales are worth an email; everything
// else stays in-app.
func TestMailSubject(t *testing.T) {
	t.Parallel()

	subject, ok := mailSubject(TypeOfferAccepted)
	assert.True(t, ok)
	assert.Equal(t, "Your offer was accepted", subject)

	subject, ok = mailSubject(TypeListingSold)
	assert.True(t, ok)
	assert.Equal(t, "Your listing sold", subject)

	for _, typ := range []string{
		TypeOfferReceived, TypeOfferDeclined, TypeOfferCountered,
		TypeListingApproved, TypeListingRejected, TypeListingExpired,
		TypeMessageReceived, TypeReportResolved, TypeSystem,
	} {
		_, ok := mailSubject(typ)
		assert.False(t, ok, "%s must not be mailed", typ)
	}
}
