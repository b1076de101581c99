// Package utils holds small presentation helpers shared by the controllers.
package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// DefaultAvatarSize is the pixel size used when a caller passes no usable
// size.
const DefaultAvatarSize = 200

// GravatarURL builds the avatar URL for an account that never uploaded one.
// Addresses without a Gravatar profile fall back to a generated identicon so
// every seller card shows something.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = DefaultAvatarSize
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=identicon", hash, size)
}
