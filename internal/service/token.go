package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newInviteToken returns a URL-safe random token with 256 bits of entropy.
// Tokens are single-use and act as bearer credentials until they expire.
func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
