package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a generated token (hex doubles the length).
const tokenBytes = 16

// GenerateToken creates a new opaque API key token: 32 hex characters.
// The token is the stored credential; it is immutable once issued and the
// database enforces uniqueness at creation.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
