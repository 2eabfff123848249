// Package auth verifies the static API tokens accepted by the HTTP server.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/btouchard/habitual/internal/config"
)

// ErrInvalidToken is returned when no configured token matches.
var ErrInvalidToken = errors.New("invalid token")

// tokenPrefix marks habitual tokens so they are recognizable in logs and leaks.
const tokenPrefix = "hbt_"

// TokenSet holds the bcrypt hashes of accepted API tokens.
type TokenSet struct {
	entries []config.APITokenEntry
}

// NewTokenSet builds a TokenSet from configuration.
func NewTokenSet(entries []config.APITokenEntry) *TokenSet {
	return &TokenSet{entries: entries}
}

// Empty reports whether no token is configured.
func (s *TokenSet) Empty() bool {
	return len(s.entries) == 0
}

// Validate returns the name of the entry matching token.
func (s *TokenSet) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	for _, e := range s.entries {
		if bcrypt.CompareHashAndPassword([]byte(e.TokenHash), []byte(token)) == nil {
			return e.Name, nil
		}
	}
	return "", ErrInvalidToken
}

// GenerateToken creates a new random 256-bit token and its bcrypt hash.
// Only the hash belongs in configuration.
func GenerateToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = tokenPrefix + hex.EncodeToString(b)

	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash token: %w", err)
	}
	return token, string(h), nil
}
