// Package auth validates API keys presented to the HTTP ingress.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingAPIKey = errors.New("missing authorization header")
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Authenticator validates a presented API key.
type Authenticator interface {
	Authenticate(token string) error
}

// KeyAuthenticator validates keys of the form "cmk_..." against a single
// bcrypt hash configured at startup.
type KeyAuthenticator struct {
	hash []byte
}

// NewKeyAuthenticator creates an authenticator for the given bcrypt hash.
func NewKeyAuthenticator(hash []byte) *KeyAuthenticator {
	return &KeyAuthenticator{hash: hash}
}

func (a *KeyAuthenticator) Authenticate(token string) error {
	if token == "" {
		return ErrMissingAPIKey
	}
	if len(token) < 8 || !strings.HasPrefix(token, "cmk_") {
		return ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(token)); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}

// AllowAll accepts every request. Used when no API key hash is configured,
// for local development only.
type AllowAll struct{}

func (AllowAll) Authenticate(string) error { return nil }
