package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/desertthunder/promptlist/internal/models"
	"golang.org/x/oauth2"
)

// stateBytes is the entropy of a state value before encoding.
const stateBytes = 32

// GenerateState returns a base64url encoded random state for CSRF protection.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Challenge returns base64url(sha256(verifier)), the S256 code challenge.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// NewPendingAuthorization creates a state/verifier pair valid for ttl from now.
func NewPendingAuthorization(now time.Time, ttl time.Duration) (models.PendingAuthorization, error) {
	state, err := GenerateState()
	if err != nil {
		return models.PendingAuthorization{}, err
	}

	return models.PendingAuthorization{
		State:     state,
		Verifier:  oauth2.GenerateVerifier(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
