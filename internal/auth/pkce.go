// Package auth manages the OAuth2/PKCE token lifecycle for the subscription backend.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	verifierEntropyBytes = 32
	stateEntropyBytes    = 16
)

// GeneratePKCE returns a cryptographically random code verifier and its S256
// code challenge. Both values use unpadded URL-safe base64 encoding.
func GeneratePKCE() (string, string, error) {
	verifierBytes := make([]byte, verifierEntropyBytes)
	if _, randomError := rand.Read(verifierBytes); randomError != nil {
		return "", "", fmt.Errorf("generate code verifier: %w", randomError)
	}
	codeVerifier := base64.RawURLEncoding.EncodeToString(verifierBytes)

	digest := sha256.Sum256([]byte(codeVerifier))
	codeChallenge := base64.RawURLEncoding.EncodeToString(digest[:])

	return codeVerifier, codeChallenge, nil
}

// GenerateStateToken returns a random anti-CSRF state token.
func GenerateStateToken() (string, error) {
	stateBytes := make([]byte, stateEntropyBytes)
	if _, randomError := rand.Read(stateBytes); randomError != nil {
		return "", fmt.Errorf("generate state token: %w", randomError)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}
