package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// claudeCredentialsRelativePath locates the Claude Code credential file below
// the home directory.
const claudeCredentialsRelativePath = ".claude/.credentials.json"

// millisecondEpochThreshold distinguishes millisecond epochs from second
// epochs; any value above it is treated as milliseconds.
const millisecondEpochThreshold = 1_000_000_000_000

// importedCredentials models the claudeAiOauth envelope. Both camelCase and
// snake_case key spellings occur in the wild.
type importedCredentials struct {
	AccessTokenCamel  string `json:"accessToken"`
	AccessTokenSnake  string `json:"access_token"`
	RefreshTokenCamel string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
	ExpiresAtCamel    int64  `json:"expiresAt"`
	ExpiresAtSnake    int64  `json:"expires_at"`
}

// DefaultClaudeCredentialsPath returns the standard Claude Code credential
// file location for the current user.
func DefaultClaudeCredentialsPath() (string, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", fmt.Errorf("determine home directory: %w", homeError)
	}
	return filepath.Join(homeDirectory, filepath.FromSlash(claudeCredentialsRelativePath)), nil
}

// ImportClaudeCredentials reads an existing Claude Code credential file and
// converts it into a Token. Millisecond expiry timestamps are normalized to
// seconds.
func ImportClaudeCredentials(credentialsPath string) (Token, error) {
	fileContent, readError := os.ReadFile(credentialsPath)
	if readError != nil {
		return Token{}, fmt.Errorf("read credentials file: %w", readError)
	}

	var envelope struct {
		ClaudeAiOauth *importedCredentials `json:"claudeAiOauth"`
	}
	if decodeError := json.Unmarshal(fileContent, &envelope); decodeError != nil {
		return Token{}, fmt.Errorf("decode credentials file: %w", decodeError)
	}

	credentials := envelope.ClaudeAiOauth
	if credentials == nil {
		// Some exports carry the fields at the top level.
		credentials = &importedCredentials{}
		if decodeError := json.Unmarshal(fileContent, credentials); decodeError != nil {
			return Token{}, fmt.Errorf("decode credentials file: %w", decodeError)
		}
	}

	accessToken := firstNonEmpty(credentials.AccessTokenCamel, credentials.AccessTokenSnake)
	refreshToken := firstNonEmpty(credentials.RefreshTokenCamel, credentials.RefreshTokenSnake)
	if accessToken == "" || refreshToken == "" {
		return Token{}, fmt.Errorf("credentials file carries no usable token pair")
	}

	expiresAt := credentials.ExpiresAtCamel
	if expiresAt == 0 {
		expiresAt = credentials.ExpiresAtSnake
	}
	if expiresAt > millisecondEpochThreshold {
		expiresAt /= 1000
	}

	return Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
