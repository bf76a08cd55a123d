package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AuthFileName is the token file name inside the configuration directory.
	AuthFileName = "auth.json"
	// authDirectoryName is the per-user configuration directory below the home directory.
	authDirectoryName = ".config/flow"

	tokenFileMode      = 0o600
	tokenDirectoryMode = 0o700
)

// Store owns the on-disk token record. No other component mutates the file.
type Store struct {
	filePath string
}

// NewStore creates a store persisting tokens at the provided path.
func NewStore(filePath string) *Store {
	return &Store{filePath: filePath}
}

// DefaultStore creates a store at the standard per-user location.
func DefaultStore() (*Store, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return nil, fmt.Errorf("determine home directory: %w", homeError)
	}
	return NewStore(filepath.Join(homeDirectory, filepath.FromSlash(authDirectoryName), AuthFileName)), nil
}

// FilePath returns the location of the token file.
func (store *Store) FilePath() string {
	return store.filePath
}

// Save persists the token with owner-only read/write permission.
func (store *Store) Save(token Token) error {
	if mkdirError := os.MkdirAll(filepath.Dir(store.filePath), tokenDirectoryMode); mkdirError != nil {
		return fmt.Errorf("create token directory: %w", mkdirError)
	}
	encoded, encodeError := json.MarshalIndent(token, "", "  ")
	if encodeError != nil {
		return fmt.Errorf("encode token: %w", encodeError)
	}
	if writeError := os.WriteFile(store.filePath, encoded, tokenFileMode); writeError != nil {
		return fmt.Errorf("write token file: %w", writeError)
	}
	// WriteFile does not change the mode of a pre-existing file.
	if chmodError := os.Chmod(store.filePath, tokenFileMode); chmodError != nil {
		return fmt.Errorf("restrict token file permissions: %w", chmodError)
	}
	return nil
}

// Load reads the persisted token. A missing, malformed, or incomplete file
// reports absence rather than an error.
func (store *Store) Load() (Token, bool) {
	fileContent, readError := os.ReadFile(store.filePath)
	if readError != nil {
		return Token{}, false
	}
	var token Token
	if decodeError := json.Unmarshal(fileContent, &token); decodeError != nil {
		return Token{}, false
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return Token{}, false
	}
	return token, true
}

// Delete removes the token file and reports whether one existed.
func (store *Store) Delete() bool {
	if removeError := os.Remove(store.filePath); removeError != nil {
		return false
	}
	return true
}
