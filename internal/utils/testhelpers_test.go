package utils

import (
	"os"
	"testing"
)

func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()
	if writeError := os.WriteFile(path, []byte(content), 0o600); writeError != nil {
		t.Fatalf("write %s: %v", path, writeError)
	}
}
