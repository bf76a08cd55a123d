package utils

import (
	"os"
	"strings"
	"unicode/utf8"
)

// MaxReadBytes is the ceiling applied to every content read and line count.
const MaxReadBytes = 100_000

// ReadFileBounded reads the file at path when it is at most maxBytes long.
// It returns the content and true on success, and an empty string and false
// when the file is missing, unreadable, or over the ceiling. Invalid UTF-8
// sequences are replaced rather than rejected.
func ReadFileBounded(path string, maxBytes int64) (string, bool) {
	information, statError := os.Stat(path)
	if statError != nil {
		return "", false
	}
	if information.Size() > maxBytes {
		return "", false
	}
	data, readError := os.ReadFile(path)
	if readError != nil {
		return "", false
	}
	if utf8.Valid(data) {
		return string(data), true
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), true
}

// CountLines returns the number of lines in content, matching the convention
// that a trailing newline does not start an additional line.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	lineCount := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lineCount++
	}
	return lineCount
}
