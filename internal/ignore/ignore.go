// Package ignore decides which paths are excluded from indexing and collection.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"

	"github.com/temirov/flow/internal/utils"
)

// GitIgnoreFileName is the repository ignore file consulted at the scan root.
const GitIgnoreFileName = ".gitignore"

// Matcher evaluates gitignore-style patterns against paths relative to a scan root.
// The pattern set is the union of configured patterns followed by the scan root's
// .gitignore lines; configured patterns come first so that repository negations
// can override them. Matchers are rebuilt for every index or collection pass.
type Matcher struct {
	rootDirectory string
	compiled      gitignore.GitIgnore
}

// NewMatcher compiles the configured patterns together with the .gitignore file
// found at rootDirectory, when present. Malformed patterns are tolerated.
func NewMatcher(rootDirectory string, configuredPatterns []string) *Matcher {
	patternLines := make([]string, 0, len(configuredPatterns))
	for _, pattern := range configuredPatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		patternLines = append(patternLines, trimmedPattern)
	}

	gitIgnorePath := filepath.Join(rootDirectory, GitIgnoreFileName)
	if fileContent, readError := os.ReadFile(gitIgnorePath); readError == nil {
		patternLines = append(patternLines, strings.Split(string(fileContent), "\n")...)
	}

	patternLines = utils.DeduplicatePatterns(patternLines)

	matcher := &Matcher{rootDirectory: rootDirectory}
	if len(patternLines) > 0 {
		matcher.compiled = gitignore.New(strings.NewReader(strings.Join(patternLines, "\n")), rootDirectory, nil)
	}
	return matcher
}

// Match reports whether the path, relative to the scan root, is ignored.
func (matcher *Matcher) Match(relativePath string, isDirectory bool) bool {
	if matcher.compiled == nil {
		return false
	}
	normalizedPath := filepath.ToSlash(relativePath)
	if normalizedPath == "" || normalizedPath == "." {
		return false
	}
	matchResult := matcher.compiled.Relative(normalizedPath, isDirectory)
	return matchResult != nil && matchResult.Ignore()
}
