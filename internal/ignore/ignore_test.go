package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcherConfiguredPatterns(t *testing.T) {
	rootDirectory := t.TempDir()
	matcher := NewMatcher(rootDirectory, []string{"node_modules", "*.tmp"})

	testCases := []struct {
		name        string
		path        string
		isDirectory bool
		expected    bool
	}{
		{name: "node_modules_directory", path: "node_modules", isDirectory: true, expected: true},
		{name: "nested_node_modules", path: "web/node_modules", isDirectory: true, expected: true},
		{name: "temporary_file", path: "cache/session.tmp", isDirectory: false, expected: true},
		{name: "ordinary_source", path: "src/main.go", isDirectory: false, expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := matcher.Match(testCase.path, testCase.isDirectory); actual != testCase.expected {
				t.Fatalf("Match(%q, %v) = %v, expected %v", testCase.path, testCase.isDirectory, actual, testCase.expected)
			}
		})
	}
}

func TestMatcherReadsGitignore(t *testing.T) {
	rootDirectory := t.TempDir()
	gitIgnorePath := filepath.Join(rootDirectory, GitIgnoreFileName)
	if writeError := os.WriteFile(gitIgnorePath, []byte("*.log\nbuild/\n"), 0o600); writeError != nil {
		t.Fatalf("write .gitignore: %v", writeError)
	}

	matcher := NewMatcher(rootDirectory, nil)

	if !matcher.Match("debug.log", false) {
		t.Fatalf("expected *.log pattern from .gitignore to match debug.log")
	}
	if !matcher.Match("nested/trace.log", false) {
		t.Fatalf("expected *.log pattern to match nested files")
	}
	if !matcher.Match("build", true) {
		t.Fatalf("expected build/ pattern to match the build directory")
	}
	if matcher.Match("main.py", false) {
		t.Fatalf("expected main.py to pass through")
	}
}

func TestMatcherNegationOverridesConfiguredPattern(t *testing.T) {
	rootDirectory := t.TempDir()
	gitIgnorePath := filepath.Join(rootDirectory, GitIgnoreFileName)
	if writeError := os.WriteFile(gitIgnorePath, []byte("!keep.tmp\n"), 0o600); writeError != nil {
		t.Fatalf("write .gitignore: %v", writeError)
	}

	matcher := NewMatcher(rootDirectory, []string{"*.tmp"})

	if matcher.Match("keep.tmp", false) {
		t.Fatalf("expected repository negation to override configured pattern")
	}
	if !matcher.Match("drop.tmp", false) {
		t.Fatalf("expected non-negated file to remain ignored")
	}
}

func TestMatcherWithoutPatterns(t *testing.T) {
	rootDirectory := t.TempDir()
	matcher := NewMatcher(rootDirectory, nil)
	if matcher.Match("anything.go", false) {
		t.Fatalf("expected empty matcher to pass everything through")
	}
}
