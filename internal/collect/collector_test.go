package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCollectedFile(t *testing.T, rootDirectory string, relativePath string, content string) string {
	t.Helper()
	fullPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	if mkdirError := os.MkdirAll(filepath.Dir(fullPath), 0o755); mkdirError != nil {
		t.Fatalf("create directory for %s: %v", relativePath, mkdirError)
	}
	if writeError := os.WriteFile(fullPath, []byte(content), 0o600); writeError != nil {
		t.Fatalf("write %s: %v", relativePath, writeError)
	}
	return fullPath
}

func TestCollectPathSingleFile(t *testing.T) {
	rootDirectory := t.TempDir()
	filePath := writeCollectedFile(t, rootDirectory, "main.py", "print('hello')\n")

	collector := NewCollector(DefaultMaxFiles, nil)
	collected := collector.CollectPath(filePath)

	if !strings.HasPrefix(collected, "# main.py\n```python\n") {
		t.Fatalf("expected python fence header, got %q", collected)
	}
	if !strings.Contains(collected, "print('hello')") {
		t.Fatalf("expected file content in output, got %q", collected)
	}
	if !strings.HasSuffix(collected, "```") {
		t.Fatalf("expected closing fence, got %q", collected)
	}
}

func TestCollectPathMissingOrOversized(t *testing.T) {
	rootDirectory := t.TempDir()

	collector := NewCollector(DefaultMaxFiles, nil)
	if collected := collector.CollectPath(filepath.Join(rootDirectory, "missing.py")); collected != "" {
		t.Fatalf("expected empty output for missing file, got %q", collected)
	}

	oversizedPath := writeCollectedFile(t, rootDirectory, "big.py", string(make([]byte, 100_001)))
	if collected := collector.CollectPath(oversizedPath); collected != "" {
		t.Fatalf("expected empty output for oversized file, got %q", collected)
	}
}

func TestCollectDirectoryHonorsCap(t *testing.T) {
	rootDirectory := t.TempDir()
	for fileNumber := 0; fileNumber < 6; fileNumber++ {
		writeCollectedFile(t, rootDirectory, fmt.Sprintf("file_%d.py", fileNumber), fmt.Sprintf("value = %d\n", fileNumber))
	}

	collector := NewCollector(3, nil)
	collected := collector.CollectPath(rootDirectory)

	blockCount := strings.Count(collected, "```python\n")
	if blockCount != 3 {
		t.Fatalf("expected exactly 3 formatted blocks, got %d", blockCount)
	}
}

func TestCollectDirectoryPrefersRecentFiles(t *testing.T) {
	rootDirectory := t.TempDir()
	oldPath := writeCollectedFile(t, rootDirectory, "old.py", "old = True\n")
	writeCollectedFile(t, rootDirectory, "new.py", "new = True\n")

	staleTime := time.Now().Add(-time.Hour)
	if chtimesError := os.Chtimes(oldPath, staleTime, staleTime); chtimesError != nil {
		t.Fatalf("age old.py: %v", chtimesError)
	}

	collector := NewCollector(1, nil)
	collected := collector.CollectPath(rootDirectory)

	if !strings.Contains(collected, "new = True") {
		t.Fatalf("expected most recently modified file to survive the cap, got %q", collected)
	}
	if strings.Contains(collected, "old = True") {
		t.Fatalf("expected older file to be excluded by the cap, got %q", collected)
	}
}

func TestCollectDirectoryEndToEndExclusions(t *testing.T) {
	rootDirectory := t.TempDir()
	writeCollectedFile(t, rootDirectory, ".gitignore", "*.log\n")
	writeCollectedFile(t, rootDirectory, "main.py", "answer = 42\n")
	writeCollectedFile(t, rootDirectory, "debug.log", "secret trace line\n")
	writeCollectedFile(t, rootDirectory, "node_modules/pkg.json", "{\"name\": \"pkg\"}\n")

	collector := NewCollector(DefaultMaxFiles, []string{".git", "node_modules", "__pycache__", ".venv", "dist", "build"})
	collected := collector.CollectPath(rootDirectory)

	if !strings.Contains(collected, "```python\nanswer = 42\n") {
		t.Fatalf("expected main.py content fenced as python, got %q", collected)
	}
	if strings.Contains(collected, "debug.log") || strings.Contains(collected, "secret trace line") {
		t.Fatalf("gitignored file leaked into context: %q", collected)
	}
	if strings.Contains(collected, "pkg.json") || strings.Contains(collected, "\"name\": \"pkg\"") {
		t.Fatalf("default-ignored file leaked into context: %q", collected)
	}
}

func TestCollectDirectoryRelativeRootHonorsAnchoredPatterns(t *testing.T) {
	parentDirectory := t.TempDir()
	writeCollectedFile(t, parentDirectory, "sub/.gitignore", "/secret.txt\ndocs/*.md\n")
	writeCollectedFile(t, parentDirectory, "sub/secret.txt", "anchored exclusion\n")
	writeCollectedFile(t, parentDirectory, "sub/docs/guide.md", "slash pattern exclusion\n")
	writeCollectedFile(t, parentDirectory, "sub/keep.py", "kept = True\n")
	previousWorkingDirectory, getwdError := os.Getwd()
	if getwdError != nil {
		t.Fatalf("get working directory: %v", getwdError)
	}
	if chdirError := os.Chdir(parentDirectory); chdirError != nil {
		t.Fatalf("change directory: %v", chdirError)
	}
	t.Cleanup(func() {
		if chdirError := os.Chdir(previousWorkingDirectory); chdirError != nil {
			t.Fatalf("restore working directory: %v", chdirError)
		}
	})

	collector := NewCollector(DefaultMaxFiles, nil)
	collected := collector.CollectPath("sub")

	if !strings.Contains(collected, "kept = True") {
		t.Fatalf("expected unignored file in output, got %q", collected)
	}
	if strings.Contains(collected, "anchored exclusion") {
		t.Fatalf("anchored pattern must exclude secret.txt under a relative root, got %q", collected)
	}
	if strings.Contains(collected, "slash pattern exclusion") {
		t.Fatalf("slash pattern must exclude docs/guide.md under a relative root, got %q", collected)
	}
}

func TestCollectSummary(t *testing.T) {
	rootDirectory := t.TempDir()
	writeCollectedFile(t, rootDirectory, "go.mod", "module example.com/demo\n\ngo 1.24.0\n")
	writeCollectedFile(t, rootDirectory, "cmd/demo/main.go", "package main\n")
	writeCollectedFile(t, rootDirectory, "README.md", "# demo\n")

	collector := NewCollector(DefaultMaxFiles, nil)
	summary, found := collector.CollectSummary(rootDirectory)
	if !found {
		t.Fatalf("expected summary for a directory with go.mod")
	}
	if !strings.Contains(summary, "# go.mod\n```text\nmodule example.com/demo") {
		t.Fatalf("expected descriptor contents in summary, got %q", summary)
	}
	if !strings.Contains(summary, "# Project Structure") {
		t.Fatalf("expected project structure section, got %q", summary)
	}
	if !strings.Contains(summary, "cmd/") {
		t.Fatalf("expected tree to include cmd directory, got %q", summary)
	}
	if strings.Contains(summary, "main.go") {
		t.Fatalf("depth-2 tree must not descend into cmd/demo, got %q", summary)
	}
}

func TestCollectSummaryDescriptorPriority(t *testing.T) {
	rootDirectory := t.TempDir()
	writeCollectedFile(t, rootDirectory, "go.mod", "module example.com/demo\n")
	writeCollectedFile(t, rootDirectory, "pyproject.toml", "[project]\nname = \"demo\"\n")

	collector := NewCollector(DefaultMaxFiles, nil)
	summary, found := collector.CollectSummary(rootDirectory)
	if !found {
		t.Fatalf("expected summary")
	}
	if !strings.Contains(summary, "# pyproject.toml\n") {
		t.Fatalf("expected pyproject.toml to win descriptor priority, got %q", summary)
	}
	if strings.Contains(summary, "# go.mod\n") {
		t.Fatalf("only the first matching descriptor may appear, got %q", summary)
	}
}

func TestCollectSummaryWithoutDescriptor(t *testing.T) {
	rootDirectory := t.TempDir()
	writeCollectedFile(t, rootDirectory, "notes.txt", "plain directory\n")

	collector := NewCollector(DefaultMaxFiles, nil)
	if _, found := collector.CollectSummary(rootDirectory); found {
		t.Fatalf("expected no summary without a project descriptor")
	}
}

func TestBuildTreeOrderingAndCap(t *testing.T) {
	rootDirectory := t.TempDir()
	writeCollectedFile(t, rootDirectory, "zeta.txt", "z\n")
	writeCollectedFile(t, rootDirectory, "alpha.txt", "a\n")
	writeCollectedFile(t, rootDirectory, "lib/inner.txt", "i\n")

	collector := NewCollector(DefaultMaxFiles, nil)
	tree := collector.buildTree(rootDirectory, summaryTreeDepth, "")

	lines := strings.Split(tree, "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected tree %q", tree)
	}
	if !strings.Contains(lines[0], "lib/") {
		t.Fatalf("expected directory first, got %q", lines[0])
	}
	alphaIndex := strings.Index(tree, "alpha.txt")
	zetaIndex := strings.Index(tree, "zeta.txt")
	if alphaIndex == -1 || zetaIndex == -1 || alphaIndex > zetaIndex {
		t.Fatalf("expected alphabetical file ordering in %q", tree)
	}

	crowdedDirectory := t.TempDir()
	for fileNumber := 0; fileNumber < 30; fileNumber++ {
		writeCollectedFile(t, crowdedDirectory, fmt.Sprintf("file_%02d.txt", fileNumber), "x\n")
	}
	crowdedTree := collector.buildTree(crowdedDirectory, 1, "")
	if lineCount := len(strings.Split(crowdedTree, "\n")); lineCount != treeEntriesPerLevel {
		t.Fatalf("expected %d entries per level, got %d", treeEntriesPerLevel, lineCount)
	}
}
