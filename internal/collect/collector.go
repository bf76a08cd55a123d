// Package collect assembles bounded, Markdown-formatted context blobs from the filesystem.
package collect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/flow/internal/ignore"
	"github.com/temirov/flow/internal/utils"
)

const (
	// DefaultMaxFiles bounds how many files a directory collection may include.
	DefaultMaxFiles = 50
	// summaryTreeDepth bounds the project-structure tree rendering.
	summaryTreeDepth = 2
	// treeEntriesPerLevel caps how many entries one tree level may show.
	treeEntriesPerLevel = 20

	blockSeparator = "\n\n"
)

// projectDescriptorFiles lists recognized project descriptors in priority order;
// the first match wins.
var projectDescriptorFiles = []string{
	"pyproject.toml",
	"package.json",
	"Cargo.toml",
	"go.mod",
	"pom.xml",
	"build.gradle",
}

// Collector gathers file contents for inclusion in an LLM prompt. Every call
// re-walks the filesystem; nothing is cached between calls and all I/O is
// sequential and synchronous.
type Collector struct {
	maxFiles       int
	ignorePatterns []string
}

// NewCollector creates a collector honoring the configured file cap and ignore patterns.
func NewCollector(maxFiles int, ignorePatterns []string) *Collector {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Collector{maxFiles: maxFiles, ignorePatterns: ignorePatterns}
}

// CollectPath produces a formatted context blob for a file or directory.
// Unreadable paths yield an empty string rather than an error.
func (collector *Collector) CollectPath(path string) string {
	information, statError := os.Stat(path)
	if statError != nil {
		return ""
	}
	if information.IsDir() {
		return collector.collectDirectory(path)
	}
	return formatFileBlock(path)
}

// CollectSummary produces a project overview for the root directory: the first
// recognized project descriptor's contents followed by a depth-bounded tree.
// The second return value is false when no descriptor file is present.
func (collector *Collector) CollectSummary(rootDirectory string) (string, bool) {
	var descriptorPath string
	for _, candidateName := range projectDescriptorFiles {
		candidatePath := filepath.Join(rootDirectory, candidateName)
		if information, statError := os.Stat(candidatePath); statError == nil && !information.IsDir() {
			descriptorPath = candidatePath
			break
		}
	}
	if descriptorPath == "" {
		return "", false
	}

	var parts []string
	if descriptorBlock := formatFileBlock(descriptorPath); descriptorBlock != "" {
		parts = append(parts, descriptorBlock)
	}
	if tree := collector.buildTree(rootDirectory, summaryTreeDepth, ""); tree != "" {
		parts = append(parts, fmt.Sprintf("# Project Structure\n```\n%s\n```", tree))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, blockSeparator), true
}

// collectDirectory formats the most recently modified files under path, up to the cap.
func (collector *Collector) collectDirectory(path string) string {
	candidateFiles := collector.findFiles(path)

	var blocks []string
	for _, candidatePath := range candidateFiles {
		if len(blocks) >= collector.maxFiles {
			break
		}
		if block := formatFileBlock(candidatePath); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, blockSeparator)
}

// findFiles walks the directory applying the ignore matcher and binary filter,
// returning surviving paths sorted by last-modified time, most recent first.
// The root is absolutized so relative-path computation stays consistent with
// the walk paths and anchored ignore patterns keep matching.
func (collector *Collector) findFiles(rootDirectory string) []string {
	if absoluteRoot, absoluteError := filepath.Abs(rootDirectory); absoluteError == nil {
		rootDirectory = absoluteRoot
	}
	matcher := ignore.NewMatcher(rootDirectory, collector.ignorePatterns)

	type candidateFile struct {
		path             string
		modificationTime int64
	}
	var candidates []candidateFile

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		relativePath := utils.RelativePathOrSelf(currentPath, rootDirectory)
		if relativePath == "." {
			return nil
		}
		if directoryEntry.IsDir() {
			if matcher.Match(relativePath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		if utils.IsBinaryFile(currentPath) {
			return nil
		}
		if matcher.Match(relativePath, false) {
			return nil
		}
		information, informationError := directoryEntry.Info()
		if informationError != nil {
			return nil
		}
		candidates = append(candidates, candidateFile{
			path:             currentPath,
			modificationTime: information.ModTime().UnixNano(),
		})
		return nil
	}

	_ = filepath.WalkDir(rootDirectory, walkFunction)

	sort.SliceStable(candidates, func(firstIndex, secondIndex int) bool {
		return candidates[firstIndex].modificationTime > candidates[secondIndex].modificationTime
	})

	result := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		result = append(result, candidate.path)
	}
	return result
}

// formatFileBlock wraps a file's content in a fenced code block tagged with its language.
// Files that are unreadable or over the read ceiling yield an empty string.
func formatFileBlock(path string) string {
	content, readable := utils.ReadFileBounded(path, utils.MaxReadBytes)
	if !readable || content == "" {
		return ""
	}
	languageTag := utils.LanguageTag(path)
	return fmt.Sprintf("# %s\n```%s\n%s\n```", filepath.Base(path), languageTag, content)
}

// buildTree renders a textual directory tree. Directories sort before files and
// each group is alphabetical; every level shows at most treeEntriesPerLevel
// entries, deeper entries are silently omitted.
func (collector *Collector) buildTree(path string, remainingDepth int, prefix string) string {
	if remainingDepth <= 0 {
		return ""
	}

	directoryEntries, readError := os.ReadDir(path)
	if readError != nil {
		return ""
	}

	var entries []fs.DirEntry
	for _, entry := range directoryEntries {
		if collector.isIgnoredName(entry.Name()) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(firstIndex, secondIndex int) bool {
		firstEntry, secondEntry := entries[firstIndex], entries[secondIndex]
		if firstEntry.IsDir() != secondEntry.IsDir() {
			return firstEntry.IsDir()
		}
		return strings.ToLower(firstEntry.Name()) < strings.ToLower(secondEntry.Name())
	})

	var lines []string
	for entryIndex, entry := range entries {
		if entryIndex >= treeEntriesPerLevel {
			break
		}
		isLastEntry := entryIndex == len(entries)-1 || entryIndex == treeEntriesPerLevel-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if isLastEntry {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if entry.IsDir() {
			lines = append(lines, fmt.Sprintf("%s%s%s/", prefix, connector, entry.Name()))
			subtree := collector.buildTree(filepath.Join(path, entry.Name()), remainingDepth-1, childPrefix)
			if subtree != "" {
				lines = append(lines, subtree)
			}
		} else {
			lines = append(lines, fmt.Sprintf("%s%s%s", prefix, connector, entry.Name()))
		}
	}

	return strings.Join(lines, "\n")
}

// isIgnoredName reports whether a tree entry name appears verbatim in the ignore list.
func (collector *Collector) isIgnoredName(name string) bool {
	for _, pattern := range collector.ignorePatterns {
		if pattern == name {
			return true
		}
	}
	return false
}
