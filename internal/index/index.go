// Package index builds an in-memory inventory of the text files in a directory tree.
package index

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/flow/internal/ignore"
	"github.com/temirov/flow/internal/utils"
)

// noExtensionBucket labels files without an extension in the summary.
const noExtensionBucket = "(no extension)"

// FileRecord describes one indexed file.
type FileRecord struct {
	// AbsolutePath is the resolved location on disk.
	AbsolutePath string
	// RelativePath is the path below the scan root using forward slashes.
	RelativePath string
	// Extension is the lower-cased extension including the leading dot, or empty.
	Extension string
	// Size is the file size in bytes.
	Size int64
	// Lines is the line count for text files under the read ceiling, nil otherwise.
	Lines *int
}

// ExtensionCount pairs an extension with the number of indexed files carrying it.
type ExtensionCount struct {
	Extension string
	Count     int
}

// Indexer walks a root directory and records every surviving file.
// Each Build call re-reads the filesystem and the ignore patterns; nothing is cached.
type Indexer struct {
	rootDirectory  string
	ignorePatterns []string
	records        map[string]FileRecord
	order          []string
}

// NewIndexer creates an indexer for rootDirectory using the configured ignore
// patterns. The root is absolutized so relative-path computation stays
// consistent with the walk paths regardless of the caller's working directory.
func NewIndexer(rootDirectory string, ignorePatterns []string) *Indexer {
	if absoluteRoot, absoluteError := filepath.Abs(rootDirectory); absoluteError == nil {
		rootDirectory = absoluteRoot
	}
	return &Indexer{
		rootDirectory:  rootDirectory,
		ignorePatterns: ignorePatterns,
		records:        map[string]FileRecord{},
	}
}

// Build walks the root directory and replaces the current index. Files matching
// the ignore matcher or classified as binary are skipped; directories matching
// the ignore matcher are pruned. Read failures while counting lines degrade to
// an absent line count and never abort the build.
func (indexer *Indexer) Build() error {
	indexer.records = map[string]FileRecord{}
	indexer.order = nil

	matcher := ignore.NewMatcher(indexer.rootDirectory, indexer.ignorePatterns)

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relativePath := utils.RelativePathOrSelf(currentPath, indexer.rootDirectory)
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

		fileInformation, informationError := directoryEntry.Info()
		if informationError != nil {
			return nil
		}

		record := FileRecord{
			AbsolutePath: currentPath,
			RelativePath: relativePath,
			Extension:    utils.NormalizedExtension(currentPath),
			Size:         fileInformation.Size(),
		}
		if utils.IsTextFile(currentPath) && fileInformation.Size() < utils.MaxReadBytes {
			if content, readable := utils.ReadFileBounded(currentPath, utils.MaxReadBytes); readable {
				lineCount := utils.CountLines(content)
				record.Lines = &lineCount
			}
		}

		indexer.records[relativePath] = record
		indexer.order = append(indexer.order, relativePath)
		return nil
	}

	if walkError := filepath.WalkDir(indexer.rootDirectory, walkFunction); walkError != nil {
		return fmt.Errorf("walking %s: %w", indexer.rootDirectory, walkError)
	}
	return nil
}

// AllFiles returns every indexed record in walk order.
func (indexer *Indexer) AllFiles() []FileRecord {
	result := make([]FileRecord, 0, len(indexer.order))
	for _, relativePath := range indexer.order {
		result = append(result, indexer.records[relativePath])
	}
	return result
}

// Lookup returns the record for an exact relative path.
func (indexer *Indexer) Lookup(relativePath string) (FileRecord, bool) {
	record, found := indexer.records[filepath.ToSlash(relativePath)]
	return record, found
}

// FindByName returns records whose base name contains the query, case-insensitively.
func (indexer *Indexer) FindByName(query string) []FileRecord {
	loweredQuery := strings.ToLower(query)
	var result []FileRecord
	for _, relativePath := range indexer.order {
		record := indexer.records[relativePath]
		if strings.Contains(strings.ToLower(filepath.Base(record.AbsolutePath)), loweredQuery) {
			result = append(result, record)
		}
	}
	return result
}

// FindByExtension returns records with the given extension. The extension is
// normalized to lower case and may be supplied with or without the leading dot.
func (indexer *Indexer) FindByExtension(extension string) []FileRecord {
	normalizedExtension := strings.ToLower(extension)
	if normalizedExtension != "" && !strings.HasPrefix(normalizedExtension, ".") {
		normalizedExtension = "." + normalizedExtension
	}
	var result []FileRecord
	for _, relativePath := range indexer.order {
		record := indexer.records[relativePath]
		if record.Extension == normalizedExtension {
			result = append(result, record)
		}
	}
	return result
}

// Summary returns extension counts sorted by descending count. Ties preserve
// the order in which the extension was first seen during the walk.
func (indexer *Indexer) Summary() []ExtensionCount {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	var buckets []string
	for walkPosition, relativePath := range indexer.order {
		extension := indexer.records[relativePath].Extension
		if extension == "" {
			extension = noExtensionBucket
		}
		if _, seen := counts[extension]; !seen {
			firstSeen[extension] = walkPosition
			buckets = append(buckets, extension)
		}
		counts[extension]++
	}

	sort.SliceStable(buckets, func(firstIndex, secondIndex int) bool {
		firstBucket, secondBucket := buckets[firstIndex], buckets[secondIndex]
		if counts[firstBucket] != counts[secondBucket] {
			return counts[firstBucket] > counts[secondBucket]
		}
		return firstSeen[firstBucket] < firstSeen[secondBucket]
	})

	result := make([]ExtensionCount, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, ExtensionCount{Extension: bucket, Count: counts[bucket]})
	}
	return result
}
