// Package utils contains file classification helpers and general utilities
// shared across the flow tool.
package utils

import (
	"path/filepath"
	"strings"
)

// Classification describes how a file is treated during context collection.
type Classification int

const (
	// ClassificationUnknown marks files that are neither known binary nor known text.
	ClassificationUnknown Classification = iota
	// ClassificationBinary marks files excluded from indexing and collection.
	ClassificationBinary
	// ClassificationText marks files eligible for content reads and line counting.
	ClassificationText
)

// binaryExtensions lists extensions that are always treated as binary content.
var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".svg": {}, ".webp": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".rar": {}, ".7z": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
	".pyc": {}, ".pyo": {}, ".class": {}, ".o": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {},
	".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {}, ".mov": {},
	".db": {}, ".sqlite": {}, ".sqlite3": {},
}

// textExtensions lists extensions that are always treated as text content.
var textExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".mjs": {}, ".cjs": {},
	".java": {}, ".kt": {}, ".scala": {},
	".c": {}, ".cpp": {}, ".h": {}, ".hpp": {}, ".cc": {},
	".go": {}, ".rs": {}, ".swift": {},
	".rb": {}, ".php": {}, ".pl": {}, ".pm": {},
	".sh": {}, ".bash": {}, ".zsh": {}, ".fish": {},
	".html": {}, ".css": {}, ".scss": {}, ".sass": {}, ".less": {},
	".json": {}, ".yaml": {}, ".yml": {}, ".toml": {}, ".xml": {},
	".md": {}, ".txt": {}, ".rst": {}, ".org": {},
	".sql": {}, ".graphql": {},
	".dockerfile": {}, ".env": {}, ".gitignore": {},
	".conf": {}, ".cfg": {}, ".ini": {},
}

// extensionLessTextNames lists base names without an extension that classify as text.
var extensionLessTextNames = map[string]struct{}{
	"Makefile":    {},
	"Dockerfile":  {},
	"Vagrantfile": {},
	"Jenkinsfile": {},
}

// languageTags maps file extensions to Markdown fence language tags.
var languageTags = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".jsx":   "jsx",
	".tsx":   "tsx",
	".java":  "java",
	".kt":    "kotlin",
	".go":    "go",
	".rs":    "rust",
	".c":     "c",
	".cpp":   "cpp",
	".h":     "c",
	".hpp":   "cpp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".sh":    "bash",
	".bash":  "bash",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".sql":   "sql",
	".md":    "markdown",
}

// defaultLanguageTag is returned for extensions without a dedicated tag.
const defaultLanguageTag = "text"

// NormalizedExtension returns the lower-cased extension of the path including the leading dot.
func NormalizedExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// ClassifyFile reports the content classification for a path. Binary extensions
// take precedence over text extensions; extension-less files classify as text
// only when their base name is a known build file.
func ClassifyFile(path string) Classification {
	extension := NormalizedExtension(path)
	if _, isBinary := binaryExtensions[extension]; isBinary {
		return ClassificationBinary
	}
	if _, isText := textExtensions[extension]; isText {
		return ClassificationText
	}
	if extension == "" {
		if _, isKnownName := extensionLessTextNames[filepath.Base(path)]; isKnownName {
			return ClassificationText
		}
	}
	return ClassificationUnknown
}

// IsBinaryFile reports whether the path classifies as binary content.
func IsBinaryFile(path string) bool {
	return ClassifyFile(path) == ClassificationBinary
}

// IsTextFile reports whether the path classifies as text content.
func IsTextFile(path string) bool {
	return ClassifyFile(path) == ClassificationText
}

// LanguageTag returns the Markdown fence language tag for the path's extension.
// Unknown extensions map to the generic text tag.
func LanguageTag(path string) string {
	if tag, found := languageTags[NormalizedExtension(path)]; found {
		return tag
	}
	return defaultLanguageTag
}
