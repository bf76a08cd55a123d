// Package scaffold writes starter project trees from built-in templates.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Project types accepted by Generate.
const (
	TypeCLI     = "cli"
	TypeAPI     = "api"
	TypeLibrary = "library"
)

const namePlaceholder = "{{name}}"

// Options controls one scaffolding run.
type Options struct {
	// Name is the project name; it becomes the target directory and the module suffix.
	Name string
	// Type selects the template set: cli, api, or library.
	Type string
	// OutputDirectory is the parent of the generated project. Empty means the working directory.
	OutputDirectory string
	// Force overwrites an existing project directory.
	Force bool
}

// Result reports what a scaffolding run produced.
type Result struct {
	ProjectDirectory string
	CreatedFiles     []string
	NextSteps        []string
}

// templateSets maps project type to relative-path/content pairs. The
// {{name}} placeholder is substituted in both paths and contents.
var templateSets = map[string]map[string]string{
	TypeCLI: {
		"go.mod": "module {{name}}\n\ngo 1.24.0\n",
		"cmd/{{name}}/main.go": `package main

import (
	"fmt"
	"os"

	"{{name}}/internal/cli"
)

func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintln(os.Stderr, executionError)
		os.Exit(1)
	}
}
`,
		"internal/cli/root.go": `package cli

import "fmt"

// Execute runs the command line interface.
func Execute() error {
	fmt.Println("Hello from {{name}}!")
	return nil
}
`,
		"README.md": `# {{name}}

A command-line tool.

## Build

` + "```bash\ngo build ./cmd/{{name}}\n```\n",
		".gitignore": "/{{name}}\ndist/\n*.test\n",
	},
	TypeAPI: {
		"go.mod": "module {{name}}\n\ngo 1.24.0\n",
		"cmd/{{name}}/main.go": `package main

import (
	"log"
	"net/http"

	"{{name}}/internal/server"
)

func main() {
	log.Fatal(http.ListenAndServe(":8080", server.NewHandler()))
}
`,
		"internal/server/server.go": `package server

import (
	"encoding/json"
	"net/http"
)

// NewHandler builds the HTTP routing table.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]string{"status": "healthy"})
	})
	return mux
}
`,
		"internal/server/server_test.go": `package server

import (
	"net/http/httptest"
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	recorder := httptest.NewRecorder()
	NewHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}
`,
		"README.md": `# {{name}}

A REST API.

## Run

` + "```bash\ngo run ./cmd/{{name}}\n```\n",
		".gitignore": "/{{name}}\ndist/\n*.test\n",
	},
	TypeLibrary: {
		"go.mod": "module {{name}}\n\ngo 1.24.0\n",
		"{{name}}.go": `// Package {{name}} is a Go library.
package {{name}}

import "fmt"

// Process transforms the input value.
func Process(value string) string {
	return fmt.Sprintf("processed: %s", value)
}
`,
		"{{name}}_test.go": `package {{name}}

import "testing"

func TestProcess(t *testing.T) {
	if processed := Process("test"); processed != "processed: test" {
		t.Fatalf("unexpected result %q", processed)
	}
}
`,
		"README.md": `# {{name}}

A Go library.

## Usage

` + "```go\nresult := {{name}}.Process(\"hello\")\n```\n",
		".gitignore": "dist/\n*.test\n",
	},
}

// Generate writes the template tree for the requested project type.
func Generate(options Options) (Result, error) {
	templateSet, knownType := templateSets[options.Type]
	if !knownType {
		return Result{}, fmt.Errorf("unknown project type %q: valid types are %s, %s, and %s", options.Type, TypeCLI, TypeAPI, TypeLibrary)
	}
	if options.Name == "" {
		return Result{}, fmt.Errorf("project name must not be empty")
	}
	// Hyphenated names are normalized for use inside identifiers and paths.
	normalizedName := strings.ReplaceAll(options.Name, "-", "_")

	outputDirectory := options.OutputDirectory
	if outputDirectory == "" {
		outputDirectory = "."
	}
	projectDirectory := filepath.Join(outputDirectory, options.Name)

	if _, statError := os.Stat(projectDirectory); statError == nil && !options.Force {
		return Result{}, fmt.Errorf("directory already exists: %s (use --force to overwrite)", projectDirectory)
	}

	relativePaths := make([]string, 0, len(templateSet))
	for pathTemplate := range templateSet {
		relativePaths = append(relativePaths, pathTemplate)
	}
	sort.Strings(relativePaths)

	var createdFiles []string
	for _, pathTemplate := range relativePaths {
		relativePath := strings.ReplaceAll(pathTemplate, namePlaceholder, normalizedName)
		fileContent := strings.ReplaceAll(templateSet[pathTemplate], namePlaceholder, normalizedName)

		fullPath := filepath.Join(projectDirectory, filepath.FromSlash(relativePath))
		if mkdirError := os.MkdirAll(filepath.Dir(fullPath), 0o755); mkdirError != nil {
			return Result{}, fmt.Errorf("create directory for %s: %w", relativePath, mkdirError)
		}
		if writeError := os.WriteFile(fullPath, []byte(fileContent), 0o644); writeError != nil {
			return Result{}, fmt.Errorf("write %s: %w", relativePath, writeError)
		}
		createdFiles = append(createdFiles, relativePath)
	}

	return Result{
		ProjectDirectory: projectDirectory,
		CreatedFiles:     createdFiles,
		NextSteps:        nextSteps(options.Type, options.Name, normalizedName),
	}, nil
}

func nextSteps(projectType string, projectName string, normalizedName string) []string {
	steps := []string{fmt.Sprintf("cd %s", projectName)}
	switch projectType {
	case TypeCLI:
		steps = append(steps, fmt.Sprintf("go run ./cmd/%s", normalizedName))
	case TypeAPI:
		steps = append(steps, fmt.Sprintf("go run ./cmd/%s", normalizedName), "curl localhost:8080/health")
	case TypeLibrary:
		steps = append(steps, "go test ./...")
	}
	return steps
}
