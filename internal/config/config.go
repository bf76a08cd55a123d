// Package config loads and mutates the flow application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigDirectoryName is the per-user configuration directory below the home directory.
	ConfigDirectoryName = ".config/flow"
	// ConfigFileName is the name of the configuration file inside ConfigDirectoryName.
	ConfigFileName = "config.yaml"

	// ProviderAnthropic selects the cloud inference backend.
	ProviderAnthropic = "anthropic"
	// ProviderOllama selects the local inference daemon backend.
	ProviderOllama = "ollama"

	defaultModel        = "claude-sonnet-4-20250514"
	defaultOllamaHost   = "http://localhost:11434"
	defaultOllamaModel  = "codellama"
	defaultContextFiles = 50

	environmentReferencePrefix = "${"
	environmentReferenceSuffix = "}"
)

// defaultIgnorePatterns lists directories excluded from context collection by default.
var defaultIgnorePatterns = []string{".git", "node_modules", "__pycache__", ".venv", "dist", "build"}

// LoadOptions controls how the application configuration is discovered.
type LoadOptions struct {
	// HomeDirectory overrides the user home directory, primarily for tests.
	HomeDirectory string
	// ExplicitFilePath reads the configuration from a specific file instead of the default location.
	ExplicitFilePath string
}

// DefaultConfiguration selects the active provider and model.
type DefaultConfiguration struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

// AnthropicConfiguration holds cloud backend credentials.
type AnthropicConfiguration struct {
	APIKey string `mapstructure:"api_key"`
}

// OllamaConfiguration holds local daemon connection settings.
type OllamaConfiguration struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

// JiraConfiguration holds issue-tracker connection settings.
type JiraConfiguration struct {
	URL            string `mapstructure:"url"`
	Email          string `mapstructure:"email"`
	APIToken       string `mapstructure:"api_token"`
	DefaultProject string `mapstructure:"default_project"`
}

// IsConfigured reports whether every field required for API access is present.
func (configuration JiraConfiguration) IsConfigured() bool {
	return configuration.URL != "" && configuration.Email != "" && configuration.APIToken != ""
}

// ContextConfiguration controls context collection behavior.
type ContextConfiguration struct {
	MaxFiles int      `mapstructure:"max_files"`
	Ignore   []string `mapstructure:"ignore"`
}

// ApplicationConfiguration is the complete configuration for one process.
// It is constructed once at startup and passed into component constructors.
type ApplicationConfiguration struct {
	Default   DefaultConfiguration   `mapstructure:"default"`
	Anthropic AnthropicConfiguration `mapstructure:"anthropic"`
	Ollama    OllamaConfiguration    `mapstructure:"ollama"`
	Jira      JiraConfiguration      `mapstructure:"jira"`
	Context   ContextConfiguration   `mapstructure:"context"`
}

// NewDefaultConfiguration returns the configuration used when no file exists.
func NewDefaultConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Default: DefaultConfiguration{
			Provider: ProviderAnthropic,
			Model:    defaultModel,
		},
		Anthropic: AnthropicConfiguration{
			APIKey: "${ANTHROPIC_API_KEY}",
		},
		Ollama: OllamaConfiguration{
			Host:  defaultOllamaHost,
			Model: defaultOllamaModel,
		},
		Jira: JiraConfiguration{
			URL:      "${JIRA_URL}",
			Email:    "${JIRA_EMAIL}",
			APIToken: "${JIRA_API_TOKEN}",
		},
		Context: ContextConfiguration{
			MaxFiles: defaultContextFiles,
			Ignore:   append([]string{}, defaultIgnorePatterns...),
		},
	}
}

// ConfigFilePath returns the location of the configuration file below the home directory.
func ConfigFilePath(homeDirectory string) string {
	return filepath.Join(homeDirectory, filepath.FromSlash(ConfigDirectoryName), ConfigFileName)
}

// LoadApplicationConfiguration reads the configuration file, overlays it onto the
// defaults, and resolves ${VAR} environment references in credential fields.
// A missing file yields the defaults without error.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	configuration := NewDefaultConfiguration()

	configFilePath, resolveError := resolveConfigFilePath(options)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}

	if configFilePath != "" {
		if _, statError := os.Stat(configFilePath); statError == nil {
			reader := viper.New()
			reader.SetConfigFile(configFilePath)
			if readError := reader.ReadInConfig(); readError != nil {
				return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", configFilePath, readError)
			}
			if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
				return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", configFilePath, decodeError)
			}
		} else if !os.IsNotExist(statError) {
			return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", configFilePath, statError)
		}
	}

	configuration.Anthropic.APIKey = resolveEnvironmentReference(configuration.Anthropic.APIKey)
	configuration.Jira.URL = resolveEnvironmentReference(configuration.Jira.URL)
	configuration.Jira.Email = resolveEnvironmentReference(configuration.Jira.Email)
	configuration.Jira.APIToken = resolveEnvironmentReference(configuration.Jira.APIToken)

	if configuration.Context.MaxFiles <= 0 {
		configuration.Context.MaxFiles = defaultContextFiles
	}

	return configuration, nil
}

func resolveConfigFilePath(options LoadOptions) (string, error) {
	if options.ExplicitFilePath != "" {
		if filepath.IsAbs(options.ExplicitFilePath) {
			return options.ExplicitFilePath, nil
		}
		absolutePath, absoluteError := filepath.Abs(options.ExplicitFilePath)
		if absoluteError != nil {
			return "", fmt.Errorf("resolve configuration path %s: %w", options.ExplicitFilePath, absoluteError)
		}
		return absolutePath, nil
	}
	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		detectedHome, homeError := os.UserHomeDir()
		if homeError != nil {
			return "", nil
		}
		homeDirectory = detectedHome
	}
	return ConfigFilePath(homeDirectory), nil
}

// resolveEnvironmentReference expands values of the form ${VAR_NAME} from the environment.
func resolveEnvironmentReference(value string) string {
	if strings.HasPrefix(value, environmentReferencePrefix) && strings.HasSuffix(value, environmentReferenceSuffix) {
		variableName := value[len(environmentReferencePrefix) : len(value)-len(environmentReferenceSuffix)]
		return os.Getenv(variableName)
	}
	return value
}

// InitConfigFile writes the default configuration to the standard location and
// returns the written path. An existing file is overwritten.
func InitConfigFile(homeDirectory string) (string, error) {
	configFilePath := ConfigFilePath(homeDirectory)
	if mkdirError := os.MkdirAll(filepath.Dir(configFilePath), 0o700); mkdirError != nil {
		return "", fmt.Errorf("create configuration directory: %w", mkdirError)
	}

	writer := viper.New()
	writer.SetConfigFile(configFilePath)
	writer.SetConfigType("yaml")
	defaults := NewDefaultConfiguration()
	writer.Set("default.provider", defaults.Default.Provider)
	writer.Set("default.model", defaults.Default.Model)
	writer.Set("anthropic.api_key", defaults.Anthropic.APIKey)
	writer.Set("ollama.host", defaults.Ollama.Host)
	writer.Set("ollama.model", defaults.Ollama.Model)
	writer.Set("jira.url", defaults.Jira.URL)
	writer.Set("jira.email", defaults.Jira.Email)
	writer.Set("jira.api_token", defaults.Jira.APIToken)
	writer.Set("jira.default_project", defaults.Jira.DefaultProject)
	writer.Set("context.max_files", defaults.Context.MaxFiles)
	writer.Set("context.ignore", defaults.Context.Ignore)

	if writeError := writer.WriteConfigAs(configFilePath); writeError != nil {
		return "", fmt.Errorf("write configuration to %s: %w", configFilePath, writeError)
	}
	return configFilePath, nil
}

// SetConfigValue updates one section.key entry in the configuration file,
// creating the file from defaults when it does not exist. String values that
// look like booleans or integers are stored with their native type.
func SetConfigValue(homeDirectory string, key string, value string) error {
	keyParts := strings.Split(key, ".")
	if len(keyParts) != 2 {
		return fmt.Errorf("key must be in format 'section.key', got %q", key)
	}

	configFilePath := ConfigFilePath(homeDirectory)
	if _, statError := os.Stat(configFilePath); os.IsNotExist(statError) {
		if _, initError := InitConfigFile(homeDirectory); initError != nil {
			return initError
		}
	}

	editor := viper.New()
	editor.SetConfigFile(configFilePath)
	if readError := editor.ReadInConfig(); readError != nil {
		return fmt.Errorf("read configuration from %s: %w", configFilePath, readError)
	}
	editor.Set(key, coerceConfigValue(value))
	if writeError := editor.WriteConfigAs(configFilePath); writeError != nil {
		return fmt.Errorf("write configuration to %s: %w", configFilePath, writeError)
	}
	return nil
}

// AppendIgnorePattern adds one pattern to context.ignore in the configuration file.
func AppendIgnorePattern(homeDirectory string, pattern string) error {
	configFilePath := ConfigFilePath(homeDirectory)
	if _, statError := os.Stat(configFilePath); os.IsNotExist(statError) {
		if _, initError := InitConfigFile(homeDirectory); initError != nil {
			return initError
		}
	}

	editor := viper.New()
	editor.SetConfigFile(configFilePath)
	if readError := editor.ReadInConfig(); readError != nil {
		return fmt.Errorf("read configuration from %s: %w", configFilePath, readError)
	}
	patterns := editor.GetStringSlice("context.ignore")
	for _, existingPattern := range patterns {
		if existingPattern == pattern {
			return nil
		}
	}
	editor.Set("context.ignore", append(patterns, pattern))
	if writeError := editor.WriteConfigAs(configFilePath); writeError != nil {
		return fmt.Errorf("write configuration to %s: %w", configFilePath, writeError)
	}
	return nil
}

func coerceConfigValue(value string) any {
	lowered := strings.ToLower(value)
	if lowered == "true" {
		return true
	}
	if lowered == "false" {
		return false
	}
	if numeric, parseError := strconv.Atoi(value); parseError == nil {
		return numeric
	}
	return value
}
