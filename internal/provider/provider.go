// Package provider exposes interchangeable LLM backends behind one interface.
package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/flow/internal/config"
)

// Request carries one generation request. Context, when present, is prepended
// to the prompt inside a delimited block.
type Request struct {
	Prompt    string
	System    string
	Context   string
	MaxTokens int
}

// Result carries the generated text plus backend metadata.
type Result struct {
	Content string
	Model   string
	Usage   map[string]int
}

// Provider is one LLM backend. Implementations must be safe to construct
// cheaply; expensive work happens inside Generate.
type Provider interface {
	// Generate produces a completion for the request.
	Generate(requestContext context.Context, request Request) (Result, error)
	// IsAvailable reports whether the backend is reachable with the current
	// configuration, without performing a generation.
	IsAvailable() bool
	// Name identifies the backend for logging and status output.
	Name() string
}

// CredentialSource supplies a bearer token when the user is authenticated via
// the OAuth flow. An unauthenticated source returns ("", false).
type CredentialSource interface {
	ValidAccessToken(requestContext context.Context) (string, bool)
}

// NewProvider constructs the backend selected by the configuration.
func NewProvider(configuration config.ApplicationConfiguration, credentialSource CredentialSource, logger *zap.Logger) (Provider, error) {
	switch configuration.Default.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicProvider(AnthropicOptions{
			APIKey:           configuration.Anthropic.APIKey,
			Model:            configuration.Default.Model,
			CredentialSource: credentialSource,
			Logger:           logger,
		}), nil
	case config.ProviderOllama:
		return NewOllamaProvider(OllamaOptions{
			BaseURL: configuration.Ollama.Host,
			Model:   configuration.Ollama.Model,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: valid providers are %q and %q", configuration.Default.Provider, config.ProviderAnthropic, config.ProviderOllama)
	}
}

// composePrompt prepends the collected context to the prompt when present.
func composePrompt(request Request) string {
	if request.Context == "" {
		return request.Prompt
	}
	return fmt.Sprintf("<context>\n%s\n</context>\n\n%s", request.Context, request.Prompt)
}
