package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	anthropicProviderName     = "anthropic"
	anthropicDefaultBaseURL   = "https://api.anthropic.com"
	anthropicMessagesPath     = "/v1/messages"
	anthropicAPIVersion       = "2023-06-01"
	anthropicDefaultModel     = "claude-sonnet-4-20250514"
	anthropicDefaultMaxTokens = 4096
	anthropicRequestTimeout   = 120 * time.Second

	anthropicMissingCredentialMessage = "anthropic credentials not configured: run 'flow auth login', set the ANTHROPIC_API_KEY environment variable, or run 'flow config set anthropic.api_key YOUR_KEY'"
)

// httpClient abstracts the HTTP transport so tests can inject a fake.
type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// AnthropicOptions configures the cloud backend. Zero fields fall back to defaults.
type AnthropicOptions struct {
	BaseURL          string
	APIKey           string
	Model            string
	CredentialSource CredentialSource
	HTTPClient       httpClient
	Logger           *zap.Logger
}

// AnthropicProvider calls the Anthropic Messages API. An OAuth access token
// from the credential source takes precedence over the configured API key.
type AnthropicProvider struct {
	baseURL          string
	apiKey           string
	model            string
	credentialSource CredentialSource
	httpClient       httpClient
	logger           *zap.Logger
}

// NewAnthropicProvider creates the cloud backend from the provided options.
func NewAnthropicProvider(options AnthropicOptions) *AnthropicProvider {
	if options.BaseURL == "" {
		options.BaseURL = anthropicDefaultBaseURL
	}
	if options.Model == "" {
		options.Model = anthropicDefaultModel
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: anthropicRequestTimeout}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &AnthropicProvider{
		baseURL:          strings.TrimRight(options.BaseURL, "/"),
		apiKey:           options.APIKey,
		model:            options.Model,
		credentialSource: options.CredentialSource,
		httpClient:       options.HTTPClient,
		logger:           options.Logger,
	}
}

// Name identifies the backend.
func (provider *AnthropicProvider) Name() string {
	return anthropicProviderName
}

// IsAvailable reports whether any credential is configured. No network call is made.
func (provider *AnthropicProvider) IsAvailable() bool {
	if provider.apiKey != "" {
		return true
	}
	if provider.credentialSource == nil {
		return false
	}
	_, authenticated := provider.credentialSource.ValidAccessToken(context.Background())
	return authenticated
}

// Generate sends one Messages API request and returns the concatenated text blocks.
// A missing credential is rejected before any request is built.
func (provider *AnthropicProvider) Generate(requestContext context.Context, request Request) (Result, error) {
	credentialHeader, credentialValue, credentialError := provider.resolveCredentials(requestContext)
	if credentialError != nil {
		return Result{}, credentialError
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	requestPayload := map[string]any{
		"model":      provider.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": composePrompt(request)},
		},
	}
	if request.System != "" {
		requestPayload["system"] = request.System
	}

	encodedPayload, encodeError := json.Marshal(requestPayload)
	if encodeError != nil {
		return Result{}, fmt.Errorf("encode messages request: %w", encodeError)
	}

	httpRequest, requestError := http.NewRequestWithContext(requestContext, http.MethodPost, provider.baseURL+anthropicMessagesPath, bytes.NewReader(encodedPayload))
	if requestError != nil {
		return Result{}, fmt.Errorf("build messages request: %w", requestError)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("anthropic-version", anthropicAPIVersion)
	httpRequest.Header.Set(credentialHeader, credentialValue)

	httpResponse, doError := provider.httpClient.Do(httpRequest)
	if doError != nil {
		return Result{}, fmt.Errorf("send messages request: %w", doError)
	}
	defer func() {
		if closeError := httpResponse.Body.Close(); closeError != nil {
			provider.logger.Warn("close messages response body", zap.Error(closeError))
		}
	}()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return Result{}, fmt.Errorf("read messages response: %w", readError)
	}
	if httpResponse.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("messages endpoint returned status %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var decodedResponse struct {
		Model   string `json:"model"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if decodeError := json.Unmarshal(responseBody, &decodedResponse); decodeError != nil {
		return Result{}, fmt.Errorf("decode messages response: %w", decodeError)
	}

	var textParts []string
	for _, contentBlock := range decodedResponse.Content {
		if contentBlock.Type == "text" {
			textParts = append(textParts, contentBlock.Text)
		}
	}

	resultModel := decodedResponse.Model
	if resultModel == "" {
		resultModel = provider.model
	}

	return Result{
		Content: strings.Join(textParts, ""),
		Model:   resultModel,
		Usage: map[string]int{
			"input_tokens":  decodedResponse.Usage.InputTokens,
			"output_tokens": decodedResponse.Usage.OutputTokens,
		},
	}, nil
}

// resolveCredentials prefers a valid OAuth access token over the configured API
// key. When neither resolves, the returned error names the remediation steps.
func (provider *AnthropicProvider) resolveCredentials(requestContext context.Context) (string, string, error) {
	if provider.credentialSource != nil {
		if accessToken, authenticated := provider.credentialSource.ValidAccessToken(requestContext); authenticated {
			return "Authorization", "Bearer " + accessToken, nil
		}
	}
	if provider.apiKey != "" {
		return "x-api-key", provider.apiKey, nil
	}
	return "", "", errors.New(anthropicMissingCredentialMessage)
}
