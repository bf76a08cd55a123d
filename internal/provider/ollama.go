package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ollamaProviderName    = "ollama"
	ollamaDefaultBaseURL  = "http://localhost:11434"
	ollamaDefaultModel    = "codellama"
	ollamaTagsPath        = "/api/tags"
	ollamaGeneratePath    = "/api/generate"
	ollamaProbeTimeout    = 5 * time.Second
	ollamaGenerateTimeout = 120 * time.Second
)

// OllamaOptions configures the local daemon backend. Zero fields fall back to defaults.
type OllamaOptions struct {
	BaseURL    string
	Model      string
	HTTPClient httpClient
	Logger     *zap.Logger
}

// OllamaProvider calls a local Ollama daemon over its HTTP API.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient httpClient
	logger     *zap.Logger
}

// NewOllamaProvider creates the local backend from the provided options.
func NewOllamaProvider(options OllamaOptions) *OllamaProvider {
	if options.BaseURL == "" {
		options.BaseURL = ollamaDefaultBaseURL
	}
	if options.Model == "" {
		options.Model = ollamaDefaultModel
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: ollamaGenerateTimeout}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &OllamaProvider{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		model:      options.Model,
		httpClient: options.HTTPClient,
		logger:     options.Logger,
	}
}

// Name identifies the backend.
func (provider *OllamaProvider) Name() string {
	return ollamaProviderName
}

// IsAvailable probes the daemon's tags endpoint with a short timeout.
func (provider *OllamaProvider) IsAvailable() bool {
	probeContext, cancel := context.WithTimeout(context.Background(), ollamaProbeTimeout)
	defer cancel()

	httpRequest, requestError := http.NewRequestWithContext(probeContext, http.MethodGet, provider.baseURL+ollamaTagsPath, nil)
	if requestError != nil {
		return false
	}
	httpResponse, doError := provider.httpClient.Do(httpRequest)
	if doError != nil {
		return false
	}
	defer func() {
		if closeError := httpResponse.Body.Close(); closeError != nil {
			provider.logger.Warn("close tags response body", zap.Error(closeError))
		}
	}()
	return httpResponse.StatusCode == http.StatusOK
}

// Generate sends one non-streaming generation request to the daemon.
func (provider *OllamaProvider) Generate(requestContext context.Context, request Request) (Result, error) {
	requestPayload := map[string]any{
		"model":  provider.model,
		"prompt": composePrompt(request),
		"stream": false,
	}
	if request.System != "" {
		requestPayload["system"] = request.System
	}
	if request.MaxTokens > 0 {
		requestPayload["options"] = map[string]any{"num_predict": request.MaxTokens}
	}

	encodedPayload, encodeError := json.Marshal(requestPayload)
	if encodeError != nil {
		return Result{}, fmt.Errorf("encode generate request: %w", encodeError)
	}

	httpRequest, requestError := http.NewRequestWithContext(requestContext, http.MethodPost, provider.baseURL+ollamaGeneratePath, bytes.NewReader(encodedPayload))
	if requestError != nil {
		return Result{}, fmt.Errorf("build generate request: %w", requestError)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, doError := provider.httpClient.Do(httpRequest)
	if doError != nil {
		return Result{}, fmt.Errorf("send generate request: %w", doError)
	}
	defer func() {
		if closeError := httpResponse.Body.Close(); closeError != nil {
			provider.logger.Warn("close generate response body", zap.Error(closeError))
		}
	}()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return Result{}, fmt.Errorf("read generate response: %w", readError)
	}
	if httpResponse.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("generate endpoint returned status %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var decodedResponse struct {
		Response        string `json:"response"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if decodeError := json.Unmarshal(responseBody, &decodedResponse); decodeError != nil {
		return Result{}, fmt.Errorf("decode generate response: %w", decodeError)
	}

	return Result{
		Content: decodedResponse.Response,
		Model:   provider.model,
		Usage: map[string]int{
			"input_tokens":  decodedResponse.PromptEvalCount,
			"output_tokens": decodedResponse.EvalCount,
		},
	}, nil
}
