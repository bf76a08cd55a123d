package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticCredentialSource struct {
	accessToken   string
	authenticated bool
}

func (source staticCredentialSource) ValidAccessToken(context.Context) (string, bool) {
	return source.accessToken, source.authenticated
}

func decodeRequestPayload(t *testing.T, request *http.Request) map[string]any {
	t.Helper()
	requestBody, readError := io.ReadAll(request.Body)
	if readError != nil {
		t.Fatalf("read request body: %v", readError)
	}
	var payload map[string]any
	if decodeError := json.Unmarshal(requestBody, &payload); decodeError != nil {
		t.Fatalf("decode request body: %v", decodeError)
	}
	return payload
}

func TestAnthropicGenerate(t *testing.T) {
	var receivedHeaders http.Header
	var receivedPayload map[string]any
	messagesServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != anthropicMessagesPath {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		receivedHeaders = request.Header.Clone()
		receivedPayload = decodeRequestPayload(t, request)
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]string{
				{"type": "text", "text": "first "},
				{"type": "text", "text": "second"},
			},
			"usage": map[string]int{"input_tokens": 12, "output_tokens": 7},
		})
	}))
	defer messagesServer.Close()

	backend := NewAnthropicProvider(AnthropicOptions{
		BaseURL: messagesServer.URL,
		APIKey:  "configured-key",
	})

	result, generateError := backend.Generate(context.Background(), Request{
		Prompt:  "explain the build",
		System:  "you are terse",
		Context: "# go.mod\n```text\nmodule demo\n```",
	})
	if generateError != nil {
		t.Fatalf("Generate: %v", generateError)
	}

	if result.Content != "first second" {
		t.Fatalf("expected concatenated text blocks, got %q", result.Content)
	}
	if result.Usage["input_tokens"] != 12 || result.Usage["output_tokens"] != 7 {
		t.Fatalf("unexpected usage %v", result.Usage)
	}
	if receivedHeaders.Get("anthropic-version") != anthropicAPIVersion {
		t.Fatalf("expected version header, got %q", receivedHeaders.Get("anthropic-version"))
	}
	if receivedHeaders.Get("x-api-key") != "configured-key" {
		t.Fatalf("expected API key header, got %q", receivedHeaders.Get("x-api-key"))
	}

	messages := receivedPayload["messages"].([]any)
	firstMessage := messages[0].(map[string]any)
	messageContent := firstMessage["content"].(string)
	if !strings.HasPrefix(messageContent, "<context>\n# go.mod") {
		t.Fatalf("expected context block prepended to prompt, got %q", messageContent)
	}
	if !strings.HasSuffix(messageContent, "</context>\n\nexplain the build") {
		t.Fatalf("expected prompt after context block, got %q", messageContent)
	}
	if receivedPayload["system"] != "you are terse" {
		t.Fatalf("expected system prompt in payload, got %v", receivedPayload["system"])
	}
	if receivedPayload["max_tokens"].(float64) != anthropicDefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %v", receivedPayload["max_tokens"])
	}
}

func TestAnthropicPrefersOAuthTokenOverAPIKey(t *testing.T) {
	var receivedHeaders http.Header
	messagesServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		receivedHeaders = request.Header.Clone()
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "ok"}},
		})
	}))
	defer messagesServer.Close()

	backend := NewAnthropicProvider(AnthropicOptions{
		BaseURL:          messagesServer.URL,
		APIKey:           "configured-key",
		CredentialSource: staticCredentialSource{accessToken: "oauth-token", authenticated: true},
	})

	if _, generateError := backend.Generate(context.Background(), Request{Prompt: "hi"}); generateError != nil {
		t.Fatalf("Generate: %v", generateError)
	}

	if receivedHeaders.Get("Authorization") != "Bearer oauth-token" {
		t.Fatalf("expected bearer token, got %q", receivedHeaders.Get("Authorization"))
	}
	if receivedHeaders.Get("x-api-key") != "" {
		t.Fatalf("API key must not be sent alongside a bearer token, got %q", receivedHeaders.Get("x-api-key"))
	}
}

func TestAnthropicGenerateRejectsMissingCredentials(t *testing.T) {
	requestDispatched := false
	messagesServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestDispatched = true
		http.Error(responseWriter, `{"error": {"type": "authentication_error"}}`, http.StatusUnauthorized)
	}))
	defer messagesServer.Close()

	backend := NewAnthropicProvider(AnthropicOptions{
		BaseURL:          messagesServer.URL,
		CredentialSource: staticCredentialSource{},
	})

	_, generateError := backend.Generate(context.Background(), Request{Prompt: "hi"})
	if generateError == nil {
		t.Fatalf("expected configuration error when no credential resolves")
	}
	if !strings.Contains(generateError.Error(), "flow auth login") {
		t.Fatalf("expected remediation steps in error, got %v", generateError)
	}
	if requestDispatched {
		t.Fatalf("unauthenticated request must not reach the endpoint")
	}
}

func TestAnthropicGenerateErrorStatus(t *testing.T) {
	messagesServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		http.Error(responseWriter, `{"error": {"type": "overloaded_error"}}`, http.StatusTooManyRequests)
	}))
	defer messagesServer.Close()

	backend := NewAnthropicProvider(AnthropicOptions{BaseURL: messagesServer.URL, APIKey: "key"})
	if _, generateError := backend.Generate(context.Background(), Request{Prompt: "hi"}); generateError == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestAnthropicIsAvailable(t *testing.T) {
	testCases := []struct {
		name      string
		options   AnthropicOptions
		available bool
	}{
		{name: "api key configured", options: AnthropicOptions{APIKey: "key"}, available: true},
		{name: "oauth token present", options: AnthropicOptions{CredentialSource: staticCredentialSource{accessToken: "t", authenticated: true}}, available: true},
		{name: "no credentials", options: AnthropicOptions{CredentialSource: staticCredentialSource{}}, available: false},
		{name: "no credential source", options: AnthropicOptions{}, available: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			backend := NewAnthropicProvider(testCase.options)
			if backend.IsAvailable() != testCase.available {
				t.Fatalf("expected available=%v", testCase.available)
			}
		})
	}
}
