package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerate(t *testing.T) {
	var receivedPayload map[string]any
	daemonServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != ollamaGeneratePath {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		receivedPayload = decodeRequestPayload(t, request)
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{
			"response":          "generated text",
			"prompt_eval_count": 21,
			"eval_count":        9,
		})
	}))
	defer daemonServer.Close()

	backend := NewOllamaProvider(OllamaOptions{BaseURL: daemonServer.URL, Model: "codellama"})
	result, generateError := backend.Generate(context.Background(), Request{Prompt: "write a loop", MaxTokens: 256})
	if generateError != nil {
		t.Fatalf("Generate: %v", generateError)
	}

	if result.Content != "generated text" {
		t.Fatalf("expected daemon response text, got %q", result.Content)
	}
	if result.Model != "codellama" {
		t.Fatalf("expected configured model name, got %q", result.Model)
	}
	if result.Usage["input_tokens"] != 21 || result.Usage["output_tokens"] != 9 {
		t.Fatalf("unexpected usage %v", result.Usage)
	}

	if receivedPayload["stream"] != false {
		t.Fatalf("expected non-streaming request, got %v", receivedPayload["stream"])
	}
	generationOptions := receivedPayload["options"].(map[string]any)
	if generationOptions["num_predict"].(float64) != 256 {
		t.Fatalf("expected num_predict from MaxTokens, got %v", generationOptions["num_predict"])
	}
}

func TestOllamaIsAvailable(t *testing.T) {
	daemonServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != ollamaTagsPath {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		responseWriter.WriteHeader(http.StatusOK)
	}))
	defer daemonServer.Close()

	reachableBackend := NewOllamaProvider(OllamaOptions{BaseURL: daemonServer.URL})
	if !reachableBackend.IsAvailable() {
		t.Fatalf("expected reachable daemon to be available")
	}

	daemonServer.Close()
	if reachableBackend.IsAvailable() {
		t.Fatalf("expected closed daemon to be unavailable")
	}
}

func TestOllamaGenerateErrorStatus(t *testing.T) {
	daemonServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		http.Error(responseWriter, `{"error": "model not found"}`, http.StatusNotFound)
	}))
	defer daemonServer.Close()

	backend := NewOllamaProvider(OllamaOptions{BaseURL: daemonServer.URL})
	if _, generateError := backend.Generate(context.Background(), Request{Prompt: "hi"}); generateError == nil {
		t.Fatalf("expected error for non-200 status")
	}
}
