package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompatBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:11434", "http://localhost:11434/v1/"},
		{"http://localhost:11434/", "http://localhost:11434/v1/"},
		{"http://localhost:11434/api/generate", "http://localhost:11434/v1/"},
		{"http://localhost:11434/v1", "http://localhost:11434/v1/"},
	}
	for _, tt := range tests {
		if got := compatBaseURL(tt.in); got != tt.want {
			t.Errorf("compatBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewOpenAIClientValidation(t *testing.T) {
	if _, err := NewOpenAIClient("http://localhost:11434", "", "gemma2:9b", time.Second); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := NewOpenAIClient("http://localhost:11434", "key", "", time.Second); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gemma2:9b",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "# Notes"}}]
		}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(srv.URL, "ollama", "gemma2:9b", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	text, err := c.Generate(context.Background(), "prompt text", Options{MaxTokens: 64, Temperature: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "# Notes" {
		t.Errorf("unexpected text %q", text)
	}
	if body["model"] != "gemma2:9b" {
		t.Errorf("unexpected model %v", body["model"])
	}
	if body["max_tokens"] != float64(64) || body["temperature"] != 0.5 {
		t.Errorf("unexpected generation options: max_tokens=%v temperature=%v", body["max_tokens"], body["temperature"])
	}
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gemma2:9b","choices":[]}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient(srv.URL, "ollama", "gemma2:9b", time.Second)
	text, err := c.Generate(context.Background(), "p", Options{MaxTokens: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestOpenAIGenerateStatusError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"model is loading","type":"api_error"}}`))
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient(srv.URL, "ollama", "gemma2:9b", time.Second)
	_, err := c.Generate(context.Background(), "p", Options{MaxTokens: 1})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", se.StatusCode)
	}
	if !strings.Contains(err.Error(), "model is loading") {
		t.Errorf("expected backend detail in %q", err.Error())
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected a single attempt, got %d", n)
	}
}

func TestOpenAIGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := NewOpenAIClient(srv.URL, "ollama", "gemma2:9b", 50*time.Millisecond)
	_, err := c.Generate(context.Background(), "p", Options{MaxTokens: 1})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
