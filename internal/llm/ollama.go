package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	generatePath         = "/api/generate"
	defaultOllamaTimeout = 300 * time.Second
	maxErrorBodyBytes    = 4096
)

var safeModelName = regexp.MustCompile(`^[a-zA-Z0-9:._-]+$`)

// OllamaClient calls Ollama's native /api/generate endpoint.
type OllamaClient struct {
	endpoint string
	model    string
	timeout  time.Duration
	http     *http.Client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient builds a client for the Ollama server at baseURL.
// A baseURL that already ends in /api/generate is used as-is.
func NewOllamaClient(baseURL, model string, timeout time.Duration) (*OllamaClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("ollama url required")
	}
	if !safeModelName.MatchString(model) {
		return nil, fmt.Errorf("invalid model name: %q", model)
	}
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}
	endpoint := baseURL
	if !strings.HasSuffix(endpoint, generatePath) {
		endpoint += generatePath
	}
	return &OllamaClient{
		endpoint: endpoint,
		model:    model,
		timeout:  timeout,
		http:     &http.Client{},
	}, nil
}

// Endpoint returns the resolved generate URL.
func (c *OllamaClient) Endpoint() string {
	return c.endpoint
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if c == nil || c.http == nil {
		return "", fmt.Errorf("nil ollama client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", timeoutError(reqCtx, fmt.Errorf("call ollama: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if readErr != nil {
			return "", timeoutError(reqCtx, fmt.Errorf("read ollama error body: %w", readErr))
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", timeoutError(reqCtx, fmt.Errorf("decode ollama response: %w", err))
	}
	return out.Response, nil
}

// errorMessage prefers Ollama's {"error": "..."} field and falls back to the raw body.
func errorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
