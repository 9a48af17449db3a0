package llm

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
)

const (
	ollamaBackendName    = "ollama"
	ollamaProbeTimeout   = 800 * time.Millisecond
	maxResponseBodyBytes = 8 * 1024 * 1024
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type OllamaConfig struct {
	BaseURL       string
	Model         string
	ContextWindow int
	KeepAlive     string
}

// OllamaBackend talks to a self-hosted Ollama completion endpoint.
type OllamaBackend struct {
	baseURL       string
	model         string
	contextWindow int
	keepAlive     string
	httpClient    httpDoer
}

func NewOllamaBackend(cfg OllamaConfig) (*OllamaBackend, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("ollama base url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ollama model is required")
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = "10m"
	}
	return &OllamaBackend{
		baseURL:       base,
		model:         strings.TrimSpace(cfg.Model),
		contextWindow: cfg.ContextWindow,
		keepAlive:     cfg.KeepAlive,
		httpClient:    &http.Client{},
	}, nil
}

func (b *OllamaBackend) Name() string { return ollamaBackendName }

// Alive probes the tags endpoint with a short deadline so a dead host
// does not stall the turn.
func (b *OllamaBackend) Alive(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, ollamaProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type ollamaGenerateRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Prompt    string        `json:"prompt"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (b *OllamaBackend) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:     b.model,
		System:    req.System,
		Prompt:    flattenPrompt(req.History, req.User),
		Stream:    false,
		KeepAlive: b.keepAlive,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
			NumCtx:      b.contextWindow,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if len(body) > maxResponseBodyBytes {
		return "", fmt.Errorf("ollama response exceeds limit (%d bytes)", maxResponseBodyBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded ollamaGenerateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if strings.TrimSpace(decoded.Error) != "" {
		return "", fmt.Errorf("ollama error: %s", decoded.Error)
	}
	return decoded.Response, nil
}

// flattenPrompt folds the bounded history into a single completion
// prompt, most recent turns last.
func flattenPrompt(history []Message, user string) string {
	var sb strings.Builder
	for _, m := range history {
		label := "User"
		if m.Role == "assistant" {
			label = "Assistant"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(m.Content))
		sb.WriteString("\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(strings.TrimSpace(user))
	sb.WriteString("\nAssistant:")
	return sb.String()
}
