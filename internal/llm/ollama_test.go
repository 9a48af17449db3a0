package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeDoer struct {
	status  int
	body    string
	err     error
	lastReq *http.Request
	lastRaw []byte
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.lastReq = req
	if req.Body != nil {
		f.lastRaw, _ = io.ReadAll(req.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
	}, nil
}

func newTestOllama(t *testing.T, doer httpDoer) *OllamaBackend {
	t.Helper()
	b, err := NewOllamaBackend(OllamaConfig{
		BaseURL:       "http://localhost:11434",
		Model:         "llama3.2:1b",
		ContextWindow: 1024,
	})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	b.httpClient = doer
	return b
}

func TestOllamaComplete(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"response":"The claim fails on basic physics.","done":true}`}
	b := newTestOllama(t, doer)

	got, err := b.Complete(context.Background(), Request{
		System:      "system text",
		History:     []Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
		User:        "make your case",
		Temperature: 0.45,
		TopP:        0.95,
		MaxTokens:   300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The claim fails on basic physics." {
		t.Fatalf("unexpected reply: %s", got)
	}
	if doer.lastReq.URL.Path != "/api/generate" {
		t.Fatalf("unexpected path: %s", doer.lastReq.URL.Path)
	}

	var sent ollamaGenerateRequest
	if err := json.Unmarshal(doer.lastRaw, &sent); err != nil {
		t.Fatalf("decode sent payload: %v", err)
	}
	if sent.Model != "llama3.2:1b" || sent.Stream {
		t.Fatalf("unexpected payload: %#v", sent)
	}
	if sent.Options.NumPredict != 300 || sent.Options.NumCtx != 1024 {
		t.Fatalf("unexpected options: %#v", sent.Options)
	}
	if !strings.Contains(sent.Prompt, "User: hi") || !strings.Contains(sent.Prompt, "Assistant: hello") {
		t.Fatalf("history not flattened into prompt: %q", sent.Prompt)
	}
	if !strings.HasSuffix(sent.Prompt, "Assistant:") {
		t.Fatalf("prompt must end with assistant cue: %q", sent.Prompt)
	}
}

func TestOllamaCompleteZeroTemperatureSerialized(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"response":"ok","done":true}`}
	b := newTestOllama(t, doer)

	if _, err := b.Complete(context.Background(), Request{User: "q", Temperature: 0, TopP: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(doer.lastRaw, []byte(`"temperature":0`)) {
		t.Fatalf("zero temperature must be sent explicitly: %s", doer.lastRaw)
	}
}

func TestOllamaCompleteErrorStatus(t *testing.T) {
	b := newTestOllama(t, &fakeDoer{status: http.StatusInternalServerError, body: "model not loaded"})
	_, err := b.Complete(context.Background(), Request{User: "q"})
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOllamaCompleteErrorField(t *testing.T) {
	b := newTestOllama(t, &fakeDoer{status: http.StatusOK, body: `{"error":"model missing"}`})
	_, err := b.Complete(context.Background(), Request{User: "q"})
	if err == nil || !strings.Contains(err.Error(), "model missing") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOllamaAlive(t *testing.T) {
	b := newTestOllama(t, &fakeDoer{status: http.StatusOK, body: `{"models":[]}`})
	if !b.Alive(context.Background()) {
		t.Fatal("expected alive")
	}

	b = newTestOllama(t, &fakeDoer{err: io.ErrUnexpectedEOF})
	if b.Alive(context.Background()) {
		t.Fatal("expected dead on transport error")
	}

	b = newTestOllama(t, &fakeDoer{status: http.StatusNotFound, body: ""})
	if b.Alive(context.Background()) {
		t.Fatal("expected dead on non-2xx")
	}
}

func TestNewOllamaBackendValidation(t *testing.T) {
	if _, err := NewOllamaBackend(OllamaConfig{Model: "m"}); err == nil {
		t.Fatal("expected base url error")
	}
	if _, err := NewOllamaBackend(OllamaConfig{BaseURL: "http://x"}); err == nil {
		t.Fatal("expected model error")
	}
	b, err := NewOllamaBackend(OllamaConfig{BaseURL: "http://x/", Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.baseURL != "http://x" {
		t.Fatalf("trailing slash not trimmed: %s", b.baseURL)
	}
}
