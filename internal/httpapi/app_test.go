package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"debatebot/internal/debate"
	"debatebot/internal/llm"
	"debatebot/internal/store"
)

type scriptedCompleter struct{}

func (scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.System, "information extractor") {
		return `{"topic":"The Earth is flat","user_side":"affirmative"}`, nil
	}
	return "The horizon rises to eye level no matter how high the observer climbs, and that single observation breaks the globe model on its own terms.", nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := debate.NewEngine(debate.EngineConfig{
		Store:  store.NewMemoryStore(),
		Client: scriptedCompleter{},
		Logger: logger,
	})
	require.NoError(t, err)
	return NewApp(Config{
		Engine: eng,
		Store:  store.NewMemoryStore(),
		Logger: logger,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthDegradedWithoutBackends(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status string `json:"status"`
		Redis  bool   `json:"redis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "degraded", health.Status)
	require.True(t, health.Redis)
}

func TestHealthOKWithReachableBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := debate.NewEngine(debate.EngineConfig{
		Store:  store.NewMemoryStore(),
		Client: scriptedCompleter{},
		Logger: logger,
	})
	require.NoError(t, err)
	app := NewApp(Config{
		Engine: eng,
		Store:  store.NewMemoryStore(),
		Reachability: func(context.Context) map[string]bool {
			return map[string]bool{"ollama": true, "openai": false}
		},
		Logger: logger,
	})

	rec := doJSON(t, app.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status   string          `json:"status"`
		Backends map[string]bool `json:"backends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.True(t, health.Backends["ollama"])
}

func TestProfilesEndpoint(t *testing.T) {
	rec := doJSON(t, newTestApp(t).Handler(), http.MethodGet, "/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp profilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Profiles, 3)
	require.Equal(t, "smart_shy", resp.Profiles[0].ID)
	require.Equal(t, "Athena", resp.Profiles[0].Name)
}

func TestCreateWithProfile(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/conversations/profile", map[string]string{"profile_id": "conspiracy_edge"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.ConversationID, 32)
	require.Equal(t, "conspiracy_edge", resp.ProfileID)

	meta := doJSON(t, handler, http.MethodGet, "/conversations/"+resp.ConversationID+"/meta", nil)
	require.Equal(t, http.StatusOK, meta.Code)
	var metaBody metaResponse
	require.NoError(t, json.Unmarshal(meta.Body.Bytes(), &metaBody))
	require.Equal(t, "Raven", metaBody.ProfileName)
	require.Equal(t, "The Earth is flat", metaBody.Topic)
	require.Equal(t, "Affirmative (support): The Earth is flat", metaBody.Side)
}

func TestCreateWithUnknownProfile(t *testing.T) {
	rec := doJSON(t, newTestApp(t).Handler(), http.MethodPost, "/conversations/profile", map[string]string{"profile_id": "nonexistent"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown profile")
}

func TestAskRoundTrip(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/ask", map[string]string{"message": "the earth is flat"})
	require.Equal(t, http.StatusOK, rec.Code)

	var first askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.Len(t, first.ConversationID, 32)
	require.Equal(t, "negative", first.Stance)
	require.Len(t, first.Messages, 2)
	require.Equal(t, "user", first.Messages[0].Role)
	require.Equal(t, "assistant", first.Messages[1].Role)

	rec = doJSON(t, handler, http.MethodPost, "/ask", map[string]string{
		"conversation_id": first.ConversationID,
		"message":         "explain the horizon then",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var second askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, second.Messages, 4)

	history := doJSON(t, handler, http.MethodGet, "/conversations/"+first.ConversationID+"/history?limit=3", nil)
	require.Equal(t, http.StatusOK, history.Code)
	var historyBody historyResponse
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &historyBody))
	require.Len(t, historyBody.Messages, 3)
}

func TestAskValidation(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/ask", map[string]string{"message": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/ask", map[string]string{"message": "hi", "unknown_field": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/ask", map[string]string{
		"conversation_id": "deadbeefdeadbeefdeadbeefdeadbeef",
		"message":         "hello",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetaAndHistoryNotFound(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/conversations/deadbeefdeadbeefdeadbeefdeadbeef/meta", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/conversations/deadbeefdeadbeefdeadbeefdeadbeef/history", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryBadLimit(t *testing.T) {
	rec := doJSON(t, newTestApp(t).Handler(), http.MethodGet, "/conversations/abc/history?limit=nope", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
