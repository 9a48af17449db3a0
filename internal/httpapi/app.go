// Package httpapi exposes the debate engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"debatebot/internal/conversation"
	"debatebot/internal/debate"
	"debatebot/internal/profile"
	"debatebot/internal/store"
)

const (
	defaultAddr       = ":8080"
	maxRequestBytes   = 1 * 1024 * 1024
	serverStopTimeout = 5 * time.Second
	healthTimeout     = 2 * time.Second
)

// Engine is the slice of the debate engine the handlers need.
type Engine interface {
	Ask(ctx context.Context, conversationID, message string) (debate.TurnResult, error)
	CreateWithProfile(ctx context.Context, profileID string) (string, error)
	Meta(ctx context.Context, conversationID string) (debate.MetaInfo, error)
	History(ctx context.Context, conversationID string, limit int) ([]conversation.Message, error)
}

type Config struct {
	Engine   Engine
	Store    store.Store
	Profiles *profile.Catalog

	// Reachability reports which generation backends answer probes; used
	// by the health endpoint.
	Reachability func(ctx context.Context) map[string]bool

	Logger *slog.Logger
}

type App struct {
	engine       Engine
	store        store.Store
	profiles     *profile.Catalog
	reachability func(ctx context.Context) map[string]bool
	log          *slog.Logger
}

type askRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type askResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
	LatencyMS      int64                  `json:"latency_ms"`
	Stance         string                 `json:"stance"`
}

type createProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

type createProfileResponse struct {
	ConversationID string `json:"conversation_id"`
	ProfileID      string `json:"profile_id"`
}

type metaResponse struct {
	ConversationID string `json:"conversation_id"`
	ProfileID      string `json:"profile_id"`
	ProfileName    string `json:"profile_name"`
	Topic          string `json:"topic"`
	Side           string `json:"side"`
}

type historyResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
}

type profileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type profilesResponse struct {
	Profiles []profileInfo `json:"profiles"`
}

type healthResponse struct {
	Status   string          `json:"status"`
	Redis    bool            `json:"redis"`
	Backends map[string]bool `json:"backends"`
}

func NewApp(cfg Config) *App {
	if cfg.Profiles == nil {
		cfg.Profiles = profile.Builtin()
	}
	if cfg.Reachability == nil {
		cfg.Reachability = func(context.Context) map[string]bool { return nil }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &App{
		engine:       cfg.Engine,
		store:        cfg.Store,
		profiles:     cfg.Profiles,
		reachability: cfg.Reachability,
		log:          cfg.Logger,
	}
}

func (a *App) Start(ctx context.Context, addr string) error {
	if a.engine == nil {
		return errors.New("engine is required")
	}
	if strings.TrimSpace(addr) == "" {
		addr = defaultAddr
	}

	server := &http.Server{
		Addr:    addr,
		Handler: a.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.log.Info("http server listening", "addr", addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /profiles", a.handleProfiles)
	mux.HandleFunc("POST /conversations/profile", a.handleCreateWithProfile)
	mux.HandleFunc("GET /conversations/{id}/meta", a.handleMeta)
	mux.HandleFunc("GET /conversations/{id}/history", a.handleHistory)
	mux.HandleFunc("POST /ask", a.handleAsk)
	return mux
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	storeOK := a.store != nil && a.store.Ping(ctx) == nil
	backends := a.reachability(ctx)

	anyBackend := false
	for _, ok := range backends {
		if ok {
			anyBackend = true
			break
		}
	}

	status := "ok"
	if !storeOK || !anyBackend {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   status,
		Redis:    storeOK,
		Backends: backends,
	})
}

func (a *App) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	list := a.profiles.List()
	out := make([]profileInfo, 0, len(list))
	for _, p := range list {
		out = append(out, profileInfo{ID: p.ID, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, profilesResponse{Profiles: out})
}

func (a *App) handleCreateWithProfile(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer body.Close()

	var req createProfileRequest
	if err := decodeStrictJSON(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.ProfileID) == "" {
		writeError(w, http.StatusBadRequest, "profile_id is required")
		return
	}

	id, err := a.engine.CreateWithProfile(r.Context(), req.ProfileID)
	if err != nil {
		if errors.Is(err, profile.ErrUnknownProfile) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Error("create conversation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create conversation failed")
		return
	}
	writeJSON(w, http.StatusOK, createProfileResponse{
		ConversationID: id,
		ProfileID:      req.ProfileID,
	})
}

func (a *App) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := a.engine.Meta(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metaResponse{
		ConversationID: meta.ConversationID,
		ProfileID:      meta.ProfileID,
		ProfileName:    meta.ProfileName,
		Topic:          meta.Topic,
		Side:           meta.Side,
	})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	id := r.PathValue("id")
	messages, err := a.engine.History(r.Context(), id, limit)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	if messages == nil {
		messages = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, historyResponse{
		ConversationID: conversation.NormalizeID(id),
		Messages:       messages,
	})
}

func (a *App) handleAsk(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer body.Close()

	var req askRequest
	if err := decodeStrictJSON(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := a.engine.Ask(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		ConversationID: result.ConversationID,
		Messages:       result.Messages,
		LatencyMS:      result.LatencyMS,
		Stance:         result.Stance,
	})
}

func (a *App) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, debate.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "turn budget exhausted")
	default:
		a.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
