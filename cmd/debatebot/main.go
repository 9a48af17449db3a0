package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"debatebot/internal/config"
	"debatebot/internal/debate"
	"debatebot/internal/httpapi"
	"debatebot/internal/llm"
	"debatebot/internal/profile"
	"debatebot/internal/repl"
	"debatebot/internal/store"
	"debatebot/internal/tui"
)

type runtimeOptions struct {
	serve       bool
	profilePath string
	profileID   string
}

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	opts, err := parseRuntimeOptions(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "argument error:", err)
		os.Exit(1)
	}

	settings, err := config.FromEnv()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if opts.profilePath != "" {
		settings.ProfilePath = opts.profilePath
	}
	if opts.profileID != "" {
		settings.DefaultProfileID = opts.profileID
	}

	logger := newLogger(opts.serve)

	profiles, err := loadProfiles(settings.ProfilePath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "profile error:", err)
		os.Exit(1)
	}

	client, err := buildClient(settings, logger)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "backend error:", err)
		os.Exit(1)
	}

	blobs, err := buildStore(settings, opts.serve, logger)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "store error:", err)
		os.Exit(1)
	}
	defer func() { _ = blobs.Close() }()

	engine, err := buildEngine(settings, blobs, client, profiles, logger)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "engine error:", err)
		os.Exit(1)
	}

	if opts.serve {
		app := httpapi.NewApp(httpapi.Config{
			Engine:       engine,
			Store:        blobs,
			Profiles:     profiles,
			Reachability: client.Reachability,
			Logger:       logger,
		})
		if err := app.Start(context.Background(), settings.Addr); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "runtime error:", err)
			os.Exit(1)
		}
		return
	}

	if isTTY() {
		app := tui.NewApp(tui.Config{
			Engine:    engine,
			Profiles:  profiles,
			ProfileID: opts.profileID,
			OutputDir: settings.OutputDir,
			Now:       time.Now,
		})
		if err := app.Start(context.Background()); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "runtime error:", err)
			os.Exit(1)
		}
		return
	}

	// Fallback for non-interactive shells (pipes, CI).
	app := repl.NewApp(repl.Config{
		Engine:    engine,
		Profiles:  profiles,
		ProfileID: opts.profileID,
		OutputDir: settings.OutputDir,
		Writer:    os.Stdout,
		Now:       time.Now,
	})
	if err := app.Start(context.Background(), os.Stdin); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "runtime error:", err)
		os.Exit(1)
	}
}

// newLogger sends structured logs to stderr. Interactive modes keep the
// level at warn so log lines do not fight the UI for the terminal.
func newLogger(serve bool) *slog.Logger {
	level := slog.LevelWarn
	if serve {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func loadProfiles(path string) (*profile.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return profile.Builtin(), nil
	}
	return profile.LoadFromFile(path)
}

// buildClient assembles the generation backends in the configured
// preference order. A missing primary is only an error when the
// preference requires it.
func buildClient(settings config.Settings, logger *slog.Logger) (*llm.Client, error) {
	var primary llm.Backend
	if settings.OllamaBaseURL != "" {
		backend, err := llm.NewOllamaBackend(llm.OllamaConfig{
			BaseURL:       settings.OllamaBaseURL,
			Model:         settings.OllamaModel,
			ContextWindow: settings.ContextWindow,
		})
		if err != nil {
			return nil, err
		}
		primary = backend
	}

	var secondary llm.Backend
	if settings.OpenAIAPIKey != "" {
		backend, err := llm.NewOpenAIBackend(llm.OpenAIConfig{
			APIKey:  settings.OpenAIAPIKey,
			BaseURL: settings.OpenAIBaseURL,
			Model:   settings.OpenAIModel,
		})
		if err != nil {
			return nil, err
		}
		secondary = backend
	}

	var backends []llm.Backend
	switch settings.BackendPreference {
	case config.PrimaryOnly:
		if primary == nil {
			return nil, fmt.Errorf("backend preference %q requires OLLAMA_BASE_URL", settings.BackendPreference)
		}
		backends = []llm.Backend{primary}
	case config.SecondaryOnly:
		if secondary == nil {
			return nil, fmt.Errorf("backend preference %q requires OPENAI_API_KEY", settings.BackendPreference)
		}
		backends = []llm.Backend{secondary}
	case config.SecondaryFirst:
		backends = []llm.Backend{secondary, primary}
	default:
		backends = []llm.Backend{primary, secondary}
	}

	return llm.NewClient(llm.ClientConfig{
		Backends:       backends,
		MaxTokensCap:   settings.MaxOutputTokens,
		DefaultTimeout: settings.RequestTimeout,
		ReplyCharLimit: settings.ReplyCharLimit + 200,
		Logger:         logger,
	}), nil
}

// buildStore connects to Redis for the server; interactive sessions are
// throwaway and run on the in-memory store.
func buildStore(settings config.Settings, serve bool, logger *slog.Logger) (store.Store, error) {
	if !serve {
		return store.NewMemoryStore(), nil
	}

	redisStore, err := store.NewRedisStore(settings.RedisURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisStore.Ping(pingCtx); err != nil {
		logger.Warn("redis not reachable at startup; conversations will fail until it is", "error", err)
	}
	return redisStore, nil
}

func buildEngine(settings config.Settings, blobs store.Store, client *llm.Client, profiles *profile.Catalog, logger *slog.Logger) (*debate.Engine, error) {
	var alignment *debate.AlignmentGuard
	if settings.AlignmentGuard {
		alignment = debate.NewAlignmentGuard(client, logger)
	}
	var redundancy *debate.RedundancyGuard
	if settings.RedundancyGuard {
		redundancy = debate.NewRedundancyGuard(debate.DefaultJaccardThreshold, debate.DefaultPrefixThreshold)
	}

	return debate.NewEngine(debate.EngineConfig{
		Store:      blobs,
		Client:     client,
		Profiles:   profiles,
		Classifier: debate.NewClassifier(client, logger),
		Normalizer: debate.NewNormalizer(debate.NormalizerConfig{
			CharLimit: settings.ReplyCharLimit,
		}),
		Alignment:        alignment,
		Redundancy:       redundancy,
		DefaultProfileID: settings.DefaultProfileID,
		MaxHistoryPairs:  settings.MaxHistoryPairs,
		TurnBudget:       settings.TurnBudget,
		Logger:           logger,
	})
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func parseRuntimeOptions(args []string) (runtimeOptions, error) {
	fs := flag.NewFlagSet("debatebot", flag.ContinueOnError)
	serve := fs.Bool("serve", false, "run the HTTP API instead of the interactive client")
	profilePath := fs.String("profiles", "", "path to a profiles json file (defaults to the built-in catalog)")
	profileID := fs.String("profile", "", "initial persona profile id")
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		return runtimeOptions{}, err
	}
	if len(fs.Args()) > 0 {
		return runtimeOptions{}, fmt.Errorf("unexpected positional args: %s", strings.Join(fs.Args(), " "))
	}

	return runtimeOptions{
		serve:       *serve,
		profilePath: strings.TrimSpace(*profilePath),
		profileID:   strings.TrimSpace(*profileID),
	}, nil
}
