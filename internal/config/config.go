package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultOllamaModel     = "llama3.2:1b"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultPreference      = "primary_first"
	DefaultRedisURL        = "redis://localhost:6379/0"
	DefaultProfileID       = "smart_shy"
	DefaultAddr            = ":8080"
	DefaultOutputDir       = "./outputs"
	DefaultReplyCharLimit  = 900
	DefaultMaxOutputTokens = 360
	DefaultContextWindow   = 1024
	DefaultHistoryPairs    = 3
	DefaultRequestTimeout  = 45 * time.Second
	DefaultTurnBudget      = 100 * time.Second
)

// Preference values for backend ordering.
const (
	PrimaryFirst   = "primary_first"
	SecondaryFirst = "secondary_first"
	PrimaryOnly    = "primary_only"
	SecondaryOnly  = "secondary_only"
)

// Settings is the immutable process configuration. It is read once at
// startup and passed to constructors; nothing re-reads the environment.
type Settings struct {
	OllamaBaseURL string
	OllamaModel   string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	BackendPreference string

	RedisURL  string
	Addr      string
	OutputDir string

	DefaultProfileID string
	ProfilePath      string

	ReplyCharLimit  int
	MaxOutputTokens int
	ContextWindow   int
	MaxHistoryPairs int

	RequestTimeout time.Duration
	TurnBudget     time.Duration

	AlignmentGuard  bool
	RedundancyGuard bool
}

func FromEnv() (Settings, error) {
	settings := Settings{
		OllamaBaseURL:     normalizeBaseURL(os.Getenv("OLLAMA_BASE_URL")),
		OllamaModel:       DefaultOllamaModel,
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:     DefaultOpenAIBaseURL,
		OpenAIModel:       DefaultOpenAIModel,
		BackendPreference: DefaultPreference,
		RedisURL:          DefaultRedisURL,
		Addr:              DefaultAddr,
		OutputDir:         DefaultOutputDir,
		DefaultProfileID:  DefaultProfileID,
		ProfilePath:       strings.TrimSpace(os.Getenv("PROFILE_PATH")),
		ReplyCharLimit:    DefaultReplyCharLimit,
		MaxOutputTokens:   DefaultMaxOutputTokens,
		ContextWindow:     DefaultContextWindow,
		MaxHistoryPairs:   DefaultHistoryPairs,
		RequestTimeout:    DefaultRequestTimeout,
		TurnBudget:        DefaultTurnBudget,
		AlignmentGuard:    true,
		RedundancyGuard:   true,
	}

	if v := strings.TrimSpace(os.Getenv("OLLAMA_MODEL")); v != "" {
		settings.OllamaModel = v
	}
	if v := normalizeBaseURL(os.Getenv("OPENAI_BASE_URL")); v != "" {
		settings.OpenAIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		settings.OpenAIModel = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		settings.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DEBATE_ADDR")); v != "" {
		settings.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("OUTPUT_DIR")); v != "" {
		settings.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("PROFILE_DEFAULT")); v != "" {
		settings.DefaultProfileID = v
	}

	pref := strings.ToLower(strings.TrimSpace(os.Getenv("BACKEND_PREFERENCE")))
	switch pref {
	case "":
	case PrimaryFirst, SecondaryFirst, PrimaryOnly, SecondaryOnly:
		settings.BackendPreference = pref
	default:
		return Settings{}, fmt.Errorf("BACKEND_PREFERENCE has invalid value: %q", pref)
	}

	var err error
	settings.ReplyCharLimit, err = parseOptionalInt("REPLY_CHAR_LIMIT", settings.ReplyCharLimit, func(v int) bool { return v > 0 })
	if err != nil {
		return Settings{}, err
	}
	settings.MaxOutputTokens, err = parseOptionalInt("MAX_OUTPUT_TOKENS", settings.MaxOutputTokens, func(v int) bool { return v > 0 })
	if err != nil {
		return Settings{}, err
	}
	settings.ContextWindow, err = parseOptionalInt("NUM_CTX", settings.ContextWindow, func(v int) bool { return v > 0 })
	if err != nil {
		return Settings{}, err
	}
	settings.MaxHistoryPairs, err = parseOptionalInt("MAX_HISTORY_PAIRS", settings.MaxHistoryPairs, func(v int) bool { return v >= 0 })
	if err != nil {
		return Settings{}, err
	}
	settings.RequestTimeout, err = parseOptionalDuration("HTTP_TIMEOUT", settings.RequestTimeout, func(v time.Duration) bool { return v > 0 })
	if err != nil {
		return Settings{}, err
	}
	settings.TurnBudget, err = parseOptionalDuration("TURN_BUDGET", settings.TurnBudget, func(v time.Duration) bool { return v > 0 })
	if err != nil {
		return Settings{}, err
	}
	settings.AlignmentGuard, err = parseOptionalBool("ALIGN_GUARD", settings.AlignmentGuard)
	if err != nil {
		return Settings{}, err
	}
	settings.RedundancyGuard, err = parseOptionalBool("REDUNDANCY_GUARD", settings.RedundancyGuard)
	if err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// normalizeBaseURL trims trailing slashes and defaults a bare host:port
// to http.
func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "http://" + trimmed
}

func parseOptionalInt(env string, fallback int, valid func(int) bool) (int, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", env, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("%s has invalid value: %d", env, v)
	}
	return v, nil
}

func parseOptionalDuration(env string, fallback time.Duration, valid func(time.Duration) bool) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration (e.g. 45s, 2m): %w", env, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("%s has invalid value: %s", env, v)
	}
	return v, nil
}

func parseOptionalBool(env string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", env, err)
	}
	return v, nil
}
