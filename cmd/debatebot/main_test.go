package main

import (
	"io"
	"log/slog"
	"testing"

	"debatebot/internal/config"
	"debatebot/internal/llm"
	"debatebot/internal/profile"
	"debatebot/internal/store"
)

func TestParseRuntimeOptionsDefaults(t *testing.T) {
	opts, err := parseRuntimeOptions(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.serve {
		t.Fatal("expected serve to be false by default")
	}
	if opts.profilePath != "" {
		t.Fatalf("expected empty profile path by default, got %q", opts.profilePath)
	}
	if opts.profileID != "" {
		t.Fatalf("expected empty profile id by default, got %q", opts.profileID)
	}
}

func TestParseRuntimeOptionsProfilesFlag(t *testing.T) {
	opts, err := parseRuntimeOptions([]string{"--profiles", "./custom/profiles.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.profilePath != "./custom/profiles.json" {
		t.Fatalf("unexpected profile path: %s", opts.profilePath)
	}
}

func TestParseRuntimeOptionsServeAndProfile(t *testing.T) {
	opts, err := parseRuntimeOptions([]string{"--serve", "--profile", "  rude_arrogant  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.serve {
		t.Fatal("expected serve=true")
	}
	if opts.profileID != "rude_arrogant" {
		t.Fatalf("unexpected profile id: %q", opts.profileID)
	}
}

func TestBuildEngineWithGuardToggles(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := llm.NewClient(llm.ClientConfig{Logger: logger})

	settings := config.Settings{
		ReplyCharLimit:   config.DefaultReplyCharLimit,
		MaxHistoryPairs:  config.DefaultHistoryPairs,
		TurnBudget:       config.DefaultTurnBudget,
		DefaultProfileID: config.DefaultProfileID,
		AlignmentGuard:   true,
		RedundancyGuard:  true,
	}

	engine, err := buildEngine(settings, store.NewMemoryStore(), client, profile.Builtin(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine == nil {
		t.Fatal("expected a constructed engine")
	}

	settings.AlignmentGuard = false
	settings.RedundancyGuard = false
	engine, err = buildEngine(settings, store.NewMemoryStore(), client, profile.Builtin(), logger)
	if err != nil {
		t.Fatalf("unexpected error without guards: %v", err)
	}
	if engine == nil {
		t.Fatal("expected a constructed engine without guards")
	}
}

func TestParseRuntimeOptionsRejectsPositionalArgs(t *testing.T) {
	_, err := parseRuntimeOptions([]string{"unexpected"})
	if err == nil {
		t.Fatal("expected error for positional args")
	}
}
