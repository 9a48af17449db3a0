package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"debatebot/internal/conversation"
)

func TestSaveTranscriptWritesJSONAndMarkdown(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "transcript.json")
	transcript := Transcript{
		ConversationID: "abc123",
		Profile:        "smart_shy",
		Topic:          "The Earth is flat",
		Side:           "Negative (oppose): The Earth is flat",
		SavedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Messages: []conversation.Message{
			{Role: conversation.RoleUser, Message: "first point\nsecond point"},
			{Role: conversation.RoleAssistant, Message: "counterpoint"},
		},
	}

	if err := SaveTranscript(path, transcript); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), `"conversation_id": "abc123"`) {
		t.Fatalf("expected id in json, got %q", string(data))
	}

	mdPath := MarkdownPath(path)
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown failed: %v", err)
	}
	mdText := string(md)
	if !strings.Contains(mdText, "# Debate Transcript") {
		t.Fatalf("expected markdown title, got %q", mdText)
	}
	if !strings.Contains(mdText, "- topic: The Earth is flat") {
		t.Fatalf("expected topic line, got %q", mdText)
	}
	if !strings.Contains(mdText, "#### Turn 1 · User") || !strings.Contains(mdText, "#### Turn 2 · Bot") {
		t.Fatalf("expected per-turn headers, got %q", mdText)
	}
	if !strings.Contains(mdText, "- first point\n- second point") {
		t.Fatalf("expected bulleted message lines, got %q", mdText)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no temp file left, got err=%v", err)
	}
	if _, err := os.Stat(mdPath + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no markdown temp file left, got err=%v", err)
	}
}

func TestSaveTranscriptEmptyConversation(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "empty.json")

	if err := SaveTranscript(path, Transcript{ConversationID: "x"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	md, err := os.ReadFile(MarkdownPath(path))
	if err != nil {
		t.Fatalf("read markdown failed: %v", err)
	}
	if !strings.Contains(string(md), "- no messages") {
		t.Fatalf("expected empty marker, got %q", string(md))
	}
}

func TestNewTimestampPath(t *testing.T) {
	now := time.Date(2026, 2, 28, 10, 30, 20, 123456789, time.UTC)
	path := NewTimestampPath("./outputs", now)
	if filepath.Base(path) != "20260228-103020.123456789-transcript.json" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestMarkdownPath(t *testing.T) {
	if got := MarkdownPath("./outputs/a-transcript.json"); got != "./outputs/a-transcript.md" {
		t.Fatalf("unexpected markdown path: %s", got)
	}
	if got := MarkdownPath("./outputs/result"); got != "./outputs/result.md" {
		t.Fatalf("unexpected markdown path without extension: %s", got)
	}
}
