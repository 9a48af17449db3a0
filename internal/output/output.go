package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"debatebot/internal/conversation"
)

// Transcript is the exportable snapshot of one conversation.
type Transcript struct {
	ConversationID string                 `json:"conversation_id"`
	Profile        string                 `json:"profile"`
	Topic          string                 `json:"topic"`
	Side           string                 `json:"side"`
	SavedAt        time.Time              `json:"saved_at"`
	Messages       []conversation.Message `json:"messages"`
}

// SaveTranscript writes the transcript as JSON at path and as Markdown
// next to it. Both writes are atomic.
func SaveTranscript(path string, t Transcript) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	jsonData, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := writeAtomic(path, jsonData, 0o644); err != nil {
		return fmt.Errorf("write json transcript file: %w", err)
	}

	mdPath := MarkdownPath(path)
	mdData := []byte(formatTranscriptMarkdown(t))
	if err := writeAtomic(mdPath, mdData, 0o644); err != nil {
		return fmt.Errorf("write markdown transcript file: %w", err)
	}
	return nil
}

func MarkdownPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return path + ".md"
	}
	return strings.TrimSuffix(path, ext) + ".md"
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tempFile, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}

	if err := tempFile.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("move temp file: %w", err)
	}
	return nil
}

func formatTranscriptMarkdown(t Transcript) string {
	var b strings.Builder

	b.WriteString("# Debate Transcript\n\n")
	b.WriteString("- conversation_id: " + safeText(t.ConversationID) + "\n")
	b.WriteString("- profile: " + safeText(t.Profile) + "\n")
	b.WriteString("- topic: " + safeText(t.Topic) + "\n")
	b.WriteString("- side: " + safeText(t.Side) + "\n")
	if !t.SavedAt.IsZero() {
		b.WriteString("- saved_at: " + t.SavedAt.UTC().Format(time.RFC3339) + "\n")
	}
	b.WriteString(fmt.Sprintf("- messages: %d\n", len(t.Messages)))

	b.WriteString("\n## Conversation\n\n")
	if len(t.Messages) == 0 {
		b.WriteString("- no messages\n")
		return b.String()
	}

	for i, msg := range t.Messages {
		b.WriteString(fmt.Sprintf("#### Turn %d · %s\n\n", i+1, speakerLabel(msg)))
		b.WriteString(markdownBulletedText(msg.Message, "") + "\n\n")
	}
	return b.String()
}

func speakerLabel(msg conversation.Message) string {
	if msg.Role == conversation.RoleUser {
		return "User"
	}
	return "Bot"
}

func safeText(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return strings.ReplaceAll(v, "\n", " ")
}

func markdownBulletedText(v string, indent string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.TrimSpace(v)
	if v == "" {
		return indent + "- (empty)"
	}
	lines := strings.Split(v, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if hasListPrefix(trimmed) || strings.HasPrefix(trimmed, "> ") {
			out = append(out, indent+trimmed)
			continue
		}
		out = append(out, indent+"- "+trimmed)
	}
	if len(out) == 0 {
		return indent + "- (empty)"
	}
	return strings.Join(out, "\n")
}

func hasListPrefix(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ") {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) {
		return false
	}
	return line[i] == '.' && line[i+1] == ' '
}

func NewTimestampPath(dir string, now time.Time) string {
	name := now.UTC().Format("20060102-150405.000000000") + "-transcript.json"
	return filepath.Join(dir, name)
}
