package turnfmt

import (
	"strings"
	"testing"

	"debatebot/internal/conversation"
)

func TestFormatLinesKeepsBlankLinesWhenEnabled(t *testing.T) {
	msg := conversation.Message{
		Role:    conversation.RoleAssistant,
		Message: "line1\n\nline2",
	}

	lines := FormatLines(msg, Options{
		Header:         func(conversation.Message) string { return "header" },
		Separator:      func(conversation.Message) string { return "---" },
		KeepBlankLines: true,
	})
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "line1\n\n  line2") {
		t.Fatalf("expected preserved blank line, got %q", joined)
	}
}

func TestFormatLinesSkipsBlankLinesWhenDisabled(t *testing.T) {
	msg := conversation.Message{
		Role:    conversation.RoleAssistant,
		Message: "line1\n\nline2",
	}

	lines := FormatLines(msg, Options{
		Header:         func(conversation.Message) string { return "header" },
		Separator:      func(conversation.Message) string { return "---" },
		KeepBlankLines: false,
	})
	joined := strings.Join(lines, "\n")
	if strings.Contains(joined, "line1\n\n  line2") {
		t.Fatalf("expected blank line to be removed, got %q", joined)
	}
}

func TestFormatLinesDefaultHeaders(t *testing.T) {
	lines := FormatLines(conversation.Message{Role: conversation.RoleUser, Message: "hi"}, Options{})
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "you") || !strings.Contains(joined, "  hi") {
		t.Fatalf("unexpected default rendering: %q", joined)
	}

	lines = FormatLines(conversation.Message{Role: conversation.RoleAssistant, Message: ""}, Options{})
	joined = strings.Join(lines, "\n")
	if !strings.Contains(joined, "bot") || !strings.Contains(joined, "(empty)") {
		t.Fatalf("unexpected empty rendering: %q", joined)
	}
}
