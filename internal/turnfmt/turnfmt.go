package turnfmt

import (
	"strings"

	"debatebot/internal/conversation"
)

type Options struct {
	Header         func(conversation.Message) string
	Separator      func(conversation.Message) string
	ContentPrefix  string
	KeepBlankLines bool
}

// FormatLines renders one conversation message as indented transcript
// lines, shared by the REPL and the TUI viewport.
func FormatLines(msg conversation.Message, opts Options) []string {
	header := defaultHeader(msg)
	if opts.Header != nil {
		header = opts.Header(msg)
	}

	separator := defaultSeparator(msg)
	if opts.Separator != nil {
		separator = opts.Separator(msg)
	}

	prefix := opts.ContentPrefix
	if prefix == "" {
		prefix = "  "
	}

	lines := []string{"", separator, header}
	contentLines := strings.Split(strings.TrimSpace(msg.Message), "\n")
	appended := false

	for _, line := range contentLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if opts.KeepBlankLines {
				lines = append(lines, "")
			}
			continue
		}
		lines = append(lines, prefix+trimmed)
		appended = true
	}
	if !appended {
		lines = append(lines, prefix+"(empty)")
	}
	lines = append(lines, separator, "")
	return lines
}

func defaultHeader(msg conversation.Message) string {
	if msg.Role == conversation.RoleUser {
		return "you"
	}
	return "bot"
}

func defaultSeparator(conversation.Message) string {
	return "---"
}
