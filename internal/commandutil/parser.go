package commandutil

import (
	"regexp"
	"strings"
	"unicode"
)

// Parse splits a command line into command and argument tail.
func Parse(line string, aliases map[string]string) (command string, arg string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}

	splitAt := strings.IndexFunc(line, unicode.IsSpace)
	if splitAt == -1 {
		return normalize(line, aliases), ""
	}
	cmd := normalize(line[:splitAt], aliases)
	return cmd, strings.TrimSpace(line[splitAt+1:])
}

var profileDirective = regexp.MustCompile(`^\s*/profile\s+([A-Za-z0-9_-]+)\s*`)

// ExtractProfileDirective peels a leading "/profile <id>" off a message,
// returning the requested id and the remaining text. Messages without a
// directive come back unchanged with an empty id.
func ExtractProfileDirective(text string) (profileID string, remainder string) {
	match := profileDirective.FindStringSubmatch(text)
	if match == nil {
		return "", text
	}
	return match[1], strings.TrimSpace(text[len(match[0]):])
}

func normalize(cmd string, aliases map[string]string) string {
	if len(aliases) == 0 {
		return cmd
	}
	if normalized, ok := aliases[cmd]; ok {
		return normalized
	}
	return cmd
}
