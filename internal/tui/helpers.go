package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"debatebot/internal/commandutil"
	"debatebot/internal/conversation"
	"debatebot/internal/turnfmt"
)

var tuiCommandAliases = map[string]string{
	"profile":   "/profile",
	"/profile":  "/profile",
	"profiles":  "/profiles",
	"/profiles": "/profiles",
	"meta":      "/meta",
	"/meta":     "/meta",
	"save":      "/save",
	"/save":     "/save",
	"new":       "/new",
	"/new":      "/new",
	"follow":    "/follow",
	"/follow":   "/follow",
	"help":      "/help",
	"/help":     "/help",
	"exit":      "/exit",
	"/exit":     "/exit",
}

func parseCommand(line string) (command string, arg string) {
	return commandutil.Parse(line, tuiCommandAliases)
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// styleBoxWidth returns the width to pass into Style.Width so that the
// rendered block fits the requested outer width.
func styleBoxWidth(style lipgloss.Style, outerWidth int) int {
	return maxInt(1, outerWidth-style.GetHorizontalMargins()-style.GetHorizontalBorderSize())
}

// styleTextWidth returns the visible text area width inside a styled block.
func styleTextWidth(style lipgloss.Style, outerWidth int) int {
	return maxInt(1, outerWidth-style.GetHorizontalFrameSize())
}

// styleBoxHeight returns the height to pass into Style.Height so that the
// rendered block fits the requested outer height.
func styleBoxHeight(style lipgloss.Style, outerHeight int) int {
	return maxInt(1, outerHeight-style.GetVerticalMargins()-style.GetVerticalBorderSize())
}

// styleTextHeight returns the visible text area height inside a styled block.
func styleTextHeight(style lipgloss.Style, outerHeight int) int {
	return maxInt(1, outerHeight-style.GetVerticalFrameSize())
}

func wrapLogLines(lines []string, width int) []string {
	if len(lines) == 0 {
		return nil
	}
	if width <= 0 {
		out := make([]string, 0, len(lines))
		out = append(out, lines...)
		return out
	}

	wrapped := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		if strings.Contains(line, "\x1b[") {
			// Keep ANSI-styled lines intact; content lines are wrapped below.
			wrapped = append(wrapped, line)
			continue
		}
		if runewidth.StringWidth(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}
		wrappedText := runewidth.Wrap(line, width)
		wrapped = append(wrapped, strings.Split(wrappedText, "\n")...)
	}
	return wrapped
}

func wrapLogLinesToWidth(lines []string, width int) string {
	return strings.Join(wrapLogLines(lines, width), "\n")
}

func truncateText(text string, width int) string {
	text = strings.TrimSpace(text)
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(text, width, "…")
}

func formatMessageLines(msg conversation.Message) []string {
	return turnfmt.FormatLines(msg, turnfmt.Options{
		Header:         renderMessageHeader,
		Separator:      renderMessageSeparator,
		ContentPrefix:  "  ",
		KeepBlankLines: true,
	})
}

func renderMessageSeparator(msg conversation.Message) string {
	line := strings.Repeat("-", 58)
	if msg.Role == conversation.RoleAssistant {
		line = strings.Repeat("=", 58)
	}
	return line
}

func renderMessageHeader(msg conversation.Message) string {
	badge := "[YOU]"
	label := "you"
	badgeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("60")).Padding(0, 1)
	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("117"))
	if msg.Role == conversation.RoleAssistant {
		badge = "[BOT]"
		label = "debate bot"
		badgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("31")).Padding(0, 1)
		nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		badgeStyle.Render(badge),
		" ",
		nameStyle.Render(label),
	)
}
