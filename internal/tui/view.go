package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	viewChromeStyle     = lipgloss.NewStyle().Padding(0, 1)
	viewHeroStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("74")).Background(lipgloss.Color("236")).Padding(0, 1)
	viewTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("30")).Padding(0, 1)
	viewSubtitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("151")).Italic(true)
	viewMetaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("223")).Bold(true)
	viewChipStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("254")).Background(lipgloss.Color("238")).Padding(0, 1)
	viewChipHotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("31")).Padding(0, 1).Bold(true)
	viewRunningBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("166")).Bold(true).Padding(0, 1)
	viewIdleBadge       = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("60")).Bold(true).Padding(0, 1)
	viewPanelStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("67")).Background(lipgloss.Color("235")).Padding(0, 1)
	viewPanelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("222"))
	viewPanelMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("151"))
	viewCmdRibbonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Background(lipgloss.Color("236")).Padding(0, 1)
	viewHintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("151"))
	viewInputLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("31")).Bold(true).Padding(0, 1)
	viewInputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("74")).Background(lipgloss.Color("236")).Padding(0, 1)
)

func (m model) View() string {
	if m.width < 76 || m.height < 18 {
		return m.renderCompactView()
	}

	contentWidth := maxInt(54, m.width-2)
	panelH := maxInt(10, m.height-14)

	hero := m.renderHero(contentWidth)
	commands := m.renderCommandRibbon(contentWidth)

	logMeta := viewPanelMetaStyle.Render(fmt.Sprintf("lines=%d follow=%s turns=%d", len(m.logs), onOff(m.autoFollow), m.turnCount))
	logHeader := viewPanelTitleStyle.Render("TRANSCRIPT")
	logPanel := viewPanelStyle.
		Width(contentWidth).
		Height(panelH).
		Render(lipgloss.JoinVertical(lipgloss.Left, logHeader, logMeta, m.logViewport.View()))

	footer := m.renderFooter(contentWidth)

	return viewChromeStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		hero,
		commands,
		logPanel,
		footer,
	))
}

func (m model) renderCompactView() string {
	status := m.statusBadge()
	title := lipgloss.JoinHorizontal(lipgloss.Left, viewTitleStyle.Render("Debate Bot"), " ", status)
	meta := viewMetaStyle.Render(fmt.Sprintf("turns=%d profile=%s follow=%s", m.turnCount, m.profileLabel(), onOff(m.autoFollow)))
	commands := viewCmdRibbonStyle.Render("/profile | /profiles | /meta | /save | /new | /follow | /help | /exit")
	hint := viewHintStyle.Render("hint: " + m.inputHint())
	prompt := viewInputBoxStyle.Render(viewInputLabelStyle.Render("INPUT") + " " + m.input.View())

	return viewChromeStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		meta,
		commands,
		m.logViewport.View(),
		hint,
		prompt,
	))
}

func (m model) renderHero(width int) string {
	titleLine := lipgloss.JoinHorizontal(
		lipgloss.Left,
		viewTitleStyle.Render("Debate Bot"),
		" ",
		viewSubtitleStyle.Render("the bot takes the other side"),
	)

	runtime := "idle"
	if m.running {
		runtime = time.Since(m.runningSince).Round(time.Second).String()
	}

	chips := []string{
		m.renderChip("profile "+m.profileLabel(), m.pendingProfile != ""),
		m.renderChip(fmt.Sprintf("turns %d", m.turnCount), m.running),
		m.renderChip(fmt.Sprintf("follow %s", onOff(m.autoFollow)), m.autoFollow),
		m.renderChip(fmt.Sprintf("runtime %s", runtime), m.running),
	}

	topic := viewMetaStyle.Render("topic  " + truncateText(m.topicLabel(), maxInt(24, width-12)))
	side := viewPanelMetaStyle.Render("bot side  " + truncateText(m.sideLabel(), maxInt(20, width-16)))

	saveLine := ""
	if m.lastSavePath != "" {
		saveLine = viewPanelMetaStyle.Render("latest transcript  " + truncateText(m.lastSavePath, maxInt(20, width-22)))
	}

	return viewHeroStyle.Width(width).Render(lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Left, titleLine, "  ", m.statusBadge()),
		lipgloss.JoinHorizontal(lipgloss.Left, chips...),
		topic,
		side,
		saveLine,
	))
}

func (m model) renderCommandRibbon(width int) string {
	line := "Enter send · Ctrl+P/N history · Ctrl+F follow · PgUp/PgDn/Home/End scroll · Ctrl+L clear"
	return viewCmdRibbonStyle.Width(width).Render(truncateText(line, width))
}

func (m model) renderFooter(width int) string {
	hint := viewHintStyle.Render("hint: " + m.inputHint())
	inputBox := viewInputBoxStyle.Width(width).Render(
		lipgloss.JoinHorizontal(lipgloss.Left, viewInputLabelStyle.Render("INPUT"), " ", m.input.View()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, hint, inputBox)
}

func (m model) statusBadge() string {
	if m.running {
		return viewRunningBadge.Render("THINKING " + m.spin.View())
	}
	return viewIdleBadge.Render("IDLE")
}

func (m model) renderChip(text string, hot bool) string {
	if hot {
		return viewChipHotStyle.Render(text + " ")
	}
	return viewChipStyle.Render(text + " ")
}

func (m model) profileLabel() string {
	if m.pendingProfile != "" {
		return m.pendingProfile + "*"
	}
	if m.meta.ProfileName != "" {
		return m.meta.ProfileName
	}
	return "-"
}

func (m model) topicLabel() string {
	if strings.TrimSpace(m.meta.Topic) == "" {
		return "(no conversation yet)"
	}
	return m.meta.Topic
}

func (m model) sideLabel() string {
	if strings.TrimSpace(m.meta.Side) == "" {
		return "-"
	}
	return m.meta.Side
}

func (m model) inputHint() string {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return "Type a claim and press Enter. The bot argues the opposite side."
	}

	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, "/profile"):
		return "switch persona for the next reply: /profile <id>"
	case strings.HasPrefix(lower, "/profiles"):
		return "list available personas"
	case strings.HasPrefix(lower, "/meta"):
		return "show topic, stance and profile of this conversation"
	case strings.HasPrefix(lower, "/save"):
		return "save the transcript to disk"
	case strings.HasPrefix(lower, "/new"):
		return "start a fresh conversation"
	case strings.HasPrefix(lower, "/follow"):
		return "auto-follow control: /follow [on|off|toggle]"
	case strings.HasPrefix(lower, "/help"):
		return "show help"
	case strings.HasPrefix(lower, "/exit"):
		return "quit"
	case strings.HasPrefix(lower, "/"):
		return "possibly an unknown command; check /help"
	default:
		return "plain text is sent to the bot as your next argument"
	}
}
