package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"debatebot/internal/conversation"
	"debatebot/internal/debate"
	"debatebot/internal/output"
)

func (m *model) handleCommand(line string) tea.Cmd {
	command, arg := parseCommand(line)
	switch command {
	case "/exit":
		m.appendLog("bye")
		return tea.Quit
	case "/help":
		return m.handleHelpCommand(arg)
	case "/new":
		return m.handleNewCommand(arg)
	case "/profile":
		return m.handleProfileCommand(arg)
	case "/profiles":
		return m.handleProfilesCommand(arg)
	case "/meta":
		return m.handleMetaCommand(arg)
	case "/save":
		return m.handleSaveCommand(arg)
	case "/follow":
		return m.handleFollowCommand(arg)
	default:
		return m.handleUnknownOrPlainText(line)
	}
}

func (m *model) handleHelpCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /help")
		return nil
	}
	m.appendHelp()
	return nil
}

func (m *model) handleNewCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /new")
		return nil
	}
	m.conversationID = ""
	m.meta = debate.MetaInfo{}
	m.lastStance = ""
	m.turnCount = 0
	m.appendLog("started a new conversation")
	return nil
}

func (m *model) handleProfileCommand(arg string) tea.Cmd {
	if arg == "" {
		m.appendLog("usage: /profile <id>")
		return nil
	}
	if !m.profiles.Has(arg) {
		m.appendLog(fmt.Sprintf("unknown profile %q; use /profiles", arg))
		return nil
	}
	m.pendingProfile = arg
	m.appendLog("profile set to " + arg)
	return nil
}

func (m *model) handleProfilesCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /profiles")
		return nil
	}
	list := m.profiles.List()
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, fmt.Sprintf("profiles (%d):", len(list)))
	for i, p := range list {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, p.Name, p.ID))
	}
	m.appendLogs(lines...)
	return nil
}

func (m *model) handleMetaCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /meta")
		return nil
	}
	if m.conversationID == "" {
		m.appendLog("no conversation yet; say something first")
		return nil
	}
	m.appendLogs(
		"conversation: "+m.meta.ConversationID,
		fmt.Sprintf("profile: %s (%s)", m.meta.ProfileName, m.meta.ProfileID),
		"topic: "+m.meta.Topic,
		"side: "+m.meta.Side,
	)
	return nil
}

func (m *model) handleSaveCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /save")
		return nil
	}
	if m.conversationID == "" {
		m.appendLog("no conversation yet; nothing to save")
		return nil
	}
	return saveTranscriptCmd(m.ctx, m.engine, m.conversationID, m.outputDir, m.now)
}

func (m *model) handleFollowCommand(arg string) tea.Cmd {
	mode := strings.ToLower(strings.TrimSpace(arg))
	if mode == "" || mode == "toggle" {
		m.autoFollow = !m.autoFollow
		if m.autoFollow {
			m.logViewport.GotoBottom()
		}
		m.appendLog(fmt.Sprintf("auto-follow: %s", onOff(m.autoFollow)))
		return nil
	}

	switch mode {
	case "on":
		m.autoFollow = true
		m.logViewport.GotoBottom()
		m.appendLog("auto-follow: ON")
	case "off":
		m.autoFollow = false
		m.appendLog("auto-follow: OFF")
	default:
		m.appendLog("usage: /follow [on|off|toggle]")
	}
	return nil
}

func (m *model) handleUnknownOrPlainText(line string) tea.Cmd {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/") {
		m.appendLog("unknown command. Use /profile <id>, /profiles, /meta, /save, /new, /follow, /help, /exit")
		return nil
	}
	return m.startAsk(trimmed)
}

func (m *model) startAsk(text string) tea.Cmd {
	if m.running {
		m.appendLog("still thinking; wait for the reply")
		return nil
	}

	m.running = true
	m.autoFollow = true
	m.runningSince = m.now()

	message := text
	if m.pendingProfile != "" {
		message = "/profile " + m.pendingProfile + " " + text
	}

	m.appendTurnLog(conversation.Message{Role: conversation.RoleUser, Message: text})
	return tea.Batch(
		askCmd(m.ctx, m.engine, m.conversationID, message),
		m.spin.Tick,
	)
}

func (m *model) appendLog(line string) {
	m.appendLogs(line)
}

func (m *model) appendLogs(lines ...string) {
	if len(lines) == 0 {
		return
	}
	m.logs = append(m.logs, lines...)

	trimmed := false
	if len(m.logs) > logBufferMax {
		m.logs = m.logs[len(m.logs)-logBufferMax:]
		trimmed = true
	}

	if trimmed || m.wrappedLogs == nil || m.wrappedWidth != m.logViewport.Width {
		m.refreshLogViewport()
		return
	}

	m.wrappedLogs = append(m.wrappedLogs, wrapLogLines(lines, m.logViewport.Width)...)
	m.logViewport.SetContent(strings.Join(m.wrappedLogs, "\n"))
	if m.autoFollow {
		m.logViewport.GotoBottom()
	}
}

func (m *model) appendTurnLog(msg conversation.Message) {
	m.appendLogs(formatMessageLines(msg)...)
}

func (m *model) appendHelp() {
	m.appendLogs(
		"commands:",
		"  <message>       : argue your point",
		"  /profile <id>   : switch persona for the next message",
		"  /profiles       : list personas",
		"  /meta           : show topic, side, and persona",
		"  /save           : export the transcript",
		"  /new            : start a fresh conversation",
		"  /follow [mode]  : auto-follow log (on/off/toggle)",
		"  /help           : show this help",
		"  /exit           : quit",
		"shortcuts: Ctrl+P/Ctrl+N history, Ctrl+F follow toggle, PgUp/PgDn/Home/End scroll, wheel/trackpad scroll, Ctrl+L clear",
	)
}

func (m *model) pushHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if len(m.commandHistory) == 0 || m.commandHistory[len(m.commandHistory)-1] != line {
		m.commandHistory = append(m.commandHistory, line)
	}
	m.historyCursor = len(m.commandHistory)
}

func (m *model) historyPrev() string {
	if len(m.commandHistory) == 0 {
		return ""
	}
	if m.historyCursor > 0 {
		m.historyCursor--
	}
	return m.commandHistory[m.historyCursor]
}

func (m *model) historyNext() string {
	if len(m.commandHistory) == 0 {
		return ""
	}
	if m.historyCursor < len(m.commandHistory)-1 {
		m.historyCursor++
		return m.commandHistory[m.historyCursor]
	}
	m.historyCursor = len(m.commandHistory)
	return ""
}

func askCmd(ctx context.Context, engine Engine, conversationID, message string) tea.Cmd {
	return func() tea.Msg {
		result, err := engine.Ask(ctx, conversationID, message)
		if err != nil {
			return askResultMsg{err: err}
		}
		meta, err := engine.Meta(ctx, result.ConversationID)
		if err != nil {
			// The turn itself succeeded; show it without fresh meta.
			return askResultMsg{result: result}
		}
		return askResultMsg{result: result, meta: meta}
	}
}

func saveTranscriptCmd(ctx context.Context, engine Engine, conversationID, outputDir string, now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		meta, err := engine.Meta(ctx, conversationID)
		if err != nil {
			return transcriptSavedMsg{err: err}
		}
		messages, err := engine.History(ctx, conversationID, conversation.MaxMessages)
		if err != nil {
			return transcriptSavedMsg{err: err}
		}

		path := output.NewTimestampPath(outputDir, now())
		err = output.SaveTranscript(path, output.Transcript{
			ConversationID: meta.ConversationID,
			Profile:        meta.ProfileID,
			Topic:          meta.Topic,
			Side:           meta.Side,
			SavedAt:        now(),
			Messages:       messages,
		})
		if err != nil {
			return transcriptSavedMsg{err: err}
		}
		return transcriptSavedMsg{path: path}
	}
}
