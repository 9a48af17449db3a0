package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"debatebot/internal/conversation"
	"debatebot/internal/debate"
	"debatebot/internal/profile"
)

// Engine is the slice of the debate engine the TUI needs.
type Engine interface {
	Ask(ctx context.Context, conversationID, message string) (debate.TurnResult, error)
	Meta(ctx context.Context, conversationID string) (debate.MetaInfo, error)
	History(ctx context.Context, conversationID string, limit int) ([]conversation.Message, error)
}

type Config struct {
	Engine    Engine
	Profiles  *profile.Catalog
	ProfileID string
	OutputDir string
	Now       func() time.Time
}

type App struct {
	engine    Engine
	profiles  *profile.Catalog
	profileID string
	outputDir string
	now       func() time.Time
}

func NewApp(cfg Config) *App {
	if cfg.Profiles == nil {
		cfg.Profiles = profile.Builtin()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &App{
		engine:    cfg.Engine,
		profiles:  cfg.Profiles,
		profileID: strings.TrimSpace(cfg.ProfileID),
		outputDir: cfg.OutputDir,
		now:       cfg.Now,
	}
}

func (a *App) Start(ctx context.Context) error {
	if a.engine == nil {
		return errors.New("engine is required")
	}

	m := newModel(ctx, modelConfig{
		Engine:    a.engine,
		Profiles:  a.profiles,
		ProfileID: a.profileID,
		OutputDir: a.outputDir,
		Now:       a.now,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

type modelConfig struct {
	Engine    Engine
	Profiles  *profile.Catalog
	ProfileID string
	OutputDir string
	Now       func() time.Time
}

type model struct {
	ctx context.Context

	engine    Engine
	profiles  *profile.Catalog
	outputDir string
	now       func() time.Time

	input        textinput.Model
	logViewport  viewport.Model
	spin         spinner.Model
	logs         []string
	wrappedLogs  []string
	wrappedWidth int
	width        int
	height       int

	running      bool
	runningSince time.Time
	turnCount    int
	autoFollow   bool

	conversationID string
	pendingProfile string
	meta           debate.MetaInfo
	lastStance     string
	lastSavePath   string

	commandHistory []string
	historyCursor  int
}

const (
	defaultWidth  = 100
	defaultHeight = 32
	logBufferMax  = 4000
	scrollStep    = 5
)

type askResultMsg struct {
	result debate.TurnResult
	meta   debate.MetaInfo
	err    error
}

type transcriptSavedMsg struct {
	path string
	err  error
}

func newModel(ctx context.Context, cfg modelConfig) model {
	if cfg.Profiles == nil {
		cfg.Profiles = profile.Builtin()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "State your position. The bot will take the other side."
	ti.Focus()
	ti.CharLimit = 1024 * 4
	ti.Width = defaultWidth - 4

	vp := viewport.New(defaultWidth-4, defaultHeight-12)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))

	m := model{
		ctx:            ctx,
		engine:         cfg.Engine,
		profiles:       cfg.Profiles,
		outputDir:      cfg.OutputDir,
		now:            cfg.Now,
		input:          ti,
		logViewport:    vp,
		spin:           sp,
		logs:           []string{"Debate ready. Say something to start an argument."},
		width:          defaultWidth,
		height:         defaultHeight,
		autoFollow:     true,
		pendingProfile: cfg.ProfileID,
		historyCursor:  0,
	}
	m.resizeLayout()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeLayout()
		return m, nil

	case spinner.TickMsg:
		return m, m.updateSpinner(typed)

	case tea.KeyMsg:
		if cmd, handled := m.handleKeyMessage(typed); handled {
			return m, cmd
		}

	case askResultMsg:
		m.applyAskResult(typed)
		return m, nil

	case transcriptSavedMsg:
		m.applyTranscriptSaved(typed)
		return m, nil
	}

	return m, m.updateInteractiveInputs(msg)
}

func (m *model) updateSpinner(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	if m.running {
		return cmd
	}
	return nil
}

func (m *model) handleKeyMessage(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit, true
	case tea.KeyCtrlF:
		m.autoFollow = !m.autoFollow
		if m.autoFollow {
			m.logViewport.GotoBottom()
		}
		m.appendLog(fmt.Sprintf("auto-follow: %s", onOff(m.autoFollow)))
		return nil, true
	case tea.KeyCtrlL:
		m.logs = nil
		m.refreshLogViewport()
		return nil, true
	case tea.KeyCtrlP:
		m.input.SetValue(m.historyPrev())
		m.input.CursorEnd()
		return nil, true
	case tea.KeyCtrlN:
		m.input.SetValue(m.historyNext())
		m.input.CursorEnd()
		return nil, true
	case tea.KeyPgUp:
		m.autoFollow = false
		m.logViewport.LineUp(scrollStep)
		return nil, true
	case tea.KeyPgDown:
		m.autoFollow = false
		m.logViewport.LineDown(scrollStep)
		return nil, true
	case tea.KeyHome:
		m.autoFollow = false
		m.logViewport.GotoTop()
		return nil, true
	case tea.KeyEnd:
		m.autoFollow = true
		m.logViewport.GotoBottom()
		return nil, true
	case tea.KeyEnter:
		cmdLine := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		if cmdLine == "" {
			return nil, true
		}
		m.pushHistory(cmdLine)
		return m.handleCommand(cmdLine), true
	default:
		return nil, false
	}
}

func (m *model) applyAskResult(msg askResultMsg) {
	m.running = false
	if msg.err != nil {
		m.appendLog(fmt.Sprintf("ask failed: %v", msg.err))
		return
	}

	m.conversationID = msg.result.ConversationID
	m.pendingProfile = ""
	m.meta = msg.meta
	m.lastStance = msg.result.Stance
	m.turnCount++

	if len(msg.result.Messages) > 0 {
		last := msg.result.Messages[len(msg.result.Messages)-1]
		m.appendTurnLog(last)
	}
	m.appendLog(fmt.Sprintf("(%d ms)", msg.result.LatencyMS))
}

func (m *model) applyTranscriptSaved(msg transcriptSavedMsg) {
	if msg.err != nil {
		m.appendLog(fmt.Sprintf("save failed: %v", msg.err))
		return
	}
	m.lastSavePath = msg.path
	m.appendLog("saved transcript: " + msg.path)
}

func (m *model) updateInteractiveInputs(msg tea.Msg) tea.Cmd {
	mouseWheelUp, mouseWheelDown := isMouseWheelScroll(msg)
	var viewportCmd tea.Cmd
	var inputCmd tea.Cmd
	m.logViewport, viewportCmd = m.logViewport.Update(msg)
	m.input, inputCmd = m.input.Update(msg)
	if mouseWheelUp {
		m.autoFollow = false
	}
	if mouseWheelDown && m.logViewport.AtBottom() {
		m.autoFollow = true
	}
	return tea.Batch(viewportCmd, inputCmd)
}

func isMouseWheelScroll(msg tea.Msg) (up bool, down bool) {
	mm, ok := msg.(tea.MouseMsg)
	if !ok || mm.Action != tea.MouseActionPress {
		return false, false
	}
	switch mm.Button { //nolint:exhaustive
	case tea.MouseButtonWheelUp:
		return true, false
	case tea.MouseButtonWheelDown:
		return false, true
	default:
		return false, false
	}
}
