package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"debatebot/internal/commandutil"
	"debatebot/internal/conversation"
	"debatebot/internal/debate"
	"debatebot/internal/output"
	"debatebot/internal/profile"
	"debatebot/internal/turnfmt"
)

// Engine is the slice of the debate engine the REPL needs.
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
	Writer    io.Writer
	Now       func() time.Time
}

type App struct {
	engine    Engine
	profiles  *profile.Catalog
	outputDir string
	writer    io.Writer
	now       func() time.Time

	conversationID string
	pendingProfile string
	lastSavePath   string
}

const maxREPLInputBytes = 1024 * 1024

var replCommandAliases = map[string]string{
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
	"help":      "/help",
	"/help":     "/help",
	"exit":      "/exit",
	"/exit":     "/exit",
}

func NewApp(cfg Config) *App {
	if cfg.Profiles == nil {
		cfg.Profiles = profile.Builtin()
	}
	if cfg.Writer == nil {
		cfg.Writer = io.Discard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &App{
		engine:         cfg.Engine,
		profiles:       cfg.Profiles,
		outputDir:      cfg.OutputDir,
		writer:         cfg.Writer,
		now:            cfg.Now,
		pendingProfile: strings.TrimSpace(cfg.ProfileID),
	}
}

func (a *App) Start(ctx context.Context, in io.Reader) error {
	if a.engine == nil {
		return errors.New("engine is required")
	}
	if in == nil {
		return errors.New("input reader is required")
	}

	a.printLine("Debate REPL")
	a.printLine("Type a message to argue, or: /profile <id>, /profiles, /meta, /save, /new, /help, /exit")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxREPLInputBytes)
	for {
		if _, err := fmt.Fprint(a.writer, "debate> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			a.printLine("")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit := a.handleLine(ctx, line)
		if quit {
			return nil
		}
	}
}

func (a *App) handleLine(ctx context.Context, line string) bool {
	command, arg := parseCommand(line)
	switch command {
	case "/exit":
		a.printLine("bye")
		return true
	case "/help":
		a.printHelp()
		return false
	case "/new":
		a.conversationID = ""
		a.printLine("started a new conversation")
		return false
	case "/profile":
		if arg == "" {
			a.printLine("usage: /profile <id>")
			return false
		}
		if !a.profiles.Has(arg) {
			a.printLine(fmt.Sprintf("unknown profile %q; use /profiles", arg))
			return false
		}
		a.pendingProfile = arg
		a.printLine("profile set to " + arg)
		return false
	case "/profiles":
		a.showProfiles()
		return false
	case "/meta":
		a.showMeta(ctx)
		return false
	case "/save":
		a.saveTranscript(ctx)
		return false
	default:
		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			a.printLine("unknown command. Use /profile <id>, /profiles, /meta, /save, /new, /help, /exit")
			return false
		}
		a.ask(ctx, strings.TrimSpace(line))
		return false
	}
}

func (a *App) ask(ctx context.Context, text string) {
	message := text
	if a.pendingProfile != "" {
		message = "/profile " + a.pendingProfile + " " + text
	}

	result, err := a.engine.Ask(ctx, a.conversationID, message)
	if err != nil {
		a.printLine(fmt.Sprintf("ask failed: %v", err))
		return
	}
	a.pendingProfile = ""
	a.conversationID = result.ConversationID

	if len(result.Messages) > 0 {
		last := result.Messages[len(result.Messages)-1]
		for _, line := range turnfmt.FormatLines(last, turnfmt.Options{
			Header: func(conversation.Message) string {
				return fmt.Sprintf("---- bot | %s ----", result.Stance)
			},
			Separator: func(conversation.Message) string {
				return strings.Repeat("-", 52)
			},
		}) {
			a.printLine(line)
		}
	}
	a.printLine(fmt.Sprintf("(%d ms)", result.LatencyMS))
}

func (a *App) showProfiles() {
	list := a.profiles.List()
	a.printLine(fmt.Sprintf("profiles (%d):", len(list)))
	for i, p := range list {
		a.printLine(fmt.Sprintf("%d. %s (%s)", i+1, p.Name, p.ID))
	}
}

func (a *App) showMeta(ctx context.Context) {
	if a.conversationID == "" {
		a.printLine("no conversation yet; say something first")
		return
	}
	meta, err := a.engine.Meta(ctx, a.conversationID)
	if err != nil {
		a.printLine(fmt.Sprintf("meta failed: %v", err))
		return
	}
	a.printLine("conversation: " + meta.ConversationID)
	a.printLine(fmt.Sprintf("profile: %s (%s)", meta.ProfileName, meta.ProfileID))
	a.printLine("topic: " + meta.Topic)
	a.printLine("side: " + meta.Side)
	if a.lastSavePath != "" {
		a.printLine("last save: " + a.lastSavePath)
	}
}

func (a *App) saveTranscript(ctx context.Context) {
	if a.conversationID == "" {
		a.printLine("no conversation yet; nothing to save")
		return
	}
	meta, err := a.engine.Meta(ctx, a.conversationID)
	if err != nil {
		a.printLine(fmt.Sprintf("save failed: %v", err))
		return
	}
	messages, err := a.engine.History(ctx, a.conversationID, conversation.MaxMessages)
	if err != nil {
		a.printLine(fmt.Sprintf("save failed: %v", err))
		return
	}

	path := output.NewTimestampPath(a.outputDir, a.now())
	err = output.SaveTranscript(path, output.Transcript{
		ConversationID: meta.ConversationID,
		Profile:        meta.ProfileID,
		Topic:          meta.Topic,
		Side:           meta.Side,
		SavedAt:        a.now(),
		Messages:       messages,
	})
	if err != nil {
		a.printLine(fmt.Sprintf("save failed: %v", err))
		return
	}
	a.lastSavePath = path
	a.printLine("saved transcript: " + path)
	a.printLine("saved markdown: " + output.MarkdownPath(path))
}

func (a *App) printLine(msg string) {
	_, _ = fmt.Fprintln(a.writer, msg)
}

func parseCommand(line string) (command string, arg string) {
	return commandutil.Parse(line, replCommandAliases)
}

func (a *App) printHelp() {
	a.printLine("commands:")
	a.printLine("  <message>       : argue your point")
	a.printLine("  /profile <id>   : switch persona for the next message")
	a.printLine("  /profiles       : list personas")
	a.printLine("  /meta           : show topic, side, and persona")
	a.printLine("  /save           : export the transcript")
	a.printLine("  /new            : start a fresh conversation")
	a.printLine("  /help           : show this help")
	a.printLine("  /exit           : quit")
}
