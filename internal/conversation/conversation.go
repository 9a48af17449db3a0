package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// MaxMessages caps stored history to the most recent entries.
	MaxMessages = 20

	// MaxUserMessageChars truncates user input before it enters history.
	MaxUserMessageChars = 800

	// DefaultWindow is how many trailing messages API responses carry.
	DefaultWindow = 5
)

// sentinelIDs are placeholder values clients send instead of omitting
// the conversation id. All of them mean "no conversation yet".
var sentinelIDs = map[string]struct{}{
	"":          {},
	"string":    {},
	"null":      {},
	"undefined": {},
	"None":      {},
	"N/A":       {},
	"na":        {},
	"0":         {},
}

type Message struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type Meta struct {
	Topic       string `json:"topic"`
	Side        string `json:"side"`
	StanceType  string `json:"stance_type"`
	ProfileID   string `json:"profile_id"`
	UserSide    string `json:"user_side"`
	UserAligned bool   `json:"user_aligned"`
}

// Conversation is the whole persisted record. It is stored as a single
// JSON blob and rewritten on every turn.
type Conversation struct {
	Meta     Meta      `json:"meta"`
	Messages []Message `json:"messages"`
}

// NewID returns a fresh conversation id (uuid hex, no dashes).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeID trims an incoming conversation id and maps sentinel
// placeholders to the empty string.
func NormalizeID(id string) string {
	trimmed := strings.TrimSpace(id)
	if _, sentinel := sentinelIDs[trimmed]; sentinel {
		return ""
	}
	return trimmed
}

// Key is the namespaced store key for a conversation id.
func Key(id string) string {
	return "conv:" + id
}

func Marshal(conv Conversation) ([]byte, error) {
	data, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (Conversation, error) {
	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return Conversation{}, fmt.Errorf("parse conversation: %w", err)
	}
	return conv, nil
}

// Append adds a message and drops the oldest entries beyond MaxMessages.
func (c *Conversation) Append(role, text string) {
	c.Messages = append(c.Messages, Message{Role: role, Message: text})
	if len(c.Messages) > MaxMessages {
		c.Messages = c.Messages[len(c.Messages)-MaxMessages:]
	}
}

// LastAssistant returns the most recent assistant message, if any.
func (c *Conversation) LastAssistant() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// Window returns the trailing n messages in chronological order.
func Window(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// TruncateUserText bounds raw user input before it is stored or prompted.
func TruncateUserText(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxUserMessageChars {
		return text
	}
	return string(runes[:MaxUserMessageChars])
}
