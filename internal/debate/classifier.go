package debate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"debatebot/internal/llm"
)

const (
	// DefaultTopic is used when no topic can be extracted at all.
	DefaultTopic = "The Earth is flat"

	maxTopicChars         = 160
	classifierTokenBudget = 200
	classifierCallTimeout = 15 * time.Second
)

// Completer is the slice of the generation client the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Classifier turns free-form user text into a negation-free topic
// proposition and the user's side relative to it.
type Classifier struct {
	client Completer
	log    *slog.Logger
}

func NewClassifier(client Completer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, log: logger}
}

const classifierSystemPrompt = `You are an information extractor.
Given a user message, return a JSON object with fields:
{"topic": "<short debate topic>", "user_side": "affirmative|negative"}
Rules:
- "topic" must be a concise declarative proposition, 3-12 words, no quotes, no negation.
- "user_side" is "affirmative" if the user supports the topic, else "negative".
- Return JSON only, no extra text.`

// Classify extracts (topic, user side). The primary path asks the model
// for strict JSON at temperature zero; any failure falls back to local
// heuristics so classification never errors.
func (c *Classifier) Classify(ctx context.Context, text string) (string, Side) {
	cleaned := CleanTopicText(text)

	raw, err := c.client.Complete(ctx, llm.Request{
		System:      classifierSystemPrompt,
		User:        text,
		Temperature: 0,
		TopP:        1,
		MaxTokens:   classifierTokenBudget,
		Timeout:     classifierCallTimeout,
	})
	if err == nil {
		if topic, side, parseErr := parseClassification(raw); parseErr == nil {
			return canonicalize(topic, side)
		} else {
			c.log.Warn("classifier output unparsable, using heuristics", "error", parseErr)
		}
	} else {
		c.log.Warn("classifier call failed, using heuristics", "error", err)
	}

	return classifyHeuristic(cleaned)
}

func parseClassification(raw string) (string, Side, error) {
	jsonText := extractJSONObject(stripCodeFence(raw))
	if jsonText == "" {
		return "", "", errors.New("no json object in classifier output")
	}

	var parsed struct {
		Topic    string `json:"topic"`
		UserSide string `json:"user_side"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return "", "", err
	}

	topic := strings.TrimSpace(parsed.Topic)
	if topic == "" {
		return "", "", errors.New("classifier returned empty topic")
	}
	return topic, ParseSide(parsed.UserSide), nil
}

// canonicalize ensures the topic is negation-free, flipping the side when
// a negation had to be removed, and caps the topic length.
func canonicalize(topic string, side Side) (string, Side) {
	positive, negated := RemoveNegation(topic)
	if negated {
		side = side.Opposite()
	}
	return capTopic(positive), side
}

// classifyHeuristic is the fully local fallback path.
func classifyHeuristic(cleaned string) (string, Side) {
	if cleaned == "" {
		return DefaultTopic, SideAffirmative
	}
	positive, negated := RemoveNegation(cleaned)
	side := SideAffirmative
	if negated {
		side = SideNegative
	}
	return capTopic(positive), side
}

// CleanTopicText strips leading discourse markers and trims the result.
func CleanTopicText(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, re := range topicStrippers {
		cleaned = strings.TrimSpace(re.ReplaceAllString(cleaned, ""))
	}
	return strings.TrimSuffix(cleaned, ".")
}

// RemoveNegation rewrites a negated proposition into its positive form.
// The second return reports whether anything was removed; applying it to
// an already-positive topic is a no-op.
func RemoveNegation(text string) (string, bool) {
	out := text
	negated := false
	for _, rule := range negationRules {
		if rule.pattern.MatchString(out) {
			out = rule.pattern.ReplaceAllString(out, rule.replace)
			negated = true
		}
	}
	return strings.Join(strings.Fields(out), " "), negated
}

func capTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return DefaultTopic
	}
	runes := []rune(topic)
	if len(runes) <= maxTopicChars {
		return topic
	}
	return strings.TrimSpace(string(runes[:maxTopicChars]))
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
