package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"debatebot/internal/llm"
)

// Alignment labels the classifier may return for a reply relative to the
// topic proposition.
const (
	AlignSupports = "supports"
	AlignOpposes  = "opposes"
	AlignNeutral  = "neutral_or_mixed"
	AlignUnknown  = "unknown"
)

const (
	alignTokenBudget = 80
	alignCallTimeout = 15 * time.Second
)

// AlignmentGuard verifies a candidate reply argues the assigned side.
// It is best-effort: every failure mode reports the reply as aligned.
type AlignmentGuard struct {
	client Completer
	log    *slog.Logger
}

func NewAlignmentGuard(client Completer, logger *slog.Logger) *AlignmentGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlignmentGuard{client: client, log: logger}
}

const alignSystemPrompt = `You are a stance-alignment checker. Given a proposition P and an assistant REPLY, output ONLY a JSON object: {"alignment": "supports"|"opposes"|"neutral_or_mixed"} where "alignment" describes the REPLY relative to proposition P. No explanations. JSON only.`

// Check returns (aligned, label). The local pre-check gates the model
// call: a reply with no suspicious surface never costs a backend round
// trip.
func (g *AlignmentGuard) Check(ctx context.Context, topic string, stance Side, reply string) (bool, string) {
	if !LooksSuspect(reply, topic) {
		return true, AlignUnknown
	}

	raw, err := g.client.Complete(ctx, llm.Request{
		System:      alignSystemPrompt,
		User:        fmt.Sprintf("P: %s\nREPLY:\n%s\n\nJSON:", topic, reply),
		Temperature: 0,
		TopP:        1,
		MaxTokens:   alignTokenBudget,
		Timeout:     alignCallTimeout,
	})
	if err != nil {
		g.log.Warn("alignment check failed open", "error", err)
		return true, AlignUnknown
	}

	label := parseAlignment(raw)
	if label == AlignUnknown {
		return true, label
	}

	expected := AlignOpposes
	if stance == SideAffirmative {
		expected = AlignSupports
	}
	return label == expected, label
}

func parseAlignment(raw string) string {
	jsonText := extractJSONObject(stripCodeFence(raw))
	if jsonText == "" {
		return AlignUnknown
	}
	var parsed struct {
		Alignment string `json:"alignment"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return AlignUnknown
	}
	switch label := strings.ToLower(strings.TrimSpace(parsed.Alignment)); label {
	case AlignSupports, AlignOpposes, AlignNeutral:
		return label
	}
	return AlignUnknown
}

// LooksSuspect is the local pre-check: refusal phrasing, hedging, or an
// opening that shares no token with the topic.
func LooksSuspect(reply, topic string) bool {
	low := strings.ToLower(reply)
	if containsAny(low, refusalMarkers) || containsAny(low, neutralityMarkers) {
		return true
	}

	head := low
	if len(head) > 400 {
		head = head[:400]
	}
	topicTokens := tokenize(topic)
	if len(topicTokens) > 3 {
		topicTokens = topicTokens[:3]
	}
	for _, tok := range topicTokens {
		if strings.Contains(head, tok) {
			return false
		}
	}
	return len(topicTokens) > 0
}

// RedundancyGuard flags a draft that rehashes the previous assistant
// turn. Purely local.
type RedundancyGuard struct {
	jaccardThreshold float64
	prefixThreshold  float64
}

const (
	DefaultJaccardThreshold = 0.55
	DefaultPrefixThreshold  = 0.48

	shingleWords = 4
	maxShingles  = 6
)

func NewRedundancyGuard(jaccardThreshold, prefixThreshold float64) *RedundancyGuard {
	if jaccardThreshold <= 0 || jaccardThreshold > 1 {
		jaccardThreshold = DefaultJaccardThreshold
	}
	if prefixThreshold <= 0 || prefixThreshold > 1 {
		prefixThreshold = DefaultPrefixThreshold
	}
	return &RedundancyGuard{
		jaccardThreshold: jaccardThreshold,
		prefixThreshold:  prefixThreshold,
	}
}

// TooSimilar reports whether draft rehashes previous by either measure.
func (g *RedundancyGuard) TooSimilar(previous, draft string) bool {
	if strings.TrimSpace(previous) == "" {
		return false
	}
	return Jaccard(previous, draft) >= g.jaccardThreshold ||
		PrefixRatio(previous, draft) >= g.prefixThreshold
}

// ForbiddenPhrases extracts the shingle list a rewrite must avoid.
func (g *RedundancyGuard) ForbiddenPhrases(previous string) []string {
	return Shingles(previous, shingleWords, maxShingles)
}
