package debate

import (
	"fmt"
	"strings"
)

// DefaultClosingSentence is the canonical closing every reply ends with.
const DefaultClosingSentence = "If you still disagree, tell me where my argument breaks down."

// MinViableReplyChars is the floor below which a cleaned reply is
// replaced by the canned minimal argument.
const MinViableReplyChars = 80

const defaultTruncateGrace = 120

// NormalizerConfig bounds and brands the cleaned output.
type NormalizerConfig struct {
	CharLimit       int
	ClosingSentence string
	TruncateGrace   int
}

// Normalizer flattens a raw model completion into a single paragraph of
// on-contract prose.
type Normalizer struct {
	charLimit int
	closing   string
	grace     int
}

func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.CharLimit <= 0 {
		cfg.CharLimit = 900
	}
	if strings.TrimSpace(cfg.ClosingSentence) == "" {
		cfg.ClosingSentence = DefaultClosingSentence
	}
	if cfg.TruncateGrace <= 0 {
		cfg.TruncateGrace = defaultTruncateGrace
	}
	return &Normalizer{
		charLimit: cfg.CharLimit,
		closing:   strings.TrimSpace(cfg.ClosingSentence),
		grace:     cfg.TruncateGrace,
	}
}

func (n *Normalizer) ClosingSentence() string { return n.closing }

// Normalize runs the full cleanup pipeline: noise and header removal,
// paragraph flattening, sentence filtering, budgeted truncation at a
// sentence boundary, and the closing sentence.
func (n *Normalizer) Normalize(raw string) string {
	paragraph := flattenLines(raw)
	paragraph = dropSentences(paragraph)
	paragraph = strings.TrimSpace(paragraph)
	if paragraph == "" {
		return ""
	}

	hasClosing := containsFold(paragraph, n.closing)
	budget := n.charLimit
	if !hasClosing {
		budget = n.reservedBudget()
	}
	paragraph = n.truncateAtSentence(paragraph, budget)

	if hasClosing && !containsFold(paragraph, n.closing) {
		// Truncation cut through the closing; re-cut and append it fresh.
		hasClosing = false
		paragraph = n.truncateAtSentence(paragraph, n.reservedBudget())
	}
	if !hasClosing {
		paragraph = ensureTerminated(paragraph) + " " + n.closing
	}
	return paragraph
}

// reservedBudget leaves room for a terminator, a space, and the closing
// sentence so the append never exceeds the char limit.
func (n *Normalizer) reservedBudget() int {
	return n.charLimit - len([]rune(n.closing)) - 2
}

// Viable reports whether a cleaned reply is long enough to stand.
func (n *Normalizer) Viable(reply string) bool {
	return len([]rune(strings.TrimSpace(reply))) >= MinViableReplyChars
}

// MinimalArgument is the canned degradation used when generation failed
// or cleanup left too little text.
func (n *Normalizer) MinimalArgument(stance Side, topic, lastUserText string) string {
	var b strings.Builder
	if stance == SideAffirmative {
		fmt.Fprintf(&b, "The proposition that %s holds up better than its critics allow: the simplest consistent explanation of the available observations favors it, and the usual objections trade on intuition rather than mechanism.", topic)
	} else {
		fmt.Fprintf(&b, "The claim that %s does not survive scrutiny: its supporting arguments rely on selective evidence, and every proposed mechanism fails quantitative sanity checks.", topic)
	}
	if rebuttal := strings.TrimSpace(lastUserText); rebuttal != "" {
		b.WriteString(" Even granting the strongest reading of your last point, the conclusion does not follow from it.")
	}
	b.WriteString(" ")
	b.WriteString(n.closing)
	return b.String()
}

// flattenLines removes log noise, stance headers, section labels, and
// list markers, then joins everything into one whitespace-normalized
// paragraph.
func flattenLines(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	sawContent := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if logNoiseLine.MatchString(trimmed) {
			continue
		}
		if !sawContent && stanceHeaderLine.MatchString(trimmed) {
			// A stance announcement only counts as such at the top.
			rest := strings.TrimSpace(stanceHeaderLine.ReplaceAllString(trimmed, ""))
			if isBareStanceValue(rest) {
				continue
			}
			trimmed = rest
		}
		trimmed = strings.TrimSpace(sectionLabel.ReplaceAllString(trimmed, ""))
		trimmed = strings.TrimSpace(listMarker.ReplaceAllString(trimmed, ""))
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
		sawContent = true
	}

	return strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
}

// isBareStanceValue recognizes "Stance: pro" style remainders that carry
// no prose.
func isBareStanceValue(rest string) bool {
	switch strings.ToLower(strings.TrimRight(rest, ".!")) {
	case "", "pro", "con", "contra", "affirmative", "negative", "support", "oppose":
		return true
	}
	return false
}

// dropSentences removes sentences that address the user directly or
// appeal to outside authority.
func dropSentences(paragraph string) string {
	sentences := splitSentences(paragraph)
	kept := make([]string, 0, len(sentences))
	for _, s := range sentences {
		low := strings.ToLower(s)
		if containsAny(low, userAddressMarkers) || containsAny(low, citationMarkers) {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, " ")
}

// truncateAtSentence cuts to the budget, preferring the last sentence
// boundary inside the grace window; only when none exists does it cut
// mid-sentence.
func (n *Normalizer) truncateAtSentence(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}

	cut := runes[:budget]
	boundary := -1
	for i := len(cut) - 1; i >= 0 && i >= len(cut)-n.grace; i-- {
		if cut[i] == '.' || cut[i] == '!' || cut[i] == '?' {
			boundary = i
			break
		}
	}
	if boundary >= 0 {
		return strings.TrimSpace(string(cut[:boundary+1]))
	}
	return strings.TrimSpace(string(cut))
}

// splitSentences is a light splitter on terminal punctuation; it keeps
// the punctuation with the sentence.
func splitSentences(text string) []string {
	var out []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				out = append(out, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func ensureTerminated(text string) string {
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsAny(low string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(low, m) {
			return true
		}
	}
	return false
}
