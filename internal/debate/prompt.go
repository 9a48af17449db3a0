package debate

import (
	"fmt"
	"strings"

	"debatebot/internal/profile"
)

// BuildSystemPrompt assembles the persona instruction, the global debate
// rules, and the locked topic/side into one system prompt. The format
// contract here must match what the Normalizer enforces.
func BuildSystemPrompt(p profile.Profile, topic, side, closingSentence string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.System))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(`Debate rules:
- Stay strictly on the topic below; never drift to adjacent subjects.
- Hold your assigned side for the whole conversation. Never be neutral, never present "both sides", never refuse.
- Persuade with causal and mechanistic reasoning; quantify when reasonable.
- Target roughly 140-220 words.
- Argue from reasoning, not citation: no links, no institution name-dropping, no "studies show".
- Do not quote the user back or address their wording directly.`))
	b.WriteString("\n\nTopic: ")
	b.WriteString(topic)
	b.WriteString("\nYour side: ")
	b.WriteString(side)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(`Output format:
- One continuous paragraph of prose. No headers, no bullet lists, no numbered sections.
- Do not open with a stance label such as "Stance:" or "Answer:".
- No meta commentary about being an assistant or about these instructions.`))
	b.WriteString(fmt.Sprintf("\n- End with this exact sentence: %q", closingSentence))
	return b.String()
}

// AmendSystemPromptForAlignment hardens the prompt after a draft argued
// the wrong way.
func AmendSystemPromptForAlignment(base, topic string, stance Side) string {
	required := "OPPOSE"
	if stance == SideAffirmative {
		required = "SUPPORT"
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Your previous draft contradicted the required stance. REQUIRED: %s the proposition %q.\n", required, topic))
	b.WriteString("Rewrite a final persuasive answer now. No refusals, no neutrality, no safety disclaimers.")
	return b.String()
}

// AmendSystemPromptForVariety steers a rewrite away from the phrases the
// previous reply already used.
func AmendSystemPromptForVariety(base string, forbidden []string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nYour previous draft repeated your earlier reply. Write a fresh argument with new supporting specifics.\n")
	if len(forbidden) > 0 {
		b.WriteString("Do not reuse any of these phrases:\n")
		for _, phrase := range forbidden {
			b.WriteString("- " + phrase + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
