// Package debate implements the stance-consistency pipeline: topic
// classification, opposing stance assignment, prompt construction, reply
// normalization, alignment and redundancy guards, and the per-turn
// engine that ties them to the conversation store.
package debate

import "strings"

// Side is a stance relative to the canonical topic proposition.
type Side string

const (
	SideAffirmative Side = "affirmative"
	SideNegative    Side = "negative"
)

func (s Side) Opposite() Side {
	if s == SideAffirmative {
		return SideNegative
	}
	return SideAffirmative
}

// ParseSide coerces free-form side values; anything out of enum becomes
// affirmative.
func ParseSide(raw string) Side {
	if Side(strings.ToLower(strings.TrimSpace(raw))) == SideNegative {
		return SideNegative
	}
	return SideAffirmative
}

// BotSideFor derives the bot's side label from the user's side. The bot
// always opposes the user.
func BotSideFor(topic string, userSide Side) string {
	if userSide == SideAffirmative {
		return "Negative (oppose): " + topic
	}
	return "Affirmative (support): " + topic
}

// StanceTypeFrom extracts the canonical side from a bot side label by its
// leading token.
func StanceTypeFrom(sideLabel string) Side {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(sideLabel)), "affirmative") {
		return SideAffirmative
	}
	return SideNegative
}
