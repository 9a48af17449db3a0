package debate

import "strings"

// InviteSentence is appended once the user has conceded, offering a
// topic switch. Appending is idempotent.
const InviteSentence = "If you'd like, we can switch to another topic - just say the word."

// DetectAgreement reports whether the user's message concedes the
// debate.
func DetectAgreement(text string) bool {
	return containsAny(strings.ToLower(text), agreementMarkers)
}

// TopicChangeRequested reports whether the user explicitly asks to
// debate something else.
func TopicChangeRequested(text string) bool {
	return containsAny(strings.ToLower(text), topicChangeMarkers)
}

// AppendInvite attaches the switch-topics invitation unless the reply
// already carries one.
func AppendInvite(reply string) string {
	low := strings.ToLower(reply)
	if strings.Contains(low, strings.ToLower(InviteSentence)) ||
		strings.Contains(low, "another topic") ||
		strings.Contains(low, "otro tema") {
		return reply
	}
	return strings.TrimRight(reply, " ") + " " + InviteSentence
}
