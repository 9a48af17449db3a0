package conversation

import (
	"strings"
	"testing"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"string", ""},
		{"null", ""},
		{"undefined", ""},
		{"None", ""},
		{"N/A", ""},
		{"na", ""},
		{"0", ""},
		{" abc123 ", "abc123"},
	}
	for _, tc := range cases {
		if got := NormalizeID(tc.in); got != tc.want {
			t.Fatalf("NormalizeID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewIDHasNoDashes(t *testing.T) {
	id := NewID()
	if strings.Contains(id, "-") {
		t.Fatalf("id contains dashes: %s", id)
	}
	if len(id) != 32 {
		t.Fatalf("unexpected id length: %d", len(id))
	}
}

func TestAppendCapsHistory(t *testing.T) {
	var conv Conversation
	for i := 0; i < MaxMessages+7; i++ {
		conv.Append(RoleUser, "m")
	}
	if len(conv.Messages) != MaxMessages {
		t.Fatalf("expected %d messages, got %d", MaxMessages, len(conv.Messages))
	}
}

func TestWindow(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Message: "a"},
		{Role: RoleAssistant, Message: "b"},
		{Role: RoleUser, Message: "c"},
	}
	got := Window(msgs, 2)
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Fatalf("unexpected window: %#v", got)
	}
	if len(Window(msgs, 10)) != 3 {
		t.Fatal("window larger than history must return all messages")
	}
}

func TestLastAssistant(t *testing.T) {
	var conv Conversation
	if _, ok := conv.LastAssistant(); ok {
		t.Fatal("empty conversation must have no assistant turn")
	}
	conv.Append(RoleUser, "hello")
	conv.Append(RoleAssistant, "first")
	conv.Append(RoleUser, "again")
	conv.Append(RoleAssistant, "second")
	msg, ok := conv.LastAssistant()
	if !ok || msg.Message != "second" {
		t.Fatalf("unexpected last assistant: %#v ok=%t", msg, ok)
	}
}

func TestTruncateUserText(t *testing.T) {
	long := strings.Repeat("x", MaxUserMessageChars+50)
	if got := TruncateUserText(long); len([]rune(got)) != MaxUserMessageChars {
		t.Fatalf("unexpected truncated length: %d", len([]rune(got)))
	}
	if got := TruncateUserText("short"); got != "short" {
		t.Fatalf("short text must pass through, got %q", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	conv := Conversation{
		Meta: Meta{
			Topic:      "The Earth is flat",
			Side:       "Negative (oppose): The Earth is flat",
			StanceType: "negative",
			ProfileID:  "smart_shy",
			UserSide:   "affirmative",
		},
		Messages: []Message{{Role: RoleUser, Message: "hi"}},
	}
	data, err := Marshal(conv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Meta.Topic != conv.Meta.Topic || len(got.Messages) != 1 {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}
