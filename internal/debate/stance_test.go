package debate

import (
	"strings"
	"testing"
)

func TestBotSideOpposesUser(t *testing.T) {
	topic := "The Earth is flat"

	side := BotSideFor(topic, SideAffirmative)
	if side != "Negative (oppose): The Earth is flat" {
		t.Fatalf("unexpected bot side for affirmative user: %q", side)
	}
	if StanceTypeFrom(side) != SideNegative {
		t.Fatalf("stance type of %q should be negative", side)
	}

	side = BotSideFor(topic, SideNegative)
	if side != "Affirmative (support): The Earth is flat" {
		t.Fatalf("unexpected bot side for negative user: %q", side)
	}
	if StanceTypeFrom(side) != SideAffirmative {
		t.Fatalf("stance type of %q should be affirmative", side)
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
	}{
		{"negative", SideNegative},
		{"  NEGATIVE ", SideNegative},
		{"affirmative", SideAffirmative},
		{"pro", SideAffirmative},
		{"", SideAffirmative},
		{"garbage", SideAffirmative},
	}
	for _, tc := range tests {
		if got := ParseSide(tc.in); got != tc.want {
			t.Fatalf("ParseSide(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOppositeIsInvolution(t *testing.T) {
	for _, s := range []Side{SideAffirmative, SideNegative} {
		if s.Opposite().Opposite() != s {
			t.Fatalf("double opposite of %q is not identity", s)
		}
		if s.Opposite() == s {
			t.Fatalf("opposite of %q equals itself", s)
		}
	}
}

func TestSimilarityMeasures(t *testing.T) {
	if got := Jaccard("", ""); got != 1 {
		t.Fatalf("Jaccard of two empty texts = %v, want 1", got)
	}
	if got := Jaccard("the earth is flat", ""); got != 0 {
		t.Fatalf("Jaccard against empty = %v, want 0", got)
	}
	if got := Jaccard("the earth is flat", "The Earth is FLAT"); got != 1 {
		t.Fatalf("Jaccard should ignore case, got %v", got)
	}
	if got := Jaccard("gravity bends light", "oceans hug the shoreline"); got != 0 {
		t.Fatalf("disjoint texts should score 0, got %v", got)
	}

	if got := PrefixRatio("abcdef", "abcxyz"); got != 0.5 {
		t.Fatalf("PrefixRatio = %v, want 0.5", got)
	}
	if got := PrefixRatio("", ""); got != 1 {
		t.Fatalf("PrefixRatio of empties = %v, want 1", got)
	}

	shingles := Shingles("one two three four five six seven eight", 4, 3)
	if len(shingles) == 0 || len(shingles) > 3 {
		t.Fatalf("unexpected shingle count: %d", len(shingles))
	}
	for _, s := range shingles {
		if len(strings.Fields(s)) != 4 {
			t.Fatalf("shingle %q is not 4 words", s)
		}
	}
	if Shingles("too short", 4, 3) != nil {
		t.Fatal("expected no shingles from text shorter than n")
	}
}

func TestIntentDetection(t *testing.T) {
	if !DetectAgreement("Ok, you convinced me.") {
		t.Fatal("concession not detected")
	}
	if DetectAgreement("I will never agree with that.") {
		t.Fatal("false agreement on disagreement text")
	}
	if !TopicChangeRequested("let's pick another topic please") {
		t.Fatal("topic change not detected")
	}
	if TopicChangeRequested("the topic is fine") {
		t.Fatal("false topic change")
	}
}

func TestAppendInviteIdempotent(t *testing.T) {
	reply := "The geometry settles it."
	withInvite := AppendInvite(reply)
	if !strings.Contains(withInvite, InviteSentence) {
		t.Fatalf("invite missing: %q", withInvite)
	}
	if again := AppendInvite(withInvite); again != withInvite {
		t.Fatalf("invite appended twice: %q", again)
	}
}
