package debate

import "strings"

// tokenize lowercases and splits on non-letter/digit boundaries.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r > 127)
	})
}

// Jaccard is the token-set similarity of two texts. Two empty texts are
// identical by convention.
func Jaccard(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, tok := range tokenize(a) {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, tok := range tokenize(b) {
		setB[tok] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// PrefixRatio is the longest common character prefix over the longer
// length.
func PrefixRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}

	common := 0
	for common < len(ra) && common < len(rb) && ra[common] == rb[common] {
		common++
	}
	return float64(common) / float64(longer)
}

// Shingles extracts up to max n-word shingles from text, spread across
// its length, for use as a forbidden-phrase list in rewrites.
func Shingles(text string, n, max int) []string {
	tokens := tokenize(text)
	if n <= 0 || len(tokens) < n || max <= 0 {
		return nil
	}

	total := len(tokens) - n + 1
	step := total / max
	if step < 1 {
		step = 1
	}

	out := make([]string, 0, max)
	for i := 0; i < total && len(out) < max; i += step {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}
