package debate

import "regexp"

// Heuristic pattern data for the classifier, guards, and intent
// detection. Kept out of control flow so the lists can be extended and
// tested on their own.

// topicStrippers remove leading discourse markers before text becomes a
// topic proposition.
var topicStrippers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(let'?s|vamos a)\s+(talk|hablar)\s+(about|de)\s*:?\s*`),
	regexp.MustCompile(`(?i)^(hablemos|hablamos)\s+(de|sobre)\s*:?\s*`),
	regexp.MustCompile(`(?i)^tema\s*:\s*`),
	regexp.MustCompile(`(?i)^topic\s*:\s*`),
	regexp.MustCompile(`(?i)^i\s+(think|believe)\s+(that\s+)?`),
}

// negationRules canonicalize a negated proposition into its positive
// form. Order matters: contracted forms before the bare "not".
type negationRule struct {
	pattern *regexp.Regexp
	replace string
}

var negationRules = []negationRule{
	{regexp.MustCompile(`(?i)\bisn'?t\b`), "is"},
	{regexp.MustCompile(`(?i)\baren'?t\b`), "are"},
	{regexp.MustCompile(`(?i)\bwasn'?t\b`), "was"},
	{regexp.MustCompile(`(?i)\bdoesn'?t\s+`), "does "},
	{regexp.MustCompile(`(?i)\bdon'?t\s+`), "do "},
	{regexp.MustCompile(`(?i)\bcannot\s+`), "can "},
	{regexp.MustCompile(`(?i)\bcan'?t\s+`), "can "},
	{regexp.MustCompile(`(?i)\bis\s+not\b`), "is"},
	{regexp.MustCompile(`(?i)\bare\s+not\b`), "are"},
	{regexp.MustCompile(`(?i)\bdo\s+not\s+`), "do "},
	{regexp.MustCompile(`(?i)\bnever\s+`), ""},
	{regexp.MustCompile(`(?i)\bno\s+es\b`), "es"},
	{regexp.MustCompile(`(?i)\bnot\s+`), ""},
}

// refusalMarkers flag drafts that decline to argue.
var refusalMarkers = []string{
	"i cannot",
	"i can't",
	"i cant",
	"i will not",
	"i won't",
	"cannot provide",
	"cannot assist",
	"i am unable",
	"as an ai",
	"i refuse",
	"cannot help with",
}

// neutralityMarkers flag drafts that hedge instead of taking the
// assigned side.
var neutralityMarkers = []string{
	"both sides",
	"on the one hand",
	"neutral",
	"there are valid arguments on each side",
	"i see merit in both",
}

// stanceHeaderLine matches a leading stance announcement the model was
// told not to produce.
var stanceHeaderLine = regexp.MustCompile(`(?i)^\s*(stance|side|position|answer)\s*[:\-]`)

// sectionLabel matches structural headers that must be flattened into
// prose.
var sectionLabel = regexp.MustCompile(`(?i)^\s*(thesis|reasons?|concession|challenge|rebuttal|conclusion|closing|evidence|summary)\s*[:\-]\s*`)

// listMarker matches enumerated or bulleted list prefixes.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\(?\d+[.)\]]|[a-z][.)])\s+`)

// logNoiseLine matches backend/log artifacts that leak into completions.
var logNoiseLine = regexp.MustCompile(`(?i)^\s*(\[?(debug|info|warn|warning|error|trace)\]?\b|llama_|ggml_|load time|eval rate|tokens?/s|total duration)`)

// userAddressMarkers flag sentences that quote or address the user
// directly instead of arguing the case.
var userAddressMarkers = []string{
	"you said",
	"you say",
	"you claimed",
	"you argue",
	"you mentioned",
	"your argument",
	"your point",
	"as you put it",
}

// citationMarkers flag appeals to external authority; the bot argues
// from reasoning, not citation.
var citationMarkers = []string{
	"peer-reviewed",
	"peer reviewed",
	"look it up",
	"according to a study",
	"studies show",
	"http://",
	"https://",
	"www.",
	"citation",
	"harvard",
	"stanford",
	"nasa confirms",
	"world health organization",
}

// agreementMarkers detect user concession phrases.
var agreementMarkers = []string{
	"i agree",
	"you convinced me",
	"you've convinced me",
	"you have convinced me",
	"you're right",
	"you are right",
	"i concede",
	"i was wrong",
	"fair enough, you win",
	"estoy de acuerdo",
}

// topicChangeMarkers detect explicit requests to debate something else.
var topicChangeMarkers = []string{
	"new topic",
	"another topic",
	"different topic",
	"change the topic",
	"change topic",
	"change of topic",
	"switch topics",
	"switch the topic",
	"let's talk about",
	"lets talk about",
	"talk about something else",
	"hablemos de",
	"otro tema",
	"cambiar de tema",
}
