package demon

import (
	"regexp"
	"strings"

	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// Intent is the closed set of utterance intents spec §4.3.1 names.
type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentQuestion  Intent = "question"
	IntentRequest   Intent = "request"
	IntentConfusion Intent = "confusion"
	IntentCorrection Intent = "correction"
	IntentClaim     Intent = "claim"
	IntentUnknown   Intent = "unknown"
)

// Subject is the closed set of subject buckets spec §4.3.1 names.
type Subject string

const (
	SubjectMath       Subject = "mathematics"
	SubjectPhysics    Subject = "physics"
	SubjectChemistry  Subject = "chemistry"
	SubjectBiology    Subject = "biology"
	SubjectHistory    Subject = "history"
	SubjectLanguage   Subject = "language"
	SubjectCompSci    Subject = "computer_science"
	SubjectGeography  Subject = "geography"
	SubjectEconomics  Subject = "economics"
	SubjectGeneral    Subject = "general"
)

var (
	greetingRe  = regexp.MustCompile(`^(hi|hello|hey|greetings|yo|good\s+(morning|afternoon|evening))\b`)
	questionLeadRe = regexp.MustCompile(`^(what|why|how|who|when|where|which|is|are|do|does|did|can|could|would|should|will)\b`)
	confusionRe = regexp.MustCompile(`\b(confused|don'?t\s+understand|doesn'?t\s+make\s+sense|makes?\s+no\s+sense|i'?m\s+lost|i'?m\s+stuck)\b`)
	correctionRe = regexp.MustCompile(`^(no,|no\s|actually,|actually\s|that'?s\s+(not|wrong)|i\s+meant)\b`)
	requestRe   = regexp.MustCompile(`^(please\b|can\s+you|could\s+you|show\s+me|help\s+me|teach\s+me|give\s+me)\b`)
	punctRe     = regexp.MustCompile(`[^\w\s]`)
)

var subjectKeywords = []struct {
	subject Subject
	re      *regexp.Regexp
}{
	{SubjectMath, regexp.MustCompile(`\b(math|mathematics|algebra|geometry|calculus|equation|arithmetic|trigonometry|fraction)\b`)},
	{SubjectPhysics, regexp.MustCompile(`\b(physics|force|energy|gravity|velocity|momentum|quantum|motion|friction|electricity|voltage|current)\b`)},
	{SubjectChemistry, regexp.MustCompile(`\b(chemistry|element|molecule|reaction|compound|acid|atom|bond|chemical)\b`)},
	{SubjectBiology, regexp.MustCompile(`\b(biology|cell|organism|dna|gene|evolution|photosynthesis|species|ecosystem)\b`)},
	{SubjectHistory, regexp.MustCompile(`\b(history|war|empire|revolution|ancient|century|dynasty|civilization)\b`)},
	{SubjectLanguage, regexp.MustCompile(`\b(grammar|verb|noun|sentence|language|vocabulary|spelling|syntax|pronoun)\b`)},
	{SubjectCompSci, regexp.MustCompile(`\b(algorithm|program|code|function|variable|computer|software|database|loop)\b`)},
	{SubjectGeography, regexp.MustCompile(`\b(geography|continent|country|map|climate|ocean|mountain|river)\b`)},
	{SubjectEconomics, regexp.MustCompile(`\b(economics|market|supply|demand|inflation|trade|economy|currency)\b`)},
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "with": true, "about": true, "what": true, "how": true, "why": true,
	"who": true, "when": true, "where": true, "which": true, "do": true, "does": true, "did": true,
	"can": true, "could": true, "would": true, "should": true, "will": true, "shall": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
	"this": true, "that": true, "these": true, "those": true, "and": true, "or": true, "but": true,
	"not": true, "no": true, "yes": true, "please": true, "me": true, "my": true, "your": true,
	"tell": true, "explain": true, "describe": true, "define": true, "work": true, "works": true,
	"hi": true, "hello": true, "hey": true, "yo": true, "greetings": true,
	// apostrophes are stripped to spaces before tokenizing, so "don't"/
	// "doesn't" arrive as "don"/"doesn" plus a dangling "t" (dropped by
	// the single-character filter on its own).
	"don": true, "doesn": true, "understand": true, "confused": true, "stuck": true, "lost": true,
}

var focusPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^what\s+(?:is|are)\s+(?:an?\s+)?(.+?)[\?\.\s]*$`),
	regexp.MustCompile(`(?i)^how\s+does\s+(.+?)\s+work\b`),
	regexp.MustCompile(`(?i)^how\s+(?:do|does)\s+(.+?)[\?\.\s]*$`),
	regexp.MustCompile(`(?i)^why\s+is\s+(.+?)[\?\.\s]*$`),
	regexp.MustCompile(`(?i)^(?:explain|describe|define|tell\s+me\s+about)\s+(.+?)[\?\.\s]*$`),
}

// chainByIntent implements spec §4.3.1's chain table.
var chainByIntent = map[Intent][]ID{
	IntentQuestion:   {Relate, Infer, Question},
	IntentRequest:    {Relate, Infer, Question},
	IntentClaim:      {Relate, Infer, Decompose},
	IntentConfusion:  {Decompose, Analogize, Question},
	IntentCorrection: {Relate, Infer},
	IntentGreeting:   {Question},
}

// RunParse is the new_input demon (spec §4.3.1).
func RunParse(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	raw := view.LatestByTag(workingmemory.TagRawInput)
	if raw == nil {
		return Plan{}
	}
	input := raw.Content.Text
	lower := strings.ToLower(strings.TrimSpace(input))
	tokens := strings.Fields(punctRe.ReplaceAllString(lower, " "))

	intent := detectIntent(lower, len(tokens))
	subject := detectSubject(lower)
	phrases := extractNounPhrases(lower)

	var writes []workingmemory.Slot
	writes = append(writes,
		workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(intent)}, Confidence: 1, SourceDemon: string(Parse), TTL: workingmemory.TTLEndOfTurn},
		workingmemory.Slot{Tag: workingmemory.TagSubject, Content: workingmemory.SlotContent{Text: string(subject)}, Confidence: 1, SourceDemon: string(Parse), TTL: workingmemory.TTLEndOfTurn},
	)
	for _, p := range phrases {
		writes = append(writes, workingmemory.Slot{Tag: workingmemory.TagNounPhrase, Content: workingmemory.SlotContent{Text: p}, Confidence: 1, SourceDemon: string(Parse), TTL: 10})
	}
	if intent == IntentQuestion || intent == IntentRequest {
		focus := extractFocus(strings.TrimSpace(input))
		writes = append(writes, workingmemory.Slot{Tag: workingmemory.TagQuestionFocus, Content: workingmemory.SlotContent{Text: strings.ToLower(focus)}, Confidence: 1, SourceDemon: string(Parse), TTL: workingmemory.TTLEndOfTurn})
	}

	chain, ok := chainByIntent[intent]
	if !ok {
		chain = []ID{Relate, Question}
	}

	return Plan{Write: writes, Chain: chain}
}

func detectIntent(lower string, tokenCount int) Intent {
	switch {
	case greetingRe.MatchString(lower):
		return IntentGreeting
	case strings.Contains(lower, "?") || questionLeadRe.MatchString(lower):
		return IntentQuestion
	case confusionRe.MatchString(lower):
		return IntentConfusion
	case correctionRe.MatchString(lower):
		return IntentCorrection
	case requestRe.MatchString(lower):
		return IntentRequest
	case tokenCount > 2:
		return IntentClaim
	default:
		return IntentUnknown
	}
}

func detectSubject(lower string) Subject {
	for _, sk := range subjectKeywords {
		if sk.re.MatchString(lower) {
			return sk.subject
		}
	}
	return SubjectGeneral
}

// extractNounPhrases implements spec §4.3.1's "lower-case, strip
// punctuation, split on whitespace, drop stop-words and single
// characters; yield both contiguous non-stop-word groups and remaining
// atoms; deduplicate preserving insertion order."
func extractNounPhrases(lower string) []string {
	cleaned := punctRe.ReplaceAllString(lower, " ")
	tokens := strings.Fields(cleaned)

	var phrases []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		phrases = append(phrases, s)
	}

	var run []string
	flush := func() {
		if len(run) > 1 {
			add(strings.Join(run, " "))
		}
		for _, w := range run {
			add(w)
		}
		run = nil
	}
	for _, t := range tokens {
		if len(t) <= 1 || stopWords[t] {
			flush()
			continue
		}
		run = append(run, t)
	}
	flush()
	return phrases
}

// extractFocus returns the captured focal phrase from the first lead
// pattern that matches. When a question is phrased in a way none of them
// recognize ("does X exist?", "is X true?", and the like), it falls back
// to the whole trimmed input.
func extractFocus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, re := range focusPatterns {
		if m := re.FindStringSubmatch(trimmed); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return trimmed
}
