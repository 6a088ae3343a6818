package demon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

var (
	numberRe         = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	booleanRe        = regexp.MustCompile(`^(true|false|yes|no)$`)
	processSuffixRe  = regexp.MustCompile(`(ing|tion|sis|ment)$`)
	// "-ity" is deliberately excluded: it would misclassify core abstract
	// concepts like gravity, electricity, and velocity as properties.
	propertySuffixRe = regexp.MustCompile(`(ness|ful|ous|ive|able)$`)
)

var subjectBuckets = map[string]bool{
	"mathematics": true, "physics": true, "chemistry": true, "biology": true,
	"history": true, "language": true, "computer_science": true, "geography": true,
	"economics": true, "general": true,
}

// learnPattern is one entry in the re-scan table spec §4.3.7 names for
// deriving relations straight from raw_input.
type learnPattern struct {
	re  *regexp.Regexp
	typ graphstore.RelationType
}

var learnPatterns = []learnPattern{
	{regexp.MustCompile(`(?i)^(.+?)\s+is\s+an?\s+(.+)$`), graphstore.IsA},
	{regexp.MustCompile(`(?i)^(.+?)\s+(?:causes|leads to|results in)\s+(.+)$`), graphstore.Causes},
	{regexp.MustCompile(`(?i)^(.+?)\s+produces\s+(.+)$`), graphstore.Produces},
	{regexp.MustCompile(`(?i)^(.+?)\s+(?:has|contains)\s+(.+)$`), graphstore.Has},
	{regexp.MustCompile(`(?i)^(.+?)\s+is\s+part\s+of\s+(.+)$`), graphstore.PartOf},
	{regexp.MustCompile(`(?i)^(.+?)\s+(?:requires|needs)\s+(.+)$`), graphstore.Requires},
	{regexp.MustCompile(`(?i)^(.+?)\s+(?:equals|is\s+equal\s+to|=)\s+(.+)$`), graphstore.Equals},
	{regexp.MustCompile(`(?i)^(.+?)\s+is\s+used\s+(?:for|to)\s+(.+)$`), graphstore.UsedFor},
}

func inferNounType(label string) graphstore.NounType {
	switch {
	case numberRe.MatchString(label), booleanRe.MatchString(label):
		return graphstore.NounValue
	case processSuffixRe.MatchString(label):
		return graphstore.NounProcess
	case propertySuffixRe.MatchString(label):
		return graphstore.NounProperty
	case subjectBuckets[label]:
		return graphstore.NounContext
	default:
		return graphstore.NounConcept
	}
}

// RunLearn persists the turn's working memory back into the graph. It is
// the only demon permitted to mutate the graph store (spec §4.3.7).
// Individual link failures are logged and do not abort the rest of the
// persistence pass.
func RunLearn(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	subject := SubjectGeneral
	if s := view.LatestByTag(workingmemory.TagSubject); s != nil {
		subject = Subject(s.Content.Text)
	}

	var logs []Action
	logf := func(format string, args ...any) {
		logs = append(logs, LogAction(fmt.Sprintf(format, args...)))
	}

	for _, s := range view.FindByTag(workingmemory.TagNounPhrase) {
		label := s.Content.Text
		if _, err := ctx.Store.EnsureNoun(label, inferNounType(label), nil); err != nil {
			logf("learn: ensure_noun(%s): %v", label, err)
		}
	}

	if subject != SubjectGeneral {
		if _, err := ctx.Store.EnsureNoun(string(subject), graphstore.NounContext, nil); err != nil {
			logf("learn: ensure_noun(subject %s): %v", subject, err)
		}
	}

	if raw := view.LatestByTag(workingmemory.TagRawInput); raw != nil {
		trimmed := strings.TrimSpace(raw.Content.Text)
		for _, lp := range learnPatterns {
			m := lp.re.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			from := strings.ToLower(strings.TrimSpace(m[1]))
			to := strings.ToLower(strings.TrimSpace(m[2]))
			if from == "" || to == "" {
				break
			}
			if _, err := ctx.Store.Link(from, lp.typ, to, 0.6, string(subject)); err != nil {
				logf("learn: link(%s,%s,%s): %v", from, lp.typ, to, err)
			}
			break
		}
	}

	for _, s := range view.FindByTag(workingmemory.TagRelation) {
		if s.Content.Relation == nil || s.Confidence < 0.5 {
			continue
		}
		r := s.Content.Relation
		if _, err := ctx.Store.Link(r.FromLabel, graphstore.RelationType(r.Type), r.ToLabel, r.Weight, ""); err != nil {
			logf("learn: link(%s,%s,%s): %v", r.FromLabel, r.Type, r.ToLabel, err)
		}
	}

	focus := targetConcept(view)
	intent := IntentUnknown
	if s := view.LatestByTag(workingmemory.TagIntent); s != nil {
		intent = Intent(s.Content.Text)
	}

	hadTopicAlready := view.LatestByTag(workingmemory.TagStudentTopic) != nil

	var writes []workingmemory.Slot
	if focus != "" {
		writes = append(writes, workingmemory.Slot{
			Tag: workingmemory.TagStudentTopic, Content: workingmemory.SlotContent{Text: focus},
			Confidence: 1, SourceDemon: string(Learn), TTL: 30,
		})
	}
	if intent == IntentConfusion {
		writes = append(writes, workingmemory.Slot{
			Tag: workingmemory.TagStudentConfusion, Content: workingmemory.SlotContent{Text: focus},
			Confidence: 1, SourceDemon: string(Learn), TTL: 50,
		})
	}

	if focus != "" && !hadTopicAlready {
		if _, err := ctx.Store.Link("student", graphstore.RelatesTo, focus, 0.5, "currently_studying"); err != nil {
			logf("learn: link(student,relates_to,%s): %v", focus, err)
		}
	}

	return Plan{Write: writes, Actions: logs}
}
