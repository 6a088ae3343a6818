package demon

import (
	"fmt"
	"strings"

	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// generalGreetings are the four variants spec §4.3.6 names for a general,
// subject-less greeting. The choice among them is deterministic (first
// variant) rather than random, so a given working-memory state always
// produces the same response.
var generalGreetings = []string{
	"Hi there! What would you like to learn about today?",
	"Hello! I'm ready whenever you are — what's on your mind?",
	"Hey! Pick a topic and let's dig into it.",
	"Good to see you. What shall we explore?",
}

// RunQuestion is the terminal demon: it always emits exactly one
// response action and never chains further (spec §4.3.6).
func RunQuestion(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	text := buildResponse(view)
	writes := []workingmemory.Slot{{
		Tag:         workingmemory.TagResponse,
		Content:     workingmemory.SlotContent{Text: text},
		Confidence:  1,
		SourceDemon: string(Question),
		TTL:         20,
	}}
	return Plan{Write: writes, Actions: []Action{Respond(text)}}
}

// buildResponse is the strict, ordered first-match dispatch spec §4.3.6
// tabulates.
func buildResponse(view workingmemory.View) string {
	intent := IntentUnknown
	if s := view.LatestByTag(workingmemory.TagIntent); s != nil {
		intent = Intent(s.Content.Text)
	}
	subject := SubjectGeneral
	if s := view.LatestByTag(workingmemory.TagSubject); s != nil {
		subject = Subject(s.Content.Text)
	}
	focus := currentFocus(view)

	if intent == IntentGreeting {
		return greetingResponse(subject)
	}

	if c := view.LatestByTag(workingmemory.TagContradiction); c != nil && c.Content.Contradiction != nil {
		return fmt.Sprintf("Hold on — %s. Which one is correct?", c.Content.Contradiction.Reason)
	}

	simp := view.LatestByTag(workingmemory.TagSimplificationNeeded)
	if intent == IntentConfusion || simp != nil {
		return confusionResponse(view, focus)
	}

	if intent == IntentClaim {
		if ca := view.LatestByTag(workingmemory.TagClaimAssessment); ca != nil && ca.Content.ClaimAssessment != nil {
			return claimResponse(view, ca.Content.ClaimAssessment)
		}
	}

	if intent == IntentQuestion || intent == IntentRequest {
		return questionResponse(view, focus)
	}

	if intent == IntentCorrection {
		return "Thanks for the correction — what was wrong about it, and what should it say instead?"
	}

	if focus == "" {
		focus = "this"
	}
	return fmt.Sprintf("Let's explore %s — what do you already know about it?", focus)
}

func currentFocus(view workingmemory.View) string {
	if focus := view.LatestByTag(workingmemory.TagQuestionFocus); focus != nil && focus.Content.Text != "" {
		return focus.Content.Text
	}
	if np := view.LatestByTag(workingmemory.TagNounPhrase); np != nil {
		return np.Content.Text
	}
	return ""
}

func greetingResponse(subject Subject) string {
	if subject != SubjectGeneral {
		return fmt.Sprintf("Hi! Ready to dig into %s? What aspect interests you?", strings.ReplaceAll(string(subject), "_", " "))
	}
	return generalGreetings[0]
}

func confusionResponse(view workingmemory.View, focus string) string {
	var b strings.Builder
	b.WriteString("Let's break this down.")
	if a := view.LatestByTag(workingmemory.TagAnalogy); a != nil && a.Content.Analogy != nil {
		af := a.Content.Analogy
		if af.Explanation != "" {
			b.WriteString(fmt.Sprintf(" Think of %s as %s — %s.", af.Concept, af.Analog, af.Explanation))
		} else {
			b.WriteString(fmt.Sprintf(" Think of %s as being like %s.", af.Concept, af.Analog))
		}
	}
	if d := view.LatestByTag(workingmemory.TagDecomposition); d != nil && d.Content.Decomposition != nil && len(d.Content.Decomposition.Parts) > 0 {
		b.WriteString(fmt.Sprintf(" Let's start with %s — what do you already know about it?", d.Content.Decomposition.Parts[0]))
	} else if focus != "" {
		b.WriteString(fmt.Sprintf(" What part of %s is giving you trouble?", focus))
	}
	return b.String()
}

func claimResponse(view workingmemory.View, ca *workingmemory.ClaimAssessmentFact) string {
	switch {
	case ca.Confidence > 0.7:
		if inf := view.LatestByTag(workingmemory.TagInferredRelation); inf != nil && inf.Content.Relation != nil {
			r := inf.Content.Relation
			return fmt.Sprintf("That checks out well. Since that's true, would you also expect %s to %s %s?", r.FromLabel, humanizeRelation(r.Type), r.ToLabel)
		}
		return "That checks out well — what made you think of it?"
	case ca.Confidence < 0.3:
		if len(ca.Unsupported) > 0 {
			return fmt.Sprintf("I'm not seeing support for %s yet — what makes you say that?", ca.Unsupported[0])
		}
		return "I'm not convinced yet — what's your evidence?"
	default:
		return "That's partly right. Can you give me an example that backs it up?"
	}
}

func questionResponse(view workingmemory.View, focus string) string {
	if gaps := view.LatestByTag(workingmemory.TagKnowledgeGaps); gaps != nil && len(gaps.Content.Strings) > 0 {
		return fmt.Sprintf("Before we go further, let's cover %s — what do you know about it?", gaps.Content.Strings[0])
	}

	if unk := view.LatestByTag(workingmemory.TagUnknownConcepts); unk != nil {
		for _, u := range unk.Content.Strings {
			if u != focus {
				continue
			}
			var b strings.Builder
			b.WriteString(fmt.Sprintf("I don't have %s in my notes yet.", focus))
			if a := view.LatestByTag(workingmemory.TagAnalogy); a != nil && a.Content.Analogy != nil && a.Content.Analogy.Explanation != "" {
				b.WriteString(fmt.Sprintf(" One way to think about it: %s.", a.Content.Analogy.Explanation))
			}
			if d := view.LatestByTag(workingmemory.TagDecomposition); d != nil && d.Content.Decomposition != nil && len(d.Content.Decomposition.SolutionSteps) > 0 {
				b.WriteString(fmt.Sprintf(" A good first step is to %s.", d.Content.Decomposition.SolutionSteps[0]))
			}
			b.WriteString(" What do you already know about it?")
			return b.String()
		}
	}

	rel := view.LatestByTag(workingmemory.TagInferredRelation)
	if rel == nil {
		rel = view.LatestByTag(workingmemory.TagRelation)
	}
	if rel != nil && rel.Content.Relation != nil {
		q := relationQuestion(rel.Content.Relation)
		if d := view.LatestByTag(workingmemory.TagDecomposition); d != nil && d.Content.Decomposition != nil && len(d.Content.Decomposition.Parts) > 0 {
			hint := d.Content.Decomposition.Parts
			if len(hint) > 3 {
				hint = hint[:3]
			}
			q += fmt.Sprintf(" (Some related pieces: %s.)", strings.Join(hint, ", "))
		}
		return q
	}

	if a := view.LatestByTag(workingmemory.TagAnalogy); a != nil && a.Content.Analogy != nil {
		af := a.Content.Analogy
		return fmt.Sprintf("Think of %s like %s. Does that help explain it?", af.Concept, af.Analog)
	}

	if ex := view.LatestByTag(workingmemory.TagExamples); ex != nil && len(ex.Content.Strings) > 0 {
		return fmt.Sprintf("For example, consider %s. Does that fit what you're asking?", ex.Content.Strings[0])
	}

	if focus == "" {
		focus = "this"
	}
	return fmt.Sprintf("I'm not sure yet — what's your best guess about %s?", focus)
}

func relationQuestion(r *workingmemory.RelationFact) string {
	switch r.Type {
	case "causes":
		return fmt.Sprintf("What effects do you think %s has, beyond %s?", r.FromLabel, r.ToLabel)
	case "is_a":
		return fmt.Sprintf("%s is a kind of %s — what other members of that category can you think of?", r.FromLabel, r.ToLabel)
	case "has", "contains":
		return fmt.Sprintf("%s has %s — what other components does it have?", r.FromLabel, r.ToLabel)
	case "requires":
		return fmt.Sprintf("%s requires %s — what else do you think it depends on?", r.FromLabel, r.ToLabel)
	case "opposes":
		return fmt.Sprintf("%s opposes %s — what would the opposite of %s look like?", r.FromLabel, r.ToLabel, r.FromLabel)
	default:
		return fmt.Sprintf("How do you think %s relates to %s?", r.FromLabel, r.ToLabel)
	}
}

func humanizeRelation(t string) string {
	switch t {
	case "causes":
		return "cause"
	case "is_a":
		return "be a kind of"
	case "has", "contains":
		return "have"
	case "requires":
		return "require"
	case "opposes":
		return "oppose"
	default:
		return "relate to"
	}
}
