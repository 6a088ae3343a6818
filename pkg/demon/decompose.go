package demon

import (
	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// heuristicSteps is the canonical, subject-keyed step list spec §4.3.4's
// "heuristic decomposition" names, independent of graph content.
var heuristicSteps = map[Subject][]string{
	SubjectMath:      {"identify the knowns and unknowns", "choose the relevant operation or formula", "work through the steps in order", "check the result against the original question"},
	SubjectPhysics:   {"identify the quantities and units involved", "choose the governing law or principle", "set up the relationship between quantities", "solve and sanity-check the magnitude"},
	SubjectBiology:   {"identify the structure or process involved", "describe its components or stages", "explain how those components interact", "relate it to the organism's overall function"},
	SubjectHistory:   {"establish the time and place", "identify the key people or groups involved", "trace the sequence of events", "explain the consequences"},
	SubjectLanguage:  {"identify the part of speech or rule", "find an example in a simple sentence", "note any exceptions", "practice with a new sentence"},
	SubjectCompSci:   {"state the problem precisely", "outline the algorithm in plain steps", "trace it through a small example", "consider edge cases and complexity"},
	SubjectGeneral:   {"define the concept in one sentence", "break it into its main parts", "see how the parts relate", "connect it to something already familiar"},
}

// RunDecompose breaks the focal concept into graph-derived parts,
// prerequisites, examples, and a heuristic step list (spec §4.3.4).
func RunDecompose(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	focus := targetConcept(view)
	if focus == "" {
		return Plan{Chain: []ID{Question}}
	}

	var parts, prerequisites, examples []string
	noun, err := ctx.Store.Find(focus)
	if err == nil {
		parts = append(parts, labelsOf(ctx.Store.RelationsFrom(noun.ID, graphstore.PartOf))...)
		parts = append(parts, labelsOf(ctx.Store.RelationsFrom(noun.ID, graphstore.Has))...)
		parts = append(parts, labelsOf(ctx.Store.RelationsFrom(noun.ID, graphstore.Contains))...)
		prerequisites = append(prerequisites, labelsOf(ctx.Store.RelationsFrom(noun.ID, graphstore.Requires))...)
		examples = append(examples, labelsOf(ctx.Store.RelationsFrom(noun.ID, graphstore.ExampleOf))...)
		parts = append(parts, labelsOf(ctx.Store.RelationsTo(noun.ID, graphstore.PartOf))...)
		examples = append(examples, labelsOf(ctx.Store.RelationsTo(noun.ID, graphstore.ExampleOf))...)
	}

	subjectSlot := view.LatestByTag(workingmemory.TagSubject)
	subject := SubjectGeneral
	if subjectSlot != nil {
		subject = Subject(subjectSlot.Content.Text)
	}
	steps, ok := heuristicSteps[subject]
	if !ok {
		steps = heuristicSteps[SubjectGeneral]
	}

	known := knownConcepts(view)
	var gaps []string
	for _, p := range prerequisites {
		if !known[p] {
			gaps = append(gaps, p)
		}
	}

	writes := []workingmemory.Slot{
		{
			Tag: workingmemory.TagDecomposition,
			Content: workingmemory.SlotContent{Decomposition: &workingmemory.DecompositionFact{
				Concept: focus, Parts: parts, Prerequisites: prerequisites, Examples: examples, SolutionSteps: steps,
			}},
			Confidence: 0.7, SourceDemon: string(Decompose), TTL: 10,
		},
		{
			Tag: workingmemory.TagPrerequisites,
			Content: workingmemory.SlotContent{Prerequisites: &workingmemory.PrerequisitesFact{
				Prerequisites: prerequisites, Gaps: gaps,
			}},
			Confidence: 0.7, SourceDemon: string(Decompose), TTL: 10,
		},
		{
			Tag: workingmemory.TagExamples, Content: workingmemory.SlotContent{Strings: examples},
			Confidence: 0.6, SourceDemon: string(Decompose), TTL: 10,
		},
		{
			Tag: workingmemory.TagSolutionSteps, Content: workingmemory.SlotContent{Strings: steps},
			Confidence: 0.6, SourceDemon: string(Decompose), TTL: 10,
		},
	}
	if len(gaps) > 0 {
		writes = append(writes, workingmemory.Slot{
			Tag: workingmemory.TagKnowledgeGaps, Content: workingmemory.SlotContent{Strings: gaps},
			Confidence: 0.7, SourceDemon: string(Decompose), TTL: 10,
		})
	}

	intent := view.LatestByTag(workingmemory.TagIntent)
	confused := intent != nil && intent.Content.Text == string(IntentConfusion)
	if confused {
		writes = append(writes, workingmemory.Slot{
			Tag: workingmemory.TagSimplificationNeeded, Content: workingmemory.SlotContent{Text: focus},
			Confidence: 0.8, SourceDemon: string(Decompose), TTL: workingmemory.TTLEndOfTurn,
		})
	}

	chain := []ID{}
	if confused {
		chain = append(chain, Analogize)
	}
	chain = append(chain, Question)

	return Plan{Write: writes, Chain: chain}
}

// targetConcept is question_focus if present, else the latest noun
// phrase (spec §4.3.4).
func targetConcept(view workingmemory.View) string {
	if focus := view.LatestByTag(workingmemory.TagQuestionFocus); focus != nil && focus.Content.Text != "" {
		return focus.Content.Text
	}
	if np := view.LatestByTag(workingmemory.TagNounPhrase); np != nil {
		return np.Content.Text
	}
	return ""
}

func knownConcepts(view workingmemory.View) map[string]bool {
	known := make(map[string]bool)
	for _, s := range view.FindByTag(workingmemory.TagNounPhrase) {
		known[s.Content.Text] = true
	}
	for _, s := range view.FindByTag(workingmemory.TagHierarchy) {
		if s.Content.Hierarchy != nil {
			known[s.Content.Hierarchy.NounLabel] = true
			known[s.Content.Hierarchy.AncestorLabel] = true
		}
	}
	return known
}

func labelsOf(edges []graphstore.Edge, err error) []string {
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Noun.Label)
	}
	return out
}
