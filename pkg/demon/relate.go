package demon

import (
	"strings"

	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

const maxContextFacts = 10
const maxHierarchyDepth = 5

// RunRelate resolves noun phrases against the graph and surfaces known
// relations, hierarchy, and context facts about them (spec §4.3.2).
func RunRelate(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	queries := resolutionQueries(view)
	if len(queries) == 0 {
		return Plan{}
	}

	var writes []workingmemory.Slot
	var resolved []*graphstore.Noun
	var unresolved []string

	for _, query := range queries {
		noun, err := ctx.Store.Find(query)
		if err == nil {
			resolved = append(resolved, noun)
			continue
		}
		candidates, serr := ctx.Store.Search(query, 5)
		if serr != nil || len(candidates) == 0 {
			unresolved = append(unresolved, query)
			continue
		}
		best := graphstore.BestFuzzyMatch(query, candidates)
		if best == nil {
			unresolved = append(unresolved, query)
			continue
		}
		resolved = append(resolved, best)
		if best.Label != query {
			writes = append(writes, workingmemory.Slot{
				Tag: workingmemory.TagFuzzyMatch,
				Content: workingmemory.SlotContent{FuzzyMatch: &workingmemory.FuzzyMatchFact{
					Query: query, Resolved: best.Label,
				}},
				Confidence:  0.6,
				SourceDemon: string(Relate),
				TTL:         10,
			})
		}
	}

	// Surface every known relation leaving a resolved noun, not only ones
	// landing on another resolved noun — a fact like x equals 5 matters
	// even when 5 itself was never mentioned in the input.
	foundRelation := false
	for _, a := range resolved {
		edges, err := ctx.Store.RelationsFrom(a.ID, "")
		if err != nil {
			continue
		}
		for i, e := range edges {
			if i >= maxContextFacts {
				break
			}
			foundRelation = true
			writes = append(writes, workingmemory.Slot{
				Tag: workingmemory.TagRelation,
				Content: workingmemory.SlotContent{Relation: &workingmemory.RelationFact{
					FromLabel: a.Label, Type: string(e.Relation.Type), ToLabel: e.Noun.Label, Weight: e.Relation.Weight,
				}},
				Confidence:  e.Relation.Weight,
				SourceDemon: string(Relate),
				TTL:         10,
			})
		}
	}

	for _, n := range resolved {
		current := n
		for depth := 0; depth < maxHierarchyDepth; depth++ {
			ancestors, err := ctx.Store.RelationsFrom(current.ID, graphstore.IsA)
			if err != nil || len(ancestors) == 0 {
				break
			}
			parent := ancestors[0]
			writes = append(writes, workingmemory.Slot{
				Tag: workingmemory.TagHierarchy,
				Content: workingmemory.SlotContent{Hierarchy: &workingmemory.HierarchyFact{
					NounLabel: current.Label, AncestorLabel: parent.Noun.Label, Weight: parent.Relation.Weight,
				}},
				Confidence:  0.9,
				SourceDemon: string(Relate),
				TTL:         10,
			})
			current = parent.Noun
		}
	}

	if len(unresolved) > 0 {
		writes = append(writes, workingmemory.Slot{
			Tag:         workingmemory.TagUnknownConcepts,
			Content:     workingmemory.SlotContent{Strings: unresolved},
			Confidence:  0.5,
			SourceDemon: string(Relate),
			TTL:         10,
		})
	}

	if subj := view.LatestByTag(workingmemory.TagSubject); subj != nil {
		if subjNoun, err := ctx.Store.Find(subj.Content.Text); err == nil {
			edges, err := ctx.Store.RelationsFrom(subjNoun.ID, "")
			if err == nil {
				for i, e := range edges {
					if i >= maxContextFacts {
						break
					}
					writes = append(writes, workingmemory.Slot{
						Tag: workingmemory.TagContextFact,
						Content: workingmemory.SlotContent{Relation: &workingmemory.RelationFact{
							FromLabel: subjNoun.Label, Type: string(e.Relation.Type), ToLabel: e.Noun.Label, Weight: e.Relation.Weight,
						}},
						Confidence:  e.Relation.Weight * 0.5,
						SourceDemon: string(Relate),
						TTL:         10,
					})
				}
			}
		}
	}

	var chain []ID
	if foundRelation {
		chain = append(chain, Infer)
	} else if len(resolved) > 0 {
		chain = append(chain, Analogize)
	}
	if len(unresolved) > 0 {
		chain = append(chain, Question)
	}

	return Plan{Write: writes, Chain: chain}
}

// resolutionQueries gathers the texts relate attempts to resolve against
// the graph: every noun phrase parse extracted, plus the question's focus
// when it is a single token. A single-character focus (e.g. "x") is
// dropped by extract_noun_phrases's stop-word/length filter but is still
// the thing a question is actually about, so it needs adding back here.
// A multi-word focus is skipped: parse's focus falls back to the whole
// raw input when no lead pattern matches (spec §4.3.1), and that text is
// already fully covered by extract_noun_phrases's own runs and atoms, so
// resolving it again as one query would only add a noisy, near-certain
// miss that could wrongly read back as an unresolved concept.
func resolutionQueries(view workingmemory.View) []string {
	var queries []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		queries = append(queries, s)
	}
	for _, slot := range view.FindByTag(workingmemory.TagNounPhrase) {
		add(slot.Content.Text)
	}
	if focus := view.LatestByTag(workingmemory.TagQuestionFocus); focus != nil && !strings.ContainsAny(focus.Content.Text, " \t") {
		add(focus.Content.Text)
	}
	return queries
}
