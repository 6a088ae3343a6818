package demon

import (
	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// relFact is the flattened edge shape infer reasons over, built from
// relation/context_fact/hierarchy slots (spec §4.3.3's "input corpus").
type relFact struct {
	From, Type, To string
	Weight         float64
}

// RunInfer derives transitive closures, property inheritance,
// contradictions, and (on claims) a claim assessment (spec §4.3.3).
func RunInfer(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	edges := collectRelFacts(view)
	if len(edges) == 0 {
		return Plan{Chain: []ID{Question}}
	}

	var writes []workingmemory.Slot
	var hasInference, hasContradiction bool

	writes = append(writes, transitiveClosure(edges)...)
	for _, s := range writes {
		if s.Tag == workingmemory.TagInferredRelation {
			hasInference = true
		}
	}

	inherited := propertyInheritance(edges)
	if len(inherited) > 0 {
		hasInference = true
		writes = append(writes, inherited...)
	}

	contradictions := detectContradictions(edges)
	if len(contradictions) > 0 {
		hasContradiction = true
		writes = append(writes, contradictions...)
	}

	if intent := view.LatestByTag(workingmemory.TagIntent); intent != nil && intent.Content.Text == string(IntentClaim) {
		writes = append(writes, assessClaim(edges, view))
	}

	var chain []ID
	if hasContradiction {
		chain = append(chain, Question)
	}
	if hasInference {
		chain = append(chain, Decompose)
	}
	chain = append(chain, Question)

	return Plan{Write: writes, Chain: chain}
}

func collectRelFacts(view workingmemory.View) []relFact {
	var edges []relFact
	for _, s := range view.FindByTag(workingmemory.TagRelation) {
		if s.Content.Relation != nil {
			r := s.Content.Relation
			edges = append(edges, relFact{From: r.FromLabel, Type: r.Type, To: r.ToLabel, Weight: r.Weight})
		}
	}
	for _, s := range view.FindByTag(workingmemory.TagContextFact) {
		if s.Content.Relation != nil {
			r := s.Content.Relation
			edges = append(edges, relFact{From: r.FromLabel, Type: r.Type, To: r.ToLabel, Weight: r.Weight})
		}
	}
	for _, s := range view.FindByTag(workingmemory.TagHierarchy) {
		if s.Content.Hierarchy != nil {
			h := s.Content.Hierarchy
			edges = append(edges, relFact{From: h.NounLabel, Type: string(graphstore.IsA), To: h.AncestorLabel, Weight: h.Weight})
		}
	}
	return edges
}

func hasEdge(edges []relFact, from, typ, to string) bool {
	for _, e := range edges {
		if e.From == from && e.Type == typ && e.To == to {
			return true
		}
	}
	return false
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// transitiveClosure implements spec §4.3.3 rule 1.
func transitiveClosure(edges []relFact) []workingmemory.Slot {
	var out []workingmemory.Slot
	seen := make(map[string]bool)
	for _, e1 := range edges {
		if !graphstore.TransitiveTypes[graphstore.RelationType(e1.Type)] {
			continue
		}
		for _, e2 := range edges {
			if e2.Type != e1.Type || e2.From != e1.To {
				continue
			}
			if e1.From == e2.To {
				continue
			}
			if hasEdge(edges, e1.From, e1.Type, e2.To) {
				continue
			}
			key := e1.From + "|" + e1.Type + "|" + e2.To
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, workingmemory.Slot{
				Tag: workingmemory.TagInferredRelation,
				Content: workingmemory.SlotContent{Relation: &workingmemory.RelationFact{
					FromLabel: e1.From, Type: e1.Type, ToLabel: e2.To, Weight: minf(e1.Weight, e2.Weight) * 0.9,
				}},
				Confidence:  minf(e1.Weight, e2.Weight) * 0.9,
				SourceDemon: string(Infer),
				TTL:         10,
			})
		}
	}
	return out
}

// propertyInheritance implements spec §4.3.3 rule 2.
func propertyInheritance(edges []relFact) []workingmemory.Slot {
	var out []workingmemory.Slot
	seen := make(map[string]bool)
	for _, isa := range edges {
		if isa.Type != string(graphstore.IsA) {
			continue
		}
		for _, prop := range edges {
			if prop.From != isa.To {
				continue
			}
			if prop.Type != string(graphstore.Has) && prop.Type != string(graphstore.Requires) {
				continue
			}
			if hasEdge(edges, isa.From, prop.Type, prop.To) {
				continue
			}
			key := isa.From + "|" + prop.Type + "|" + prop.To
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, workingmemory.Slot{
				Tag: workingmemory.TagInferredRelation,
				Content: workingmemory.SlotContent{Relation: &workingmemory.RelationFact{
					FromLabel: isa.From, Type: prop.Type, ToLabel: prop.To, Weight: minf(isa.Weight, prop.Weight) * 0.85,
				}},
				Confidence:  minf(isa.Weight, prop.Weight) * 0.85,
				SourceDemon: string(Infer),
				TTL:         10,
			})
		}
	}
	return out
}

// detectContradictions implements spec §4.3.3 rule 3.
func detectContradictions(edges []relFact) []workingmemory.Slot {
	var out []workingmemory.Slot
	seen := make(map[string]bool)
	emit := func(concept, claim1, claim2, reason string) {
		key := concept + "|" + claim1 + "|" + claim2
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, workingmemory.Slot{
			Tag: workingmemory.TagContradiction,
			Content: workingmemory.SlotContent{Contradiction: &workingmemory.ContradictionFact{
				Concept: concept, Claim1: claim1, Claim2: claim2, Reason: reason,
			}},
			Confidence:  0.9,
			SourceDemon: string(Infer),
			TTL:         workingmemory.TTLEndOfTurn,
		})
	}

	var equals []relFact
	var opposes []relFact
	for _, e := range edges {
		switch e.Type {
		case string(graphstore.Equals):
			equals = append(equals, e)
		case string(graphstore.Opposes):
			opposes = append(opposes, e)
		}
	}

	for i, a := range equals {
		for _, b := range equals[i+1:] {
			if a.From != b.From || a.To == b.To {
				continue
			}
			emit(a.From, a.From+" equals "+a.To, b.From+" equals "+b.To,
				a.From+" cannot equal both "+a.To+" and "+b.To)
		}
	}

	opposed := func(x, y string) bool {
		for _, o := range opposes {
			if (o.From == x && o.To == y) || (o.From == y && o.To == x) {
				return true
			}
		}
		return false
	}
	for i, a := range equals {
		for _, b := range equals[i+1:] {
			if a.From != b.From {
				continue
			}
			if opposed(a.To, b.To) {
				emit(a.From, a.From+" equals "+a.To, b.From+" equals "+b.To,
					a.To+" and "+b.To+" oppose each other")
			}
		}
	}
	return out
}

// assessClaim implements spec §4.3.3 rule 4.
func assessClaim(edges []relFact, view workingmemory.View) workingmemory.Slot {
	supported := map[string]bool{}
	weak := map[string]bool{}
	known := map[string]bool{}
	for _, h := range view.FindByTag(workingmemory.TagHierarchy) {
		if h.Content.Hierarchy != nil {
			known[h.Content.Hierarchy.NounLabel] = true
		}
	}

	allConcepts := map[string]bool{}
	for _, e := range edges {
		allConcepts[e.From] = true
		allConcepts[e.To] = true
		if e.Weight > 0.5 {
			supported[e.From] = true
			supported[e.To] = true
		} else if e.Weight > 0.3 {
			weak[e.From] = true
			weak[e.To] = true
		}
	}

	var unsupported []string
	for c := range allConcepts {
		if supported[c] || weak[c] || known[c] {
			continue
		}
		unsupported = append(unsupported, c)
	}

	var supportedList, weakList []string
	for c := range supported {
		supportedList = append(supportedList, c)
	}
	for c := range weak {
		if !supported[c] {
			weakList = append(weakList, c)
		}
	}

	confidence := 0.0
	if len(allConcepts) > 0 {
		confidence = float64(len(supportedList)) / float64(len(allConcepts))
	}

	return workingmemory.Slot{
		Tag: workingmemory.TagClaimAssessment,
		Content: workingmemory.SlotContent{ClaimAssessment: &workingmemory.ClaimAssessmentFact{
			Supported: supportedList, Weak: weakList, Unsupported: unsupported, Confidence: confidence,
		}},
		Confidence:  confidence,
		SourceDemon: string(Infer),
		TTL:         10,
	}
}
