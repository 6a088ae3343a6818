package demon

import (
	"sort"

	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// bootstrapAnalogy is one hand-written entry in the small built-in table
// spec §4.3.5 names.
type bootstrapAnalogy struct {
	Analog      string
	Explanation string
}

var bootstrapTable = map[string]bootstrapAnalogy{
	"electricity": {"water flowing through pipes", "Electricity flows through wires like water flows through pipes: voltage is like pressure, current is like flow rate, and resistance is like a narrow section of pipe"},
	"atom":        {"a miniature solar system", "the nucleus sits at the center like the sun, and electrons orbit it like planets"},
	"cell":        {"a tiny factory", "each organelle is a department doing one job so the whole factory keeps running"},
	"dna":         {"a recipe book", "each gene is a recipe, and the whole book holds instructions for building and running the organism"},
	"variable":    {"a labeled box", "you can put different values inside it while the label stays the same"},
	"function":    {"a vending machine", "you put something in, it follows a fixed process, and something comes out"},
	"evolution":   {"careful breeding over generations", "nature selects for traits that help survival the way a breeder selects for traits they want"},
	"gravity":     {"a stretched rubber sheet", "mass presses down on the sheet and other objects roll toward the dip it makes"},
}

const analogyScoreThreshold = 0.3
const maxStructuralAnalogies = 2

// RunAnalogize surfaces bootstrapped and structurally-scored analogies
// for each candidate concept (spec §4.3.5).
func RunAnalogize(view workingmemory.View, trigger Trigger, ctx *Context) Plan {
	concepts := candidateConcepts(view)
	if len(concepts) == 0 {
		return Plan{Chain: []ID{Question}}
	}
	if ctx.AnalogySeen == nil {
		ctx.AnalogySeen = make(map[string]bool)
	}

	var writes []workingmemory.Slot
	emit := func(concept string, fact *workingmemory.AnalogyFact) {
		key := concept + "|" + fact.Analog
		if ctx.AnalogySeen[key] {
			return
		}
		ctx.AnalogySeen[key] = true
		writes = append(writes, workingmemory.Slot{
			Tag:         workingmemory.TagAnalogy,
			Content:     workingmemory.SlotContent{Analogy: fact},
			Confidence:  fact.Similarity,
			SourceDemon: string(Analogize),
			TTL:         10,
		})
	}

	for _, concept := range concepts {
		if boot, ok := bootstrapTable[concept]; ok {
			emit(concept, &workingmemory.AnalogyFact{
				Concept: concept, Analog: boot.Analog, Explanation: boot.Explanation, Similarity: 0.85,
			})
		}
		for _, s := range structuralAnalogies(concept, ctx.Store) {
			emit(concept, s)
		}
	}

	return Plan{Write: writes, Chain: []ID{Question}}
}

func candidateConcepts(view workingmemory.View) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	if focus := view.LatestByTag(workingmemory.TagQuestionFocus); focus != nil {
		add(focus.Content.Text)
	}
	for _, s := range view.FindByTag(workingmemory.TagNounPhrase) {
		add(s.Content.Text)
	}
	return out
}

// structuralAnalogies scores every noun sharing an outgoing relation type
// with concept, per spec §4.3.5's Jaccard formula, grounded on the
// teacher's link-prediction topology scoring.
func structuralAnalogies(concept string, store graphstore.Store) []*workingmemory.AnalogyFact {
	a, err := store.Find(concept)
	if err != nil {
		return nil
	}
	outA, outLabelsA, err := typeSetAndFirstTargets(store, a.ID, true)
	if err != nil || len(outA) == 0 {
		return nil
	}
	inA, _, err := typeSetAndFirstTargets(store, a.ID, false)
	if err != nil {
		return nil
	}

	candidateIDs := make(map[graphstore.NounID]bool)
	for t := range outA {
		triples, err := store.Query(graphstore.Pattern{Relation: graphstore.RelationType(t)}, 200)
		if err != nil {
			continue
		}
		for _, tr := range triples {
			if tr.From.ID != a.ID {
				candidateIDs[tr.From.ID] = true
			}
		}
	}

	type scoredCandidate struct {
		noun    *graphstore.Noun
		score   float64
		shared  []string
		mapping map[string]string
	}
	var results []scoredCandidate
	for id := range candidateIDs {
		b, err := store.FindByID(id)
		if err != nil {
			continue
		}
		outB, outLabelsB, err := typeSetAndFirstTargets(store, b.ID, true)
		if err != nil {
			continue
		}
		inB, _, err := typeSetAndFirstTargets(store, b.ID, false)
		if err != nil {
			continue
		}
		score := 0.6*jaccard(outA, outB) + 0.4*jaccard(inA, inB)
		if score < analogyScoreThreshold {
			continue
		}
		var shared []string
		mapping := make(map[string]string)
		for t := range outA {
			if outB[t] {
				shared = append(shared, t)
				mapping[outLabelsA[t]] = outLabelsB[t]
			}
		}
		sort.Strings(shared)
		results = append(results, scoredCandidate{noun: b, score: score, shared: shared, mapping: mapping})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > maxStructuralAnalogies {
		results = results[:maxStructuralAnalogies]
	}

	out := make([]*workingmemory.AnalogyFact, 0, len(results))
	for _, r := range results {
		out = append(out, &workingmemory.AnalogyFact{
			Concept: concept, Analog: r.noun.Label, Similarity: r.score, SharedTypes: r.shared, Mapping: r.mapping,
		})
	}
	return out
}

// typeSetAndFirstTargets returns the set of relation types on id's edges
// (outgoing when outgoing=true, else incoming) and, for each type, the
// first neighbor label encountered — the "first target on each side" the
// analogy mapping pairs up (spec §4.3.5).
func typeSetAndFirstTargets(store graphstore.Store, id graphstore.NounID, outgoing bool) (map[string]bool, map[string]string, error) {
	var edges []graphstore.Edge
	var err error
	if outgoing {
		edges, err = store.RelationsFrom(id, "")
	} else {
		edges, err = store.RelationsTo(id, "")
	}
	if err != nil {
		return nil, nil, err
	}
	types := make(map[string]bool)
	firstTarget := make(map[string]string)
	for _, e := range edges {
		t := string(e.Relation.Type)
		types[t] = true
		if _, ok := firstTarget[t]; !ok {
			firstTarget[t] = e.Noun.Label
		}
	}
	return types, firstTarget, nil
}

// jaccard is the Jaccard coefficient of two relation-type sets, adapted
// from the teacher's neighbor-set Jaccard in pkg/linkpredict/topology.go
// to operate on type sets instead of neighbor-id sets (spec §4.3.5).
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	union := make(map[string]bool, len(a)+len(b))
	inter := 0
	for k := range a {
		union[k] = true
		if b[k] {
			inter++
		}
	}
	for k := range b {
		union[k] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}
