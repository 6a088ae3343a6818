package demon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

func TestRunQuestion_Greeting(t *testing.T) {
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(IntentGreeting)}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagSubject, Content: workingmemory.SlotContent{Text: string(SubjectGeneral)}, TTL: workingmemory.TTLEndOfTurn})
	view := workingmemory.NewView(mem)

	plan := RunQuestion(view, Trigger{Kind: TriggerChainFrom, From: Parse}, &Context{})
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionRespond, plan.Actions[0].Kind)
	assert.Equal(t, generalGreetings[0], plan.Actions[0].Text)
}

func TestRunQuestion_ContradictionTakesPriority(t *testing.T) {
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(IntentQuestion)}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{
		Tag:     workingmemory.TagContradiction,
		Content: workingmemory.SlotContent{Contradiction: &workingmemory.ContradictionFact{Concept: "x", Claim1: "x equals 5", Claim2: "x equals 7", Reason: "x cannot equal both 5 and 7"}},
		TTL:     workingmemory.TTLEndOfTurn,
	})
	view := workingmemory.NewView(mem)

	plan := RunQuestion(view, Trigger{Kind: TriggerChainFrom, From: Infer}, &Context{})
	require.Len(t, plan.Actions, 1)
	assert.Contains(t, plan.Actions[0].Text, "x cannot equal both 5 and 7")
}

func TestRunQuestion_UnknownConceptUsesAnalogy(t *testing.T) {
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(IntentQuestion)}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagQuestionFocus, Content: workingmemory.SlotContent{Text: "electricity"}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagUnknownConcepts, Content: workingmemory.SlotContent{Strings: []string{"electricity"}}, TTL: 10})
	mem.Write(workingmemory.Slot{
		Tag:     workingmemory.TagAnalogy,
		Content: workingmemory.SlotContent{Analogy: &workingmemory.AnalogyFact{Concept: "electricity", Analog: "water flowing through pipes", Explanation: "Electricity flows through wires like water flows through pipes"}},
		TTL:     10,
	})
	view := workingmemory.NewView(mem)

	plan := RunQuestion(view, Trigger{Kind: TriggerChainFrom, From: Analogize}, &Context{})
	require.Len(t, plan.Actions, 1)
	assert.Contains(t, plan.Actions[0].Text, "don't have electricity")
	assert.Contains(t, plan.Actions[0].Text, "Electricity flows through wires like water flows through pipes")
}

func TestRunQuestion_RelationKnownUsesRelationQuestion(t *testing.T) {
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(IntentQuestion)}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{
		Tag:     workingmemory.TagRelation,
		Content: workingmemory.SlotContent{Relation: &workingmemory.RelationFact{FromLabel: "dog", Type: "is_a", ToLabel: "mammal", Weight: 0.9}},
		TTL:     10,
	})
	view := workingmemory.NewView(mem)

	plan := RunQuestion(view, Trigger{Kind: TriggerChainFrom, From: Relate}, &Context{})
	require.Len(t, plan.Actions, 1)
	assert.Contains(t, plan.Actions[0].Text, "dog is a kind of mammal")
}

func TestRunQuestion_ConfusionUsesAnalogy(t *testing.T) {
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(IntentConfusion)}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{
		Tag:     workingmemory.TagAnalogy,
		Content: workingmemory.SlotContent{Analogy: &workingmemory.AnalogyFact{Concept: "electricity", Analog: "water flowing through pipes", Explanation: "voltage is like pressure"}},
		TTL:     10,
	})
	view := workingmemory.NewView(mem)

	plan := RunQuestion(view, Trigger{Kind: TriggerChainFrom, From: Analogize}, &Context{})
	require.Len(t, plan.Actions, 1)
	assert.Contains(t, plan.Actions[0].Text, "Let's break this down")
	assert.Contains(t, plan.Actions[0].Text, "water flowing through pipes")
}
