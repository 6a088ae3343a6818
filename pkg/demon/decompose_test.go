package demon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

func TestRunDecompose_GraphPartsAndPrerequisites(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.Store.Link("cell", graphstore.Has, "nucleus", 0.8, "")
	require.NoError(t, err)
	_, err = ctx.Store.Link("cell", graphstore.Requires, "membrane", 0.8, "")
	require.NoError(t, err)

	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagQuestionFocus, Content: workingmemory.SlotContent{Text: "cell"}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagSubject, Content: workingmemory.SlotContent{Text: string(SubjectBiology)}, TTL: workingmemory.TTLEndOfTurn})
	view := workingmemory.NewView(mem)

	plan := RunDecompose(view, Trigger{Kind: TriggerChainFrom, From: Relate}, ctx)
	applyPlan(mem, plan)

	decomp := mem.LatestByTag(workingmemory.TagDecomposition)
	require.NotNil(t, decomp)
	assert.Contains(t, decomp.Content.Decomposition.Parts, "nucleus")
	assert.Contains(t, decomp.Content.Decomposition.Prerequisites, "membrane")
	assert.Equal(t, heuristicSteps[SubjectBiology], decomp.Content.Decomposition.SolutionSteps)

	gaps := mem.LatestByTag(workingmemory.TagKnowledgeGaps)
	require.NotNil(t, gaps)
	assert.Contains(t, gaps.Content.Strings, "membrane")
}

func TestRunDecompose_NoGapWhenPrerequisiteAlreadyKnown(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.Store.Link("cell", graphstore.Requires, "membrane", 0.8, "")
	require.NoError(t, err)

	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagQuestionFocus, Content: workingmemory.SlotContent{Text: "cell"}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagNounPhrase, Content: workingmemory.SlotContent{Text: "membrane"}, TTL: 10})
	view := workingmemory.NewView(mem)

	plan := RunDecompose(view, Trigger{Kind: TriggerChainFrom, From: Relate}, ctx)

	for _, s := range plan.Write {
		if s.Tag == workingmemory.TagKnowledgeGaps {
			t.Fatalf("expected no knowledge_gaps slot, got %v", s.Content.Strings)
		}
	}
}

func TestRunDecompose_ConfusionChainsToAnalogize(t *testing.T) {
	ctx := newTestContext(t)
	mem := workingmemory.New()
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagQuestionFocus, Content: workingmemory.SlotContent{Text: "gravity"}, TTL: workingmemory.TTLEndOfTurn})
	mem.Write(workingmemory.Slot{Tag: workingmemory.TagIntent, Content: workingmemory.SlotContent{Text: string(IntentConfusion)}, TTL: workingmemory.TTLEndOfTurn})
	view := workingmemory.NewView(mem)

	plan := RunDecompose(view, Trigger{Kind: TriggerChainFrom, From: Parse}, ctx)

	assert.Equal(t, []ID{Analogize, Question}, plan.Chain)
	var simp *workingmemory.Slot
	for i := range plan.Write {
		if plan.Write[i].Tag == workingmemory.TagSimplificationNeeded {
			simp = &plan.Write[i]
		}
	}
	require.NotNil(t, simp)
}

func TestRunDecompose_NoFocus_ChainsToQuestionOnly(t *testing.T) {
	ctx := newTestContext(t)
	mem := workingmemory.New()
	view := workingmemory.NewView(mem)

	plan := RunDecompose(view, Trigger{Kind: TriggerChainFrom, From: Parse}, ctx)
	assert.Equal(t, []ID{Question}, plan.Chain)
	assert.Empty(t, plan.Write)
}
