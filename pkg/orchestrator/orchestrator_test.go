package orchestrator

import (
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/tutorkernel/pkg/demon"
	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

func newTestHypervisor() *Hypervisor {
	return New(DefaultProfile(), nil)
}

func TestRunTurn_Greeting(t *testing.T) {
	h := newTestHypervisor()
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	mem := workingmemory.New()

	result := h.RunTurn(mem, store, "hi")

	assert.NotEmpty(t, result.Response)
	assert.NotEqual(t, fallbackResponse, result.Response)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Nouns, "a bare greeting should not persist any graph nouns")
}

func TestRunTurn_TransitiveInference(t *testing.T) {
	h := newTestHypervisor()
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	_, err := store.Link("dog", graphstore.IsA, "mammal", 0.9, "")
	require.NoError(t, err)
	_, err = store.Link("mammal", graphstore.IsA, "animal", 0.9, "")
	require.NoError(t, err)
	mem := workingmemory.New()

	result := h.RunTurn(mem, store, "is a dog an animal?")
	assert.NotEqual(t, fallbackResponse, result.Response)
	assert.NotEmpty(t, result.Ticks)
}

func TestRunTurn_NothingRespondsFallsBackToCanonicalText(t *testing.T) {
	h := &Hypervisor{Profile: DefaultProfile(), Logger: log.Default(), Registry: demon.Registry{
		demon.Parse: func(view workingmemory.View, trigger demon.Trigger, ctx *demon.Context) demon.Plan {
			return demon.Plan{}
		},
		demon.Learn: func(view workingmemory.View, trigger demon.Trigger, ctx *demon.Context) demon.Plan {
			return demon.Plan{}
		},
	}}
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	mem := workingmemory.New()

	result := h.RunTurn(mem, store, "anything")
	assert.Equal(t, fallbackResponse, result.Response)
}

func TestRunTurn_MaxDemonsPerTickBatches(t *testing.T) {
	profile := Profile{MaxTicksPerTurn: 10, MaxDemonsPerTick: 1, MaxMemorySlots: 100, TickTimeout: 500 * time.Millisecond}
	h := New(profile, nil)
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	mem := workingmemory.New()

	result := h.RunTurn(mem, store, "what is gravity?")
	assert.Greater(t, len(result.Ticks), 1, "with MaxDemonsPerTick=1, the parse->relate->infer->question chain must span multiple ticks")
	for _, tr := range result.Ticks {
		assert.LessOrEqual(t, len(tr.DemonsFired), 1)
	}
}

func TestRunTurn_DemonPanicRecovered(t *testing.T) {
	h := &Hypervisor{Profile: DefaultProfile(), Logger: log.Default(), Registry: demon.Registry{
		demon.Parse: func(view workingmemory.View, trigger demon.Trigger, ctx *demon.Context) demon.Plan {
			panic("boom")
		},
		demon.Learn: func(view workingmemory.View, trigger demon.Trigger, ctx *demon.Context) demon.Plan {
			return demon.Plan{}
		},
	}}
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	mem := workingmemory.New()

	assert.NotPanics(t, func() {
		result := h.RunTurn(mem, store, "anything")
		assert.Equal(t, fallbackResponse, result.Response)
	})
}

func TestRunTurn_PostTurnLearnAlwaysFiresAndSweepsEphemeralSlots(t *testing.T) {
	h := newTestHypervisor()
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	mem := workingmemory.New()

	h.RunTurn(mem, store, "photosynthesis produces oxygen")

	assert.Empty(t, mem.FindByTag(workingmemory.TagRawInput), "raw_input is ephemeral and must be swept post-turn")
	assert.Empty(t, mem.FindByTag(workingmemory.TagIntent), "intent is ephemeral and must be swept post-turn")

	_, err := store.Find("photosynthesis")
	require.NoError(t, err, "the post-turn learn call must have persisted the claim's nouns even though no demon chained to learn")
}
