package kernel

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/orchestrator"
)

func newTestKernel(t *testing.T) (*Kernel, graphstore.Store) {
	t.Helper()
	store := graphstore.NewMemoryEngine(graphstore.DefaultOptions())
	return New(store, orchestrator.DefaultProfile()), store
}

// Scenario 1 — Greeting (spec.md §8 #1): empty store, "hi" produces a
// greeting response in one turn with no graph nouns created.
func TestScenario_Greeting(t *testing.T) {
	k, store := newTestKernel(t)

	result, err := k.Process("hi", false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Response)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Nouns)
}

// Scenario 2 — Unknown question (spec.md §8 #2): "what is gravity?"
// surfaces gravity as unknown and, after learn, persists it as a concept.
func TestScenario_UnknownQuestion(t *testing.T) {
	k, store := newTestKernel(t)

	result, err := k.Process("what is gravity?", false)
	require.NoError(t, err)
	assert.Contains(t, result.Response, "gravity")

	noun, err := store.Find("gravity")
	require.NoError(t, err)
	assert.Equal(t, graphstore.NounConcept, noun.Type)
}

// Scenario 3 — Analogy bootstrap (spec.md §8 #3): "I don't understand
// electricity" produces the water-pipes analogy verbatim prefix.
func TestScenario_AnalogyBootstrap(t *testing.T) {
	k, _ := newTestKernel(t)

	result, err := k.Process("I don't understand electricity", false)
	require.NoError(t, err)
	assert.Contains(t, result.Response, "Electricity flows through wires like water flows through pipes")
}

// Scenario 4 — Relation learning (spec.md §8 #4): "photosynthesis
// produces oxygen" persists exactly one produces edge at weight 0.6.
func TestScenario_RelationLearning(t *testing.T) {
	k, store := newTestKernel(t)

	_, err := k.Process("photosynthesis produces oxygen", false)
	require.NoError(t, err)

	triples, err := store.Query(graphstore.Pattern{
		From:     &graphstore.NodePattern{Label: "photosynthesis"},
		Relation: graphstore.Produces,
		To:       &graphstore.NodePattern{Label: "oxygen"},
	}, 10)
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.InDelta(t, 0.6, triples[0].Relation.Weight, 1e-9)
}

// Scenario 5 — Transitive inference (spec.md §8 #5): with a pre-populated
// dog-mammal-animal chain, the response names both dog and animal and the
// trace shows ticks that wrote slots. The inferred edge's 0.9*0.9 weight
// is checked at the demon level by TestRunInfer_TransitiveClosure.
func TestScenario_TransitiveInference(t *testing.T) {
	k, store := newTestKernel(t)
	_, err := store.Link("dog", graphstore.IsA, "mammal", 0.9, "")
	require.NoError(t, err)
	_, err = store.Link("mammal", graphstore.IsA, "animal", 0.9, "")
	require.NoError(t, err)

	result, err := k.Process("is a dog an animal?", true)
	require.NoError(t, err)
	assert.Contains(t, result.Response, "dog")
	assert.Contains(t, result.Response, "animal")

	var sawInferred bool
	for _, tick := range result.Trace {
		if tick.SlotsWritten > 0 {
			sawInferred = true
		}
	}
	assert.True(t, sawInferred, "the transitive-inference tick should have written slots")
}

// Scenario 6 — Contradiction (spec.md §8 #6): pre-populated x=5, x=7
// produces a contradiction response naming both values.
func TestScenario_Contradiction(t *testing.T) {
	k, store := newTestKernel(t)
	_, err := store.Link("x", graphstore.Equals, "5", 1, "")
	require.NoError(t, err)
	_, err = store.Link("x", graphstore.Equals, "7", 1, "")
	require.NoError(t, err)

	result, err := k.Process("what is x?", false)
	require.NoError(t, err)
	assert.Contains(t, result.Response, "cannot equal both")
	assert.Contains(t, result.Response, "5")
	assert.Contains(t, result.Response, "7")
}

func TestProcess_RejectsEmptyInput(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.Process("", false)
	assert.ErrorIs(t, err, ErrInputInvalid)
}

func TestProcess_RejectsOverLongInput(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.Process(strings.Repeat("a", maxInputLen+1), false)
	assert.ErrorIs(t, err, ErrInputInvalid)
}

func TestProcess_NonReentrant(t *testing.T) {
	k, _ := newTestKernel(t)
	k.mu.Lock()
	defer k.mu.Unlock()

	_, err := k.Process("hi", false)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestProcess_ConcurrentCallersWithoutCorruption(t *testing.T) {
	k, _ := newTestKernel(t)
	var wg sync.WaitGroup
	var successes int
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := k.Process("hi", false); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Greater(t, successes, 0, "at least one concurrent caller must succeed")
}

func TestStats_ReportsMemoryGraphAndDemons(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.Process("photosynthesis produces oxygen", false)
	require.NoError(t, err)

	stats, err := k.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Demons.TurnsServed)
	assert.Equal(t, 7, stats.Demons.Registered)
	assert.Greater(t, stats.Graph.Nouns, int64(0))
}

func TestSaveLoadState_RoundTrips(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.Process("tell me about cells", false)
	require.NoError(t, err)

	blob, err := k.SaveState()
	require.NoError(t, err)

	k2, _ := newTestKernel(t)
	require.NoError(t, k2.LoadState(blob))

	before, err := k.Stats()
	require.NoError(t, err)
	after, err := k2.Stats()
	require.NoError(t, err)
	assert.Equal(t, before.Memory.Slots, after.Memory.Slots)
}

func TestLoadState_InvalidBlobLeavesMemoryUntouched(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.Process("hi", false)
	require.NoError(t, err)

	before, err := k.Stats()
	require.NoError(t, err)

	err = k.LoadState([]byte("not json"))
	assert.Error(t, err)

	after, err := k.Stats()
	require.NoError(t, err)
	assert.Equal(t, before.Memory.Slots, after.Memory.Slots)
}

func TestListDemons_ReturnsAllSevenInStableOrder(t *testing.T) {
	infos := ListDemons()
	require.Len(t, infos, 7)
	assert.Equal(t, "parse", infos[0].ID)
	assert.Equal(t, "learn", infos[len(infos)-1].ID)
	for _, info := range infos {
		assert.NotEmpty(t, info.Description)
	}
}
