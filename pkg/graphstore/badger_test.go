package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadger(t *testing.T) *BadgerEngine {
	t.Helper()
	store, err := NewBadgerEngine(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerEngine_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerEngine(dir, DefaultOptions())
	require.NoError(t, err)
	_, err = store.Link("photosynthesis", Produces, "oxygen", 0.6, "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewBadgerEngine(dir, DefaultOptions())
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Find("photosynthesis")
	require.NoError(t, err)
	edges, err := reopened.RelationsFrom(n.ID, Produces)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "oxygen", edges[0].Noun.Label)

	stats, err := reopened.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Nouns)
	assert.Equal(t, int64(1), stats.Relations)
}

func TestBadgerEngine_EnsureNounIdempotent(t *testing.T) {
	store := newTestBadger(t)
	a, err := store.EnsureNoun("gravity", NounConcept, nil)
	require.NoError(t, err)
	b, err := store.EnsureNoun("gravity", NounUnknown, nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestBadgerEngine_LinkMergeDuplicates(t *testing.T) {
	store := newTestBadger(t)
	store.Link("dog", IsA, "mammal", 0.5, "")
	store.Link("dog", IsA, "mammal", 0.9, "")

	dog, _ := store.Find("dog")
	edges, err := store.RelationsFrom(dog.ID, IsA)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, 0.9, edges[0].Relation.Weight)
}

func TestBadgerEngine_DeleteCascades(t *testing.T) {
	store := newTestBadger(t)
	store.Link("dog", IsA, "mammal", 1, "")
	dog, _ := store.Find("dog")
	mammal, _ := store.Find("mammal")

	require.NoError(t, store.DeleteNoun(dog.ID))
	_, err := store.FindByID(dog.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	edges, err := store.RelationsTo(mammal.ID, "")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestBadgerEngine_Traverse(t *testing.T) {
	store := newTestBadger(t)
	store.Link("dog", IsA, "mammal", 1, "")
	store.Link("mammal", IsA, "animal", 1, "")

	dog, _ := store.Find("dog")
	result, err := store.Traverse(dog.ID, 5)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}
