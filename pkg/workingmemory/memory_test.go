package workingmemory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_WriteRead(t *testing.T) {
	m := New()
	stored := m.Write(Slot{Tag: TagRawInput, Content: SlotContent{Text: "hi"}, Confidence: 1})
	require.NotEmpty(t, stored.ID)

	got := m.Read(stored.ID)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Content.Text)
}

func TestMemory_FindAndLatestByTag(t *testing.T) {
	m := New()
	m.Write(Slot{Tag: TagNounPhrase, Content: SlotContent{Text: "dog"}})
	time.Sleep(time.Millisecond)
	second := m.Write(Slot{Tag: TagNounPhrase, Content: SlotContent{Text: "cat"}})

	all := m.FindByTag(TagNounPhrase)
	assert.Len(t, all, 2)

	latest := m.LatestByTag(TagNounPhrase)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	assert.Nil(t, m.LatestByTag(TagResponse))
}

func TestMemory_EvictAndFocus(t *testing.T) {
	m := New()
	s1 := m.Write(Slot{Tag: TagIntent})
	s2 := m.Write(Slot{Tag: TagSubject})

	m.SetFocus([]SlotID{s1.ID, s2.ID, "bogus"})
	assert.Len(t, m.Focused(), 2)

	assert.True(t, m.Evict(s1.ID))
	assert.False(t, m.Evict(s1.ID))
	assert.Len(t, m.Focused(), 1)
	assert.Nil(t, m.Read(s1.ID))
}

func TestMemory_TickDecaysOnlyPositiveTTL(t *testing.T) {
	m := New()
	endOfTurn := m.Write(Slot{Tag: TagIntent, TTL: TTLEndOfTurn})
	decaying := m.Write(Slot{Tag: TagNounPhrase, TTL: 1})

	evicted := m.Tick()
	assert.ElementsMatch(t, []SlotID{decaying.ID}, evicted)
	assert.NotNil(t, m.Read(endOfTurn.ID))
	assert.Nil(t, m.Read(decaying.ID))
}

func TestMemory_EnforceLimitPrefersNonFocusedLowConfidence(t *testing.T) {
	m := New()
	low := m.Write(Slot{Tag: TagRelation, Confidence: 0.1})
	high := m.Write(Slot{Tag: TagRelation, Confidence: 0.9})
	focusedLow := m.Write(Slot{Tag: TagRelation, Confidence: 0.05})
	m.SetFocus([]SlotID{focusedLow.ID})

	evicted := m.EnforceLimit(2)
	require.Len(t, evicted, 1)
	assert.Equal(t, low.ID, evicted[0])
	assert.NotNil(t, m.Read(high.ID))
	assert.NotNil(t, m.Read(focusedLow.ID))
}

func TestMemory_EnforceLimitEvictsFocusedWhenNoChoice(t *testing.T) {
	m := New()
	a := m.Write(Slot{Tag: TagRelation, Confidence: 0.5})
	b := m.Write(Slot{Tag: TagRelation, Confidence: 0.5})
	m.SetFocus([]SlotID{a.ID, b.ID})

	evicted := m.EnforceLimit(1)
	require.Len(t, evicted, 1)
	assert.Equal(t, 1, m.Size())
}

func TestMemory_SweepTagsKeepsRetained(t *testing.T) {
	m := New()
	ephemeral := m.Write(Slot{Tag: TagRelation})
	retained := m.Write(Slot{Tag: TagResponse})

	evicted := m.SweepTags(EphemeralTags)
	assert.Equal(t, []SlotID{ephemeral.ID}, evicted)
	assert.NotNil(t, m.Read(retained.ID))
}

func TestMemory_SerializeRoundTrip(t *testing.T) {
	m := New()
	s := m.Write(Slot{Tag: TagResponse, Content: SlotContent{Text: "hello"}, TTL: 20})
	m.SetFocus([]SlotID{s.ID})
	m.Tick()

	blob, err := m.Serialize()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Deserialize(blob))
	assert.Equal(t, m.TickCount(), restored.TickCount())
	assert.Equal(t, 1, restored.Size())
	assert.Len(t, restored.Focused(), 1)
}

func TestMemory_DeserializeLeavesStateUnchangedOnError(t *testing.T) {
	m := New()
	m.Write(Slot{Tag: TagResponse})
	before := m.Size()

	err := m.Deserialize([]byte("not json"))
	assert.Error(t, err)
	assert.Equal(t, before, m.Size())
}
