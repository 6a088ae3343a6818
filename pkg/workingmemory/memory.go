package workingmemory

import (
	"sort"
	"sync"
	"time"
)

// Memory is the per-turn scratchpad: {slots, focus, tick} from spec §3.
// It is owned exclusively by the kernel facade (spec §3 "Ownership");
// demons only ever see a read view (View) and return a plan of mutations
// for the orchestrator to apply. The mutex guards against the
// non-reentrancy case in spec §5 — within one process() call Memory is
// only ever touched by the orchestrator's single goroutine, but a second,
// concurrent process() call must not corrupt state.
type Memory struct {
	mu    sync.Mutex
	slots map[SlotID]*Slot
	focus []SlotID
	tick_ int
}

// New creates an empty working memory.
func New() *Memory {
	return &Memory{slots: make(map[SlotID]*Slot)}
}

// Write stores slot, assigning it an ID and CreatedAt if unset, and
// returns the stored copy.
func (m *Memory) Write(s Slot) *Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = newSlotID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	stored := s.clone()
	m.slots[stored.ID] = stored
	return stored.clone()
}

// Read returns the slot for id, or nil if absent.
func (m *Memory) Read(id SlotID) *Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil
	}
	return s.clone()
}

// FindByTag returns all slots with the given tag.
func (m *Memory) FindByTag(tag Tag) []*Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Slot
	for _, s := range m.slots {
		if s.Tag == tag {
			out = append(out, s.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// LatestByTag returns the most recently created slot with the given tag,
// or nil if none exists.
func (m *Memory) LatestByTag(tag Tag) *Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *Slot
	for _, s := range m.slots {
		if s.Tag != tag {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil
	}
	return latest.clone()
}

// Evict removes a slot (and any focus reference to it), reporting whether
// it existed.
func (m *Memory) Evict(id SlotID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictLocked(id)
}

func (m *Memory) evictLocked(id SlotID) bool {
	if _, ok := m.slots[id]; !ok {
		return false
	}
	delete(m.slots, id)
	m.dropFromFocusLocked(id)
	return true
}

func (m *Memory) dropFromFocusLocked(id SlotID) {
	out := m.focus[:0]
	for _, fid := range m.focus {
		if fid != id {
			out = append(out, fid)
		}
	}
	m.focus = out
}

// SetFocus replaces the focus list, silently dropping ids not present in
// slots (spec §4.2).
func (m *Memory) SetFocus(ids []SlotID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	focus := make([]SlotID, 0, len(ids))
	for _, id := range ids {
		if _, ok := m.slots[id]; ok {
			focus = append(focus, id)
		}
	}
	m.focus = focus
}

// Focused returns the slots currently in the focus list, in order.
func (m *Memory) Focused() []*Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Slot, 0, len(m.focus))
	for _, id := range m.focus {
		if s, ok := m.slots[id]; ok {
			out = append(out, s.clone())
		}
	}
	return out
}

// Tick decrements every slot with TTL>0 and removes those reaching zero;
// TTL==0 slots ("lives to end of turn") are untouched by decay (spec
// §4.2). Returns the evicted slot ids.
func (m *Memory) Tick() []SlotID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tick_++

	var evicted []SlotID
	for id, s := range m.slots {
		if s.TTL <= 0 {
			continue
		}
		s.TTL--
		if s.TTL == 0 {
			delete(m.slots, id)
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		m.dropFromFocusLocked(id)
	}
	return evicted
}

// TickCount returns the number of ticks elapsed so far.
func (m *Memory) TickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tick_
}

// EnforceLimit evicts slots while size exceeds max: non-focused before
// focused, then lower confidence first, then older first — focused slots
// are evicted only once everything else is exhausted (spec §4.2).
func (m *Memory) EnforceLimit(max int) []SlotID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max <= 0 || len(m.slots) <= max {
		return nil
	}

	focused := make(map[SlotID]bool, len(m.focus))
	for _, id := range m.focus {
		focused[id] = true
	}

	candidates := make([]*Slot, 0, len(m.slots))
	for _, s := range m.slots {
		candidates = append(candidates, s)
	}
	now := time.Now()
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		fa, fb := focused[a.ID], focused[b.ID]
		if fa != fb {
			return !fa // non-focused first
		}
		if a.Confidence != b.Confidence {
			return a.Confidence < b.Confidence
		}
		return now.Sub(a.CreatedAt) > now.Sub(b.CreatedAt) // older (larger age) first
	})

	var evicted []SlotID
	excess := len(m.slots) - max
	for i := 0; i < excess && i < len(candidates); i++ {
		id := candidates[i].ID
		delete(m.slots, id)
		evicted = append(evicted, id)
	}
	for _, id := range evicted {
		m.dropFromFocusLocked(id)
	}
	return evicted
}

// Size returns the current slot count.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// All returns every slot currently in memory, for serialization.
func (m *Memory) All() []*Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Slot, 0, len(m.slots))
	for _, s := range m.slots {
		out = append(out, s.clone())
	}
	return out
}

// SweepTags evicts every slot whose tag is in tags (spec §4.4 Post-turn
// sweep of ephemeral tags).
func (m *Memory) SweepTags(tags map[Tag]bool) []SlotID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var evicted []SlotID
	for id, s := range m.slots {
		if tags[s.Tag] {
			delete(m.slots, id)
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		m.dropFromFocusLocked(id)
	}
	return evicted
}
