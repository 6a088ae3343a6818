package workingmemory

import (
	"encoding/json"
	"fmt"
)

// snapshot is the JSON-serializable shape of a Memory, used by
// save_state/load_state (spec §4.5, §7 "Serialization failure").
type snapshot struct {
	Slots []*Slot  `json:"slots"`
	Focus []SlotID `json:"focus"`
	Tick  int      `json:"tick"`
}

// Serialize encodes the working memory to an opaque blob.
func (m *Memory) Serialize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := snapshot{Focus: append([]SlotID{}, m.focus...), Tick: m.tick_}
	for _, s := range m.slots {
		snap.Slots = append(snap.Slots, s.clone())
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("workingmemory: serialize: %w", err)
	}
	return data, nil
}

// Deserialize replaces m's contents with the decoded blob. On any error
// m is left completely unmodified (spec §7: "do not partially mutate
// working memory" on serialization failure).
func (m *Memory) Deserialize(blob []byte) error {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("workingmemory: deserialize: %w", err)
	}

	slots := make(map[SlotID]*Slot, len(snap.Slots))
	for _, s := range snap.Slots {
		slots[s.ID] = s
	}
	focus := make([]SlotID, 0, len(snap.Focus))
	for _, id := range snap.Focus {
		if _, ok := slots[id]; ok {
			focus = append(focus, id)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = slots
	m.focus = focus
	m.tick_ = snap.Tick
	return nil
}
