// Package orchestrator implements the Hypervisor: the per-turn,
// chain-only scheduler that decides which demons fire, applies their
// mutations to working memory, and assembles the turn's response
// (spec §4.4).
package orchestrator

import (
	"fmt"
	"log"
	"time"

	"github.com/orneryd/tutorkernel/pkg/demon"
	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// Profile is the orchestrator's resource bounds (spec §4.4).
type Profile struct {
	MaxTicksPerTurn  int
	MaxDemonsPerTick int
	MaxMemorySlots   int
	TickTimeout      time.Duration
}

// DefaultProfile is spec §4.4's stated default: 20/5/100/500ms.
func DefaultProfile() Profile {
	return Profile{MaxTicksPerTurn: 20, MaxDemonsPerTick: 5, MaxMemorySlots: 100, TickTimeout: 500 * time.Millisecond}
}

// TutorProfile is the alternate profile spec §4.4 names as "used by the
// tutor kernel": 15/4/80/300ms.
func TutorProfile() Profile {
	return Profile{MaxTicksPerTurn: 15, MaxDemonsPerTick: 4, MaxMemorySlots: 80, TickTimeout: 300 * time.Millisecond}
}

// fallbackResponse is spec §4.4's canonical text when no demon ever
// emits a respond action.
const fallbackResponse = "I'd love to help you learn! Could you tell me a bit more about what you're curious about?"

// TickResult traces one tick of the scheduler (spec §4.4 "Trace").
type TickResult struct {
	Tick          int
	DemonsFired   []demon.ID
	SlotsWritten  int
	SlotsEvicted  int
	Actions       []demon.Action
	DurationMS    float64
}

// Hypervisor runs the chain-only tick loop over one Memory/Store pair.
type Hypervisor struct {
	Profile  Profile
	Registry demon.Registry
	Logger   *log.Logger
}

// New constructs a Hypervisor with the standard seven-demon registry.
func New(profile Profile, logger *log.Logger) *Hypervisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Hypervisor{Profile: profile, Registry: demon.NewRegistry(), Logger: logger}
}

// TurnResult is everything process() needs from one completed turn.
type TurnResult struct {
	Response string
	Ticks    []TickResult
	Actions  []demon.Action
}

// RunTurn drives the tick loop for one user turn over mem, seeded with a
// raw_input slot, and finishes with the mandatory post-turn learn call
// and ephemeral-tag sweep (spec §4.4).
func (h *Hypervisor) RunTurn(mem *workingmemory.Memory, store graphstore.Store, rawInput string) TurnResult {
	mem.Write(workingmemory.Slot{
		Tag: workingmemory.TagRawInput, Content: workingmemory.SlotContent{Text: rawInput},
		Confidence: 1, TTL: workingmemory.TTLEndOfTurn,
	})

	ctx := &demon.Context{Store: store, AnalogySeen: make(map[string]bool)}

	pending := []demon.ID{demon.Parse}
	var response string
	var allActions []demon.Action
	var ticks []TickResult

	for tickNum := 1; tickNum <= h.Profile.MaxTicksPerTurn; tickNum++ {
		if len(pending) == 0 {
			break
		}

		batch := pending
		if len(batch) > h.Profile.MaxDemonsPerTick {
			batch = pending[:h.Profile.MaxDemonsPerTick]
		}
		pending = pending[len(batch):]

		start := time.Now()
		result := TickResult{Tick: tickNum}
		fired := make(map[demon.ID]bool, len(batch))
		var chainHints []demon.ID
		var slotsWritten int

		for _, id := range batch {
			if fired[id] {
				continue
			}
			if time.Since(start) > h.Profile.TickTimeout {
				h.Logger.Printf("orchestrator: tick %d exceeded timeout, stopping tick early", tickNum)
				break
			}
			fired[id] = true

			plan := h.invoke(id, mem, ctx)
			result.DemonsFired = append(result.DemonsFired, id)

			for _, s := range plan.Write {
				mem.Write(s)
				slotsWritten++
			}
			for _, sid := range plan.Evict {
				mem.Evict(sid)
			}
			if plan.Focus != nil {
				mem.SetFocus(*plan.Focus)
			}

			evicted := mem.EnforceLimit(h.Profile.MaxMemorySlots)
			result.SlotsEvicted += len(evicted)

			for _, a := range plan.Actions {
				allActions = append(allActions, a)
				result.Actions = append(result.Actions, a)
				if a.Kind == demon.ActionRespond && response == "" {
					response = a.Text
				}
			}

			if response == "" {
				chainHints = append(chainHints, plan.Chain...)
			}
		}

		result.SlotsWritten = slotsWritten
		decayed := mem.Tick()
		result.SlotsEvicted += len(decayed)
		result.DurationMS = float64(time.Since(start)) / float64(time.Millisecond)
		ticks = append(ticks, result)

		for _, id := range chainHints {
			if !containsID(pending, id) {
				pending = append(pending, id)
			}
		}

		if len(pending) == 0 && response != "" {
			break
		}
	}

	if response == "" {
		response = fallbackResponse
	}

	learnPlan := h.invoke(demon.Learn, mem, ctx)
	for _, s := range learnPlan.Write {
		mem.Write(s)
	}
	for _, a := range learnPlan.Actions {
		allActions = append(allActions, a)
	}
	mem.EnforceLimit(h.Profile.MaxMemorySlots)

	mem.SweepTags(workingmemory.EphemeralTags)

	return TurnResult{Response: response, Ticks: ticks, Actions: allActions}
}

// invoke calls one demon, recovering from any panic so a single
// misbehaving demon cannot take down the turn (spec §7 "Demon
// exception").
func (h *Hypervisor) invoke(id demon.ID, mem *workingmemory.Memory, ctx *demon.Context) (plan demon.Plan) {
	fn, ok := h.Registry[id]
	if !ok {
		h.Logger.Printf("orchestrator: unknown demon %q", id)
		return demon.Plan{}
	}
	defer func() {
		if r := recover(); r != nil {
			h.Logger.Printf("orchestrator: demon %q panicked: %v", id, r)
			plan = demon.Plan{}
		}
	}()
	view := workingmemory.NewView(mem)
	return fn(view, demon.Trigger{}, ctx)
}

func containsID(ids []demon.ID, target demon.ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// String renders a TickResult for debug traces.
func (t TickResult) String() string {
	return fmt.Sprintf("tick %d: fired=%v written=%d evicted=%d actions=%d (%.2fms)",
		t.Tick, t.DemonsFired, t.SlotsWritten, t.SlotsEvicted, len(t.Actions), t.DurationMS)
}
