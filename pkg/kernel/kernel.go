// Package kernel implements the Kernel Facade: the process-level object
// that owns one working-memory instance, one orchestrator, and one graph
// handle, and exposes the core's only public surface (spec §4.5, §6).
package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/orneryd/tutorkernel/pkg/demon"
	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/orchestrator"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// maxInputLen is spec §6's "no longer than 5000 characters".
const maxInputLen = 5000

var (
	// ErrBusy is returned by Process when a call is already in flight on
	// this Kernel (spec §5: "process is not re-entrant").
	ErrBusy = errors.New("kernel: busy, a turn is already in progress")

	// ErrInputInvalid is returned for empty or over-long input (spec §6).
	ErrInputInvalid = errors.New("kernel: input must be non-empty and at most 5000 characters")
)

// Kernel owns one working memory, one Hypervisor, and one graph handle
// (spec §3 "Ownership"). It is safe to share across goroutines, but
// Process itself never runs concurrently with another Process call on
// the same Kernel: a concurrent attempt fails fast with ErrBusy rather
// than queueing (spec §5).
type Kernel struct {
	mu           sync.Mutex
	mem          *workingmemory.Memory
	store        graphstore.Store
	hypervisor   *orchestrator.Hypervisor
	totalFired   int64
	turnsHandled int64
}

// New constructs a Kernel over an already-open Store, per spec §3's
// ownership model: the facade owns the working-memory instance and the
// graph handle it is given.
func New(store graphstore.Store, profile orchestrator.Profile) *Kernel {
	return &Kernel{
		mem:        workingmemory.New(),
		store:      store,
		hypervisor: orchestrator.New(profile, nil),
	}
}

// Open is the convenience constructor cmd/tutor uses: it opens a durable
// BadgerEngine at dataDir and wraps it in a Kernel (spec §4.5).
func Open(dataDir string, profile orchestrator.Profile) (*Kernel, error) {
	store, err := graphstore.NewBadgerEngine(dataDir, graphstore.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("kernel: open %s: %w", dataDir, err)
	}
	return New(store, profile), nil
}

// Close releases the underlying graph store's resources.
func (k *Kernel) Close() error {
	return k.store.Close()
}

// Result is what Process returns: the response text, plus an optional
// trace populated only when debug is requested (spec §4.5, §4.4 "Trace").
type Result struct {
	Response string
	Trace    []orchestrator.TickResult
	Actions  []demon.Action
}

// Process ingests one utterance and returns the tutor's reply. debug, when
// true, populates Result.Trace with the per-tick scheduling trace (spec
// §4.5 "the facade makes this available when a debug flag is set").
//
// Process is not re-entrant (spec §5): a concurrent call on the same
// Kernel returns ErrBusy immediately rather than blocking.
func (k *Kernel) Process(text string, debug bool) (Result, error) {
	if len(text) == 0 || len(text) > maxInputLen {
		return Result{}, ErrInputInvalid
	}
	if !k.mu.TryLock() {
		return Result{}, ErrBusy
	}
	defer k.mu.Unlock()

	turn := k.hypervisor.RunTurn(k.mem, k.store, text)
	k.turnsHandled++
	for _, t := range turn.Ticks {
		k.totalFired += int64(len(t.DemonsFired))
	}

	result := Result{Response: turn.Response, Actions: turn.Actions}
	if debug {
		result.Trace = turn.Ticks
	}
	return result, nil
}

// MemoryStats is the memory{} field of stats() (spec §6).
type MemoryStats struct {
	Slots      int
	Focused    int
	TotalTicks int
}

// DemonStats is the demons{} field of stats() (spec §6).
type DemonStats struct {
	Registered  int
	TotalFired  int64
	TurnsServed int64
}

// Stats is the aggregate `stats() → {memory, graph, demons}` shape (spec
// §4.5, §6).
type Stats struct {
	Memory MemoryStats
	Graph  graphstore.Stats
	Demons DemonStats
}

// Stats reports the current memory, graph, and demon-invocation counters.
func (k *Kernel) Stats() (Stats, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	graphStats, err := k.store.Stats()
	if err != nil {
		return Stats{}, fmt.Errorf("kernel: stats: %w", err)
	}

	return Stats{
		Memory: MemoryStats{
			Slots:      k.mem.Size(),
			Focused:    len(k.mem.Focused()),
			TotalTicks: k.mem.TickCount(),
		},
		Graph: graphStats,
		Demons: DemonStats{
			Registered:  len(demon.All()),
			TotalFired:  k.totalFired,
			TurnsServed: k.turnsHandled,
		},
	}, nil
}

// SaveState serializes working memory to an opaque blob (spec §4.5).
func (k *Kernel) SaveState() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mem.Serialize()
}

// LoadState replaces working memory's contents from a blob previously
// produced by SaveState. On any error working memory is left completely
// unmodified (spec §7 "Serialization failure").
func (k *Kernel) LoadState(blob []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mem.Deserialize(blob)
}

// DemonInfo is one entry of list_demons() (spec §4.5).
type DemonInfo struct {
	ID          string
	Name        string
	Description string
}

var demonDescriptions = map[demon.ID]string{
	demon.Parse:     "Classifies intent and subject, extracts noun phrases and question focus from raw input.",
	demon.Relate:    "Resolves noun phrases and question focus against the graph, surfacing known relations and hierarchy.",
	demon.Infer:     "Derives transitive closures, detects contradictions, assesses claims, and propagates properties.",
	demon.Decompose: "Breaks an unresolved or confusing concept into prerequisites and solution steps.",
	demon.Analogize: "Proposes a structural or bootstrapped analogy for an unfamiliar concept.",
	demon.Question:  "Assembles the turn's single guiding response; always terminal, never chains further.",
	demon.Learn:     "Persists the turn's observed facts back to the graph; the only demon that mutates it.",
}

// ListDemons returns every registered demon's id, name, and description,
// in the stable order spec §4.3 enumerates them.
func ListDemons() []DemonInfo {
	ids := demon.All()
	infos := make([]DemonInfo, len(ids))
	for i, id := range ids {
		infos[i] = DemonInfo{ID: string(id), Name: string(id), Description: demonDescriptions[id]}
	}
	return infos
}
