package graphstore

// Store is the Graph Store interface consumed by the reasoning kernel
// (spec §4.1, §6). Both Engines in this package — BadgerEngine (durable)
// and MemoryEngine (in-process, for tests) — implement it.
type Store interface {
	// EnsureNoun performs an exact, case-insensitive lookup by label and
	// creates the noun if absent.
	EnsureNoun(label string, typ NounType, props map[string]any) (*Noun, error)

	// Find performs an exact, case-insensitive lookup by label.
	// Returns ErrNotFound when no such noun exists.
	Find(label string) (*Noun, error)

	// FindByID looks a noun up by its opaque id.
	FindByID(id NounID) (*Noun, error)

	// Search returns nouns whose label contains q (case-insensitive),
	// most-recently-created first, bounded by limit.
	Search(q string, limit int) ([]*Noun, error)

	// Link ensures both endpoint nouns exist and creates a relation
	// between them. When the store's MergeDuplicateLinks option is set,
	// an existing (from,to,type) relation has its weight raised to
	// max(existing, weight) instead of a new row being created.
	Link(fromLabel string, typ RelationType, toLabel string, weight float64, contextLabel string) (*Relation, error)

	// RelationsFrom returns outgoing edges from id, optionally filtered
	// by type ("" means any type).
	RelationsFrom(id NounID, typ RelationType) ([]Edge, error)

	// RelationsTo returns incoming edges to id, optionally filtered by
	// type ("" means any type).
	RelationsTo(id NounID, typ RelationType) ([]Edge, error)

	// Query returns triples matching pattern, ordered by descending
	// weight, bounded by limit.
	Query(pattern Pattern, limit int) ([]Triple, error)

	// Traverse performs a breadth-first walk over outgoing edges only,
	// bounded by maxDepth.
	Traverse(start NounID, maxDepth int) (map[NounID]TraverseNode, error)

	// DeleteNoun removes a noun and cascades to its incident relations.
	DeleteNoun(id NounID) error

	// Stats reports noun/relation counts.
	Stats() (Stats, error)

	// Close releases underlying resources.
	Close() error
}

// Options configures a Store's behavior. MergeDuplicateLinks resolves the
// open question in spec §9 on whether repeated Link calls with identical
// arguments should merge or accumulate; default true.
type Options struct {
	MergeDuplicateLinks bool
}

// DefaultOptions returns the recorded default (merge duplicates, keep max
// weight) — see DESIGN.md "Open-question decisions" #1.
func DefaultOptions() Options {
	return Options{MergeDuplicateLinks: true}
}
