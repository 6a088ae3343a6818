// Package graphstore implements the persistent directed multigraph of
// nouns and typed relations that backs the reasoning kernel (spec §3, §4.1).
//
// A Store is safe for concurrent use by multiple kernel instances; within
// one process all mutating calls are serialized by a single writer lock,
// matching the "single writer lock" guarantee in spec §4.1.
package graphstore

import (
	"time"

	"github.com/google/uuid"
)

// NounID opaquely identifies a Noun. It is a UUID string, following the
// teacher's NodeID convention of an opaque, stable string identifier.
type NounID string

// RelationID opaquely identifies a Relation.
type RelationID string

func newNounID() NounID         { return NounID(uuid.NewString()) }
func newRelationID() RelationID { return RelationID(uuid.NewString()) }

// NounType is the closed classification of a Noun (spec §3).
type NounType string

const (
	NounConcept NounType = "concept"
	NounEntity  NounType = "entity"
	NounProcess NounType = "process"
	NounProperty NounType = "property"
	NounValue   NounType = "value"
	NounContext NounType = "context"
	NounUnknown NounType = "unknown"
)

// RelationType is the closed vocabulary of edge types (spec §3).
type RelationType string

const (
	IsA          RelationType = "is_a"
	Has          RelationType = "has"
	Causes       RelationType = "causes"
	PartOf       RelationType = "part_of"
	UsedFor      RelationType = "used_for"
	Opposes      RelationType = "opposes"
	Requires     RelationType = "requires"
	Produces     RelationType = "produces"
	Equals       RelationType = "equals"
	GreaterThan  RelationType = "greater_than"
	LessThan     RelationType = "less_than"
	Contains     RelationType = "contains"
	Precedes     RelationType = "precedes"
	Follows      RelationType = "follows"
	RelatesTo    RelationType = "relates_to"
	ExampleOf    RelationType = "example_of"
	DefinedAs    RelationType = "defined_as"
)

// TransitiveTypes is the designated set over which infer's transitive
// closure rule runs (spec §4.3.3 rule 1).
var TransitiveTypes = map[RelationType]bool{
	IsA:      true,
	Causes:   true,
	Requires: true,
	PartOf:   true,
	Precedes: true,
}

// Noun is a vertex in the persistent graph (spec §3).
type Noun struct {
	ID         NounID
	Label      string
	Type       NounType
	Properties map[string]any
	CreatedAt  time.Time
}

// Relation is a directed, typed, weighted edge between two Nouns (spec §3).
type Relation struct {
	ID         RelationID
	FromID     NounID
	ToID       NounID
	Type       RelationType
	Weight     float64
	ContextID  *NounID
	Properties map[string]any
	CreatedAt  time.Time
}

// Edge pairs a Relation with the Noun at its other end, the shape returned
// by RelationsFrom/RelationsTo (spec §4.1).
type Edge struct {
	Relation *Relation
	Noun     *Noun // the neighbor: ToNoun for RelationsFrom, FromNoun for RelationsTo
}

// Triple is one matched row from Query (spec §4.1).
type Triple struct {
	From     *Noun
	Relation *Relation
	To       *Noun
}

// NodePattern constrains one side of a Pattern match.
type NodePattern struct {
	Label string
	Type  NounType
}

func (p *NodePattern) matches(n *Noun) bool {
	if p == nil {
		return true
	}
	if p.Label != "" && n.Label != p.Label {
		return false
	}
	if p.Type != "" && n.Type != p.Type {
		return false
	}
	return true
}

// Pattern is the query shape consumed by Query (spec §4.1): an optional
// from-side constraint, an optional relation type, and an optional to-side
// constraint. A nil/empty field matches anything.
type Pattern struct {
	From     *NodePattern
	Relation RelationType
	To       *NodePattern
}

// TraverseNode describes one node reached by Traverse (spec §4.1).
type TraverseNode struct {
	Noun  *Noun
	Depth int
	Path  []NounID
}

// Stats summarizes store contents (spec §6 Facade stats().graph).
type Stats struct {
	Nouns     int64
	Relations int64
	Types     map[RelationType]int64
}
