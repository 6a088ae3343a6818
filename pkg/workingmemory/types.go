// Package workingmemory implements the transient, keyed scratchpad of
// slots that demons read and the orchestrator mutates each turn (spec §3,
// §4.2). Nothing in this package is ever persisted — the graph store is
// the only durable surface (see pkg/graphstore).
package workingmemory

import (
	"time"

	"github.com/google/uuid"
)

// SlotID opaquely identifies a Slot.
type SlotID string

func newSlotID() SlotID { return SlotID(uuid.NewString()) }

// Tag is a slot's semantic role, drawn from the closed vocabulary in
// spec §3.
type Tag string

const (
	TagRawInput            Tag = "raw_input"
	TagIntent              Tag = "intent"
	TagSubject             Tag = "subject"
	TagNounPhrase          Tag = "noun_phrase"
	TagQuestionFocus       Tag = "question_focus"
	TagRelation            Tag = "relation"
	TagContextFact         Tag = "context_fact"
	TagHierarchy           Tag = "hierarchy"
	TagInferredRelation    Tag = "inferred_relation"
	TagContradiction       Tag = "contradiction"
	TagClaimAssessment     Tag = "claim_assessment"
	TagUnknownConcepts     Tag = "unknown_concepts"
	TagDecomposition       Tag = "decomposition"
	TagPrerequisites       Tag = "prerequisites"
	TagKnowledgeGaps       Tag = "knowledge_gaps"
	TagExamples            Tag = "examples"
	TagSolutionSteps       Tag = "solution_steps"
	TagSimplificationNeeded Tag = "simplification_needed"
	TagAnalogy             Tag = "analogy"
	TagFuzzyMatch          Tag = "fuzzy_match"
	TagResponse            Tag = "response"
	TagStudentTopic        Tag = "student_topic"
	TagStudentConfusion    Tag = "student_confusion"
)

// EphemeralTags is the set swept at end of turn (spec §4.4 Post-turn);
// response, student_topic, student_confusion and tick counters survive.
var EphemeralTags = map[Tag]bool{
	TagRawInput: true, TagIntent: true, TagNounPhrase: true, TagQuestionFocus: true,
	TagRelation: true, TagContextFact: true, TagHierarchy: true, TagInferredRelation: true,
	TagContradiction: true, TagClaimAssessment: true, TagUnknownConcepts: true,
	TagDecomposition: true, TagPrerequisites: true, TagKnowledgeGaps: true,
	TagExamples: true, TagSolutionSteps: true, TagSimplificationNeeded: true,
	TagAnalogy: true, TagFuzzyMatch: true,
}

// TTLEndOfTurn is the sentinel TTL value meaning "lives to end of turn"
// rather than decaying on a tick-by-tick basis (spec §3).
const TTLEndOfTurn = 0

// Slot is one record of working-memory state (spec §3). Content holds a
// tagged variant of the payload appropriate to Tag (spec §9 "Dynamic
// typing of content"); exactly one field of Content is set by the demon
// that produced the slot.
type Slot struct {
	ID          SlotID
	NounID      string // optional graphstore.NounID, held as a plain string
	Content     SlotContent
	Tag         Tag
	Confidence  float64
	SourceDemon string
	TTL         int
	CreatedAt   time.Time
}

func (s *Slot) clone() *Slot {
	cp := *s
	return &cp
}
