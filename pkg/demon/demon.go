// Package demon implements the seven small pure-function reasoners the
// orchestrator schedules each turn (spec §4.3): parse, relate, infer,
// decompose, analogize, question, and learn. Each demon reads an
// immutable View of working memory and returns a Plan of mutations. Some
// demons (relate, decompose, analogize) read the graph store for lookups;
// learn is the only demon that mutates it (spec §4.3 "common shape").
package demon

import (
	"github.com/orneryd/tutorkernel/pkg/graphstore"
	"github.com/orneryd/tutorkernel/pkg/workingmemory"
)

// ID names one of the seven demons.
type ID string

const (
	Parse     ID = "parse"
	Relate    ID = "relate"
	Infer     ID = "infer"
	Decompose ID = "decompose"
	Analogize ID = "analogize"
	Question  ID = "question"
	Learn     ID = "learn"
)

// TriggerKind is the eligibility condition family named in spec §4.3.
type TriggerKind string

const (
	TriggerNewInput     TriggerKind = "new_input"
	TriggerChainFrom    TriggerKind = "chain_from"
	TriggerTagPresent   TriggerKind = "tag_present"
	TriggerTagAbsent    TriggerKind = "tag_absent"
	TriggerTickInterval TriggerKind = "tick_interval"
	TriggerAlways       TriggerKind = "always"
)

// Trigger is one eligibility condition. The orchestrator's chain-only
// scheduling model (spec §4.4) only ever actually evaluates
// TriggerNewInput, to seed the turn with parse; the remaining kinds are
// recorded here as documentation of each demon's nominal trigger set
// (see DESIGN.md open-question decision #2) and for any future
// scheduler that wants to consult them.
type Trigger struct {
	Kind     TriggerKind
	From     ID
	Tag      workingmemory.Tag
	Interval int
}

// Triggers documents each demon's nominal eligibility set from spec §4.3.
var Triggers = map[ID][]Trigger{
	Parse:     {{Kind: TriggerNewInput}},
	Relate:    {{Kind: TriggerChainFrom, From: Parse}, {Kind: TriggerTagPresent, Tag: workingmemory.TagNounPhrase}},
	Infer:     {{Kind: TriggerChainFrom, From: Relate}, {Kind: TriggerTagPresent, Tag: workingmemory.TagRelation}},
	Decompose: {{Kind: TriggerChainFrom, From: Infer}, {Kind: TriggerChainFrom, From: Parse}, {Kind: TriggerTagPresent, Tag: workingmemory.TagIntent}},
	Analogize: {{Kind: TriggerChainFrom, From: Decompose}, {Kind: TriggerChainFrom, From: Relate}, {Kind: TriggerTagPresent, Tag: workingmemory.TagSimplificationNeeded}},
	Question:  {{Kind: TriggerAlways}},
	Learn:     {{Kind: TriggerTagPresent, Tag: workingmemory.TagResponse}, {Kind: TriggerTickInterval, Interval: 5}},
}

// ActionKind is one of the five action kinds spec §4.3 names.
type ActionKind string

const (
	ActionRespond ActionKind = "respond"
	ActionAsk     ActionKind = "ask"
	ActionStore   ActionKind = "store"
	ActionQuery   ActionKind = "query"
	ActionLog     ActionKind = "log"
)

// Action is one side-effecting instruction a demon emits. Store/Query
// actions are diagnostic/opaque requests, not direct graph mutation
// handles; only learn actually mutates the graph store.
type Action struct {
	Kind    ActionKind
	Text    string
	Pattern graphstore.Pattern
}

func Respond(text string) Action { return Action{Kind: ActionRespond, Text: text} }
func Ask(text string) Action     { return Action{Kind: ActionAsk, Text: text} }
func LogAction(msg string) Action { return Action{Kind: ActionLog, Text: msg} }

// Plan is a demon's complete output for one invocation (spec §4.3
// "common shape"). Focus is nil when the demon has no opinion on the
// attention list; a non-nil (possibly empty) slice replaces it.
type Plan struct {
	Write   []workingmemory.Slot
	Evict   []workingmemory.SlotID
	Focus   *[]workingmemory.SlotID
	Actions []Action
	Chain   []ID
}

// Context is the ambient, read-only state available to a demon beyond
// working memory: the graph store for read-only lookups (spec §4.3:
// "except via the read-only helpers needed by their rules") and a
// turn-scoped dedup set analogize uses (DESIGN.md open-question
// decision #3).
type Context struct {
	Store        graphstore.Store
	AnalogySeen  map[string]bool
}

// Func is the shape every demon implements.
type Func func(view workingmemory.View, trigger Trigger, ctx *Context) Plan

// Registry maps each ID to its implementation.
type Registry map[ID]Func

// NewRegistry returns the standard registry of all seven demons.
func NewRegistry() Registry {
	return Registry{
		Parse:     RunParse,
		Relate:    RunRelate,
		Infer:     RunInfer,
		Decompose: RunDecompose,
		Analogize: RunAnalogize,
		Question:  RunQuestion,
		Learn:     RunLearn,
	}
}

// All lists every demon id in a stable order, used by the facade's
// list_demons() (spec §4.5).
func All() []ID {
	return []ID{Parse, Relate, Infer, Decompose, Analogize, Question, Learn}
}
