// Package graphstore: BadgerEngine provides persistent, durable storage
// for the noun/relation graph using BadgerDB, following the teacher's
// pkg/storage/badger.go architecture (prefix-byte keys, a single writer
// lock, a bounded hot-node cache, and crash-safe journaled writes via
// Badger's own value log).
package graphstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// BadgerEngine is a durable Store backed by BadgerDB.
//
// Example:
//
//	store, err := graphstore.NewBadgerEngine("./data/graph", graphstore.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	noun, _ := store.EnsureNoun("photosynthesis", graphstore.NounProcess, nil)
type BadgerEngine struct {
	db   *badger.DB
	opts Options
	mu   sync.Mutex // serializes all mutating calls (spec §4.1 "single writer lock")

	cache *lru.Cache[NounID, *Noun]

	nounCount     atomic.Int64
	relationCount atomic.Int64

	logger *log.Logger
	closed bool
}

const defaultCacheSize = 2048

// NewBadgerEngine opens (or creates) a durable graph store at dir.
func NewBadgerEngine(dir string, opts Options) (*BadgerEngine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("graphstore: create data dir: %w", err)
	}
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("graphstore: open badger: %w", err)
	}
	cache, err := lru.New[NounID, *Noun](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("graphstore: init cache: %w", err)
	}
	e := &BadgerEngine{
		db:     db,
		opts:   opts,
		cache:  cache,
		logger: log.New(os.Stderr, "graphstore: ", log.LstdFlags),
	}
	if err := e.loadCounts(); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

func (e *BadgerEngine) loadCounts() error {
	return e.withView(func(txn *badger.Txn) error {
		var nouns, relations int64
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			switch it.Item().Key()[0] {
			case prefixNoun:
				nouns++
			case prefixRelation:
				relations++
			}
		}
		e.nounCount.Store(nouns)
		e.relationCount.Store(relations)
		return nil
	})
}

func (e *BadgerEngine) ensureOpen() error {
	if e.closed {
		return ErrStoreClosed
	}
	return nil
}

func (e *BadgerEngine) withView(fn func(txn *badger.Txn) error) error {
	return e.db.View(fn)
}

func (e *BadgerEngine) withUpdate(fn func(txn *badger.Txn) error) error {
	return e.db.Update(fn)
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out []byte
	err = item.Value(func(val []byte) error {
		out = append([]byte{}, val...)
		return nil
	})
	return out, err
}

func (e *BadgerEngine) EnsureNoun(label string, typ NounType, props map[string]any) (*Noun, error) {
	norm := normalizeLabel(label)
	if norm == "" {
		return nil, ErrInvalidLabel
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}

	var result *Noun
	var created bool
	err := e.withUpdate(func(txn *badger.Txn) error {
		if idBytes, err := getValue(txn, labelExactKey(norm)); err == nil {
			existing, err := e.getNounTxn(txn, NounID(idBytes))
			if err != nil {
				return err
			}
			result = existing
			return nil
		} else if err != ErrNotFound {
			return err
		}

		if typ == "" {
			typ = NounUnknown
		}
		n := &Noun{ID: newNounID(), Label: norm, Type: typ, Properties: props, CreatedAt: time.Now()}
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if err := txn.Set(nounKey(n.ID), data); err != nil {
			return err
		}
		if err := txn.Set(labelExactKey(norm), []byte(n.ID)); err != nil {
			return err
		}
		result = n
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.cache.Add(result.ID, result)
	if created {
		e.nounCount.Add(1)
	}
	return copyNoun(result), nil
}

func (e *BadgerEngine) getNounTxn(txn *badger.Txn, id NounID) (*Noun, error) {
	if cached, ok := e.cache.Get(id); ok {
		return copyNoun(cached), nil
	}
	data, err := getValue(txn, nounKey(id))
	if err != nil {
		return nil, err
	}
	var n Noun
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (e *BadgerEngine) Find(label string) (*Noun, error) {
	norm := normalizeLabel(label)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	var n *Noun
	err := e.withView(func(txn *badger.Txn) error {
		idBytes, err := getValue(txn, labelExactKey(norm))
		if err != nil {
			return err
		}
		found, err := e.getNounTxn(txn, NounID(idBytes))
		if err != nil {
			return err
		}
		n = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copyNoun(n), nil
}

func (e *BadgerEngine) FindByID(id NounID) (*Noun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	var n *Noun
	err := e.withView(func(txn *badger.Txn) error {
		found, err := e.getNounTxn(txn, id)
		if err != nil {
			return err
		}
		n = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copyNoun(n), nil
}

func (e *BadgerEngine) Search(q string, limit int) ([]*Noun, error) {
	norm := normalizeLabel(q)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}

	var matches []*Noun
	err := e.withView(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixNoun}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n Noun
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				continue
			}
			if norm == "" || strings.Contains(n.Label, norm) {
				nc := n
				matches = append(matches, &nc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortSearchResults(matches, norm)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (e *BadgerEngine) Link(fromLabel string, typ RelationType, toLabel string, weight float64, contextLabel string) (*Relation, error) {
	from, err := e.EnsureNoun(fromLabel, NounUnknown, nil)
	if err != nil {
		return nil, err
	}
	to, err := e.EnsureNoun(toLabel, NounUnknown, nil)
	if err != nil {
		return nil, err
	}
	var ctxID *NounID
	if contextLabel != "" {
		ctx, err := e.EnsureNoun(contextLabel, NounContext, nil)
		if err != nil {
			return nil, err
		}
		ctxID = &ctx.ID
	}
	if weight == 0 {
		weight = 1.0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}

	var result *Relation
	var created bool
	err = e.withUpdate(func(txn *badger.Txn) error {
		if e.opts.MergeDuplicateLinks {
			existing, err := e.findDuplicateTxn(txn, from.ID, to.ID, typ)
			if err != nil {
				return err
			}
			if existing != nil {
				if weight > existing.Weight {
					existing.Weight = weight
					data, err := json.Marshal(existing)
					if err != nil {
						return err
					}
					if err := txn.Set(relationKey(existing.ID), data); err != nil {
						return err
					}
				}
				result = existing
				return nil
			}
		}

		rel := &Relation{
			ID: newRelationID(), FromID: from.ID, ToID: to.ID, Type: typ,
			Weight: weight, ContextID: ctxID, CreatedAt: time.Now(),
		}
		data, err := json.Marshal(rel)
		if err != nil {
			return err
		}
		if err := txn.Set(relationKey(rel.ID), data); err != nil {
			return err
		}
		if err := txn.Set(relOutKey(rel.FromID, rel.ID), nil); err != nil {
			return err
		}
		if err := txn.Set(relInKey(rel.ToID, rel.ID), nil); err != nil {
			return err
		}
		if err := txn.Set(relTypeKey(rel.Type, rel.ID), nil); err != nil {
			return err
		}
		if rel.ContextID != nil {
			if err := txn.Set(relContextKey(*rel.ContextID, rel.ID), nil); err != nil {
				return err
			}
		}
		result = rel
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		e.relationCount.Add(1)
	}
	return copyRelation(result), nil
}

func (e *BadgerEngine) findDuplicateTxn(txn *badger.Txn, from, to NounID, typ RelationType) (*Relation, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := relOutPrefix(from)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		relID := RelationID(idAfterSep(it.Item().Key()))
		data, err := getValue(txn, relationKey(relID))
		if err != nil {
			continue
		}
		var r Relation
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if r.ToID == to && r.Type == typ {
			return &r, nil
		}
	}
	return nil, nil
}

func (e *BadgerEngine) edgesByPrefix(prefixFn func(NounID) []byte, id NounID, typ RelationType, neighborOf func(*Relation) NounID) ([]Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	var out []Edge
	err := e.withView(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := prefixFn(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			relID := RelationID(idAfterSep(it.Item().Key()))
			data, err := getValue(txn, relationKey(relID))
			if err != nil {
				continue
			}
			var r Relation
			if err := json.Unmarshal(data, &r); err != nil {
				continue
			}
			if typ != "" && r.Type != typ {
				continue
			}
			neighbor, err := e.getNounTxn(txn, neighborOf(&r))
			if err != nil {
				continue
			}
			rc := r
			out = append(out, Edge{Relation: &rc, Noun: neighbor})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEdgesByWeight(out)
	return out, nil
}

func (e *BadgerEngine) RelationsFrom(id NounID, typ RelationType) ([]Edge, error) {
	return e.edgesByPrefix(relOutPrefix, id, typ, func(r *Relation) NounID { return r.ToID })
}

func (e *BadgerEngine) RelationsTo(id NounID, typ RelationType) ([]Edge, error) {
	return e.edgesByPrefix(relInPrefix, id, typ, func(r *Relation) NounID { return r.FromID })
}

func (e *BadgerEngine) Query(pattern Pattern, limit int) ([]Triple, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}

	var triples []Triple
	err := e.withView(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var prefix []byte
		if pattern.Relation != "" {
			prefix = relTypePrefix(pattern.Relation)
		} else {
			prefix = []byte{prefixRelType}
		}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			relID := RelationID(idAfterSep(it.Item().Key()))
			data, err := getValue(txn, relationKey(relID))
			if err != nil {
				continue
			}
			var r Relation
			if err := json.Unmarshal(data, &r); err != nil {
				continue
			}
			from, err := e.getNounTxn(txn, r.FromID)
			if err != nil {
				continue
			}
			to, err := e.getNounTxn(txn, r.ToID)
			if err != nil {
				continue
			}
			if !pattern.From.matches(from) || !pattern.To.matches(to) {
				continue
			}
			rc := r
			triples = append(triples, Triple{From: from, Relation: &rc, To: to})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTriplesByWeight(triples)
	if limit > 0 && len(triples) > limit {
		triples = triples[:limit]
	}
	return triples, nil
}

func (e *BadgerEngine) Traverse(start NounID, maxDepth int) (map[NounID]TraverseNode, error) {
	startNoun, err := e.FindByID(start)
	if err != nil {
		return nil, err
	}
	result := map[NounID]TraverseNode{start: {Noun: startNoun, Depth: 0, Path: []NounID{start}}}
	frontier := []NounID{start}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []NounID
		for _, id := range frontier {
			edges, err := e.RelationsFrom(id, "")
			if err != nil {
				continue
			}
			for _, edge := range edges {
				if _, seen := result[edge.Relation.ToID]; seen {
					continue
				}
				path := append(append([]NounID{}, result[id].Path...), edge.Relation.ToID)
				result[edge.Relation.ToID] = TraverseNode{Noun: edge.Noun, Depth: depth, Path: path}
				next = append(next, edge.Relation.ToID)
			}
		}
		frontier = next
	}
	return result, nil
}

func (e *BadgerEngine) DeleteNoun(id NounID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return err
	}

	var removedRelations int
	err := e.withUpdate(func(txn *badger.Txn) error {
		noun, err := e.getNounTxn(txn, id)
		if err != nil {
			return err
		}

		for _, prefixFn := range []func(NounID) []byte{relOutPrefix, relInPrefix} {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			prefix := prefixFn(id)
			var relIDs []RelationID
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				relIDs = append(relIDs, RelationID(idAfterSep(it.Item().Key())))
			}
			it.Close()
			for _, relID := range relIDs {
				if err := e.deleteRelationTxn(txn, relID); err != nil {
					return err
				}
				removedRelations++
			}
		}

		if err := txn.Delete(nounKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(labelExactKey(noun.Label)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.cache.Remove(id)
	e.nounCount.Add(-1)
	e.relationCount.Add(-int64(removedRelations))
	return nil
}

func (e *BadgerEngine) deleteRelationTxn(txn *badger.Txn, id RelationID) error {
	data, err := getValue(txn, relationKey(id))
	if err != nil {
		return err
	}
	var r Relation
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if err := txn.Delete(relationKey(id)); err != nil {
		return err
	}
	if err := txn.Delete(relOutKey(r.FromID, id)); err != nil {
		return err
	}
	if err := txn.Delete(relInKey(r.ToID, id)); err != nil {
		return err
	}
	if err := txn.Delete(relTypeKey(r.Type, id)); err != nil {
		return err
	}
	if r.ContextID != nil {
		if err := txn.Delete(relContextKey(*r.ContextID, id)); err != nil {
			return err
		}
	}
	return nil
}

func (e *BadgerEngine) Stats() (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureOpen(); err != nil {
		return Stats{}, err
	}
	types := make(map[RelationType]int64)
	err := e.withView(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixRelation}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Relation
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &r) }); err != nil {
				continue
			}
			types[r.Type]++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return Stats{Nouns: e.nounCount.Load(), Relations: e.relationCount.Load(), Types: types}, nil
}

func (e *BadgerEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}

func sortTriplesByWeight(triples []Triple) {
	sort.SliceStable(triples, func(i, j int) bool {
		return triples[i].Relation.Weight > triples[j].Relation.Weight
	})
}
