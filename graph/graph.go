// Package graph holds the in-memory entity-relation graph: a deduplicating
// entity store keyed by (type, canonical name) and an append-only relation
// store with referential integrity checked at insert time.
package graph

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownEntity is returned when a relation references an entity ID that
// is not present in the entity store.
var ErrUnknownEntity = errors.New("graph: unknown entity id")

// Entity is a typed node aligned to a vocabulary type. All fields except
// Properties are immutable after creation; Properties only change through
// Upsert merge policy (currently: duplicates are discarded).
type Entity struct {
	ID         string         `json:"entity_id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	URI        string         `json:"uri"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Relation is a subject-predicate-object triple referencing entities by ID.
type Relation struct {
	SubjectID    string `json:"subject_id"`
	Predicate    string `json:"predicate"`
	PredicateURI string `json:"predicate_uri"`
	ObjectID     string `json:"object_id"`
}

// Stats summarizes the current graph state.
type Stats struct {
	Entities       int `json:"entities"`
	Relations      int `json:"relations"`
	TextsProcessed int `json:"texts_processed"`
}

// Graph owns the entity and relation stores. A single mutex guards all
// writes so that read-modify-write on the dedup index stays atomic under
// concurrent ingestion; Oracle calls happen outside the lock.
type Graph struct {
	vocabBase string

	mu        sync.RWMutex
	byKey     map[string]*Entity // dedup key -> entity
	byID      map[string]*Entity // entity ID -> entity
	order     []*Entity          // insertion order
	relations []Relation
	texts     []string
}

// New creates an empty graph. vocabBase is the vocabulary base URI used to
// derive entity type URIs and predicate URIs (e.g. "https://schema.org").
func New(vocabBase string) *Graph {
	return &Graph{
		vocabBase: vocabBase,
		byKey:     make(map[string]*Entity),
		byID:      make(map[string]*Entity),
	}
}

// dedupKey is the identity under which entity mentions are merged.
func dedupKey(name, entityType string) string {
	return entityType + ":" + Canonicalize(name)
}

// Upsert adds an entity or returns the existing one with the same
// (type, canonical name). On a duplicate the incoming properties are
// discarded and the stored entity is left untouched. Returns the entity ID
// and whether a new entity was created.
func (g *Graph) Upsert(name, entityType string, properties map[string]any) (string, bool) {
	key := dedupKey(name, entityType)

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.byKey[key]; ok {
		return existing.ID, false
	}

	props := make(map[string]any, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	e := &Entity{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       entityType,
		URI:        g.vocabBase + "/" + entityType,
		Properties: props,
	}
	g.byKey[key] = e
	g.byID[e.ID] = e
	g.order = append(g.order, e)
	return e.ID, true
}

// FindByName resolves an entity by canonicalized name alone, ignoring type.
// When the same name exists under two types the earliest-inserted entity
// wins. Prefer FindByNameType when a type hint is available.
func (g *Graph) FindByName(name string) (string, bool) {
	canonical := Canonicalize(name)

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, e := range g.order {
		if Canonicalize(e.Name) == canonical {
			return e.ID, true
		}
	}
	return "", false
}

// FindByNameType resolves an entity by its full dedup key.
func (g *Graph) FindByNameType(name, entityType string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if e, ok := g.byKey[dedupKey(name, entityType)]; ok {
		return e.ID, true
	}
	return "", false
}

// AddRelation appends a subject-predicate-object triple. Both endpoints
// must already exist in the entity store; dangling references are rejected
// with ErrUnknownEntity and nothing is stored. Duplicate triples are
// permitted and preserved in order. The predicate is passed through without
// vocabulary validation.
func (g *Graph) AddRelation(subjectID, predicate, objectID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byID[subjectID]; !ok {
		return ErrUnknownEntity
	}
	if _, ok := g.byID[objectID]; !ok {
		return ErrUnknownEntity
	}

	g.relations = append(g.relations, Relation{
		SubjectID:    subjectID,
		Predicate:    predicate,
		PredicateURI: g.vocabBase + "/" + predicate,
		ObjectID:     objectID,
	})
	return nil
}

// AppendText records an ingested text unit in the text log. The log only
// feeds the texts_processed statistic.
func (g *Graph) AppendText(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, text)
}

// Entities returns a read-only copy of all entities in insertion order.
func (g *Graph) Entities() []Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Entity, len(g.order))
	for i, e := range g.order {
		out[i] = *e
		props := make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			props[k] = v
		}
		out[i].Properties = props
	}
	return out
}

// Relations returns a read-only copy of all relations in insertion order.
func (g *Graph) Relations() []Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Relation, len(g.relations))
	copy(out, g.relations)
	return out
}

// Entity returns the entity with the given ID.
func (g *Graph) Entity(id string) (Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.byID[id]
	if !ok {
		return Entity{}, false
	}
	cp := *e
	props := make(map[string]any, len(e.Properties))
	for k, v := range e.Properties {
		props[k] = v
	}
	cp.Properties = props
	return cp, true
}

// Texts returns a copy of the ingested text log.
func (g *Graph) Texts() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.texts))
	copy(out, g.texts)
	return out
}

// Stats reports current entity, relation, and text counts.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return Stats{
		Entities:       len(g.order),
		Relations:      len(g.relations),
		TextsProcessed: len(g.texts),
	}
}
