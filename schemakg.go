// Package schemakg builds a schema.org-aligned knowledge graph incrementally
// from text. Each ingested text unit goes through one extraction call, entity
// mentions are deduplicated by (type, canonical name), and relations are only
// stored when both endpoints resolve to known entities.
package schemakg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rowanfalk/schemakg/export"
	"github.com/rowanfalk/schemakg/extract"
	"github.com/rowanfalk/schemakg/graph"
	"github.com/rowanfalk/schemakg/llm"
	"github.com/rowanfalk/schemakg/parser"
	"github.com/rowanfalk/schemakg/store"
	"github.com/rowanfalk/schemakg/vocab"
)

// Builder is the main entry point for incremental graph construction.
type Builder interface {
	// AddText extracts entities and relations from one text unit and merges
	// them into the graph. A transport failure leaves the graph unchanged
	// and returns an error; a malformed model reply leaves the graph
	// unchanged (except the text log) and reports it.
	AddText(ctx context.Context, text string) (*IngestReport, error)

	// IngestFile parses a document into text units and ingests each one.
	// Returns one report per unit.
	IngestFile(ctx context.Context, path string) ([]IngestReport, error)

	// Query answers a natural-language question from the current graph.
	Query(ctx context.Context, question string) (string, error)

	// FindEntity resolves an entity by name alone; earliest insertion wins
	// on a cross-type name collision.
	FindEntity(name string) (graph.Entity, bool)

	// FindEntityByType resolves an entity by name and type.
	FindEntityByType(name, entityType string) (graph.Entity, bool)

	// Entities returns all entities in insertion order.
	Entities() []graph.Entity

	// Relations returns all relations in insertion order.
	Relations() []graph.Relation

	// ExportJSONLD renders the graph as an indented JSON-LD document.
	ExportJSONLD() ([]byte, error)

	// ExportTurtle renders the graph as Turtle.
	ExportTurtle() string

	// SaveSnapshot persists the full graph state to the configured SQLite
	// snapshot store.
	SaveSnapshot(ctx context.Context) error

	// Stats reports entity, relation, and processed-text counts.
	Stats() graph.Stats

	// Close shuts down the snapshot store, if any.
	Close() error
}

// IngestStatus tags how one text unit's ingest ended.
type IngestStatus string

const (
	// IngestOK means the extraction parsed and was merged.
	IngestOK IngestStatus = "ok"

	// IngestMalformed means the model replied but the payload failed strict
	// parsing; nothing was merged.
	IngestMalformed IngestStatus = "malformed"

	// IngestEmpty means the text unit was blank and skipped entirely.
	IngestEmpty IngestStatus = "empty"
)

// IngestReport accounts for one AddText call.
type IngestReport struct {
	Status           IngestStatus `json:"status"`
	Reason           string       `json:"reason,omitempty"`
	EntitiesAdded    int          `json:"entities_added"`
	EntitiesMerged   int          `json:"entities_merged"`
	RelationsAdded   int          `json:"relations_added"`
	RelationsDropped int          `json:"relations_dropped"`
}

// builder is the concrete implementation of Builder.
type builder struct {
	cfg     Config
	chat    llm.Provider
	oracle  *extract.Extractor
	graph   *graph.Graph
	parsers *parser.Registry
	store   *store.Store

	// mu serializes the merge phase so one extraction's entities and
	// relations land atomically relative to other AddText calls. Oracle
	// calls happen outside this lock.
	mu sync.Mutex
}

// New creates a graph builder with the given configuration.
func New(cfg Config) (Builder, error) {
	chat, err := llm.NewProvider(cfg.Chat)
	if err != nil {
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}
	return NewWithProvider(cfg, chat)
}

// NewWithProvider creates a graph builder over a caller-supplied chat
// provider, bypassing Config.Chat.
func NewWithProvider(cfg Config, chat llm.Provider) (Builder, error) {
	var catalog vocab.Catalog = vocab.Default()
	if cfg.VocabPath != "" {
		loaded, err := vocab.Load(cfg.VocabPath)
		if err != nil {
			return nil, fmt.Errorf("loading vocabulary: %w", err)
		}
		catalog = loaded
	}

	var snapshots *store.Store
	if cfg.SnapshotPath != "" {
		s, err := store.New(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot store: %w", err)
		}
		snapshots = s
	}

	return &builder{
		cfg:     cfg,
		chat:    chat,
		oracle:  extract.New(chat, catalog),
		graph:   graph.New(vocab.Base),
		parsers: parser.NewRegistry(),
		store:   snapshots,
	}, nil
}

func (b *builder) AddText(ctx context.Context, text string) (*IngestReport, error) {
	if strings.TrimSpace(text) == "" {
		return &IngestReport{Status: IngestEmpty, Reason: "empty text unit"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.oracleTimeout())
	defer cancel()

	outcome, err := b.oracle.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	if outcome.Status == extract.StatusMalformed {
		b.graph.AppendText(text)
		slog.Warn("ingest: malformed extraction, nothing merged", "reason", outcome.Reason)
		return &IngestReport{Status: IngestMalformed, Reason: outcome.Reason}, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	report := &IngestReport{Status: IngestOK}

	// batchIDs lets a relation refer to entities from this same extraction
	// even when the model's surface names only match within the batch.
	batchIDs := make(map[string]string, len(outcome.Entities))
	for _, c := range outcome.Entities {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		entityType := c.Type
		if entityType == "" {
			entityType = "Thing"
		}
		id, created := b.graph.Upsert(c.Name, entityType, c.Properties)
		if created {
			report.EntitiesAdded++
		} else {
			report.EntitiesMerged++
		}
		canonical := graph.Canonicalize(c.Name)
		if _, ok := batchIDs[canonical]; !ok {
			batchIDs[canonical] = id
		}
	}

	for _, r := range outcome.Relations {
		subjectID, okS := b.resolve(batchIDs, r.Subject)
		objectID, okO := b.resolve(batchIDs, r.Object)
		if !okS || !okO || r.Predicate == "" {
			report.RelationsDropped++
			slog.Warn("ingest: dropping unresolvable relation",
				"subject", r.Subject, "predicate", r.Predicate, "object", r.Object)
			continue
		}
		if err := b.graph.AddRelation(subjectID, r.Predicate, objectID); err != nil {
			report.RelationsDropped++
			continue
		}
		report.RelationsAdded++
	}

	b.graph.AppendText(text)

	slog.Info("ingest: text merged",
		"entities_added", report.EntitiesAdded,
		"entities_merged", report.EntitiesMerged,
		"relations_added", report.RelationsAdded,
		"relations_dropped", report.RelationsDropped)
	return report, nil
}

// resolve maps an extracted surface name to an entity ID: same-batch matches
// first, then a name-only lookup across the whole graph.
func (b *builder) resolve(batchIDs map[string]string, name string) (string, bool) {
	if id, ok := batchIDs[graph.Canonicalize(name)]; ok {
		return id, true
	}
	return b.graph.FindByName(name)
}

func (b *builder) IngestFile(ctx context.Context, path string) ([]IngestReport, error) {
	p, err := b.parsers.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	units, err := p.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	slog.Info("ingest: parsed document", "file", path, "units", len(units))

	reports := make([]IngestReport, 0, len(units))
	for _, unit := range units {
		report, err := b.AddText(ctx, unit.Text)
		if err != nil {
			return reports, fmt.Errorf("ingesting %s: %w", unit.Label, err)
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// queryPrompt grounds the answer in the graph rendered as plain text.
const queryPrompt = `Based on the following knowledge graph, answer the question.

Knowledge graph:
%s

Question: %s

Answer concisely using only the facts in the knowledge graph. If the graph
does not contain the answer, say so.`

func (b *builder) Query(ctx context.Context, question string) (string, error) {
	graphContext := export.GraphContext(b.graph.Entities(), b.graph.Relations(), b.cfg.MaxContextChars)
	if graphContext == "" {
		graphContext = "(empty graph)"
	}

	resp, err := b.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(queryPrompt, graphContext, question)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func (b *builder) FindEntity(name string) (graph.Entity, bool) {
	id, ok := b.graph.FindByName(name)
	if !ok {
		return graph.Entity{}, false
	}
	return b.graph.Entity(id)
}

func (b *builder) FindEntityByType(name, entityType string) (graph.Entity, bool) {
	id, ok := b.graph.FindByNameType(name, entityType)
	if !ok {
		return graph.Entity{}, false
	}
	return b.graph.Entity(id)
}

func (b *builder) Entities() []graph.Entity { return b.graph.Entities() }

func (b *builder) Relations() []graph.Relation { return b.graph.Relations() }

func (b *builder) ExportJSONLD() ([]byte, error) {
	return export.MarshalJSONLD(b.graph.Entities(), b.graph.Relations())
}

func (b *builder) ExportTurtle() string {
	return export.Turtle(b.graph.Entities(), b.graph.Relations())
}

func (b *builder) SaveSnapshot(ctx context.Context) error {
	if b.store == nil {
		return ErrNoSnapshotStore
	}
	return b.store.Save(ctx, store.Snapshot{
		Entities:  b.graph.Entities(),
		Relations: b.graph.Relations(),
		Texts:     b.graph.Texts(),
	})
}

func (b *builder) Stats() graph.Stats { return b.graph.Stats() }

func (b *builder) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
