// Package store persists graph snapshots to SQLite so a build session can be
// resumed or inspected with external tooling.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rowanfalk/schemakg/graph"
)

// Snapshot is the full persisted state of one graph.
type Snapshot struct {
	Entities  []graph.Entity
	Relations []graph.Relation
	Texts     []string
}

// Store wraps the SQLite database holding graph snapshots.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and initialises
// the schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot with snap inside one transaction.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"relations", "entities", "texts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, e := range snap.Entities {
		props, err := json.Marshal(e.Properties)
		if err != nil {
			return fmt.Errorf("marshaling properties of %s: %w", e.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entities (entity_id, name, entity_type, uri, properties, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Type, e.URI, string(props), i)
		if err != nil {
			return fmt.Errorf("inserting entity %s: %w", e.ID, err)
		}
	}

	for _, r := range snap.Relations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO relations (subject_id, predicate, predicate_uri, object_id)
			 VALUES (?, ?, ?, ?)`,
			r.SubjectID, r.Predicate, r.PredicateURI, r.ObjectID)
		if err != nil {
			return fmt.Errorf("inserting relation %s-%s: %w", r.SubjectID, r.Predicate, err)
		}
	}

	for _, text := range snap.Texts {
		if _, err := tx.ExecContext(ctx, "INSERT INTO texts (content) VALUES (?)", text); err != nil {
			return fmt.Errorf("inserting text: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads the stored snapshot, preserving entity insertion order.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := s.db.QueryContext(ctx,
		"SELECT entity_id, name, entity_type, uri, properties FROM entities ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e graph.Entity
		var props sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.URI, &props); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		if props.Valid && props.String != "" && props.String != "null" {
			if err := json.Unmarshal([]byte(props.String), &e.Properties); err != nil {
				return nil, fmt.Errorf("unmarshaling properties of %s: %w", e.ID, err)
			}
		}
		snap.Entities = append(snap.Entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}

	relRows, err := s.db.QueryContext(ctx,
		"SELECT subject_id, predicate, predicate_uri, object_id FROM relations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer relRows.Close()
	for relRows.Next() {
		var r graph.Relation
		if err := relRows.Scan(&r.SubjectID, &r.Predicate, &r.PredicateURI, &r.ObjectID); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		snap.Relations = append(snap.Relations, r)
	}
	if err := relRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}

	textRows, err := s.db.QueryContext(ctx, "SELECT content FROM texts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying texts: %w", err)
	}
	defer textRows.Close()
	for textRows.Next() {
		var text string
		if err := textRows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning text: %w", err)
		}
		snap.Texts = append(snap.Texts, text)
	}
	if err := textRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating texts: %w", err)
	}

	return snap, nil
}
