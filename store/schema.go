package store

// schemaSQL is the DDL for graph snapshots. A snapshot is a full replacement:
// Save clears all three tables inside one transaction before writing.
const schemaSQL = `
-- Graph entities, one row per deduplicated entity
CREATE TABLE IF NOT EXISTS entities (
    entity_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    uri TEXT NOT NULL,
    properties JSON,
    position INTEGER NOT NULL
);

-- Graph relations; endpoints reference entities by id
CREATE TABLE IF NOT EXISTS relations (
    id INTEGER PRIMARY KEY,
    subject_id TEXT NOT NULL REFERENCES entities(entity_id) ON DELETE CASCADE,
    predicate TEXT NOT NULL,
    predicate_uri TEXT NOT NULL,
    object_id TEXT NOT NULL REFERENCES entities(entity_id) ON DELETE CASCADE
);

-- Ingested source texts in processing order
CREATE TABLE IF NOT EXISTS texts (
    id INTEGER PRIMARY KEY,
    content TEXT NOT NULL
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);
CREATE INDEX IF NOT EXISTS idx_relations_subject ON relations(subject_id);
CREATE INDEX IF NOT EXISTS idx_relations_object ON relations(object_id);
`
