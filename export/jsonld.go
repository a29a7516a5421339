// Package export serializes a finalized graph snapshot. All exporters are
// stateless functions over read-only entity and relation slices; they never
// mutate the graph.
package export

import (
	"encoding/json"

	"github.com/rowanfalk/schemakg/graph"
	"github.com/rowanfalk/schemakg/vocab"
)

// URIPrefix is the fixed scheme prefix for entity node URIs.
const URIPrefix = "urn:kg"

// ContextURI is the fixed JSON-LD @context value.
const ContextURI = vocab.Base

// JSONLD renders the graph as a JSON-LD document: one node object per
// entity under "@graph", with relations attached to their subject nodes as
// nested {"@id": ...} references.
//
// Known limitations, kept intentionally: an extracted property named "@id",
// "@type", or "name" silently overwrites the reserved field, and a repeated
// predicate on the same subject is last-write-wins rather than an array.
func JSONLD(entities []graph.Entity, relations []graph.Relation) map[string]any {
	uriByID := make(map[string]string, len(entities))
	nodeByURI := make(map[string]map[string]any, len(entities))

	nodes := make([]any, 0, len(entities))
	for _, e := range entities {
		uri := graph.BuildURI(URIPrefix, e.ID)
		uriByID[e.ID] = uri

		node := map[string]any{
			"@id":   uri,
			"@type": e.Type,
			"name":  e.Name,
		}
		for k, v := range e.Properties {
			node[k] = v
		}

		nodeByURI[uri] = node
		nodes = append(nodes, node)
	}

	for _, r := range relations {
		subjectURI, okS := uriByID[r.SubjectID]
		objectURI, okO := uriByID[r.ObjectID]
		if !okS || !okO {
			// Integrity gap: endpoint missing from the snapshot.
			continue
		}
		nodeByURI[subjectURI][r.Predicate] = map[string]any{"@id": objectURI}
	}

	return map[string]any{
		"@context": ContextURI,
		"@graph":   nodes,
	}
}

// MarshalJSONLD renders the graph as an indented JSON-LD byte document.
func MarshalJSONLD(entities []graph.Entity, relations []graph.Relation) ([]byte, error) {
	return json.MarshalIndent(JSONLD(entities, relations), "", "  ")
}
