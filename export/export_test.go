package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rowanfalk/schemakg/graph"
)

func sampleGraph() ([]graph.Entity, []graph.Relation) {
	entities := []graph.Entity{
		{
			ID:         "id-alice",
			Name:       "Alice",
			Type:       "Person",
			Properties: map[string]any{"jobTitle": "engineer"},
		},
		{
			ID:   "id-google",
			Name: "Google",
			Type: "Organization",
		},
	}
	relations := []graph.Relation{
		{SubjectID: "id-alice", Predicate: "worksFor", ObjectID: "id-google"},
	}
	return entities, relations
}

func TestJSONLDStructure(t *testing.T) {
	entities, relations := sampleGraph()
	doc := JSONLD(entities, relations)

	if doc["@context"] != "https://schema.org" {
		t.Errorf("@context = %v", doc["@context"])
	}
	nodes, ok := doc["@graph"].([]any)
	if !ok || len(nodes) != 2 {
		t.Fatalf("@graph = %v, want 2 nodes", doc["@graph"])
	}

	alice := nodes[0].(map[string]any)
	if alice["@id"] != "urn:kg:id-alice" {
		t.Errorf("@id = %v", alice["@id"])
	}
	if alice["@type"] != "Person" || alice["name"] != "Alice" {
		t.Errorf("node = %v", alice)
	}
	if alice["jobTitle"] != "engineer" {
		t.Errorf("property not spread onto node: %v", alice)
	}

	ref, ok := alice["worksFor"].(map[string]any)
	if !ok || ref["@id"] != "urn:kg:id-google" {
		t.Errorf("worksFor = %v, want nested @id reference", alice["worksFor"])
	}
}

func TestJSONLDLastWriteWins(t *testing.T) {
	entities, _ := sampleGraph()
	entities = append(entities, graph.Entity{ID: "id-acme", Name: "Acme", Type: "Organization"})
	relations := []graph.Relation{
		{SubjectID: "id-alice", Predicate: "worksFor", ObjectID: "id-google"},
		{SubjectID: "id-alice", Predicate: "worksFor", ObjectID: "id-acme"},
	}

	doc := JSONLD(entities, relations)
	alice := doc["@graph"].([]any)[0].(map[string]any)
	ref := alice["worksFor"].(map[string]any)
	if ref["@id"] != "urn:kg:id-acme" {
		t.Errorf("worksFor = %v, want the later relation to win", ref)
	}
}

func TestJSONLDSkipsDanglingRelations(t *testing.T) {
	entities, relations := sampleGraph()
	relations = append(relations,
		graph.Relation{SubjectID: "id-alice", Predicate: "knows", ObjectID: "id-ghost"},
		graph.Relation{SubjectID: "id-ghost", Predicate: "knows", ObjectID: "id-alice"},
	)

	doc := JSONLD(entities, relations)
	alice := doc["@graph"].([]any)[0].(map[string]any)
	if _, ok := alice["knows"]; ok {
		t.Error("relation to a missing entity must not appear")
	}
}

func TestMarshalJSONLDRoundTrip(t *testing.T) {
	entities, relations := sampleGraph()
	data, err := MarshalJSONLD(entities, relations)
	if err != nil {
		t.Fatalf("MarshalJSONLD: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(doc["@graph"].([]any)) != 2 {
		t.Error("round trip lost nodes")
	}
}

func TestTurtleShape(t *testing.T) {
	entities, relations := sampleGraph()
	ttl := Turtle(entities, relations)

	lines := strings.Split(ttl, "\n")
	if lines[0] != "@prefix schema: <https://schema.org/> ." {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "@prefix kg: <urn:kg:> ." {
		t.Errorf("line 1 = %q", lines[1])
	}

	var nonEmpty int
	for _, l := range lines[2:] {
		if strings.TrimSpace(l) != "" {
			nonEmpty++
		}
	}
	// Two lines per entity plus one per relation.
	if want := 2*len(entities) + len(relations); nonEmpty != want {
		t.Errorf("non-empty body lines = %d, want %d\n%s", nonEmpty, want, ttl)
	}

	if !strings.Contains(ttl, "kg:id-alice a schema:Person ;") {
		t.Error("missing type triple for Alice")
	}
	if !strings.Contains(ttl, "    schema:name \"Alice\" .") {
		t.Error("missing name triple for Alice")
	}
	if !strings.Contains(ttl, "kg:id-alice schema:worksFor kg:id-google .") {
		t.Error("missing relation triple")
	}
}

func TestTurtleEscapesLiterals(t *testing.T) {
	entities := []graph.Entity{
		{ID: "id-1", Name: "He said \"hi\"\nback\\slash", Type: "Person"},
	}
	ttl := Turtle(entities, nil)

	if !strings.Contains(ttl, `schema:name "He said \"hi\"\nback\\slash" .`) {
		t.Errorf("literal not escaped:\n%s", ttl)
	}
	if strings.Count(ttl, "\n\n") == 0 {
		t.Error("entity block must end with a blank line")
	}
}

func TestTurtleSkipsDanglingRelations(t *testing.T) {
	entities, _ := sampleGraph()
	relations := []graph.Relation{
		{SubjectID: "id-alice", Predicate: "knows", ObjectID: "id-ghost"},
	}
	ttl := Turtle(entities, relations)
	if strings.Contains(ttl, "id-ghost") {
		t.Error("dangling relation must be skipped")
	}
}

func TestGraphContext(t *testing.T) {
	entities, relations := sampleGraph()
	got := GraphContext(entities, relations, 0)

	want := strings.Join([]string{
		"Alice (type: Person, jobTitle: engineer)",
		"Google (type: Organization)",
		"Alice worksFor Google",
	}, "\n")
	if got != want {
		t.Errorf("context:\n%s\nwant:\n%s", got, want)
	}
}

func TestGraphContextCapped(t *testing.T) {
	entities, relations := sampleGraph()
	full := GraphContext(entities, relations, 0)

	capped := GraphContext(entities, relations, len(full)-1)
	if capped == full {
		t.Fatal("cap below full length must truncate")
	}
	if strings.HasSuffix(capped, "\n") {
		t.Error("truncation must happen on a line boundary")
	}
	for _, line := range strings.Split(capped, "\n") {
		if !strings.Contains(full, line) {
			t.Errorf("truncated output contains a partial line: %q", line)
		}
	}
}
