package schemakg

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rowanfalk/schemakg/llm"
)

// scriptedProvider replays canned replies in order and records prompts.
type scriptedProvider struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (s *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) > 0 {
		s.prompts = append(s.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	if s.err != nil {
		return nil, s.err
	}
	reply := s.replies[s.calls%len(s.replies)]
	s.calls++
	return &llm.ChatResponse{Content: reply}, nil
}

const aliceReply = `{
	"entities": [
		{"name": "Alice", "type": "Person", "properties": {"jobTitle": "software engineer"}},
		{"name": "Google", "type": "Organization"}
	],
	"relations": [
		{"subject": "Alice", "predicate": "worksFor", "object": "Google"}
	]
}`

func newTestBuilder(t *testing.T, provider llm.Provider) Builder {
	t.Helper()
	b, err := NewWithProvider(DefaultConfig(), provider)
	if err != nil {
		t.Fatalf("NewWithProvider: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestAddTextBuildsGraph(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply}})

	report, err := b.AddText(context.Background(), "Alice works at Google.")
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if report.Status != IngestOK {
		t.Fatalf("status = %s (reason=%q)", report.Status, report.Reason)
	}
	if report.EntitiesAdded != 2 || report.RelationsAdded != 1 {
		t.Errorf("report = %+v, want 2 entities and 1 relation added", report)
	}

	stats := b.Stats()
	if stats.Entities != 2 || stats.Relations != 1 || stats.TextsProcessed != 1 {
		t.Errorf("stats = %+v", stats)
	}

	// Lookup is case- and whitespace-insensitive but the stored surface
	// form is preserved.
	e, ok := b.FindEntity("  aLiCe ")
	if !ok {
		t.Fatal("FindEntity(alice) should resolve")
	}
	if e.Name != "Alice" || e.Type != "Person" {
		t.Errorf("entity = %+v", e)
	}
	if e.Properties["jobTitle"] != "software engineer" {
		t.Errorf("properties = %v", e.Properties)
	}
	if e.URI != "https://schema.org/Person" {
		t.Errorf("URI = %q", e.URI)
	}
}

func TestAddTextDedupsAcrossCalls(t *testing.T) {
	second := `{
		"entities": [
			{"name": "google", "type": "Organization", "properties": {"foundingDate": "1998"}}
		],
		"relations": []
	}`
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply, second}})

	if _, err := b.AddText(context.Background(), "Alice works at Google."); err != nil {
		t.Fatal(err)
	}
	report, err := b.AddText(context.Background(), "Google was founded in 1998.")
	if err != nil {
		t.Fatal(err)
	}

	if report.EntitiesAdded != 0 || report.EntitiesMerged != 1 {
		t.Errorf("report = %+v, want a merge and no additions", report)
	}
	if b.Stats().Entities != 2 {
		t.Errorf("entities = %d, want 2", b.Stats().Entities)
	}

	// The duplicate's properties are discarded.
	e, _ := b.FindEntityByType("Google", "Organization")
	if _, ok := e.Properties["foundingDate"]; ok {
		t.Error("duplicate mention must not change stored properties")
	}
}

func TestAddTextDropsDanglingRelations(t *testing.T) {
	reply := `{
		"entities": [
			{"name": "Alice", "type": "Person"}
		],
		"relations": [
			{"subject": "Alice", "predicate": "knows", "object": "Bob"}
		]
	}`
	b := newTestBuilder(t, &scriptedProvider{replies: []string{reply}})

	report, err := b.AddText(context.Background(), "Alice knows Bob.")
	if err != nil {
		t.Fatal(err)
	}
	if report.RelationsAdded != 0 || report.RelationsDropped != 1 {
		t.Errorf("report = %+v, want the dangling relation dropped", report)
	}
	if len(b.Relations()) != 0 {
		t.Error("dropped relation must not be stored")
	}
}

func TestAddTextResolvesAgainstEarlierTexts(t *testing.T) {
	second := `{
		"entities": [],
		"relations": [
			{"subject": "alice", "predicate": "memberOf", "object": "GOOGLE"}
		]
	}`
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply, second}})

	if _, err := b.AddText(context.Background(), "Alice works at Google."); err != nil {
		t.Fatal(err)
	}
	report, err := b.AddText(context.Background(), "She is a member of Google.")
	if err != nil {
		t.Fatal(err)
	}
	if report.RelationsAdded != 1 || report.RelationsDropped != 0 {
		t.Errorf("report = %+v, relation endpoints must resolve across texts", report)
	}
}

func TestAddTextMalformedLeavesGraphUnchanged(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply, "I refuse to answer."}})

	if _, err := b.AddText(context.Background(), "Alice works at Google."); err != nil {
		t.Fatal(err)
	}
	before := b.Stats()

	report, err := b.AddText(context.Background(), "Gibberish prompt.")
	if err != nil {
		t.Fatalf("malformed reply must not be an error: %v", err)
	}
	if report.Status != IngestMalformed || report.Reason == "" {
		t.Errorf("report = %+v", report)
	}

	after := b.Stats()
	if after.Entities != before.Entities || after.Relations != before.Relations {
		t.Error("malformed extraction must not change the graph")
	}
	if after.TextsProcessed != before.TextsProcessed+1 {
		t.Error("the text log still records the attempt")
	}
}

func TestAddTextEmpty(t *testing.T) {
	stub := &scriptedProvider{replies: []string{aliceReply}}
	b := newTestBuilder(t, stub)

	report, err := b.AddText(context.Background(), "   \n ")
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != IngestEmpty {
		t.Errorf("status = %s", report.Status)
	}
	if stub.calls != 0 {
		t.Error("empty text must not reach the model")
	}
	if b.Stats().TextsProcessed != 0 {
		t.Error("empty text must not be logged")
	}
}

func TestAddTextOracleError(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{err: errors.New("connection refused")})

	_, err := b.AddText(context.Background(), "Alice works at Google.")
	if !errors.Is(err, ErrOracle) {
		t.Fatalf("err = %v, want ErrOracle", err)
	}
	if b.Stats().TextsProcessed != 0 {
		t.Error("transport failure must leave the graph untouched")
	}
}

func TestExportJSONLD(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply}})
	if _, err := b.AddText(context.Background(), "Alice works at Google."); err != nil {
		t.Fatal(err)
	}

	data, err := b.ExportJSONLD()
	if err != nil {
		t.Fatalf("ExportJSONLD: %v", err)
	}

	var doc struct {
		Context string           `json:"@context"`
		Graph   []map[string]any `json:"@graph"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	if doc.Context != "https://schema.org" || len(doc.Graph) != 2 {
		t.Errorf("doc = %+v", doc)
	}
	if _, ok := doc.Graph[0]["worksFor"]; !ok {
		t.Error("relation missing from subject node")
	}
}

func TestExportTurtle(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply}})
	if _, err := b.AddText(context.Background(), "Alice works at Google."); err != nil {
		t.Fatal(err)
	}

	ttl := b.ExportTurtle()
	if !strings.HasPrefix(ttl, "@prefix schema: <https://schema.org/> .\n@prefix kg: <urn:kg:> .\n") {
		t.Errorf("missing prefix header:\n%s", ttl)
	}
	if !strings.Contains(ttl, "schema:worksFor") {
		t.Error("missing relation triple")
	}
}

func TestQueryEmbedsGraphContext(t *testing.T) {
	stub := &scriptedProvider{replies: []string{aliceReply, "Alice works for Google."}}
	b := newTestBuilder(t, stub)
	if _, err := b.AddText(context.Background(), "Alice works at Google."); err != nil {
		t.Fatal(err)
	}

	answer, err := b.Query(context.Background(), "Where does Alice work?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "Alice works for Google." {
		t.Errorf("answer = %q", answer)
	}

	prompt := stub.prompts[len(stub.prompts)-1]
	if !strings.Contains(prompt, "Alice worksFor Google") {
		t.Errorf("prompt must embed the graph context:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Where does Alice work?") {
		t.Error("prompt must embed the question")
	}
}

func TestSaveSnapshotWithoutStore(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply}})
	if err := b.SaveSnapshot(context.Background()); !errors.Is(err, ErrNoSnapshotStore) {
		t.Fatalf("err = %v, want ErrNoSnapshotStore", err)
	}
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	content := "Alice works at Google.\n\nGoogle was founded in 1998."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply}})
	reports, err := b.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want one per paragraph", len(reports))
	}
	if b.Stats().TextsProcessed != 2 {
		t.Errorf("texts = %d", b.Stats().TextsProcessed)
	}
}

func TestIngestFileUnsupportedFormat(t *testing.T) {
	b := newTestBuilder(t, &scriptedProvider{replies: []string{aliceReply}})
	_, err := b.IngestFile(context.Background(), "/tmp/image.png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chat:\n  provider: openai\n  model: gpt-4o-mini\noracle_timeout_sec: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Chat.Provider != "openai" || cfg.Chat.Model != "gpt-4o-mini" {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.OracleTimeoutSec != 30 {
		t.Errorf("oracle_timeout_sec = %d", cfg.OracleTimeoutSec)
	}
	if cfg.MaxContextChars != DefaultConfig().MaxContextChars {
		t.Error("unset fields must keep defaults")
	}
}
