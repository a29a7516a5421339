package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rowanfalk/schemakg/llm"
)

// stubProvider returns a canned reply or error for every Chat call.
type stubProvider struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) > 0 {
		s.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.reply}, nil
}

const validReply = `{
	"entities": [
		{"name": "Alice", "type": "Person", "properties": {"jobTitle": "software engineer"}},
		{"name": "Google", "type": "Organization"}
	],
	"relations": [
		{"subject": "Alice", "predicate": "worksFor", "object": "Google"}
	]
}`

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantStatus    Status
		wantEntities  int
		wantRelations int
	}{
		{
			name:          "plain json",
			input:         validReply,
			wantStatus:    StatusOK,
			wantEntities:  2,
			wantRelations: 1,
		},
		{
			name:          "fenced json block",
			input:         "```json\n" + validReply + "\n```",
			wantStatus:    StatusOK,
			wantEntities:  2,
			wantRelations: 1,
		},
		{
			name:          "bare fence",
			input:         "```\n" + validReply + "\n```",
			wantStatus:    StatusOK,
			wantEntities:  2,
			wantRelations: 1,
		},
		{
			name:          "prose around json",
			input:         "Here is the extraction:\n" + validReply + "\nLet me know if you need more.",
			wantStatus:    StatusOK,
			wantEntities:  2,
			wantRelations: 1,
		},
		{
			name:          "empty arrays",
			input:         `{"entities": [], "relations": []}`,
			wantStatus:    StatusOK,
			wantEntities:  0,
			wantRelations: 0,
		},
		{
			name:       "invalid json",
			input:      `{not valid json}`,
			wantStatus: StatusMalformed,
		},
		{
			name:       "no json at all",
			input:      `Sorry, I cannot help with that.`,
			wantStatus: StatusMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.input)
			if got.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s (reason=%q)", got.Status, tt.wantStatus, got.Reason)
			}
			if len(got.Entities) != tt.wantEntities {
				t.Errorf("entities = %d, want %d", len(got.Entities), tt.wantEntities)
			}
			if len(got.Relations) != tt.wantRelations {
				t.Errorf("relations = %d, want %d", len(got.Relations), tt.wantRelations)
			}
			if got.Status == StatusMalformed && got.Reason == "" {
				t.Error("malformed outcome must carry a reason")
			}
		})
	}
}

func TestExtractIncludesHints(t *testing.T) {
	stub := &stubProvider{reply: validReply}
	ex := New(stub, nil)

	out, err := ex.Extract(context.Background(), "Alice works at Google.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Status != StatusOK {
		t.Fatalf("status = %s", out.Status)
	}

	if !strings.Contains(stub.lastPrompt, "Alice works at Google.") {
		t.Error("prompt must embed the text unit")
	}
	if !strings.Contains(stub.lastPrompt, "Person") || !strings.Contains(stub.lastPrompt, "Organization") {
		t.Error("prompt must list hint types")
	}
	if !strings.Contains(stub.lastPrompt, "worksFor") {
		t.Error("prompt must list hint predicates")
	}
}

func TestExtractTransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	ex := New(&stubProvider{err: wantErr}, nil)

	_, err := ex.Extract(context.Background(), "some text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}
}

func TestExtractMalformedIsNotError(t *testing.T) {
	ex := New(&stubProvider{reply: "garbage"}, nil)

	out, err := ex.Extract(context.Background(), "some text")
	if err != nil {
		t.Fatalf("malformed reply must not be an error, got %v", err)
	}
	if out.Status != StatusMalformed {
		t.Errorf("status = %s, want malformed", out.Status)
	}
	if len(out.Entities) != 0 || len(out.Relations) != 0 {
		t.Error("malformed outcome must carry zero candidates")
	}
}
