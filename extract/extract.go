// Package extract turns one text unit into vocabulary-aligned entity and
// relation candidates via a single LLM round trip. The model's reply is
// best-effort: it may be fenced, truncated, or malformed, so strict parsing
// failures degrade to an empty outcome instead of an error.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rowanfalk/schemakg/llm"
	"github.com/rowanfalk/schemakg/vocab"
)

// CandidateEntity is one extracted entity mention.
type CandidateEntity struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// CandidateRelation is one extracted relationship, referencing entities by
// surface name.
type CandidateRelation struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// Status tags how an extraction attempt ended.
type Status string

const (
	// StatusOK means the payload parsed cleanly.
	StatusOK Status = "ok"

	// StatusMalformed means the model replied but the payload failed strict
	// parsing; the outcome carries zero candidates and a reason.
	StatusMalformed Status = "malformed"
)

// Outcome is the tagged result of one extraction call. Callers and tests can
// assert on degraded extractions instead of grepping logs.
type Outcome struct {
	Entities  []CandidateEntity
	Relations []CandidateRelation
	Status    Status
	Reason    string
}

// extractionPrompt asks for entities and relations in one strict-JSON reply.
// Hint lists come from the vocabulary catalog.
const extractionPrompt = `Analyze the following text and extract ALL entities and relationships.

Text: "%s"

Instructions:
1. Extract EVERY named entity (people, organizations, places, events, products, etc.)
2. Extract ALL relationships between entities, including implicit ones
3. Resolve coreferences (e.g., "She" -> the person mentioned, "Their" -> the company mentioned)
4. For job titles like "CEO", "engineer", extract as a property AND as a relationship

Entity types to use: %s

Relationship predicates to use: %s

Respond ONLY with valid JSON:
{
    "entities": [
        {
            "name": "exact name from text",
            "type": "one of the entity types",
            "properties": {"jobTitle": "...", "description": "..."}
        }
    ],
    "relations": [
        {
            "subject": "entity name",
            "predicate": "one of the predicates",
            "object": "entity name"
        }
    ]
}

Be thorough - extract every entity and relationship mentioned or implied.`

// Extractor drives the Oracle for one catalog.
type Extractor struct {
	chat        llm.Provider
	catalog     vocab.Catalog
	temperature float64
}

// New creates an extractor. catalog may be nil; the built-in hint lists are
// used in that case.
func New(chat llm.Provider, catalog vocab.Catalog) *Extractor {
	return &Extractor{
		chat:        chat,
		catalog:     catalog,
		temperature: 0.1,
	}
}

// payload is the JSON shape the extraction model must return.
type payload struct {
	Entities  []CandidateEntity   `json:"entities"`
	Relations []CandidateRelation `json:"relations"`
}

// Extract runs one Oracle round trip for text. A transport or auth failure
// is returned as an error; a malformed reply is not an error but a degraded
// Outcome.
func (e *Extractor) Extract(ctx context.Context, text string) (*Outcome, error) {
	hintTypes, hintPredicates := vocab.Hints(e.catalog)
	prompt := fmt.Sprintf(extractionPrompt, text,
		strings.Join(hintTypes, ", "),
		strings.Join(hintPredicates, ", "))

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature:    e.temperature,
		ResponseFormat: "json_object",
	})
	if err != nil {
		return nil, fmt.Errorf("extraction chat: %w", err)
	}

	return ParseResponse(resp.Content), nil
}

// codeBlockRe strips markdown code fences from LLM output.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractJSON attempts to find a JSON object in the raw LLM response text.
// It handles common model quirks: markdown code blocks, prose before or
// after the JSON.
func extractJSON(raw string) (string, error) {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}

	return "", fmt.Errorf("no JSON object found in response")
}

// ParseResponse strictly parses a raw model reply into an Outcome. Any
// parse failure yields a malformed outcome with zero candidates.
func ParseResponse(raw string) *Outcome {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		slog.Warn("extract: degraded to empty extraction", "reason", err)
		return &Outcome{Status: StatusMalformed, Reason: err.Error()}
	}

	var p payload
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		slog.Warn("extract: degraded to empty extraction", "reason", err)
		return &Outcome{Status: StatusMalformed, Reason: err.Error()}
	}

	return &Outcome{
		Entities:  p.Entities,
		Relations: p.Relations,
		Status:    StatusOK,
	}
}
