package export

import (
	"fmt"
	"strings"

	"github.com/rowanfalk/schemakg/graph"
)

// Turtle renders the graph as Turtle. The header declares the two fixed
// prefixes, each entity contributes a type triple and a name triple, and each
// relation whose endpoints both survived in the snapshot contributes one
// object triple. Dangling relations are skipped, mirroring the JSON-LD
// exporter.
func Turtle(entities []graph.Entity, relations []graph.Relation) string {
	var b strings.Builder
	b.WriteString("@prefix schema: <https://schema.org/> .\n")
	fmt.Fprintf(&b, "@prefix kg: <%s:> .\n\n", URIPrefix)

	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		known[e.ID] = true
		fmt.Fprintf(&b, "kg:%s a schema:%s ;\n", graph.Canonicalize(e.ID), e.Type)
		fmt.Fprintf(&b, "    schema:name \"%s\" .\n\n", escapeLiteral(e.Name))
	}

	for _, r := range relations {
		if !known[r.SubjectID] || !known[r.ObjectID] {
			continue
		}
		fmt.Fprintf(&b, "kg:%s schema:%s kg:%s .\n",
			graph.Canonicalize(r.SubjectID), r.Predicate, graph.Canonicalize(r.ObjectID))
	}

	return b.String()
}

// escapeLiteral escapes a string for use inside a quoted Turtle literal.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
