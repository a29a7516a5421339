package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rowanfalk/schemakg/graph"
)

// GraphContext renders the graph as plain text for prompting: one line per
// entity followed by one line per resolvable relation. maxChars caps the
// output on a line boundary; zero means unbounded.
func GraphContext(entities []graph.Entity, relations []graph.Relation, maxChars int) string {
	byID := make(map[string]graph.Entity, len(entities))
	lines := make([]string, 0, len(entities)+len(relations))

	for _, e := range entities {
		byID[e.ID] = e
		if len(e.Properties) == 0 {
			lines = append(lines, fmt.Sprintf("%s (type: %s)", e.Name, e.Type))
			continue
		}
		keys := make([]string, 0, len(e.Properties))
		for k := range e.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s: %v", k, e.Properties[k]))
		}
		lines = append(lines, fmt.Sprintf("%s (type: %s, %s)", e.Name, e.Type, strings.Join(pairs, ", ")))
	}

	for _, r := range relations {
		subject, okS := byID[r.SubjectID]
		object, okO := byID[r.ObjectID]
		if !okS || !okO {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", subject.Name, r.Predicate, object.Name))
	}

	if maxChars <= 0 {
		return strings.Join(lines, "\n")
	}

	var b strings.Builder
	for i, line := range lines {
		extra := len(line)
		if i > 0 {
			extra++
		}
		if b.Len()+extra > maxChars {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
