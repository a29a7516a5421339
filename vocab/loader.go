package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TypeInfo describes one vocabulary class.
type TypeInfo struct {
	URI        string
	Label      string
	Supertypes []string
}

// PropertyInfo describes one vocabulary property with its domain and range.
type PropertyInfo struct {
	URI            string
	Label          string
	DomainIncludes []string
	RangeIncludes  []string
}

// File is a catalog backed by a schema.org JSON-LD vocabulary dump
// (the published all-layers tree). Hint lists stay the fixed common lists;
// membership queries consult the loaded taxonomy.
type File struct {
	types      map[string]TypeInfo
	properties map[string]PropertyInfo
}

// Load parses a schema.org JSON-LD vocabulary file into a catalog.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON-LD vocabulary bytes.
func Parse(data []byte) (*File, error) {
	var doc vocabDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding vocabulary JSON-LD: %w", err)
	}

	f := &File{
		types:      make(map[string]TypeInfo),
		properties: make(map[string]PropertyInfo),
	}

	for _, node := range doc.Graph {
		id := localName(node.ID)
		if id == "" {
			continue
		}
		switch {
		case node.Type.contains("rdfs:Class"):
			f.types[id] = TypeInfo{
				URI:        Base + "/" + id,
				Label:      id,
				Supertypes: localNames(node.SubClassOf),
			}
		case node.Type.contains("rdf:Property"):
			f.properties[id] = PropertyInfo{
				URI:            Base + "/" + id,
				Label:          id,
				DomainIncludes: localNames(node.DomainIncludes),
				RangeIncludes:  localNames(node.RangeIncludes),
			}
		}
	}

	if len(f.types) == 0 && len(f.properties) == 0 {
		return nil, fmt.Errorf("vocabulary file contains no classes or properties")
	}
	return f, nil
}

func (f *File) IsType(name string) bool {
	_, ok := f.types[name]
	return ok
}

func (f *File) IsProperty(name string) bool {
	_, ok := f.properties[name]
	return ok
}

// CommonTypes returns the fixed hint list, filtered down to types the
// loaded taxonomy actually knows so hints never advertise absent classes.
func (f *File) CommonTypes() []string {
	out := make([]string, 0, len(commonTypes))
	for _, t := range commonTypes {
		if f.IsType(t) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), commonTypes...)
	}
	return out
}

func (f *File) CommonProperties() []string {
	out := make([]string, 0, len(commonProperties))
	for _, p := range commonProperties {
		if f.IsProperty(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), commonProperties...)
	}
	return out
}

func (f *File) Supertypes(name string) []string {
	if t, ok := f.types[name]; ok {
		return append([]string(nil), t.Supertypes...)
	}
	return nil
}

// Type returns the full record for a class.
func (f *File) Type(name string) (TypeInfo, bool) {
	t, ok := f.types[name]
	return t, ok
}

// Property returns the full record for a property.
func (f *File) Property(name string) (PropertyInfo, bool) {
	p, ok := f.properties[name]
	return p, ok
}

// --- JSON-LD node shapes ---
//
// The schema.org dump wraps everything in {"@graph": [...]} with nodes like
//
//	{"@id": "schema:Person", "@type": "rdfs:Class",
//	 "rdfs:subClassOf": {"@id": "schema:Thing"}}
//
// where @type and the reference fields may each be a single value or an
// array. The decoder below tolerates both shapes.

type vocabDocument struct {
	Graph []vocabNode `json:"@graph"`
}

type vocabNode struct {
	ID             string       `json:"@id"`
	Type           stringOrList `json:"@type"`
	SubClassOf     refOrList    `json:"rdfs:subClassOf"`
	DomainIncludes refOrList    `json:"schema:domainIncludes"`
	RangeIncludes  refOrList    `json:"schema:rangeIncludes"`
}

// stringOrList decodes a JSON value that is either a string or a list of
// strings.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

func (s stringOrList) contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// ref is a JSON-LD node reference {"@id": "..."}.
type ref struct {
	ID string `json:"@id"`
}

// refOrList decodes a node reference that is either a single object or a
// list of objects.
type refOrList []ref

func (r *refOrList) UnmarshalJSON(data []byte) error {
	var single ref
	if err := json.Unmarshal(data, &single); err == nil {
		*r = []ref{single}
		return nil
	}
	var many []ref
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

// localName strips the schema.org namespace (prefixed or absolute form)
// from an identifier.
func localName(id string) string {
	for _, prefix := range []string{"schema:", "http://schema.org/", "https://schema.org/"} {
		if strings.HasPrefix(id, prefix) {
			return strings.TrimPrefix(id, prefix)
		}
	}
	return id
}

func localNames(refs []ref) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if n := localName(r.ID); n != "" {
			out = append(out, n)
		}
	}
	return out
}
