// Package vocab provides the vocabulary catalog the graph aligns entities
// and relations to. A catalog answers membership queries for types and
// properties and supplies the hint lists handed to the extraction model.
package vocab

// Base is the default vocabulary base URI (schema.org).
const Base = "https://schema.org"

// Catalog is the capability interface the constructor consumes. The graph's
// correctness does not depend on a populated catalog; a nil or empty catalog
// means every type and property is acceptable.
type Catalog interface {
	// IsType reports whether name is a known vocabulary class.
	IsType(name string) bool

	// IsProperty reports whether name is a known vocabulary property.
	IsProperty(name string) bool

	// CommonTypes returns the ordered entity types used as extraction hints.
	CommonTypes() []string

	// CommonProperties returns the ordered relation predicates used as
	// extraction hints.
	CommonProperties() []string

	// Supertypes returns the parent classes of a type, or nil when unknown.
	Supertypes(name string) []string
}

// commonTypes is the fixed hint list of frequently used schema.org classes.
var commonTypes = []string{
	"Person", "Organization", "Place", "Event", "Product",
	"CreativeWork", "LocalBusiness", "Article", "Book",
	"Movie", "Restaurant", "Hotel", "City", "Country",
	"Corporation", "SoftwareApplication",
}

// commonProperties is the fixed hint list of frequently used schema.org
// properties for relationships.
var commonProperties = []string{
	"worksFor", "location", "knows", "memberOf", "author",
	"creator", "attendee", "manufacturer", "founder",
	"employee", "alumni", "parentOrganization", "subOrganization",
	"jobTitle", "description", "name", "url",
}

// Static is a constant-backed catalog for offline use and tests. Its known
// sets are exactly its hint lists; Supertypes is always nil.
type Static struct {
	types      []string
	properties []string
	typeSet    map[string]bool
	propSet    map[string]bool
}

// NewStatic builds a catalog from explicit type and property lists.
func NewStatic(types, properties []string) *Static {
	s := &Static{
		types:      types,
		properties: properties,
		typeSet:    make(map[string]bool, len(types)),
		propSet:    make(map[string]bool, len(properties)),
	}
	for _, t := range types {
		s.typeSet[t] = true
	}
	for _, p := range properties {
		s.propSet[p] = true
	}
	return s
}

// Default returns a static catalog seeded with the schema.org common lists.
func Default() *Static {
	return NewStatic(commonTypes, commonProperties)
}

func (s *Static) IsType(name string) bool     { return s.typeSet[name] }
func (s *Static) IsProperty(name string) bool { return s.propSet[name] }

func (s *Static) CommonTypes() []string {
	out := make([]string, len(s.types))
	copy(out, s.types)
	return out
}

func (s *Static) CommonProperties() []string {
	out := make([]string, len(s.properties))
	copy(out, s.properties)
	return out
}

func (s *Static) Supertypes(name string) []string { return nil }

// Hints extracts the hint lists from a catalog, tolerating nil. Used by the
// extractor so that a missing catalog degrades to the built-in lists.
func Hints(c Catalog) (types, properties []string) {
	if c == nil {
		return append([]string(nil), commonTypes...), append([]string(nil), commonProperties...)
	}
	return c.CommonTypes(), c.CommonProperties()
}
