package vocab

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if !c.IsType("Person") {
		t.Error("Person should be a known type")
	}
	if c.IsType("FluxCapacitor") {
		t.Error("FluxCapacitor should not be a known type")
	}
	if !c.IsProperty("worksFor") {
		t.Error("worksFor should be a known property")
	}
	if c.IsProperty("zapsAt") {
		t.Error("zapsAt should not be a known property")
	}
	if got := c.Supertypes("Person"); got != nil {
		t.Errorf("static catalog Supertypes = %v, want nil", got)
	}
}

func TestCommonListsOrdered(t *testing.T) {
	c := Default()

	types := c.CommonTypes()
	if len(types) == 0 || types[0] != "Person" {
		t.Errorf("CommonTypes starts with %v, want Person first", types)
	}
	props := c.CommonProperties()
	if len(props) == 0 || props[0] != "worksFor" {
		t.Errorf("CommonProperties starts with %v, want worksFor first", props)
	}

	// Returned slices are copies; mutating them must not corrupt the catalog.
	types[0] = "Mutated"
	if c.CommonTypes()[0] != "Person" {
		t.Error("CommonTypes must return a copy")
	}
}

func TestHintsNilCatalog(t *testing.T) {
	types, props := Hints(nil)
	if len(types) == 0 || len(props) == 0 {
		t.Fatal("nil catalog must degrade to built-in hint lists")
	}
}
