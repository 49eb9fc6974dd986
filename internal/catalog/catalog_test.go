package catalog

import (
	"reflect"
	"strings"
	"testing"

	"facility-planner/internal/models"
)

func TestLoadTestdata(t *testing.T) {
	c, err := Load("../../testdata/elements.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(c); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := ElementNames(c); !reflect.DeepEqual(got, []string{"Roof", "Window"}) {
		t.Errorf("ElementNames = %v", got)
	}
	if got := Types(c, "Roof"); !reflect.DeepEqual(got, []string{"Flat", "Tile"}) {
		t.Errorf("Types = %v", got)
	}
	if got := Materials(c, "Roof", "Tile"); !reflect.DeepEqual(got, []string{"Clay", "Concrete"}) {
		t.Errorf("Materials = %v", got)
	}
}

func TestLoadCategories(t *testing.T) {
	groups, err := LoadCategories("../../testdata/categories.json")
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "Bouwkundig" || len(groups[0].Categories) != 3 {
		t.Errorf("groups = %+v", groups)
	}
}

func TestLookupMissingPathsAreEmpty(t *testing.T) {
	c, err := Parse([]byte(`{"Roof": {"gebreken": {"Tile": {"Clay": {"ernstig": ["Crack"]}}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct{ name, typ, material string }{
		{"Door", "Tile", "Clay"},
		{"Roof", "Flat", "Clay"},
		{"Roof", "Tile", "Slate"},
		{"Roof", "Tile", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Lookup(c, tt.name, tt.typ, tt.material); len(got) != 0 {
			t.Errorf("Lookup(%q,%q,%q) = %v, want empty", tt.name, tt.typ, tt.material, got)
		}
	}
	if got := Types(c, "Door"); got == nil || len(got) != 0 {
		t.Errorf("Types of unknown element = %v", got)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	c, _ := Parse([]byte(`{"Roof": {"gebreken": {"Tile": {"Clay": {"ernstig": ["Crack"]}}}}}`))
	got := Lookup(c, "Roof", "Tile", "Clay")
	got.Add(models.SeverityErnstig, "Leak")

	again := Lookup(c, "Roof", "Tile", "Clay")
	if !reflect.DeepEqual(again.Names(models.SeverityErnstig), []string{"Crack"}) {
		t.Errorf("catalog was mutated through Lookup: %v", again)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	c, err := Parse([]byte(`
Roof:
  gebreken:
    Tile:
      Clay:
        kritiek: [Crack]
        ernstig: [Leak, Leak, " "]
`))
	if err != nil {
		t.Fatal(err)
	}
	err = Validate(c)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown severity", "duplicate defect", "blank defect name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}

	if err := Validate(models.Catalog{}); err != ErrEmptyCatalog {
		t.Errorf("Validate(empty) = %v", err)
	}
}
