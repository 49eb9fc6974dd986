package defects

import (
	"reflect"
	"sort"
	"testing"

	"facility-planner/internal/catalog"
	"facility-planner/internal/models"
)

func roofCatalog(t *testing.T) models.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(`{
		"Roof": {"gebreken": {
			"Tile": {
				"Clay": {"ernstig": ["Crack"], "gering": ["Moss"]},
				"Concrete": {"serieus": ["Spalling"], "gering": ["Moss"]}
			},
			"Flat": {"Bitumen": {"ernstig": ["Leak"]}}
		}}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestResolveAvailableDefectsExample(t *testing.T) {
	c, err := catalog.Parse([]byte(`{"Roof": {"gebreken": {"Tile": {"Clay": {"ernstig": ["Crack"]}}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	got := ResolveAvailableDefects("Roof", "Tile", "Clay", c, nil)
	want := models.DefectSet{models.SeverityErnstig: {"Crack"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveAvailableDefects = %v, want %v", got, want)
	}
}

func TestResolveAvailableDefectsMissingPath(t *testing.T) {
	c := roofCatalog(t)
	tests := []struct{ name, typ, material string }{
		{"Door", "Tile", "Clay"},
		{"Roof", "Slate", "Clay"},
		{"Roof", "Tile", "Glass"},
		{"Roof", "Tile", ""},
	}
	for _, tt := range tests {
		got := ResolveAvailableDefects(tt.name, tt.typ, tt.material, c, nil)
		if got == nil || len(got) != 0 {
			t.Errorf("ResolveAvailableDefects(%q,%q,%q) = %v, want empty", tt.name, tt.typ, tt.material, got)
		}
	}
	// nil catalog does not panic
	if got := ResolveAvailableDefects("Roof", "Tile", "Clay", nil, nil); len(got) != 0 {
		t.Errorf("nil catalog = %v", got)
	}
}

func TestResolveAvailableDefectsMergesCustom(t *testing.T) {
	c := roofCatalog(t)
	working := WorkingDefects{
		"Tile": {
			models.SeverityErnstig: {"Crack", "Broken ridge"},
			models.SeveritySerieus: {"Loose tile"},
		},
		"Flat": {models.SeverityErnstig: {"Ponding"}},
	}
	got := ResolveAvailableDefects("Roof", "Tile", "Clay", c, working)
	want := models.DefectSet{
		models.SeverityErnstig: {"Crack", "Broken ridge"},
		models.SeveritySerieus: {"Loose tile"},
		models.SeverityGering:  {"Moss"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// result is fresh: mutating it leaves catalog and pool untouched
	got.Add(models.SeverityGering, "Algae")
	if catalog.Lookup(c, "Roof", "Tile", "Clay").Has(models.SeverityGering, "Algae") {
		t.Error("catalog mutated")
	}
	if working["Tile"].Has(models.SeverityGering, "Algae") {
		t.Error("working pool mutated")
	}
}

func newTileClaySession(t *testing.T, policy MaterialChangePolicy) *Session {
	t.Helper()
	s := NewSession(roofCatalog(t), policy, models.Element{ID: "e1", Name: "Roof"}, nil)
	s.SetType("Tile")
	if err := s.SetMaterial("Clay", ""); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestToggleExample(t *testing.T) {
	s := newTileClaySession(t, PolicyPerMaterial)

	if err := s.Toggle(models.SeverityErnstig, "Crack", true); err != nil {
		t.Fatal(err)
	}
	if got := s.Selected(models.SeverityErnstig); !reflect.DeepEqual(got, []string{"Crack"}) {
		t.Errorf("after toggle on: %v", got)
	}
	if err := s.Toggle(models.SeverityErnstig, "Crack", false); err != nil {
		t.Fatal(err)
	}
	if got := s.Selected(models.SeverityErnstig); len(got) != 0 {
		t.Errorf("after toggle off: %v", got)
	}
}

func TestToggleIsIdempotent(t *testing.T) {
	s := newTileClaySession(t, PolicyPerMaterial)
	s.Toggle(models.SeverityErnstig, "Crack", true)
	once := s.Element().Defects
	s.Toggle(models.SeverityErnstig, "Crack", true)
	if twice := s.Element().Defects; !reflect.DeepEqual(once, twice) {
		t.Errorf("toggle on twice: %v vs %v", once, twice)
	}

	// toggling an absent name off is a no-op
	before := s.Element().Defects
	if err := s.Toggle(models.SeverityGering, "Moss", false); err != nil {
		t.Fatal(err)
	}
	if after := s.Element().Defects; !reflect.DeepEqual(before, after) {
		t.Errorf("toggle off absent: %v vs %v", before, after)
	}
}

func TestSelectAllIsUnion(t *testing.T) {
	inputs := [][]string{
		{"B", "C", "A"},
		{"A", "B", "C"},
		{"C", "C", "B", "A"},
	}
	for _, names := range inputs {
		s := newTileClaySession(t, PolicyPerMaterial)
		s.Toggle(models.SeveritySerieus, "A", true)
		s.Toggle(models.SeveritySerieus, "Z", true)
		if err := s.SelectAll(models.SeveritySerieus, names); err != nil {
			t.Fatal(err)
		}
		got := s.Selected(models.SeveritySerieus)
		sort.Strings(got)
		if want := []string{"A", "B", "C", "Z"}; !reflect.DeepEqual(got, want) {
			t.Errorf("SelectAll(%v) = %v, want %v", names, got, want)
		}
	}
}

func TestSelectionRequiresClassification(t *testing.T) {
	s := NewSession(roofCatalog(t), PolicyFull, models.Element{Name: "Roof"}, nil)
	if err := s.Toggle(models.SeverityErnstig, "Crack", true); err != ErrTypeRequired {
		t.Errorf("Toggle without type = %v", err)
	}
	s.SetType("Tile")
	if err := s.SelectAll(models.SeverityErnstig, []string{"Crack"}); err != ErrMaterialRequired {
		t.Errorf("SelectAll without material = %v", err)
	}
	if err := s.AddCustomDefect(models.SeverityErnstig, "Hail"); err != ErrMaterialRequired {
		t.Errorf("AddCustomDefect without material = %v", err)
	}
	if n := s.Element().Defects.Count(); n != 0 {
		t.Errorf("state changed on rejected operations: %d defects", n)
	}
	if err := s.Toggle("kritiek", "Crack", true); err != ErrSeverityInvalid {
		t.Errorf("invalid severity = %v", err)
	}
}

func TestSetMaterialOtherNeedsCustom(t *testing.T) {
	s := newTileClaySession(t, PolicyPerMaterial)
	s.Toggle(models.SeverityErnstig, "Crack", true)

	if err := s.SetMaterial(models.MaterialOther, "  "); err != ErrCustomMaterialRequired {
		t.Fatalf("SetMaterial(Other, blank) = %v", err)
	}
	if e := s.Element(); e.Material != "Clay" || !e.Defects.Has(models.SeverityErnstig, "Crack") {
		t.Errorf("rejected SetMaterial changed state: %+v", e)
	}

	if err := s.SetMaterial(models.MaterialOther, "Slate"); err != nil {
		t.Fatal(err)
	}
	if e := s.Element(); e.EffectiveMaterial() != "Slate" {
		t.Errorf("EffectiveMaterial = %q", e.EffectiveMaterial())
	}
	if err := s.Toggle(models.SeverityGering, "Lichen", true); err != nil {
		t.Errorf("Toggle with custom material: %v", err)
	}
}

func TestAddCustomDefect(t *testing.T) {
	s := newTileClaySession(t, PolicyPerMaterial)
	if err := s.AddCustomDefect(models.SeverityErnstig, "   "); err != ErrDefectNameRequired {
		t.Errorf("blank name = %v", err)
	}
	if err := s.AddCustomDefect("", "Hail"); err != ErrSeverityInvalid {
		t.Errorf("blank severity = %v", err)
	}
	if err := s.AddCustomDefect(models.SeverityErnstig, "  Hail damage "); err != nil {
		t.Fatal(err)
	}
	if !s.Element().Defects.Has(models.SeverityErnstig, "Hail damage") {
		t.Error("custom defect not selected")
	}
	if !s.Available().Has(models.SeverityErnstig, "Hail damage") {
		t.Error("custom defect not offered")
	}

	// survives a type round trip within the session
	s.SetType("Flat")
	if s.Available().Has(models.SeverityErnstig, "Hail damage") {
		t.Error("custom defect for Tile offered under Flat")
	}
	s.SetType("Tile")
	s.SetMaterial("Concrete", "")
	if !s.Available().Has(models.SeverityErnstig, "Hail damage") {
		t.Error("custom defect lost after type change")
	}
	if !s.Custom()["Tile"].Has(models.SeverityErnstig, "Hail damage") {
		t.Error("custom pool lost entry")
	}
}

func TestTypeChangeClearsDownstream(t *testing.T) {
	s := newTileClaySession(t, PolicyPerMaterial)
	s.Toggle(models.SeverityErnstig, "Crack", true)
	s.SetType("Flat")

	e := s.Element()
	if e.Material != "" || e.CustomMaterial != "" {
		t.Errorf("material not cleared: %q/%q", e.Material, e.CustomMaterial)
	}
	if e.Defects.Count() != 0 {
		t.Errorf("defects not cleared: %v", e.Defects)
	}

	// same type is not a change
	s.SetMaterial("Bitumen", "")
	s.Toggle(models.SeverityErnstig, "Leak", true)
	s.SetType("Flat")
	if !s.Element().Defects.Has(models.SeverityErnstig, "Leak") {
		t.Error("re-setting the same type cleared defects")
	}
}

func TestNameChangeClearsEverything(t *testing.T) {
	s := newTileClaySession(t, PolicyPerMaterial)
	s.Toggle(models.SeverityErnstig, "Crack", true)
	s.SetName("Window")
	e := s.Element()
	if e.Type != "" || e.Material != "" || e.Defects.Count() != 0 {
		t.Errorf("name change left state: %+v", e)
	}
}

func TestMaterialChangePolicies(t *testing.T) {
	setup := func(policy MaterialChangePolicy) *Session {
		s := newTileClaySession(t, policy)
		s.Toggle(models.SeverityErnstig, "Crack", true) // only Clay
		s.Toggle(models.SeverityGering, "Moss", true)   // Clay and Concrete
		s.AddCustomDefect(models.SeveritySerieus, "Loose tile")
		s.Toggle(models.SeveritySerieus, "Sagging", true) // in no catalog list
		return s
	}

	t.Run("full", func(t *testing.T) {
		s := setup(PolicyFull)
		s.SetMaterial("Concrete", "")
		if n := s.Element().Defects.Count(); n != 0 {
			t.Errorf("full policy kept %d defects", n)
		}
	})

	t.Run("per-material", func(t *testing.T) {
		s := setup(PolicyPerMaterial)
		s.SetMaterial("Concrete", "")
		d := s.Element().Defects
		if d.Has(models.SeverityErnstig, "Crack") {
			t.Error("Clay-only defect survived")
		}
		for _, keep := range []struct {
			sev  models.Severity
			name string
		}{
			{models.SeverityGering, "Moss"},
			{models.SeveritySerieus, "Loose tile"},
			{models.SeveritySerieus, "Sagging"},
		} {
			if !d.Has(keep.sev, keep.name) {
				t.Errorf("%s/%s dropped", keep.sev, keep.name)
			}
		}
	})
}

func TestDownstreamTable(t *testing.T) {
	if got := Downstream(FieldName); !reflect.DeepEqual(got, []Field{FieldType, FieldMaterial, FieldDefects}) {
		t.Errorf("Downstream(Name) = %v", got)
	}
	if got := Downstream(FieldDefects); len(got) != 0 {
		t.Errorf("Downstream(Defects) = %v", got)
	}
}

func TestParsePolicy(t *testing.T) {
	if ParsePolicy("full") != PolicyFull {
		t.Error("full")
	}
	if ParsePolicy("") != PolicyPerMaterial || ParsePolicy("per-material") != PolicyPerMaterial {
		t.Error("default")
	}
}
