package defects

import (
	"errors"
	"strings"

	"facility-planner/internal/models"
)

var (
	ErrTypeRequired           = errors.New("type must be set before selecting defects")
	ErrMaterialRequired       = errors.New("material must be set before selecting defects")
	ErrCustomMaterialRequired = errors.New("custom material is required when material is Other")
	ErrSeverityInvalid        = errors.New("severity must be one of ernstig, serieus, gering")
	ErrDefectNameRequired     = errors.New("defect name is required")
)

// MaterialChangePolicy decides which selected defects survive a material change
type MaterialChangePolicy string

const (
	// PolicyFull wipes the whole selection
	PolicyFull MaterialChangePolicy = "full"
	// PolicyPerMaterial drops only names offered by the previous material and not by the new one
	PolicyPerMaterial MaterialChangePolicy = "per-material"
)

// ParsePolicy maps a config value to a policy, defaulting to PolicyPerMaterial
func ParsePolicy(s string) MaterialChangePolicy {
	if MaterialChangePolicy(s) == PolicyFull {
		return PolicyFull
	}
	return PolicyPerMaterial
}

// Field is a step of the classification wizard
type Field int

const (
	FieldName Field = iota
	FieldType
	FieldMaterial
	FieldDefects
)

// cascade lists, for each field, the downstream fields reset when it changes
var cascade = map[Field][]Field{
	FieldName:     {FieldType, FieldMaterial, FieldDefects},
	FieldType:     {FieldMaterial, FieldDefects},
	FieldMaterial: {FieldDefects},
}

// Downstream returns the fields reset by a change of f
func Downstream(f Field) []Field {
	return cascade[f]
}

// Session is the in-progress edit of one element's classification and defect selection
type Session struct {
	catalog models.Catalog
	policy  MaterialChangePolicy
	element models.Element
	custom  WorkingDefects
}

// NewSession starts editing a copy of el. custom may be nil.
func NewSession(c models.Catalog, policy MaterialChangePolicy, el models.Element, custom WorkingDefects) *Session {
	el = el.Clone()
	if el.Defects == nil {
		el.Defects = models.DefectSet{}
	}
	if custom == nil {
		custom = WorkingDefects{}
	}
	return &Session{
		catalog: c,
		policy:  policy,
		element: el,
		custom:  custom.Clone(),
	}
}

// Element returns a copy of the edited element
func (s *Session) Element() models.Element {
	return s.element.Clone()
}

// Custom returns a copy of the custom-defect pool
func (s *Session) Custom() WorkingDefects {
	return s.custom.Clone()
}

// Available returns the defects selectable for the current classification
func (s *Session) Available() models.DefectSet {
	e := &s.element
	return ResolveAvailableDefects(e.Name, e.Type, e.EffectiveMaterial(), s.catalog, s.custom)
}

// Selected returns the names currently selected for severity
func (s *Session) Selected(severity models.Severity) []string {
	return s.element.Defects.Names(severity)
}

// SetName changes the element name and resets everything downstream
func (s *Session) SetName(name string) {
	if s.element.Name == name {
		return
	}
	prevMaterial := s.element.EffectiveMaterial()
	s.element.Name = name
	s.reset(FieldName, prevMaterial)
}

// SetType changes the type, clearing material and the whole defect selection
func (s *Session) SetType(typ string) {
	if s.element.Type == typ {
		return
	}
	prevMaterial := s.element.EffectiveMaterial()
	s.element.Type = typ
	s.reset(FieldType, prevMaterial)
}

// SetMaterial changes the material. MaterialOther requires a non-empty custom material.
func (s *Session) SetMaterial(material, customMaterial string) error {
	customMaterial = strings.TrimSpace(customMaterial)
	if material == models.MaterialOther && customMaterial == "" {
		return ErrCustomMaterialRequired
	}
	if material != models.MaterialOther {
		customMaterial = ""
	}
	if s.element.Material == material && s.element.CustomMaterial == customMaterial {
		return nil
	}
	prevMaterial := s.element.EffectiveMaterial()
	s.element.Material = material
	s.element.CustomMaterial = customMaterial
	s.reset(FieldMaterial, prevMaterial)
	return nil
}

func (s *Session) reset(changed Field, prevMaterial string) {
	for _, f := range Downstream(changed) {
		switch f {
		case FieldType:
			s.element.Type = ""
		case FieldMaterial:
			s.element.Material = ""
			s.element.CustomMaterial = ""
		case FieldDefects:
			if changed == FieldMaterial && s.policy == PolicyPerMaterial {
				s.dropMaterialDefects(prevMaterial)
			} else {
				s.element.Defects = models.DefectSet{}
			}
		}
	}
}

// dropMaterialDefects removes selections that came from the previous material's catalog entry
// and are not offered for the new material. Custom names stay.
func (s *Session) dropMaterialDefects(prevMaterial string) {
	e := &s.element
	before := ResolveAvailableDefects(e.Name, e.Type, prevMaterial, s.catalog, nil)
	after := s.Available()
	custom := s.custom[e.Type]
	for _, sev := range models.Severities {
		for _, name := range e.Defects.Names(sev) {
			if before.Has(sev, name) && !after.Has(sev, name) && !custom.Has(sev, name) {
				e.Defects.Remove(sev, name)
			}
		}
	}
}

func (s *Session) requireClassification() error {
	if s.element.Type == "" {
		return ErrTypeRequired
	}
	if s.element.Material == "" {
		return ErrMaterialRequired
	}
	if s.element.Material == models.MaterialOther && s.element.CustomMaterial == "" {
		return ErrCustomMaterialRequired
	}
	return nil
}

// Toggle adds name under severity when selected is true and removes it otherwise.
// Both directions are idempotent.
func (s *Session) Toggle(severity models.Severity, name string, selected bool) error {
	if !severity.IsValid() {
		return ErrSeverityInvalid
	}
	if !selected {
		s.element.Defects.Remove(severity, name)
		return nil
	}
	if err := s.requireClassification(); err != nil {
		return err
	}
	s.element.Defects.Add(severity, name)
	return nil
}

// SelectAll adds every name to the severity bucket without duplicating existing entries
func (s *Session) SelectAll(severity models.Severity, names []string) error {
	if !severity.IsValid() {
		return ErrSeverityInvalid
	}
	if err := s.requireClassification(); err != nil {
		return err
	}
	for _, name := range names {
		s.element.Defects.Add(severity, name)
	}
	return nil
}

// AddCustomDefect selects a user-entered defect and keeps it in the custom pool for the current type
func (s *Session) AddCustomDefect(severity models.Severity, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrDefectNameRequired
	}
	if !severity.IsValid() {
		return ErrSeverityInvalid
	}
	if err := s.requireClassification(); err != nil {
		return err
	}
	typ := s.element.Type
	if s.custom[typ] == nil {
		s.custom[typ] = models.DefectSet{}
	}
	s.custom[typ].Add(severity, name)
	s.element.Defects.Add(severity, name)
	return nil
}
