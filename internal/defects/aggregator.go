// Package defects merges catalog defects with custom defects entered while editing an element,
// and mediates selecting them per severity.
package defects

import (
	"facility-planner/internal/catalog"
	"facility-planner/internal/models"
)

// WorkingDefects is the custom-defect pool of an editing session, keyed by element type
type WorkingDefects map[string]models.DefectSet

// Clone returns a deep copy
func (w WorkingDefects) Clone() WorkingDefects {
	out := make(WorkingDefects, len(w))
	for typ, set := range w {
		out[typ] = set.Clone()
	}
	return out
}

// ResolveAvailableDefects returns the defects selectable for an element name, type and material:
// the catalog entry for that path unioned with the custom names held for the type.
// A missing catalog path contributes nothing. The result is always a fresh map.
func ResolveAvailableDefects(elementName, typ, material string, c models.Catalog, working WorkingDefects) models.DefectSet {
	out := models.DefectSet{}
	base := catalog.Lookup(c, elementName, typ, material)
	custom := working[typ]
	for _, sev := range models.Severities {
		for _, name := range base[sev] {
			out.Add(sev, name)
		}
		for _, name := range custom[sev] {
			out.Add(sev, name)
		}
	}
	return out
}
