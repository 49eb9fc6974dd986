// Package catalog loads the static element/defect taxonomy and the category taxonomy.
// Both documents are read once at startup and never mutated afterwards.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"facility-planner/internal/models"

	"gopkg.in/yaml.v3"
)

var ErrEmptyCatalog = errors.New("catalog contains no elements")

// Load reads an element catalog from a JSON or YAML file
func Load(path string) (models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes an element catalog. JSON is accepted since it is valid YAML.
func Parse(data []byte) (models.Catalog, error) {
	var c models.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if c == nil {
		c = models.Catalog{}
	}
	return c, nil
}

// LoadCategories reads the category taxonomy
func LoadCategories(path string) ([]models.CategoryGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	var groups []models.CategoryGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	return groups, nil
}

// Validate reports structural problems: unknown severities, blank names and duplicates.
// All problems are joined into one error.
func Validate(c models.Catalog) error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	var errs []error
	for _, name := range ElementNames(c) {
		for typ, materials := range c[name].Gebreken {
			for material, set := range materials {
				where := fmt.Sprintf("%s/%s/%s", name, typ, material)
				for sev, names := range set {
					if !sev.IsValid() {
						errs = append(errs, fmt.Errorf("%s: unknown severity %q", where, sev))
					}
					seen := make(map[string]bool, len(names))
					for _, n := range names {
						if strings.TrimSpace(n) == "" {
							errs = append(errs, fmt.Errorf("%s/%s: blank defect name", where, sev))
							continue
						}
						if seen[n] {
							errs = append(errs, fmt.Errorf("%s/%s: duplicate defect %q", where, sev, n))
						}
						seen[n] = true
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

// ElementNames returns the catalog keys in sorted order
func ElementNames(c models.Catalog) []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns the sorted types known for an element name
func Types(c models.Catalog, elementName string) []string {
	entry, ok := c[elementName]
	if !ok {
		return []string{}
	}
	return sortedKeys(entry.Gebreken)
}

// Materials returns the sorted materials known for an element name and type
func Materials(c models.Catalog, elementName, typ string) []string {
	entry, ok := c[elementName]
	if !ok {
		return []string{}
	}
	return sortedKeys(entry.Gebreken[typ])
}

// Lookup returns a copy of the defects for the given path. Any missing key yields an empty set.
func Lookup(c models.Catalog, elementName, typ, material string) models.DefectSet {
	entry, ok := c[elementName]
	if !ok {
		return models.DefectSet{}
	}
	return entry.Gebreken[typ][material].Clone()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
