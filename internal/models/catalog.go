package models

// Catalog is the static element/defect taxonomy keyed by element name
type Catalog map[string]CatalogEntry

// CatalogEntry holds the type -> material -> severity -> defect names tree for one element name
type CatalogEntry struct {
	Gebreken map[string]map[string]DefectSet `json:"gebreken" yaml:"gebreken"`
}

// CategoryGroup is a named group of maintenance-task categories
type CategoryGroup struct {
	Name       string   `json:"name" yaml:"name"`
	Categories []string `json:"categories" yaml:"categories"`
}
