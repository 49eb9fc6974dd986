// Package search mirrors active elements into a Meilisearch index.
package search

import (
	"sort"
	"strings"

	"facility-planner/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// Document is the flattened element stored in the index
type Document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	Material    string   `json:"material,omitempty"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	SpaceID     string   `json:"space_id,omitempty"`
	Status      string   `json:"status"`
	Defects     []string `json:"defects,omitempty"`
	Severities  []string `json:"severities,omitempty"`
	DefectCount int      `json:"defect_count"`
	TaskYears   []int    `json:"task_years,omitempty"`
}

// NewDocument flattens an element for indexing
func NewDocument(e models.Element) Document {
	doc := Document{
		ID:          e.ID,
		Name:        e.Name,
		Type:        e.Type,
		Material:    e.EffectiveMaterial(),
		Description: e.Description,
		Categories:  e.Categories,
		SpaceID:     e.SpaceID,
		Status:      string(e.Status),
		DefectCount: e.Defects.Count(),
	}
	if doc.Status == "" {
		doc.Status = string(models.ElementStatusActive)
	}
	for _, sev := range models.Severities {
		names := e.Defects.Names(sev)
		if len(names) == 0 {
			continue
		}
		doc.Severities = append(doc.Severities, string(sev))
		doc.Defects = append(doc.Defects, names...)
	}
	years := map[int]bool{}
	for _, t := range e.Tasks {
		if !t.EndDate.IsZero() {
			years[t.EndDate.Year()] = true
		}
	}
	for y := range years {
		doc.TaskYears = append(doc.TaskYears, y)
	}
	sort.Ints(doc.TaskYears)
	return doc
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	if index == "" {
		index = "elements"
	}
	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"type",
		"material",
		"description",
		"defects",
		"categories",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"status",
		"space_id",
		"categories",
		"severities",
		"task_years",
		"defect_count",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"name",
		"defect_count",
	})
	return err
}

// IndexElement indexes a single element
func (s *SearchClient) IndexElement(e models.Element) error {
	_, err := s.client.Index(s.index).AddDocuments([]Document{NewDocument(e)})
	return err
}

// IndexElements indexes multiple elements
func (s *SearchClient) IndexElements(elements []models.Element) error {
	if len(elements) == 0 {
		return nil
	}
	docs := make([]Document, len(elements))
	for i, e := range elements {
		docs[i] = NewDocument(e)
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// Reindex replaces the whole index content
func (s *SearchClient) Reindex(elements []models.Element) error {
	if _, err := s.client.Index(s.index).DeleteAllDocuments(); err != nil {
		return err
	}
	return s.IndexElements(elements)
}

// DeleteElement removes an element from the index
func (s *SearchClient) DeleteElement(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// DeleteElements removes several elements from the index
func (s *SearchClient) DeleteElements(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).DeleteDocuments(ids)
	return err
}

// SearchResult represents search results with facets
type SearchResult struct {
	Hits           []Document             `json:"hits"`
	TotalHits      int64                  `json:"total_hits"`
	Facets         map[string]interface{} `json:"facets,omitempty"`
	ProcessingTime int64                  `json:"processing_time_ms"`
}

// parseDocumentFromHit converts a search hit to a Document
func parseDocumentFromHit(hit interface{}) Document {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return Document{}
	}
	doc := Document{
		ID:          getString(hitMap, "id"),
		Name:        getString(hitMap, "name"),
		Type:        getString(hitMap, "type"),
		Material:    getString(hitMap, "material"),
		Description: getString(hitMap, "description"),
		SpaceID:     getString(hitMap, "space_id"),
		Status:      getString(hitMap, "status"),
		Categories:  getStrings(hitMap, "categories"),
		Defects:     getStrings(hitMap, "defects"),
		Severities:  getStrings(hitMap, "severities"),
	}
	if n, ok := hitMap["defect_count"].(float64); ok {
		doc.DefectCount = int(n)
	}
	if years, ok := hitMap["task_years"].([]interface{}); ok {
		for _, y := range years {
			if f, ok := y.(float64); ok {
				doc.TaskYears = append(doc.TaskYears, int(f))
			}
		}
	}
	return doc
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getStrings(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
