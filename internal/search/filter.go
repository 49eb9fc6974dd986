package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query           string
	Status          string
	SpaceID         string
	Categories      []string
	Severities      []string
	TaskYear        *int
	MinDefectCount  *int
	IncludeArchived bool
	SortBy          string
	Limit           int64
	Offset          int64
}

// BuildFilter turns params into a Meilisearch filter expression
func BuildFilter(params FilterParams) string {
	var filters []string

	switch {
	case params.Status != "":
		filters = append(filters, fmt.Sprintf("status = %s", quote(params.Status)))
	case !params.IncludeArchived:
		filters = append(filters, "status = 'active'")
	}

	if params.SpaceID != "" {
		filters = append(filters, fmt.Sprintf("space_id = %s", quote(params.SpaceID)))
	}

	if len(params.Categories) > 0 {
		filters = append(filters, anyOf("categories", params.Categories))
	}

	if len(params.Severities) > 0 {
		filters = append(filters, anyOf("severities", params.Severities))
	}

	if params.TaskYear != nil {
		filters = append(filters, fmt.Sprintf("task_years = %d", *params.TaskYear))
	}

	if params.MinDefectCount != nil {
		filters = append(filters, fmt.Sprintf("defect_count >= %d", *params.MinDefectCount))
	}

	return strings.Join(filters, " AND ")
}

func anyOf(field string, values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s = %s", field, quote(v))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " OR "))
}

// quote wraps a value in single quotes, escaping embedded quotes
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "\\'") + "'"
}

// FilterSearch performs search with filters
func (s *SearchClient) FilterSearch(params FilterParams) (*SearchResult, error) {
	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Offset: params.Offset,
		Facets: []string{"severities", "categories", "status"},
	}

	if filterStr := BuildFilter(params); filterStr != "" {
		searchReq.Filter = filterStr
	}

	if params.SortBy != "" {
		searchReq.Sort = []string{params.SortBy}
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		docs = append(docs, parseDocumentFromHit(hit))
	}

	var facets map[string]interface{}
	if searchRes.FacetDistribution != nil {
		facets, _ = searchRes.FacetDistribution.(map[string]interface{})
	}

	return &SearchResult{
		Hits:           docs,
		TotalHits:      searchRes.EstimatedTotalHits,
		Facets:         facets,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// ParseIntPtr returns nil for an empty or invalid value
func ParseIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
