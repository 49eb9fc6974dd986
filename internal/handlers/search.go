package handlers

import (
	"net/http"
	"strings"

	"facility-planner/internal/search"

	"github.com/gin-gonic/gin"
)

// Search queries Meilisearch, or the working copy when search is disabled
func (h *Handler) Search(c *gin.Context) {
	params := search.FilterParams{
		Query:           c.Query("q"),
		Status:          c.Query("status"),
		SpaceID:         c.Query("space_id"),
		Categories:      splitList(c.Query("category")),
		Severities:      splitList(c.Query("severity")),
		TaskYear:        search.ParseIntPtr(c.Query("year")),
		MinDefectCount:  search.ParseIntPtr(c.Query("min_defects")),
		IncludeArchived: c.Query("include_archived") == "true",
		SortBy:          c.Query("sort"),
		Limit:           int64(queryInt(c, "limit", 20)),
		Offset:          int64(queryInt(c, "offset", 0)),
	}

	if h.search == nil {
		hits := h.localSearch(params)
		c.JSON(http.StatusOK, search.SearchResult{Hits: hits, TotalHits: int64(len(hits))})
		return
	}

	result, err := h.search.FilterSearch(params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// localSearch matches the query case-insensitively against name, type, material, description
// and defect names
func (h *Handler) localSearch(params search.FilterParams) []search.Document {
	q := strings.ToLower(strings.TrimSpace(params.Query))
	hits := []search.Document{}
	for _, e := range h.store.Elements(params.IncludeArchived || params.Status != "") {
		doc := search.NewDocument(e)
		if params.Status != "" && doc.Status != params.Status {
			continue
		}
		if params.SpaceID != "" && doc.SpaceID != params.SpaceID {
			continue
		}
		if len(params.Severities) > 0 && !overlaps(doc.Severities, params.Severities) {
			continue
		}
		if len(params.Categories) > 0 && !overlaps(doc.Categories, params.Categories) {
			continue
		}
		if params.MinDefectCount != nil && doc.DefectCount < *params.MinDefectCount {
			continue
		}
		if params.TaskYear != nil && !containsInt(doc.TaskYears, *params.TaskYear) {
			continue
		}
		if q != "" && !matchesQuery(doc, q) {
			continue
		}
		hits = append(hits, doc)
	}

	if params.Offset > 0 {
		if int(params.Offset) >= len(hits) {
			return []search.Document{}
		}
		hits = hits[params.Offset:]
	}
	if params.Limit > 0 && int(params.Limit) < len(hits) {
		hits = hits[:params.Limit]
	}
	return hits
}

func matchesQuery(doc search.Document, q string) bool {
	fields := append([]string{doc.Name, doc.Type, doc.Material, doc.Description}, doc.Defects...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func containsInt(have []int, want int) bool {
	for _, h := range have {
		if h == want {
			return true
		}
	}
	return false
}

// Reindex rebuilds the search index from the active elements
func (h *Handler) Reindex(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is disabled"})
		return
	}
	active := h.store.Elements(false)
	if err := h.search.Reindex(active); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": len(active)})
}
