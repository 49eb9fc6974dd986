// Package handlers exposes the registry over HTTP.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"facility-planner/internal/annotation"
	"facility-planner/internal/cleanup"
	"facility-planner/internal/defects"
	"facility-planner/internal/models"
	"facility-planner/internal/planner"
	"facility-planner/internal/ratelimit"
	"facility-planner/internal/registry"
	"facility-planner/internal/scheduler"
	"facility-planner/internal/search"
	"facility-planner/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidDate = errors.New("dates must be formatted as YYYY-MM-DD or RFC 3339")

// SearchIndex is implemented by search.SearchClient
type SearchIndex interface {
	IndexElement(e models.Element) error
	DeleteElement(id string) error
	Reindex(elements []models.Element) error
	FilterSearch(params search.FilterParams) (*search.SearchResult, error)
}

// Deps carries everything the routes need. Search, Scheduler, Cleanup and Limiter are optional.
type Deps struct {
	Store         *registry.Store
	Categories    []models.CategoryGroup
	Files         storage.Store
	Search        SearchIndex
	Scheduler     *scheduler.Scheduler
	Cleanup       *cleanup.Service
	Limiter       *ratelimit.RateLimiter
	Location      *time.Location
	MaxUpload     int64
	UploadTimeout time.Duration
	RetentionDays int
}

// Handler serves the element, planning and search routes
type Handler struct {
	store         *registry.Store
	categories    []models.CategoryGroup
	files         storage.Store
	search        SearchIndex
	loc           *time.Location
	maxUpload     int64
	uploadTimeout time.Duration
}

// NewHandler creates the domain handler
func NewHandler(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:         d.Store,
		categories:    d.Categories,
		files:         d.Files,
		search:        d.Search,
		loc:           loc,
		maxUpload:     d.MaxUpload,
		uploadTimeout: d.UploadTimeout,
	}
}

// RegisterRoutes mounts every route on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	h := NewHandler(d)
	admin := NewAdminHandler(d.Store, d.Scheduler, d.Cleanup, d.RetentionDays)

	upload := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		upload = d.Limiter.Middleware()
	}

	r.GET("/health", h.Health)

	api := r.Group("/api")

	api.GET("/catalog/elements", h.CatalogElements)
	api.GET("/catalog/elements/:name/types", h.CatalogTypes)
	api.GET("/catalog/elements/:name/types/:type/materials", h.CatalogMaterials)
	api.GET("/catalog/categories", h.CatalogCategories)

	api.GET("/elements", h.ListElements)
	api.GET("/elements/:id", h.GetElement)
	api.POST("/elements", h.CreateElement)
	api.PUT("/elements/:id", h.UpdateElement)
	api.DELETE("/elements/:id", h.ArchiveElement)
	api.POST("/elements/import", h.ImportElements)
	api.POST("/save", h.Save)

	api.GET("/elements/:id/defects/available", h.AvailableDefects)
	api.POST("/elements/:id/defects/toggle", h.ToggleDefect)
	api.POST("/elements/:id/defects/select-all", h.SelectAllDefects)
	api.POST("/elements/:id/defects/custom", h.AddCustomDefect)
	api.PUT("/elements/:id/classification", h.UpdateClassification)

	api.GET("/elements/:id/tasks", h.ElementTasks)
	api.POST("/elements/:id/photos", upload, h.UploadPhotos)
	api.POST("/elements/:id/documents", upload, h.UploadDocuments)
	api.GET("/files", h.ServeFile)

	api.POST("/elements/:id/annotations", h.AppendAnnotation)
	api.POST("/elements/:id/annotations/undo", h.UndoAnnotation)
	api.DELETE("/elements/:id/annotations", h.ClearAnnotations)

	api.GET("/spaces", h.ListSpaces)
	api.GET("/spaces/:id", h.GetSpace)
	api.POST("/spaces", h.UpsertSpace)
	api.POST("/spaces/:id/image", upload, h.UploadSpaceImage)

	api.GET("/task-groups", h.ListTaskGroups)
	api.GET("/task-groups/:id", h.GetTaskGroup)
	api.POST("/task-groups", h.CreateTaskGroup)
	api.PUT("/task-groups/:id", h.UpdateTaskGroup)
	api.DELETE("/task-groups/:id", h.DeleteTaskGroup)

	api.GET("/timeline", h.Timeline)
	api.GET("/timeline/export.xlsx", h.ExportTimelineXLSX)
	api.GET("/timeline/export.pdf", h.ExportTimelinePDF)
	api.GET("/inspections/due", h.DueInspections)

	api.GET("/search", h.Search)
	api.POST("/search/reindex", h.Reindex)

	api.GET("/admin/stats", admin.GetStats)
	api.POST("/admin/cleanup/run", admin.RunCleanup)
	api.GET("/admin/cleanup/logs", admin.GetDeleteLogs)
	api.POST("/admin/scheduler/run", admin.TriggerScheduler)
	api.GET("/admin/scheduler/last-run", admin.LastSchedulerRun)

	api.GET("/ratelimit/stats", func(c *gin.Context) {
		if d.Limiter == nil {
			c.JSON(http.StatusOK, ratelimit.Stats{Enabled: false})
			return
		}
		c.JSON(http.StatusOK, d.Limiter.GetStats(c.ClientIP()))
	})
}

// Health reports liveness and the last successful save
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"elements": len(h.store.Elements(true)),
	}
	if saved := h.store.LastSaved(); !saved.IsZero() {
		body["last_saved"] = saved
	}
	c.JSON(http.StatusOK, body)
}

var badRequestErrors = []error{
	ErrInvalidDate,
	registry.ErrElementNameRequired,
	registry.ErrSpaceNameRequired,
	registry.ErrDefectsNeedClassification,
	registry.ErrNoSpace,
	defects.ErrTypeRequired,
	defects.ErrMaterialRequired,
	defects.ErrCustomMaterialRequired,
	defects.ErrSeverityInvalid,
	defects.ErrDefectNameRequired,
	planner.ErrGroupNameRequired,
	planner.ErrGroupDateRequired,
	planner.ErrNoElementsSelected,
	planner.ErrUnknownElement,
	annotation.ErrMalformedRect,
	storage.ErrInvalidName,
}

var notFoundErrors = []error{
	registry.ErrElementNotFound,
	registry.ErrSpaceNotFound,
	planner.ErrGroupNotFound,
	storage.ErrNotFound,
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Handler: request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSaved persists the working copy and writes body. A failed save keeps the in-memory
// change and is reported with saved=false.
func (h *Handler) respondSaved(c *gin.Context, status int, body gin.H) {
	if err := h.store.Save(c.Request.Context()); err != nil {
		body["saved"] = false
		body["error"] = err.Error()
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	body["saved"] = true
	c.JSON(status, body)
}

// indexElement keeps the search index in step; failures are only logged
func (h *Handler) indexElement(e models.Element) {
	if h.search == nil {
		return
	}
	var err error
	if e.IsActive() {
		err = h.search.IndexElement(e)
	} else {
		err = h.search.DeleteElement(e.ID)
	}
	if err != nil {
		log.WithError(err).Warnf("Handler: failed to index element %s", e.ID)
	}
}

// parseDate accepts YYYY-MM-DD in the configured location or RFC 3339
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
