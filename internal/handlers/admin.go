package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"facility-planner/internal/cleanup"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"
	"facility-planner/internal/scheduler"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store          *registry.Store
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	retentionDays  int
}

// NewAdminHandler creates a new admin handler. sched and cleanupService may be nil.
func NewAdminHandler(store *registry.Store, sched *scheduler.Scheduler, cleanupService *cleanup.Service, retentionDays int) *AdminHandler {
	if retentionDays <= 0 {
		retentionDays = cleanup.DefaultCleanupConfig().RetentionDays
	}
	return &AdminHandler{
		store:          store,
		scheduler:      sched,
		cleanupService: cleanupService,
		retentionDays:  retentionDays,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	var active, archived int
	bySeverity := make(map[models.Severity]int)
	for _, e := range h.store.Elements(true) {
		if !e.IsActive() {
			archived++
			continue
		}
		active++
		for _, sev := range models.Severities {
			bySeverity[sev] += len(e.Defects[sev])
		}
	}
	stats["elements"] = map[string]interface{}{
		"active":   active,
		"archived": archived,
		"total":    active + archived,
	}
	stats["defects_by_severity"] = bySeverity
	stats["spaces"] = len(h.store.Spaces())
	stats["task_groups"] = len(h.store.Groups())
	stats["inspections_due"] = len(h.store.DueInspections(time.Now()))

	if saved := h.store.LastSaved(); !saved.IsZero() {
		stats["last_saved"] = saved
	}

	if h.cleanupService != nil {
		deleteStats, err := h.cleanupService.GetDeleteStats(c.Request.Context(), h.retentionDays)
		if err != nil {
			log.Printf("Admin: Failed to get delete stats: %v", err)
		} else {
			stats["deletions"] = deleteStats
		}
	}

	if h.scheduler != nil {
		if last := h.scheduler.LastRun(); last != nil {
			stats["last_scheduler_run"] = last.StartedAt
		}
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerScheduler runs the daily maintenance job in the background
func (h *AdminHandler) TriggerScheduler(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler not available"})
		return
	}

	log.Println("Admin: Manual maintenance trigger requested")

	go func() {
		report := h.scheduler.RunNow(context.Background())
		log.Printf("Admin: Manual maintenance finished with %d errors", len(report.Errors))
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Maintenance job started",
		"status":  "running",
	})
}

// LastSchedulerRun returns the report of the most recent maintenance run
func (h *AdminHandler) LastSchedulerRun(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler not available"})
		return
	}
	last := h.scheduler.LastRun()
	if last == nil {
		c.JSON(http.StatusOK, gin.H{"status": "never_run"})
		return
	}
	c.JSON(http.StatusOK, last)
}

// RunCleanup executes physical deletion of expired archived elements
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	if h.cleanupService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cleanup not available"})
		return
	}

	var req struct {
		RetentionDays    int  `json:"retention_days"`
		MaxDeletionCount int  `json:"max_deletion_count"`
		DryRun           bool `json:"dry_run"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	config := cleanup.DefaultCleanupConfig()
	config.RetentionDays = h.retentionDays
	if req.RetentionDays > 0 {
		config.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (retention: %d days, max: %d, dry-run: %v)",
		config.RetentionDays, config.MaxDeletionCount, config.DryRun)

	result, err := h.cleanupService.PhysicallyDelete(c.Request.Context(), config)
	if err != nil {
		log.Printf("Admin: Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	if h.cleanupService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cleanup not available"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	logs, err := h.cleanupService.GetRecentDeleteLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}
