package cleanup

import (
	"context"
	"fmt"
	"time"

	"facility-planner/internal/database"
	"facility-planner/internal/models"

	log "github.com/sirupsen/logrus"
)

// ElementStore is the part of the registry cleanup works on
type ElementStore interface {
	Elements(includeArchived bool) []models.Element
	PurgeElements(ids []string) int
	Save(ctx context.Context) error
}

// LogStore keeps the delete log
type LogStore interface {
	CreateDeleteLogs(ctx context.Context, logs []models.DeleteLog) error
	RecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error)
	DeleteStats(ctx context.Context, since time.Time) (*database.DeleteStats, error)
}

// Deindexer removes deleted elements from search
type Deindexer interface {
	DeleteElements(ids []string) error
}

// Service handles physical deletion of old archived elements
type Service struct {
	store ElementStore
	logs  LogStore
	index Deindexer
	now   func() time.Time
}

// NewService creates a new cleanup service. index may be nil when search is disabled.
func NewService(store ElementStore, logs LogStore, index Deindexer) *Service {
	return &Service{store: store, logs: logs, index: index, now: time.Now}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int  // Days to keep archived elements before physical deletion
	MaxDeletionCount int  // Maximum number of elements to delete in one run
	DryRun           bool // Only log what would be deleted
	DeleteFromSearch bool // Also delete from Meilisearch
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    90,
		MaxDeletionCount: 1000,
		DryRun:           false,
		DeleteFromSearch: true,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount     int       `json:"target_count"`
	DeletedCount    int       `json:"deleted_count"`
	ErrorCount      int       `json:"error_count"`
	DryRun          bool      `json:"dry_run"`
	ExecutedAt      time.Time `json:"executed_at"`
	DeletedElements []string  `json:"deleted_elements"`
	Errors          []string  `json:"errors,omitempty"`
}

// FindExpiredElements returns archived elements whose archive date is older than retentionDays
func (s *Service) FindExpiredElements(retentionDays int) []models.Element {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	var expired []models.Element
	for _, e := range s.store.Elements(true) {
		if e.Status == models.ElementStatusArchived && e.ArchivedAt != nil && e.ArchivedAt.Before(cutoff) {
			expired = append(expired, e)
		}
	}
	log.Printf("Cleanup: found %d elements archived before %s", len(expired), cutoff.Format("2006-01-02"))
	return expired
}

// PhysicallyDelete removes expired elements, saves the working copy and writes the delete log
func (s *Service) PhysicallyDelete(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:          config.DryRun,
		ExecutedAt:      s.now(),
		DeletedElements: []string{},
	}

	expired := s.FindExpiredElements(config.RetentionDays)
	result.TargetCount = len(expired)

	if result.TargetCount == 0 {
		log.Println("Cleanup: no expired elements found for deletion")
		return result, nil
	}

	// Safety check: abort if too many elements would be deleted
	if config.MaxDeletionCount > 0 && result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d elements exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	log.Printf("Cleanup: starting, %d elements to delete (retention: %d days, dry-run: %v)",
		result.TargetCount, config.RetentionDays, config.DryRun)

	ids := make([]string, len(expired))
	for i, e := range expired {
		ids[i] = e.ID
	}

	if config.DryRun {
		for _, e := range expired {
			log.Printf("Cleanup: [DRY-RUN] would delete element %s (Name: %s, ArchivedAt: %s)",
				e.ID, e.Name, e.ArchivedAt.Format("2006-01-02"))
		}
		result.DeletedElements = ids
		result.DeletedCount = len(ids)
		return result, nil
	}

	s.store.PurgeElements(ids)
	if err := s.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to persist deletion: %w", err)
	}

	now := s.now()
	logs := make([]models.DeleteLog, len(expired))
	for i, e := range expired {
		logs[i] = models.DeleteLog{
			ElementID:  e.ID,
			Name:       e.Name,
			TaskCount:  len(e.Tasks),
			ArchivedAt: *e.ArchivedAt,
			DeletedAt:  now,
			Reason:     models.DeleteReasonExpired,
		}
	}
	if err := s.logs.CreateDeleteLogs(ctx, logs); err != nil {
		errMsg := fmt.Sprintf("failed to write delete log: %v", err)
		log.Printf("Cleanup: ERROR: %s", errMsg)
		result.Errors = append(result.Errors, errMsg)
		result.ErrorCount++
	}

	if config.DeleteFromSearch && s.index != nil {
		if err := s.index.DeleteElements(ids); err != nil {
			errMsg := fmt.Sprintf("failed to delete from search index: %v", err)
			log.Printf("Cleanup: ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
		}
	}

	result.DeletedElements = ids
	result.DeletedCount = len(ids)
	log.Printf("Cleanup: completed, %d/%d deleted, %d errors", result.DeletedCount, result.TargetCount, result.ErrorCount)
	return result, nil
}

// GetDeleteStats returns statistics about deleted and archived elements
func (s *Service) GetDeleteStats(ctx context.Context, retentionDays int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	logStats, err := s.logs.DeleteStats(ctx, s.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	stats["total_deleted"] = logStats.Total
	stats["by_reason"] = logStats.ByReason
	stats["deleted_last_30_days"] = logStats.Recent

	archived := 0
	for _, e := range s.store.Elements(true) {
		if e.Status == models.ElementStatusArchived {
			archived++
		}
	}
	stats["currently_archived"] = archived
	stats["expired_ready_for_deletion"] = len(s.FindExpiredElements(retentionDays))

	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	return s.logs.RecentDeleteLogs(ctx, limit)
}
