package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"facility-planner/internal/cleanup"
	"facility-planner/internal/config"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Registry is the part of the working copy the daily job reads
type Registry interface {
	Elements(includeArchived bool) []models.Element
	DueInspections(now time.Time) []registry.DueInspection
}

// Indexer rebuilds the search index
type Indexer interface {
	Reindex(elements []models.Element) error
}

// Cleaner deletes expired archived elements
type Cleaner interface {
	PhysicallyDelete(ctx context.Context, config cleanup.CleanupConfig) (*cleanup.CleanupResult, error)
}

// RunReport summarizes one daily run
type RunReport struct {
	StartedAt      time.Time                `json:"started_at"`
	Duration       string                   `json:"duration"`
	Indexed        int                      `json:"indexed"`
	DueInspections []registry.DueInspection `json:"due_inspections"`
	Cleanup        *cleanup.CleanupResult   `json:"cleanup,omitempty"`
	Errors         []string                 `json:"errors,omitempty"`
}

// Scheduler handles the daily maintenance job
type Scheduler struct {
	cron      *cron.Cron
	registry  Registry
	indexer   Indexer
	cleaner   Cleaner
	config    *config.Config
	now       func() time.Time
	runMu     sync.Mutex
	mu        sync.Mutex
	isRunning bool
	lastRun   *RunReport
}

// NewScheduler creates a new scheduler. indexer and cleaner may be nil.
func NewScheduler(reg Registry, indexer Indexer, cleaner Cleaner, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		registry: reg,
		indexer:  indexer,
		cleaner:  cleaner,
		config:   cfg,
		now:      time.Now,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.DailyRunEnabled {
		log.Println("Scheduler: Daily run is disabled in configuration")
		return nil
	}

	cronSpec := parseDailyRunTime(s.config.Scheduler.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting daily maintenance job...")
		report := s.runDaily(context.Background())
		if len(report.Errors) > 0 {
			log.Printf("Scheduler: Daily maintenance finished with %d errors", len(report.Errors))
		} else {
			log.Println("Scheduler: Daily maintenance completed successfully")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily run at %s (cron: %s)", s.config.Scheduler.DailyRunTime, cronSpec)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunNow immediately executes the daily job (for manual trigger)
func (s *Scheduler) RunNow(ctx context.Context) *RunReport {
	log.Println("Scheduler: Manual trigger - starting maintenance job...")
	return s.runDaily(ctx)
}

// LastRun returns the report of the most recent run, or nil
func (s *Scheduler) LastRun() *RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// runDaily reindexes search, reports due inspections and removes expired archived elements.
// Runs are serialized.
func (s *Scheduler) runDaily(ctx context.Context) *RunReport {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	report := &RunReport{StartedAt: start}

	if s.config.Scheduler.Reindex && s.indexer != nil {
		active := s.registry.Elements(false)
		if err := s.indexer.Reindex(active); err != nil {
			log.Printf("Scheduler: Reindex failed: %v", err)
			report.Errors = append(report.Errors, fmt.Sprintf("reindex: %v", err))
		} else {
			report.Indexed = len(active)
			log.Printf("Scheduler: Reindexed %d elements", len(active))
		}
	}

	report.DueInspections = s.registry.DueInspections(start)
	for _, due := range report.DueInspections {
		log.WithFields(log.Fields{
			"element_id":   due.ElementID,
			"due_date":     due.DueDate.Format("2006-01-02"),
			"overdue_days": due.OverdueDays,
		}).Warnf("Scheduler: Inspection due for %s", due.Name)
	}
	log.Printf("Scheduler: %d inspections due", len(report.DueInspections))

	if s.config.Scheduler.Cleanup && s.cleaner != nil {
		result, err := s.cleaner.PhysicallyDelete(ctx, cleanup.CleanupConfig{
			RetentionDays:    s.config.Cleanup.RetentionDays,
			MaxDeletionCount: s.config.Cleanup.MaxDeletionCount,
			DryRun:           s.config.Cleanup.DryRun,
			DeleteFromSearch: s.config.Search.Enabled,
		})
		if err != nil {
			log.Printf("Scheduler: Cleanup failed: %v", err)
			report.Errors = append(report.Errors, fmt.Sprintf("cleanup: %v", err))
		}
		report.Cleanup = result
	}

	report.Duration = s.now().Sub(start).String()
	s.mu.Lock()
	s.lastRun = report
	s.mu.Unlock()
	return report
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}
