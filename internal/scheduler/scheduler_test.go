package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"facility-planner/internal/cleanup"
	"facility-planner/internal/config"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"
)

func TestParseDailyRunTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"02:00", "0 2 * * *"},
		{"23:45", "45 23 * * *"},
		{"7:05", "5 7 * * *"},
		{"25:00", "0 2 * * *"},
		{"noon", "0 2 * * *"},
		{"", "0 2 * * *"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseDailyRunTime(tt.in); got != tt.want {
				t.Errorf("parseDailyRunTime(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type fakeRegistry struct {
	elements []models.Element
	due      []registry.DueInspection
}

func (f *fakeRegistry) Elements(includeArchived bool) []models.Element { return f.elements }

func (f *fakeRegistry) DueInspections(now time.Time) []registry.DueInspection { return f.due }

type fakeIndexer struct {
	err   error
	calls int
}

func (f *fakeIndexer) Reindex(elements []models.Element) error {
	f.calls++
	return f.err
}

type fakeCleaner struct {
	got cleanup.CleanupConfig
}

func (f *fakeCleaner) PhysicallyDelete(ctx context.Context, cfg cleanup.CleanupConfig) (*cleanup.CleanupResult, error) {
	f.got = cfg
	return &cleanup.CleanupResult{DryRun: cfg.DryRun}, nil
}

func TestRunNow(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cleanup.DryRun = true
	reg := &fakeRegistry{
		elements: []models.Element{{ID: "a", Name: "Roof"}},
		due:      []registry.DueInspection{{ElementID: "a", Name: "Roof"}},
	}
	idx := &fakeIndexer{}
	cl := &fakeCleaner{}

	s := NewScheduler(reg, idx, cl, cfg)
	report := s.RunNow(context.Background())

	if report.Indexed != 1 || idx.calls != 1 {
		t.Errorf("indexed = %d, calls = %d", report.Indexed, idx.calls)
	}
	if len(report.DueInspections) != 1 {
		t.Errorf("due = %+v", report.DueInspections)
	}
	if !cl.got.DryRun || cl.got.RetentionDays != cfg.Cleanup.RetentionDays {
		t.Errorf("cleanup config = %+v", cl.got)
	}
	if s.LastRun() != report {
		t.Error("LastRun not recorded")
	}
}

func TestRunNowCollectsErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scheduler.Cleanup = false
	idx := &fakeIndexer{err: errors.New("meilisearch down")}

	report := NewScheduler(&fakeRegistry{}, idx, nil, cfg).RunNow(context.Background())
	if len(report.Errors) != 1 {
		t.Errorf("errors = %v", report.Errors)
	}
	if report.Cleanup != nil {
		t.Error("cleanup ran while disabled")
	}
}

func TestStartDisabled(t *testing.T) {
	s := NewScheduler(&fakeRegistry{}, nil, nil, config.DefaultConfig())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}
