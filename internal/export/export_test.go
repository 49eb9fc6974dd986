package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"facility-planner/internal/models"
	"facility-planner/internal/planner"

	"github.com/xuri/excelize/v2"
)

func sampleTimeline() []planner.YearEntry {
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return planner.Timeline([]models.TaskGroup{
		{
			ID: "g1", Name: "Repaint", GroupDate: d, Cost: 500,
			Subtasks: []models.Subtask{
				{ElementID: "a", ElementName: "Window", EndDate: d, Cost: 500},
				{ElementID: "b", ElementName: "Door", EndDate: d, Cost: 500},
			},
		},
		{
			ID: "g2", Name: "Roof", GroupDate: d.AddDate(1, 0, 0), AssignPricesIndividually: true,
			Subtasks: []models.Subtask{{ElementID: "c", ElementName: "Roof", EndDate: d.AddDate(1, 0, 0), Cost: 1200}},
		},
	})
}

func TestWriteTimelineXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTimelineXLSX(&buf, sampleTimeline()); err != nil {
		t.Fatalf("WriteTimelineXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(TimelineSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("timeline rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "Year" || rows[1][4] != "Window" || rows[3][1] != "Roof" {
		t.Errorf("rows = %v", rows)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 3 {
		t.Fatalf("summary rows = %v", summary)
	}
	// shared cost counts once per group
	if summary[1][0] != "2026" || summary[1][2] != "500" {
		t.Errorf("2026 summary = %v", summary[1])
	}
	if summary[2][0] != "2027" || summary[2][2] != "1200" {
		t.Errorf("2027 summary = %v", summary[2])
	}
}

func TestWriteTimelinePDF(t *testing.T) {
	var buf bytes.Buffer
	gen := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if err := WriteTimelinePDF(&buf, "Onderhoudsplanning", sampleTimeline(), gen); err != nil {
		t.Fatalf("WriteTimelinePDF: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Error("output is not a PDF")
	}

	buf.Reset()
	if err := WriteTimelinePDF(&buf, "Empty", nil, gen); err != nil {
		t.Fatalf("empty timeline: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}
