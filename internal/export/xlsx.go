// Package export renders the maintenance timeline as spreadsheet and PDF documents.
package export

import (
	"fmt"
	"io"

	"facility-planner/internal/planner"

	"github.com/xuri/excelize/v2"
)

const (
	TimelineSheet = "Timeline"
	SummarySheet  = "Summary"
)

var timelineHeader = []string{"Year", "Task group", "Description", "Date", "Element", "Cost"}

// WriteTimelineXLSX writes one row per group member on the Timeline sheet and the yearly
// totals on the Summary sheet
func WriteTimelineXLSX(w io.Writer, entries []planner.YearEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TimelineSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Family: "Arial",
			Color:  "#FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("error creating money style: %w", err)
	}

	if err := writeRow(f, TimelineSheet, 1, toRow(timelineHeader)); err != nil {
		return err
	}
	if err := f.SetCellStyle(TimelineSheet, "A1", "F1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, entry := range entries {
		for _, g := range entry.Groups {
			date := g.GroupDate.Format("2006-01-02")
			if len(g.Subtasks) == 0 {
				if err := writeRow(f, TimelineSheet, row, []interface{}{entry.Year, g.Name, g.Description, date, "", g.TotalCost()}); err != nil {
					return err
				}
				row++
				continue
			}
			for _, st := range g.Subtasks {
				cost := st.Cost
				if !g.AssignPricesIndividually {
					cost = g.Cost
				}
				if err := writeRow(f, TimelineSheet, row, []interface{}{entry.Year, g.Name, g.Description, st.EndDate.Format("2006-01-02"), st.ElementName, cost}); err != nil {
					return err
				}
				row++
			}
		}
	}
	if row > 2 {
		last, _ := excelize.CoordinatesToCellName(6, row-1)
		if err := f.SetCellStyle(TimelineSheet, "F2", last, moneyStyle); err != nil {
			return err
		}
	}
	f.SetColWidth(TimelineSheet, "B", "C", 30)
	f.SetColWidth(TimelineSheet, "E", "E", 25)

	if err := writeRow(f, SummarySheet, 1, []interface{}{"Year", "Groups", "Total cost"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "C1", headerStyle); err != nil {
		return err
	}
	for i, entry := range entries {
		if err := writeRow(f, SummarySheet, i+2, []interface{}{entry.Year, len(entry.Groups), entry.TotalCost}); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
