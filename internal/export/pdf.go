package export

import (
	"fmt"
	"io"
	"time"

	"facility-planner/internal/planner"

	"github.com/jung-kurt/gofpdf"
)

// WriteTimelinePDF renders the timeline as an A4 report, one section per year
func WriteTimelinePDF(w io.Writer, title string, entries []planner.YearEntry, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, tr(title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(190, 6, "Generated "+generated.Format("02-Jan-2006 15:04"))
	pdf.Ln(10)

	if len(entries) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.Cell(190, 8, "No task groups planned.")
	}

	var grandTotal float64
	for _, entry := range entries {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(140, 8, fmt.Sprintf("%d", entry.Year))
		pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", entry.TotalCost), "", 1, "R", false, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(70, 7, "Task group", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(55, 7, "Elements", "1", 0, "L", true, 0, "")
		pdf.CellFormat(35, 7, "Cost", "1", 1, "R", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, g := range entry.Groups {
			pdf.CellFormat(70, 7, tr(truncate(g.Name, 40)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, g.GroupDate.Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(55, 7, fmt.Sprintf("%d", len(g.Subtasks)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", g.TotalCost()), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(5)
		grandTotal += entry.TotalCost
	}

	if len(entries) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(155, 8, "Total")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", grandTotal), "", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
