package planner

import (
	"sort"

	"facility-planner/internal/models"
)

// GroupsByYear partitions groups by the year of their group date
func GroupsByYear(groups []models.TaskGroup) map[int][]models.TaskGroup {
	out := make(map[int][]models.TaskGroup)
	for _, g := range groups {
		year := g.Year()
		out[year] = append(out[year], g)
	}
	return out
}

// TotalCostPerYear sums, per year, the shared cost of each group or its subtask costs
// when prices are assigned individually
func TotalCostPerYear(groups []models.TaskGroup) map[int]float64 {
	out := make(map[int]float64)
	for i := range groups {
		out[groups[i].Year()] += groups[i].TotalCost()
	}
	return out
}

// YearEntry is one row of the timeline
type YearEntry struct {
	Year      int                `json:"year"`
	TotalCost float64            `json:"total_cost"`
	Groups    []models.TaskGroup `json:"groups"`
}

// Timeline returns the year rows in ascending order. Groups within a year keep their input order.
func Timeline(groups []models.TaskGroup) []YearEntry {
	byYear := GroupsByYear(groups)
	totals := TotalCostPerYear(groups)

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearEntry, 0, len(years))
	for _, y := range years {
		out = append(out, YearEntry{Year: y, TotalCost: totals[y], Groups: byYear[y]})
	}
	return out
}
