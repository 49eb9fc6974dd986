package models

import "time"

// Task is a unit of planned maintenance work on one element
type Task struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	EndDate     time.Time `json:"end_date"`
	Cost        float64   `json:"cost"`
	InGroup     bool      `json:"in_group"`
	GroupID     string    `json:"group_id,omitempty"`
}

// TaskGroup is a named, dated batch of work spanning one or more elements
type TaskGroup struct {
	ID                       string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name                     string    `gorm:"type:varchar(255);not null" json:"name"`
	Description              string    `gorm:"type:text" json:"description,omitempty"`
	GroupDate                time.Time `gorm:"type:datetime;not null;index" json:"group_date"`
	Cost                     float64   `gorm:"type:decimal(12,2)" json:"cost"`
	AssignPricesIndividually bool      `gorm:"not null;default:false" json:"assign_prices_individually"`
	Subtasks                 []Subtask `gorm:"type:text;serializer:json" json:"subtasks"`
	CreatedAt                time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// Subtask is a member element of a group with its resolved date and cost at the time of the last write
type Subtask struct {
	ElementID   string    `json:"element_id"`
	ElementName string    `json:"element_name"`
	TaskID      string    `json:"task_id"`
	EndDate     time.Time `json:"end_date"`
	Cost        float64   `json:"cost"`
}

func (TaskGroup) TableName() string {
	return "task_groups"
}

// Year is the timeline bucket of the group
func (g *TaskGroup) Year() int {
	return g.GroupDate.Year()
}

// TotalCost is the shared cost, or the sum of subtask costs when prices are assigned individually
func (g *TaskGroup) TotalCost() float64 {
	if !g.AssignPricesIndividually {
		return g.Cost
	}
	total := 0.0
	for _, st := range g.Subtasks {
		total += st.Cost
	}
	return total
}

// HasElement reports whether elementID is a member
func (g *TaskGroup) HasElement(elementID string) bool {
	for _, st := range g.Subtasks {
		if st.ElementID == elementID {
			return true
		}
	}
	return false
}
