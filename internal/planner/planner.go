// Package planner turns task groups into per-element tasks and derives the year timeline.
//
// All operations are pure: they take the current elements and groups and return new
// collections, leaving their inputs untouched. Persisting the result is the caller's job.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"facility-planner/internal/models"

	"github.com/google/uuid"
)

var (
	ErrGroupNameRequired  = errors.New("task group name is required")
	ErrGroupDateRequired  = errors.New("task group date is required")
	ErrNoElementsSelected = errors.New("select at least one element")
	ErrUnknownElement     = errors.New("unknown element")
	ErrGroupNotFound      = errors.New("task group not found")
)

// GroupInput carries the fields of a create or update
type GroupInput struct {
	Name               string
	Description        string
	GroupDate          time.Time
	Cost               float64
	AssignIndividually bool
	IndividualCosts    map[string]float64
	IndividualDates    map[string]time.Time
	ElementIDs         []string
}

// Validate checks the required fields
func (in GroupInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrGroupNameRequired
	}
	if in.GroupDate.IsZero() {
		return ErrGroupDateRequired
	}
	if len(in.ElementIDs) == 0 {
		return ErrNoElementsSelected
	}
	return nil
}

// Planner holds the id and clock sources
type Planner struct {
	newID func() string
	now   func() time.Time
}

// New returns a planner generating uuid ids
func New() *Planner {
	return &Planner{newID: uuid.NewString, now: time.Now}
}

// NewWithSources is used by tests to make ids and timestamps deterministic
func NewWithSources(newID func() string, now func() time.Time) *Planner {
	return &Planner{newID: newID, now: now}
}

// YearStart normalizes t to January 1 of its year; the timeline only has year precision
func YearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// CalendarDate keeps the calendar day of t as midnight UTC so the stored group date reads back
// with the same year and day on any host zone
func CalendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// resolve returns the end date and cost for one member
func (in GroupInput) resolve(elementID string) (time.Time, float64) {
	date := in.GroupDate
	if d, ok := in.IndividualDates[elementID]; ok && !d.IsZero() {
		date = d
	}
	cost := in.Cost
	if in.AssignIndividually {
		cost = in.IndividualCosts[elementID]
	}
	return YearStart(date), cost
}

// selection de-duplicates the selected ids and checks that each exists
func selection(elements []models.Element, ids []string) ([]string, error) {
	known := make(map[string]bool, len(elements))
	for i := range elements {
		known[elements[i].ID] = true
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownElement, id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func cloneElements(elements []models.Element) []models.Element {
	out := make([]models.Element, len(elements))
	for i := range elements {
		out[i] = elements[i].Clone()
	}
	return out
}

// CreateTaskGroup appends one task per selected element and returns the new group.
// Existing tasks are neither removed nor reordered.
func (p *Planner) CreateTaskGroup(elements []models.Element, in GroupInput) ([]models.Element, models.TaskGroup, error) {
	if err := in.Validate(); err != nil {
		return nil, models.TaskGroup{}, err
	}
	ids, err := selection(elements, in.ElementIDs)
	if err != nil {
		return nil, models.TaskGroup{}, err
	}

	now := p.now()
	group := models.TaskGroup{
		ID:                       p.newID(),
		Name:                     strings.TrimSpace(in.Name),
		Description:              in.Description,
		GroupDate:                CalendarDate(in.GroupDate),
		Cost:                     in.Cost,
		AssignPricesIndividually: in.AssignIndividually,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	out := cloneElements(elements)
	index := indexByID(out)
	for _, id := range ids {
		e := &out[index[id]]
		task := p.newTask(group, in, id)
		e.Tasks = append(e.Tasks, task)
		group.Subtasks = append(group.Subtasks, subtaskFor(e, task))
	}
	return out, group, nil
}

// UpdateTaskGroup re-resolves date and cost for every member exactly as creation does.
// Only tasks carrying the group's id are rewritten. Newly selected elements get a fresh task;
// elements dropped from the selection have their task unlinked as DeleteTaskGroup would.
func (p *Planner) UpdateTaskGroup(elements []models.Element, groups []models.TaskGroup, groupID string, in GroupInput) ([]models.Element, []models.TaskGroup, error) {
	gi := -1
	for i := range groups {
		if groups[i].ID == groupID {
			gi = i
			break
		}
	}
	if gi < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	ids, err := selection(elements, in.ElementIDs)
	if err != nil {
		return nil, nil, err
	}
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	group := groups[gi]
	group.Name = strings.TrimSpace(in.Name)
	group.Description = in.Description
	group.GroupDate = CalendarDate(in.GroupDate)
	group.Cost = in.Cost
	group.AssignPricesIndividually = in.AssignIndividually
	group.UpdatedAt = p.now()
	group.Subtasks = nil

	out := cloneElements(elements)
	for i := range out {
		e := &out[i]
		if !selected[e.ID] {
			unlink(e, groupID)
		}
	}

	index := indexByID(out)
	for _, id := range ids {
		e := &out[index[id]]
		date, cost := in.resolve(id)
		rewritten := false
		for t := range e.Tasks {
			task := &e.Tasks[t]
			if task.GroupID != groupID {
				continue
			}
			task.Name = group.Name
			task.Description = group.Description
			task.EndDate = date
			task.Cost = cost
			task.InGroup = true
			if !rewritten {
				group.Subtasks = append(group.Subtasks, subtaskFor(e, *task))
			}
			rewritten = true
		}
		if !rewritten {
			task := p.newTask(group, in, id)
			e.Tasks = append(e.Tasks, task)
			group.Subtasks = append(group.Subtasks, subtaskFor(e, task))
		}
	}

	outGroups := make([]models.TaskGroup, len(groups))
	copy(outGroups, groups)
	outGroups[gi] = group
	return out, outGroups, nil
}

// DeleteTaskGroup removes the group and strips its id from every task that referenced it.
// The tasks themselves stay. An unknown id changes nothing.
func DeleteTaskGroup(elements []models.Element, groups []models.TaskGroup, groupID string) ([]models.Element, []models.TaskGroup) {
	outGroups := make([]models.TaskGroup, 0, len(groups))
	for _, g := range groups {
		if g.ID != groupID {
			outGroups = append(outGroups, g)
		}
	}
	out := cloneElements(elements)
	for i := range out {
		unlink(&out[i], groupID)
	}
	return out, outGroups
}

// TasksForElement projects the tasks planned on one element, grouped or not
func TasksForElement(elements []models.Element, elementID string) []models.Task {
	for i := range elements {
		if elements[i].ID == elementID {
			out := make([]models.Task, len(elements[i].Tasks))
			copy(out, elements[i].Tasks)
			return out
		}
	}
	return []models.Task{}
}

func (p *Planner) newTask(group models.TaskGroup, in GroupInput, elementID string) models.Task {
	date, cost := in.resolve(elementID)
	return models.Task{
		ID:          p.newID(),
		Name:        group.Name,
		Description: group.Description,
		EndDate:     date,
		Cost:        cost,
		InGroup:     true,
		GroupID:     group.ID,
	}
}

func subtaskFor(e *models.Element, task models.Task) models.Subtask {
	return models.Subtask{
		ElementID:   e.ID,
		ElementName: e.Name,
		TaskID:      task.ID,
		EndDate:     task.EndDate,
		Cost:        task.Cost,
	}
}

func unlink(e *models.Element, groupID string) {
	for t := range e.Tasks {
		if e.Tasks[t].GroupID == groupID {
			e.Tasks[t].GroupID = ""
			e.Tasks[t].InGroup = false
		}
	}
}

func indexByID(elements []models.Element) map[string]int {
	index := make(map[string]int, len(elements))
	for i := range elements {
		index[elements[i].ID] = i
	}
	return index
}
