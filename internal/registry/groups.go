package registry

import (
	"fmt"
	"time"

	"facility-planner/internal/models"
	"facility-planner/internal/planner"
)

// Groups returns copies of all task groups
func (s *Store) Groups() []models.TaskGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGroups(s.groups)
}

// Group returns one task group
func (s *Store) Group(id string) (models.TaskGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.ID == id {
			return cloneGroups([]models.TaskGroup{g})[0], nil
		}
	}
	return models.TaskGroup{}, fmt.Errorf("%w: %s", planner.ErrGroupNotFound, id)
}

// CreateTaskGroup adds a group and one task per selected element
func (s *Store) CreateTaskGroup(in planner.GroupInput) (models.TaskGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elements, group, err := s.planner.CreateTaskGroup(s.elements, in)
	if err != nil {
		return models.TaskGroup{}, err
	}
	s.elements = elements
	s.groups = append(s.groups, group)
	return group, nil
}

// UpdateTaskGroup rewrites a group and the tasks linked to it
func (s *Store) UpdateTaskGroup(id string, in planner.GroupInput) (models.TaskGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elements, groups, err := s.planner.UpdateTaskGroup(s.elements, s.groups, id, in)
	if err != nil {
		return models.TaskGroup{}, err
	}
	s.elements = elements
	s.groups = groups
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return models.TaskGroup{}, fmt.Errorf("%w: %s", planner.ErrGroupNotFound, id)
}

// DeleteTaskGroup removes a group and unlinks its tasks; an unknown id changes nothing
func (s *Store) DeleteTaskGroup(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements, s.groups = planner.DeleteTaskGroup(s.elements, s.groups, id)
}

// Timeline returns the groups bucketed by year with yearly totals
func (s *Store) Timeline() []planner.YearEntry {
	return planner.Timeline(s.Groups())
}

// Tasks returns the tasks of one element
func (s *Store) Tasks(elementID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.elementIndex(elementID) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, elementID)
	}
	return planner.TasksForElement(s.elements, elementID), nil
}

// ImportResult lists what ImportElements accepted and rejected
type ImportResult struct {
	Imported []models.Element  `json:"imported"`
	Renamed  map[string]string `json:"renamed,omitempty"`
	Rejected []ImportRejection `json:"rejected,omitempty"`
}

// ImportRejection names an element that failed validation
type ImportRejection struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportElements appends a batch of elements. Missing ids are generated and ids that collide
// with an existing or earlier element get a numeric suffix. Invalid elements are rejected
// individually; the rest are kept.
func (s *Store) ImportElements(batch []models.Element) ImportResult {
	result := ImportResult{Imported: []models.Element{}, Renamed: map[string]string{}}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	taken := make(map[string]bool, len(s.elements)+len(batch))
	for i := range s.elements {
		taken[s.elements[i].ID] = true
	}

	for i, el := range batch {
		el = el.Clone()
		if err := validateElement(&el); err != nil {
			result.Rejected = append(result.Rejected, ImportRejection{Index: i, Name: el.Name, Error: err.Error()})
			continue
		}
		original := el.ID
		el.ID = coerceID(el.ID, taken, s.newID)
		if original != "" && original != el.ID {
			result.Renamed[original] = el.ID
		}
		taken[el.ID] = true

		if el.Defects == nil {
			el.Defects = models.DefectSet{}
		}
		if el.Status == "" {
			el.Status = models.ElementStatusActive
		}
		if el.CreatedAt.IsZero() {
			el.CreatedAt = now
		}
		el.UpdatedAt = now
		s.elements = append(s.elements, el)
		result.Imported = append(result.Imported, el.Clone())
	}
	return result
}

// coerceID returns id when it is free, a generated id when it is empty and otherwise
// the first free "id-N" with N starting at 2
func coerceID(id string, taken map[string]bool, newID func() string) string {
	if id == "" {
		id = newID()
		for taken[id] {
			id = newID()
		}
		return id
	}
	if !taken[id] {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// SetClock replaces the time source, used by tests
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
