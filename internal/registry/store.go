// Package registry holds the single in-memory working copy of elements, spaces and task groups.
//
// Mutations are applied in memory first and persisted afterwards with Save. A failed save
// leaves the working copy as it is; callers decide whether to alert or save again.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"facility-planner/internal/annotation"
	"facility-planner/internal/defects"
	"facility-planner/internal/models"
	"facility-planner/internal/planner"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrElementNotFound           = errors.New("element not found")
	ErrSpaceNotFound             = errors.New("space not found")
	ErrElementNameRequired       = errors.New("element name is required")
	ErrSpaceNameRequired         = errors.New("space name is required")
	ErrDefectsNeedClassification = errors.New("defects require type and material")
	ErrNoSpace                   = errors.New("element is not placed in a space")
)

// Snapshot is the full state handed to and loaded from a Persister
type Snapshot struct {
	Elements []models.Element
	Spaces   []models.Space
	Groups   []models.TaskGroup
}

// Persister stores the whole collection; there is no partial update
type Persister interface {
	LoadAll(ctx context.Context) (*Snapshot, error)
	SaveAll(ctx context.Context, snap *Snapshot) error
}

// SaveError reports a failed persistence call. The in-memory state was already changed.
type SaveError struct {
	At  time.Time
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save working copy: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Store is the working copy shared by all handlers
type Store struct {
	mu sync.RWMutex

	catalog   models.Catalog
	policy    defects.MaterialChangePolicy
	planner   *planner.Planner
	persister Persister
	newID     func() string
	now       func() time.Time

	elements []models.Element
	spaces   []models.Space
	groups   []models.TaskGroup

	// custom defects entered per element during this process's lifetime
	custom map[string]defects.WorkingDefects

	lastSaved time.Time
}

// NewStore creates an empty store. persister may be nil for a purely in-memory store.
func NewStore(c models.Catalog, policy defects.MaterialChangePolicy, persister Persister) *Store {
	return &Store{
		catalog:   c,
		policy:    policy,
		planner:   planner.New(),
		persister: persister,
		newID:     uuid.NewString,
		now:       time.Now,
		custom:    make(map[string]defects.WorkingDefects),
	}
}

// Catalog returns the static catalog the store was built with
func (s *Store) Catalog() models.Catalog {
	return s.catalog
}

// Load replaces the working copy with the persisted state. Elements with a missing or
// duplicate id get a fresh one, as at import.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load working copy: %w", err)
	}

	taken := make(map[string]bool, len(snap.Elements))
	renamed := 0
	for i := range snap.Elements {
		e := &snap.Elements[i]
		id := coerceID(e.ID, taken, s.newID)
		if id != e.ID {
			renamed++
			relinkSubtasks(snap.Groups, e, id)
			e.ID = id
		}
		taken[id] = true
	}
	if renamed > 0 {
		log.Warnf("Registry: assigned new ids to %d loaded elements with missing or duplicate ids", renamed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = snap.Elements
	s.spaces = snap.Spaces
	s.groups = snap.Groups
	log.Printf("Registry: loaded %d elements, %d spaces, %d task groups",
		len(s.elements), len(s.spaces), len(s.groups))
	return nil
}

// relinkSubtasks points the subtasks created from e's grouped tasks at newID. Subtasks are
// matched by task id, so the element that keeps a duplicated id keeps its own subtasks.
func relinkSubtasks(groups []models.TaskGroup, e *models.Element, newID string) {
	for _, task := range e.Tasks {
		if task.GroupID == "" {
			continue
		}
		for gi := range groups {
			if groups[gi].ID != task.GroupID {
				continue
			}
			for si := range groups[gi].Subtasks {
				st := &groups[gi].Subtasks[si]
				if st.TaskID == task.ID && st.ElementID == e.ID {
					st.ElementID = newID
				}
			}
		}
	}
}

// Save persists the full working copy
func (s *Store) Save(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.mu.RLock()
	snap := &Snapshot{
		Elements: cloneElements(s.elements),
		Spaces:   cloneSpaces(s.spaces),
		Groups:   cloneGroups(s.groups),
	}
	s.mu.RUnlock()

	if err := s.persister.SaveAll(ctx, snap); err != nil {
		log.WithError(err).Error("Registry: save failed, working copy kept in memory")
		return &SaveError{At: s.now(), Err: err}
	}

	s.mu.Lock()
	s.lastSaved = s.now()
	s.mu.Unlock()
	return nil
}

// LastSaved returns the time of the last successful save
func (s *Store) LastSaved() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSaved
}

// Elements returns copies of the elements, archived ones only when includeArchived is set
func (s *Store) Elements(includeArchived bool) []models.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Element, 0, len(s.elements))
	for i := range s.elements {
		if includeArchived || s.elements[i].IsActive() {
			out = append(out, s.elements[i].Clone())
		}
	}
	return out
}

// Element returns a copy of one element
func (s *Store) Element(id string) (models.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.elementIndex(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	return s.elements[i].Clone(), nil
}

// UpsertElement validates and stores el, generating an id when it has none.
// An existing element keeps its creation time and lifecycle status.
func (s *Store) UpsertElement(el models.Element) (models.Element, error) {
	if err := validateElement(&el); err != nil {
		return models.Element{}, err
	}
	if el.Defects == nil {
		el.Defects = models.DefectSet{}
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if el.ID == "" {
		el.ID = s.newID()
	}
	el.UpdatedAt = now
	if i := s.elementIndex(el.ID); i >= 0 {
		el.CreatedAt = s.elements[i].CreatedAt
		el.Status = s.elements[i].Status
		el.ArchivedAt = s.elements[i].ArchivedAt
		s.elements[i] = el.Clone()
	} else {
		el.CreatedAt = now
		el.Status = models.ElementStatusActive
		el.ArchivedAt = nil
		s.elements = append(s.elements, el.Clone())
	}
	return el, nil
}

func validateElement(el *models.Element) error {
	el.Name = strings.TrimSpace(el.Name)
	if el.Name == "" {
		return ErrElementNameRequired
	}
	if el.Material == models.MaterialOther && strings.TrimSpace(el.CustomMaterial) == "" {
		return defects.ErrCustomMaterialRequired
	}
	for sev := range el.Defects {
		if !sev.IsValid() {
			return fmt.Errorf("%w: %q", defects.ErrSeverityInvalid, sev)
		}
	}
	if el.Defects.Count() > 0 && (el.Type == "" || el.EffectiveMaterial() == "") {
		return ErrDefectsNeedClassification
	}
	if len(el.Annotations) > 0 && el.SpaceID == "" {
		return ErrNoSpace
	}
	for _, r := range el.Annotations {
		if !r.IsWellFormed() {
			return annotation.ErrMalformedRect
		}
	}
	return nil
}

// ArchiveElement soft-deletes an element; cleanup removes it after the retention period
func (s *Store) ArchiveElement(id string) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.elementIndex(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	if s.elements[i].IsActive() {
		s.elements[i].MarkAsArchived(s.now())
	}
	return s.elements[i].Clone(), nil
}

// PurgeElements physically removes elements from the working copy
func (s *Store) PurgeElements(ids []string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.elements[:0:0]
	removed := 0
	for _, e := range s.elements {
		if drop[e.ID] {
			delete(s.custom, e.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.elements = kept

	// purged elements leave their groups so yearly totals only count remaining members
	for i := range s.groups {
		g := &s.groups[i]
		subtasks := g.Subtasks[:0:0]
		for _, st := range g.Subtasks {
			if !drop[st.ElementID] {
				subtasks = append(subtasks, st)
			}
		}
		if len(subtasks) != len(g.Subtasks) {
			g.Subtasks = subtasks
			g.UpdatedAt = s.now()
		}
	}
	return removed
}

// AddAttachments appends stored file references to an element's photos or documents.
// Empty references, left by failed uploads, are skipped.
func (s *Store) AddAttachments(id string, kind AttachmentKind, refs []string) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.elementIndex(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	e := &s.elements[i]
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		switch kind {
		case AttachmentPhoto:
			e.Photos = append(e.Photos, ref)
		case AttachmentDocument:
			e.Documents = append(e.Documents, ref)
		}
	}
	e.UpdatedAt = s.now()
	return e.Clone(), nil
}

// AttachmentKind selects the attachment list of an element
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// AvailableDefects resolves the selectable defects for an element's current classification
func (s *Store) AvailableDefects(id string) (models.DefectSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.elementIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	e := &s.elements[i]
	return defects.ResolveAvailableDefects(e.Name, e.Type, e.EffectiveMaterial(), s.catalog, s.custom[id]), nil
}

// EditDefects runs fn against an editing session of the element. The element and its custom
// pool are written back only when fn succeeds.
func (s *Store) EditDefects(id string, fn func(*defects.Session) error) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.elementIndex(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	session := defects.NewSession(s.catalog, s.policy, s.elements[i], s.custom[id])
	if err := fn(session); err != nil {
		return models.Element{}, err
	}
	updated := session.Element()
	updated.UpdatedAt = s.now()
	s.elements[i] = updated
	s.custom[id] = session.Custom()
	return updated.Clone(), nil
}

// EditAnnotations runs fn against the element's annotation overlay. Only elements placed in a
// space carry annotations.
func (s *Store) EditAnnotations(id string, fn func(*annotation.Overlay) error) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.elementIndex(id)
	if i < 0 {
		return models.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	e := &s.elements[i]
	if e.SpaceID == "" {
		return models.Element{}, ErrNoSpace
	}
	overlay := annotation.NewOverlay(e.Annotations)
	if err := fn(overlay); err != nil {
		return models.Element{}, err
	}
	e.Annotations = overlay.Rects()
	e.UpdatedAt = s.now()
	return e.Clone(), nil
}

func (s *Store) elementIndex(id string) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Spaces returns copies of all spaces
func (s *Store) Spaces() []models.Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSpaces(s.spaces)
}

// Space returns one space
func (s *Store) Space(id string) (models.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sp := range s.spaces {
		if sp.ID == id {
			return cloneSpace(sp), nil
		}
	}
	return models.Space{}, fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
}

// UpsertSpace stores a space, generating an id when it has none
func (s *Store) UpsertSpace(sp models.Space) (models.Space, error) {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return models.Space{}, ErrSpaceNameRequired
	}
	for _, r := range sp.Annotations {
		if !r.IsWellFormed() {
			return models.Space{}, annotation.ErrMalformedRect
		}
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if sp.ID == "" {
		sp.ID = s.newID()
	}
	sp.UpdatedAt = now
	for i := range s.spaces {
		if s.spaces[i].ID == sp.ID {
			sp.CreatedAt = s.spaces[i].CreatedAt
			s.spaces[i] = cloneSpace(sp)
			return sp, nil
		}
	}
	sp.CreatedAt = now
	s.spaces = append(s.spaces, cloneSpace(sp))
	return sp, nil
}

// ElementsInSpace returns the active elements placed in a space
func (s *Store) ElementsInSpace(spaceID string) []models.Element {
	out := []models.Element{}
	for _, e := range s.Elements(false) {
		if e.SpaceID == spaceID {
			out = append(out, e)
		}
	}
	return out
}

// DueInspection is an element whose next inspection date has passed
type DueInspection struct {
	ElementID      string     `json:"element_id"`
	Name           string     `json:"name"`
	LastInspection *time.Time `json:"last_inspection,omitempty"`
	DueDate        time.Time  `json:"due_date"`
	OverdueDays    int        `json:"overdue_days"`
}

// DueInspections lists active elements whose last completed inspection (or acquisition or
// creation date) plus the inspection interval lies at or before now, earliest first
func (s *Store) DueInspections(now time.Time) []DueInspection {
	out := []DueInspection{}
	for _, e := range s.Elements(false) {
		if e.InspectionIntervalMonths <= 0 {
			continue
		}
		last := e.LastInspection()
		base := e.CreatedAt
		switch {
		case last != nil:
			base = *last
		case e.AcquisitionDate != nil:
			base = *e.AcquisitionDate
		}
		if base.IsZero() {
			continue
		}
		due := base.AddDate(0, e.InspectionIntervalMonths, 0)
		if due.After(now) {
			continue
		}
		out = append(out, DueInspection{
			ElementID:      e.ID,
			Name:           e.Name,
			LastInspection: last,
			DueDate:        due,
			OverdueDays:    int(now.Sub(due).Hours() / 24),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

func cloneElements(in []models.Element) []models.Element {
	out := make([]models.Element, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneSpace(sp models.Space) models.Space {
	if sp.Annotations != nil {
		rects := make([]models.Rect, len(sp.Annotations))
		copy(rects, sp.Annotations)
		sp.Annotations = rects
	}
	return sp
}

func cloneSpaces(in []models.Space) []models.Space {
	out := make([]models.Space, len(in))
	for i := range in {
		out[i] = cloneSpace(in[i])
	}
	return out
}

func cloneGroups(in []models.TaskGroup) []models.TaskGroup {
	out := make([]models.TaskGroup, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Subtasks = append([]models.Subtask(nil), in[i].Subtasks...)
	}
	return out
}
