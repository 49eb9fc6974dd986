package models

import "time"

// MaterialOther marks a free-text material held in CustomMaterial
const MaterialOther = "Other"

// Element is a maintainable building component instance
type Element struct {
	ID string `gorm:"type:varchar(64);primaryKey" json:"id"`

	// Classification. Name links to a catalog entry.
	Name           string `gorm:"type:varchar(255);not null;index" json:"name"`
	Type           string `gorm:"type:varchar(255)" json:"type,omitempty"`
	Material       string `gorm:"type:varchar(255)" json:"material,omitempty"`
	CustomMaterial string `gorm:"type:varchar(255)" json:"custom_material,omitempty"`

	Description              string     `gorm:"type:text" json:"description,omitempty"`
	InspectionIntervalMonths int        `gorm:"type:int" json:"inspection_interval_months,omitempty"`
	Categories               []string   `gorm:"type:text;serializer:json" json:"categories,omitempty"`
	LifetimeYears            int        `gorm:"type:int" json:"lifetime_years,omitempty"`
	AcquisitionDate          *time.Time `gorm:"type:datetime" json:"acquisition_date,omitempty"`
	ReplacementCost          float64    `gorm:"type:decimal(12,2)" json:"replacement_cost,omitempty"`

	Photos    []string `gorm:"type:text;serializer:json" json:"photos,omitempty"`
	Documents []string `gorm:"type:text;serializer:json" json:"documents,omitempty"`

	Defects     DefectSet          `gorm:"type:text;serializer:json" json:"defects"`
	Tasks       []Task             `gorm:"type:text;serializer:json" json:"tasks"`
	Inspections []InspectionReport `gorm:"type:text;serializer:json" json:"inspections,omitempty"`
	Annotations []Rect             `gorm:"type:text;serializer:json" json:"annotations,omitempty"`

	SpaceID string `gorm:"type:varchar(64);index" json:"space_id,omitempty"`

	// Soft delete
	Status     ElementStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ArchivedAt *time.Time    `gorm:"type:datetime" json:"archived_at,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// InspectionReport is one recorded inspection of an element
type InspectionReport struct {
	Description string     `json:"description"`
	Done        bool       `json:"done"`
	Date        *time.Time `json:"date,omitempty"`
	Defects     DefectSet  `json:"defects,omitempty"`
	Mistakes    []string   `json:"mistakes,omitempty"`
}

// ElementStatus is the lifecycle state of an element
type ElementStatus string

const (
	ElementStatusActive   ElementStatus = "active"
	ElementStatusArchived ElementStatus = "archived"
)

func (Element) TableName() string {
	return "elements"
}

// IsActive reports whether the element has not been archived
func (e *Element) IsActive() bool {
	return e.Status == "" || e.Status == ElementStatusActive
}

// MarkAsArchived soft-deletes the element
func (e *Element) MarkAsArchived(now time.Time) {
	e.Status = ElementStatusArchived
	e.ArchivedAt = &now
}

// EffectiveMaterial returns the custom material when Material is "Other"
func (e *Element) EffectiveMaterial() string {
	if e.Material == MaterialOther {
		return e.CustomMaterial
	}
	return e.Material
}

// LastInspection returns the date of the most recent completed inspection, or nil
func (e *Element) LastInspection() *time.Time {
	var last *time.Time
	for i := range e.Inspections {
		r := &e.Inspections[i]
		if !r.Done || r.Date == nil {
			continue
		}
		if last == nil || r.Date.After(*last) {
			last = r.Date
		}
	}
	return last
}

// Clone returns a deep copy so callers can mutate without sharing slices or maps
func (e Element) Clone() Element {
	out := e
	out.Categories = cloneStrings(e.Categories)
	out.Photos = cloneStrings(e.Photos)
	out.Documents = cloneStrings(e.Documents)
	if e.Defects != nil {
		out.Defects = e.Defects.Clone()
	}
	if e.Tasks != nil {
		out.Tasks = make([]Task, len(e.Tasks))
		copy(out.Tasks, e.Tasks)
	}
	if e.Inspections != nil {
		out.Inspections = make([]InspectionReport, len(e.Inspections))
		for i, r := range e.Inspections {
			cp := r
			if r.Defects != nil {
				cp.Defects = r.Defects.Clone()
			}
			cp.Mistakes = cloneStrings(r.Mistakes)
			out.Inspections[i] = cp
		}
	}
	if e.Annotations != nil {
		out.Annotations = make([]Rect, len(e.Annotations))
		copy(out.Annotations, e.Annotations)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
