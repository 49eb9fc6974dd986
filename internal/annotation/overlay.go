// Package annotation keeps the ordered rectangles drawn over a space's background image
// while an element is being edited.
package annotation

import (
	"errors"

	"facility-planner/internal/models"
)

var ErrMalformedRect = errors.New("rectangle must have positive size and lie within the image")

// Overlay is an append-only list of rectangles with undo and clear
type Overlay struct {
	rects []models.Rect
}

// NewOverlay starts from a copy of existing rectangles
func NewOverlay(existing []models.Rect) *Overlay {
	o := &Overlay{rects: make([]models.Rect, 0, len(existing))}
	o.rects = append(o.rects, existing...)
	return o
}

// Append pushes r after validating it
func (o *Overlay) Append(r models.Rect) error {
	if !r.IsWellFormed() {
		return ErrMalformedRect
	}
	o.rects = append(o.rects, r)
	return nil
}

// Undo drops the last rectangle; undo on an empty overlay does nothing
func (o *Overlay) Undo() {
	if len(o.rects) > 0 {
		o.rects = o.rects[:len(o.rects)-1]
	}
}

// Clear empties the overlay
func (o *Overlay) Clear() {
	o.rects = o.rects[:0]
}

// Len returns the number of rectangles
func (o *Overlay) Len() int {
	return len(o.rects)
}

// Rects returns a copy of the rectangles in drawing order
func (o *Overlay) Rects() []models.Rect {
	out := make([]models.Rect, len(o.rects))
	copy(out, o.rects)
	return out
}
