package annotation

import (
	"reflect"
	"testing"

	"facility-planner/internal/models"
)

func TestOverlayAppendUndoClear(t *testing.T) {
	o := NewOverlay(nil)
	a := models.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
	b := models.Rect{X: 0.5, Y: 0.5, Width: 0.3, Height: 0.1}

	if err := o.Append(a); err != nil {
		t.Fatal(err)
	}
	if err := o.Append(b); err != nil {
		t.Fatal(err)
	}
	if got := o.Rects(); !reflect.DeepEqual(got, []models.Rect{a, b}) {
		t.Errorf("Rects = %v", got)
	}

	o.Undo()
	if got := o.Rects(); !reflect.DeepEqual(got, []models.Rect{a}) {
		t.Errorf("after Undo = %v", got)
	}

	o.Clear()
	if o.Len() != 0 {
		t.Errorf("after Clear Len = %d", o.Len())
	}
	o.Undo()
	if o.Len() != 0 {
		t.Error("Undo on empty overlay changed it")
	}
}

func TestOverlayRejectsMalformed(t *testing.T) {
	o := NewOverlay([]models.Rect{{X: 0, Y: 0, Width: 0.5, Height: 0.5}})
	bad := []models.Rect{
		{X: 0.9, Y: 0.1, Width: 0.2, Height: 0.1},
		{X: 0.1, Y: 0.1, Width: 0, Height: 0.1},
		{X: -0.1, Y: 0.1, Width: 0.1, Height: 0.1},
	}
	for _, r := range bad {
		if err := o.Append(r); err != ErrMalformedRect {
			t.Errorf("Append(%+v) = %v", r, err)
		}
	}
	if o.Len() != 1 {
		t.Errorf("rejected rects were stored: %d", o.Len())
	}
}

func TestOverlayCopiesInput(t *testing.T) {
	existing := []models.Rect{{X: 0, Y: 0, Width: 0.5, Height: 0.5}}
	o := NewOverlay(existing)
	o.Clear()
	if existing[0].Width != 0.5 {
		t.Error("overlay aliased caller slice")
	}
	o.Append(models.Rect{X: 0, Y: 0, Width: 0.1, Height: 0.1})
	got := o.Rects()
	got[0].Width = 0.9
	if o.Rects()[0].Width != 0.1 {
		t.Error("Rects returned internal storage")
	}
}
