package models

import "math"

// Rect is a rectangle on a background image, normalized to the 0..1 range
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsWellFormed reports whether the rectangle has a positive size and lies inside the unit square
func (r Rect) IsWellFormed() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return false
	}
	return r.X+r.Width <= 1 && r.Y+r.Height <= 1
}
