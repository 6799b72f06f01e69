package metrics

import (
	"image"
	"math"
)

// ROI is a normalized region of interest: X, Y, Width and Height are
// fractions of the frame, (0, 0) top-left. A nil *ROI means the full frame.
type ROI struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Full is the ROI covering the whole frame.
var Full = ROI{Width: 1, Height: 1}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

// Clamp returns r with its origin in [0,1] and its extent trimmed so the
// rectangle stays inside the frame.
func (r ROI) Clamp() ROI {
	x, y := unit(r.X), unit(r.Y)
	return ROI{
		X:      x,
		Y:      y,
		Width:  math.Min(unit(r.Width), 1-x),
		Height: math.Min(unit(r.Height), 1-y),
	}
}

// Empty reports whether the clamped region has no area.
func (r ROI) Empty() bool {
	c := r.Clamp()
	return c.Width <= 0 || c.Height <= 0
}

// Rect maps the clamped region onto a width×height pixel grid:
// floor(X·width) up to, not including, floor((X+Width)·width).
func (r ROI) Rect(width, height int) image.Rectangle {
	c := r.Clamp()
	x0 := int(math.Floor(c.X * float64(width)))
	y0 := int(math.Floor(c.Y * float64(height)))
	x1 := int(math.Floor((c.X + c.Width) * float64(width)))
	y1 := int(math.Floor((c.Y + c.Height) * float64(height)))
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, width, height))
}

// FromRect converts a pixel rectangle on a width×height frame to a
// normalized ROI, as a selection tool would.
func FromRect(rect image.Rectangle, width, height int) ROI {
	if width <= 0 || height <= 0 {
		return ROI{}
	}
	rect = rect.Canon()
	fw, fh := float64(width), float64(height)
	return ROI{
		X:      float64(rect.Min.X) / fw,
		Y:      float64(rect.Min.Y) / fh,
		Width:  float64(rect.Dx()) / fw,
		Height: float64(rect.Dy()) / fh,
	}.Clamp()
}
