package engine

import "github.com/gogpu/gpucontext"

// HandlePointer feeds a host pointer event into the mouse uniform. Move,
// down and enter events update the position, normalized by the output size
// and clamped to [0, 1]; other events are ignored.
func (e *Engine) HandlePointer(ev gpucontext.PointerEvent) {
	switch ev.Type {
	case gpucontext.PointerMove, gpucontext.PointerDown, gpucontext.PointerEnter:
	default:
		return
	}
	w, h := e.outputSize()
	if w <= 0 || h <= 0 {
		return
	}
	e.SetMouse(Point{X: ev.X / float64(w), Y: ev.Y / float64(h)})
}

// SetMouse sets the normalized mouse position used when RenderUniforms
// carries none.
func (e *Engine) SetMouse(p Point) {
	e.mouse = Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// Mouse returns the normalized mouse position.
func (e *Engine) Mouse() Point { return e.mouse }
