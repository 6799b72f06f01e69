package engine

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vdiff/mode"
)

// Default canvas size used when WithSize is not given.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// MinDimension is the smallest canvas edge Resize accepts.
const MinDimension = 100

// Option configures an Engine during creation.
//
// Example:
//
//	e := engine.New(device, queue,
//	    engine.WithSize(1920, 1080),
//	    engine.WithInitialMode(mode.Heatmap),
//	    engine.WithProgramLimit(8))
type Option func(*options)

type options struct {
	format       gputypes.TextureFormat
	backend      gputypes.Backend
	backendSet   bool
	width        int
	height       int
	initialMode  mode.ID
	programLimit int
	now          func() time.Time
	label        string
}

func defaultOptions() options {
	return options{
		format:      gputypes.TextureFormatRGBA8Unorm,
		width:       DefaultWidth,
		height:      DefaultHeight,
		initialMode: mode.Default,
		now:         time.Now,
		label:       "vdiff",
	}
}

// WithFormat sets the render target format. Use the surface format when the
// target will be handed to a compositor. Defaults to RGBA8Unorm.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		if f != gputypes.TextureFormatUndefined {
			o.format = f
		}
	}
}

// WithBackend tells the engine which HAL backend the device belongs to, so
// shader modules carry only the representation that backend consumes:
// SPIR-V for Vulkan and noop, WGSL for Metal, DX12 and GL. When unset both
// are supplied.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) {
		o.backend = b
		o.backendSet = true
	}
}

// WithSize sets the initial canvas size. The same rules as Resize apply.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width = max(width, MinDimension)
			o.height = max(height, MinDimension)
		}
	}
}

// WithInitialMode selects the mode compiled by Init. Defaults to
// mode.Default.
func WithInitialMode(id mode.ID) Option {
	return func(o *options) {
		if id != "" {
			o.initialMode = id
		}
	}
}

// WithProgramLimit caps the number of compiled programs kept per engine.
// Least recently used programs are destroyed first; the active program is
// never evicted. If 0, programs are never evicted. Values below 2 are
// raised to 2 so the fallback and one mode can coexist.
func WithProgramLimit(n int) Option {
	return func(o *options) {
		switch {
		case n <= 0:
			o.programLimit = 0
		case n < 2:
			o.programLimit = 2
		default:
			o.programLimit = n
		}
	}
}

// WithClock replaces time.Now as the source of the elapsed-time uniform.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLabel prefixes the debug labels of every GPU object the engine
// creates. Defaults to "vdiff".
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
