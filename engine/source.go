package engine

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Slot selects one of the two compared textures.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// Source supplies pixels for a texture slot.
//
// Pixels returns tightly packed, row-major RGBA8 data in image.RGBA layout,
// at least width*height*4 bytes. A source that is not Ready (a video that
// has not decoded its first frame, an image still loading) is skipped and
// the slot keeps its previous contents.
type Source interface {
	Ready() bool
	Size() (width, height int)
	Pixels() []byte
}

// snapshotter is implemented by sources whose size and pixels may change
// between the Size and Pixels calls.
type snapshotter interface {
	Snapshot() (width, height int, pix []byte, ok bool)
}

// versioned is implemented by sources that can tell whether their content
// changed since the last upload.
type versioned interface {
	Version() uint64
}

// ImageSource is a Source backed by a decoded image. It is always ready.
// After editing the pixels returned by Image, call Touch so the next
// UpdateTexture uploads them again.
type ImageSource struct {
	img   *image.RGBA
	edits atomic.Uint64
}

// NewImageSource converts img to tightly packed RGBA. If img is already a
// tightly packed *image.RGBA anchored at the origin it is used as is.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: toRGBA(img)}
}

// NewImageSourceMax is NewImageSource with the longer edge limited to
// maxDim pixels. Larger images are scaled down with Catmull-Rom, keeping
// the aspect ratio. maxDim <= 0 disables scaling.
func NewImageSourceMax(img image.Image, maxDim int) *ImageSource {
	if img == nil {
		return &ImageSource{}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return NewImageSource(img)
	}
	scale := float64(maxDim) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale+0.5))
	dh := max(1, int(float64(h)*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return &ImageSource{img: dst}
}

func toRGBA(img image.Image) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Ready reports whether the image holds at least one pixel.
func (s *ImageSource) Ready() bool {
	return s != nil && s.img != nil && !s.img.Rect.Empty()
}

// Size returns the image dimensions.
func (s *ImageSource) Size() (int, int) {
	if s == nil || s.img == nil {
		return 0, 0
	}
	return s.img.Rect.Dx(), s.img.Rect.Dy()
}

// Pixels returns the RGBA bytes.
func (s *ImageSource) Pixels() []byte {
	if s == nil || s.img == nil {
		return nil
	}
	return s.img.Pix
}

// Image returns the converted image. It shares memory with the source.
func (s *ImageSource) Image() *image.RGBA { return s.img }

// Touch marks the image as modified.
func (s *ImageSource) Touch() { s.edits.Add(1) }

// Version starts at 1 and increments on every Touch.
func (s *ImageSource) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.edits.Load() + 1
}

// ErrShortFrame is returned by FrameSource.Push for undersized buffers.
var ErrShortFrame = errors.New("engine: frame buffer shorter than width*height*4")

// FrameSource is a Source fed by a decoder goroutine, typically one video
// frame at a time. Push and the engine's reads may run concurrently.
type FrameSource struct {
	mu      sync.RWMutex
	width   int
	height  int
	pix     []byte
	version uint64
}

// NewFrameSource returns an empty, not yet ready FrameSource.
func NewFrameSource() *FrameSource {
	return &FrameSource{}
}

// Push stores a copy of one RGBA frame.
func (f *FrameSource) Push(width, height int, pix []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("engine: invalid frame size %dx%d", width, height)
	}
	n := width * height * 4
	if len(pix) < n {
		return fmt.Errorf("%w: got %d, need %d", ErrShortFrame, len(pix), n)
	}
	buf := make([]byte, n)
	copy(buf, pix[:n])

	f.mu.Lock()
	f.width, f.height, f.pix = width, height, buf
	f.version++
	f.mu.Unlock()
	return nil
}

// PushImage converts img to RGBA and stores it as the current frame.
func (f *FrameSource) PushImage(img image.Image) error {
	rgba := toRGBA(img)
	if rgba == nil {
		return fmt.Errorf("engine: nil image")
	}
	return f.Push(rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Pix)
}

// Reset drops the current frame; the source reports not ready until the
// next Push.
func (f *FrameSource) Reset() {
	f.mu.Lock()
	f.width, f.height, f.pix = 0, 0, nil
	f.version++
	f.mu.Unlock()
}

// Ready reports whether a frame has been pushed.
func (f *FrameSource) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pix != nil
}

// Size returns the current frame size.
func (f *FrameSource) Size() (int, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.width, f.height
}

// Pixels returns the current frame. The slice is never written again.
func (f *FrameSource) Pixels() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pix
}

// Snapshot returns size and pixels of one consistent frame.
func (f *FrameSource) Snapshot() (int, int, []byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.width, f.height, f.pix, f.pix != nil
}

// Version increments on every Push and Reset.
func (f *FrameSource) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// readSource returns a consistent frame from src, or ok=false when the
// slot must keep its previous contents.
func readSource(src Source) (w, h int, pix []byte, ok bool) {
	if src == nil {
		return 0, 0, nil, false
	}
	if s, isSnap := src.(snapshotter); isSnap {
		w, h, pix, ok = s.Snapshot()
	} else {
		if !src.Ready() {
			return 0, 0, nil, false
		}
		w, h = src.Size()
		pix, ok = src.Pixels(), true
	}
	if !ok || w <= 0 || h <= 0 || len(pix) < w*h*4 {
		return 0, 0, nil, false
	}
	return w, h, pix[:w*h*4], true
}
