package engine

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// slotTexture is the GPU texture bound to one input slot.
type slotTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int

	// placeholder is set while the slot holds the 1×1 transparent texel
	// created at init.
	placeholder bool

	// source and version identify the last uploaded frame.
	source  Source
	version uint64
	uploads uint64
}

// release destroys the texture and view immediately.
func (s *slotTexture) release(device hal.Device) {
	if s.view != nil {
		device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		device.DestroyTexture(s.tex)
		s.tex = nil
	}
	s.width, s.height = 0, 0
}

// renderTarget is an engine-owned offscreen color attachment.
type renderTarget struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
}

func (t *renderTarget) release(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width, t.height = 0, 0
}

// createTexture allocates a single-mip 2D texture and its default view.
func createTexture(device hal.Device, label string, w, h int, format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create texture view %s: %w", label, err)
	}
	return tex, view, nil
}

// writeRGBA uploads tightly packed RGBA8 rows into tex.
func writeRGBA(queue hal.Queue, tex hal.Texture, w, h int, pix []byte) error {
	return queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		pix,
		&hal.ImageDataLayout{BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
}

const inputUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst

// ensureSlot makes slot's texture exactly w×h, reallocating when the
// dimensions change. The old texture is retired, not destroyed, because an
// in-flight frame may still sample it.
func (e *Engine) ensureSlot(slot Slot, w, h int) error {
	s := &e.slots[slot]
	if s.tex != nil && s.width == w && s.height == h {
		return nil
	}
	label := fmt.Sprintf("%s_input_%s", e.opts.label, slot)
	tex, view, err := createTexture(e.device, label, w, h, gputypes.TextureFormatRGBA8Unorm, inputUsage)
	if err != nil {
		return err
	}
	if s.tex != nil {
		oldTex, oldView := s.tex, s.view
		e.retire(func() {
			e.device.DestroyTextureView(oldView)
			e.device.DestroyTexture(oldTex)
		})
	}
	s.tex, s.view, s.width, s.height = tex, view, w, h
	e.invalidateBindGroup()
	return nil
}

// initPlaceholder gives slot a 1×1 transparent texture so the bind group
// is valid before any real upload.
func (e *Engine) initPlaceholder(slot Slot) error {
	if err := e.ensureSlot(slot, 1, 1); err != nil {
		return err
	}
	s := &e.slots[slot]
	if err := writeRGBA(e.queue, s.tex, 1, 1, make([]byte, 4)); err != nil {
		return fmt.Errorf("clear %s placeholder: %w", slot, err)
	}
	s.placeholder = true
	s.version = 0
	return nil
}

// UpdateTexture uploads the current frame of src into slot. Sources that
// are not ready, report a non-positive size or carry fewer than
// width·height·4 bytes leave the slot untouched. Uploads for an unchanged
// versioned source are skipped. UpdateTexture never fails loudly: GPU
// errors are logged and a lost device marks the engine lost.
func (e *Engine) UpdateTexture(slot Slot, src Source) {
	if slot != SlotA && slot != SlotB {
		slogger().Debug("engine: update on unknown slot ignored", "slot", int(slot))
		return
	}
	if e.state == StateUninitialized || e.state == StateDisposed {
		return
	}
	s := &e.slots[slot]
	sameSource := identical(s.source, src)
	if src != nil {
		s.source = src
	}
	if e.lost {
		return
	}
	w, h, pix, ok := readSource(src)
	if !ok {
		return
	}
	var version uint64
	if v, isVersioned := src.(versioned); isVersioned {
		version = v.Version()
		if sameSource && !s.placeholder && version == s.version && s.width == w && s.height == h {
			return
		}
	}
	if err := e.ensureSlot(slot, w, h); err != nil {
		e.report(err, "upload "+slot.String())
		return
	}
	if err := writeRGBA(e.queue, s.tex, w, h, pix); err != nil {
		e.report(err, "upload "+slot.String())
		return
	}
	s.placeholder = false
	s.version = version
	s.uploads++
}

// TextureSize returns the native size of the texture in slot, or 0, 0 when
// no upload happened yet.
func (e *Engine) TextureSize(slot Slot) (int, int) {
	if slot != SlotA && slot != SlotB {
		return 0, 0
	}
	s := &e.slots[slot]
	if s.placeholder || s.tex == nil {
		return 0, 0
	}
	return s.width, s.height
}

// identical compares sources by identity. Sources of non-comparable
// dynamic types never match.
func identical(a, b Source) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
