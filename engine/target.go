package engine

import (
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment CopyTextureToBuffer requires.
const copyPitchAlignment = 256

// SetSurfaceTarget makes Render draw into a host-owned view, typically the
// current swapchain texture, instead of the offscreen target. The view must
// use the engine's format. Pass a nil view to return to offscreen
// rendering. The engine never destroys the view.
func (e *Engine) SetSurfaceTarget(view hal.TextureView, width, height int) {
	if view == nil || width <= 0 || height <= 0 {
		e.surface = nil
		return
	}
	e.surface = &surfaceTarget{view: view, width: width, height: height}
	e.width, e.height = max(width, MinDimension), max(height, MinDimension)
}

// Target returns the view the next frame is drawn into, or nil before the
// first Render.
func (e *Engine) Target() hal.TextureView {
	if e.surface != nil {
		return e.surface.view
	}
	return e.target.view
}

// Readback copies the last rendered frame out of the offscreen target.
// It blocks until the GPU is idle and fails with ErrSurfaceTarget when
// rendering to a surface, and with ErrNoFrame before the first frame at the
// current size.
func (e *Engine) Readback() (*image.RGBA, error) {
	switch {
	case e.state == StateDisposed:
		return nil, ErrDisposed
	case e.state == StateUninitialized:
		return nil, ErrNotInitialized
	case e.lost:
		return nil, ErrContextLost
	case e.surface != nil:
		return nil, ErrSurfaceTarget
	case !e.rendered || e.target.tex == nil || e.target.width != e.width || e.target.height != e.height:
		return nil, ErrNoFrame
	}

	w, h := uint32(e.target.width), uint32(e.target.height)
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: e.opts.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, e.readbackErr(err, "create staging buffer")
	}
	defer e.device.DestroyBuffer(staging)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: e.opts.label + "_readback"})
	if err != nil {
		return nil, e.readbackErr(err, "create command encoder")
	}
	if err := encoder.BeginEncoding(e.opts.label + "_readback"); err != nil {
		return nil, e.readbackErr(err, "begin encoding")
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: e.target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(e.target.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: e.target.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	// Back to RenderAttachment for the next frame's pass.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: e.target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, e.readbackErr(err, "end encoding")
	}
	defer e.device.FreeCommandBuffer(cmd)

	idx, err := e.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return nil, e.readbackErr(err, "submit")
	}
	e.lastSubmit = idx
	if err := e.device.WaitIdle(); err != nil {
		return nil, e.readbackErr(err, "wait idle")
	}

	mapping, err := e.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, e.readbackErr(err, "map staging buffer")
	}
	raw := unsafe.Slice((*byte)(mapping.Ptr), size)

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := uint32(0); row < h; row++ {
		src := raw[uint64(row)*uint64(alignedBytesPerRow):][:bytesPerRow]
		copy(img.Pix[int(row)*img.Stride:], src)
	}
	if err := e.device.UnmapBuffer(staging); err != nil {
		slogger().Debug("engine: unmap staging buffer", "err", err)
	}
	if isBGRA(e.opts.format) {
		swapRedBlue(img.Pix)
	}
	e.reclaim()
	return img, nil
}

func (e *Engine) readbackErr(err error, what string) error {
	if wrapped := e.absorb(err, "readback: "+what); wrapped != nil {
		return wrapped
	}
	return ErrContextLost
}

func isBGRA(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatBGRA8UnormSrgb
}

// swapRedBlue converts BGRA rows to RGBA in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
