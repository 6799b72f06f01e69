package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vdiff/mode"
	"github.com/gogpu/vdiff/shader"
)

// Engine renders one comparison mode over two input textures into a render
// target. It is not safe for concurrent use; drive it from the thread that
// owns the device.
type Engine struct {
	opts   options
	device hal.Device
	queue  hal.Queue

	state State
	lost  bool

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	uniformBuf hal.Buffer
	quadBuf    hal.Buffer
	bindGroup  hal.BindGroup

	programs  *ProgramCache
	active    *Program
	requested mode.ID
	custom    map[mode.ID]mode.Record

	slots   [2]slotTexture
	target  renderTarget
	surface *surfaceTarget

	width  int
	height int
	mouse  Point

	started    time.Time
	frames     uint64
	rendered   bool
	lastSubmit uint64
	inflight   []submission
	retired    []retirement
}

type submission struct {
	index uint64
	cmd   hal.CommandBuffer
}

type retirement struct {
	after   uint64
	release func()
}

// surfaceTarget is a host-owned view the engine renders into instead of
// its offscreen target.
type surfaceTarget struct {
	view   hal.TextureView
	width  int
	height int
}

// New creates an engine for device and queue. No GPU work happens until
// Init.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		opts:      o,
		device:    device,
		queue:     queue,
		width:     o.width,
		height:    o.height,
		mouse:     Point{X: 0.5, Y: 0.5},
		custom:    make(map[mode.ID]mode.Record),
		requested: o.initialMode,
	}
	e.programs = newProgramCache(o.programLimit, e.evicted)
	return e
}

// Open is New followed by Init.
func Open(device hal.Device, queue hal.Queue, opts ...Option) (*Engine, error) {
	e := New(device, queue, opts...)
	if err := e.Init(); err != nil {
		return nil, err
	}
	return e, nil
}

// Init creates the shared GPU objects and compiles the initial mode. It is
// a no-op on a ready engine. A failure leaves the engine uninitialized with
// every partially created object released.
func (e *Engine) Init() error {
	switch e.state {
	case StateDisposed:
		return ErrDisposed
	case StateReady, StateRendering:
		return nil
	}
	if e.device == nil || e.queue == nil {
		return ErrNilDevice
	}
	if err := e.createShared(); err != nil {
		e.release()
		return fmt.Errorf("engine: init: %w", err)
	}
	e.started = e.opts.now()
	e.state = StateReady
	e.lost = false

	if !e.SetMode(e.requested) {
		slogger().Error("engine: no program available after init", "mode", e.requested)
	}
	slogger().Debug("engine: initialized",
		"format", e.opts.format, "width", e.width, "height", e.height, "mode", e.ActiveMode())
	return nil
}

func (e *Engine) createShared() error {
	var err error
	label := e.opts.label

	e.bindLayout, err = e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: uniformSize},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture:    &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: gputypes.TextureViewDimension2D},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Texture:    &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: gputypes.TextureViewDimension2D},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	e.pipeLayout, err = e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	e.sampler, err = e.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	e.uniformBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}

	quad := quadBytes()
	e.quadBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_quad",
		Size:  uint64(len(quad)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create quad buffer: %w", err)
	}
	if err := e.queue.WriteBuffer(e.quadBuf, 0, quad); err != nil {
		return fmt.Errorf("write quad buffer: %w", err)
	}

	for _, slot := range []Slot{SlotA, SlotB} {
		if err := e.initPlaceholder(slot); err != nil {
			return err
		}
	}
	return nil
}

// lookup resolves id against the custom registrations first, then the
// catalog.
func (e *Engine) lookup(id mode.ID) (mode.Record, bool) {
	if rec, ok := e.custom[id]; ok {
		return rec, true
	}
	return mode.Lookup(id)
}

// SetMode makes id the active mode, compiling it on first use. Unknown ids
// and modes that fail to compile fall back to mode.Passthrough; the failure
// is logged once and remembered. It reports whether some program is
// active afterwards, which is false only when the fallback itself is
// unusable and nothing was active before.
func (e *Engine) SetMode(id mode.ID) bool {
	if e.state == StateUninitialized || e.state == StateDisposed {
		return false
	}
	e.requested = id
	if e.active != nil && e.active.ID == id {
		return true
	}
	if e.lost {
		return e.active != nil
	}
	rec, ok := e.lookup(id)
	if !ok {
		first := e.programs.failure(id) == nil
		err := fmt.Errorf("unknown mode %q", id)
		e.programs.markFailed(id, err)
		return e.fallback(id, err, first)
	}
	return e.activate(rec)
}

// SetCustomMode registers rec for this engine and activates it. A new
// fragment under a known id replaces the old program. Records that do not
// validate engage the fallback like a compile failure.
func (e *Engine) SetCustomMode(rec mode.Record) bool {
	if e.state == StateUninitialized || e.state == StateDisposed {
		return false
	}
	if err := mode.Validate(rec); err != nil {
		slogger().Warn("engine: custom mode rejected, using passthrough", "mode", rec.ID, "err", err)
		return e.engagePassthrough()
	}
	if rec.Name == "" {
		rec.Name = string(rec.ID)
	}
	rec.Category = mode.CategoryCustom

	if old, ok := e.custom[rec.ID]; ok && old.Fragment != rec.Fragment {
		if p, cached := e.programs.remove(rec.ID); cached {
			if p == e.active {
				e.active = nil
			}
			e.retireProgram(p)
		}
	}
	e.custom[rec.ID] = rec
	return e.SetMode(rec.ID)
}

// activate switches to rec's program, compiling it if needed.
func (e *Engine) activate(rec mode.Record) bool {
	if p, ok := e.programs.get(rec.ID); ok {
		e.active = p
		return true
	}
	if err := e.programs.failure(rec.ID); err != nil {
		return e.fallback(rec.ID, err, false)
	}
	start := time.Now()
	p, err := e.compile(rec)
	if err != nil {
		if errors.Is(err, hal.ErrDeviceLost) {
			e.markLost(err)
			return e.active != nil
		}
		e.programs.markFailed(rec.ID, err)
		return e.fallback(rec.ID, err, true)
	}
	e.programs.put(p)
	e.active = p
	slogger().Debug("engine: compiled mode", "mode", rec.ID, "elapsed", time.Since(start))
	return true
}

// fallback engages mode.Passthrough after id failed.
func (e *Engine) fallback(id mode.ID, err error, first bool) bool {
	if id == mode.Passthrough {
		slogger().Error("engine: fallback program unavailable", "err", err)
		return e.active != nil
	}
	if first {
		slogger().Warn("engine: mode unavailable, using passthrough", "mode", id, "err", err)
	} else {
		slogger().Debug("engine: mode previously failed, using passthrough", "mode", id)
	}
	return e.engagePassthrough()
}

func (e *Engine) engagePassthrough() bool {
	if e.active != nil && e.active.ID == mode.Passthrough {
		return true
	}
	rec, _ := mode.Lookup(mode.Passthrough)
	return e.activate(rec)
}

// compile builds the shader module and render pipeline for rec. WGSL is
// always compiled to SPIR-V first, so broken modes are detected on every
// backend.
func (e *Engine) compile(rec mode.Record) (*Program, error) {
	src := mode.Source(rec)
	words, err := shader.Compile(src)
	if err != nil {
		return nil, err
	}
	label := e.opts.label + "_" + string(rec.ID)

	module, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: e.shaderSource(src, words),
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	pipeline, err := e.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: e.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: mode.VertexEntryPoint,
			Buffers:    []gputypes.VertexBufferLayout{quadLayout},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: mode.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    e.opts.format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		e.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	return &Program{ID: rec.ID, module: module, pipeline: pipeline}, nil
}

func (e *Engine) shaderSource(wgsl string, spirv []uint32) hal.ShaderSource {
	if !e.opts.backendSet {
		return hal.ShaderSource{WGSL: wgsl, SPIRV: spirv}
	}
	switch e.opts.backend {
	case gputypes.BackendVulkan, gputypes.BackendEmpty:
		return hal.ShaderSource{SPIRV: spirv}
	default:
		return hal.ShaderSource{WGSL: wgsl}
	}
}

// evicted is the program cache's eviction hook.
func (e *Engine) evicted(p *Program) {
	if p == e.active {
		return
	}
	slogger().Debug("engine: evicted program", "mode", p.ID)
	e.retireProgram(p)
}

func (e *Engine) retireProgram(p *Program) {
	e.retire(func() { p.destroy(e.device) })
}

// Resize sets the canvas size in pixels. Non-positive or non-finite
// dimensions are ignored; others are rounded and raised to MinDimension.
// The target is reallocated on the next Render.
func (e *Engine) Resize(width, height float64) {
	if e.state == StateDisposed {
		return
	}
	if !validDimension(width) || !validDimension(height) {
		slogger().Debug("engine: ignored resize", "width", width, "height", height)
		return
	}
	e.width = max(int(math.Round(width)), MinDimension)
	e.height = max(int(math.Round(height)), MinDimension)
}

func validDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Size returns the canvas size.
func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// outputSize is the size of whatever Render draws into.
func (e *Engine) outputSize() (int, int) {
	if e.surface != nil {
		return e.surface.width, e.surface.height
	}
	return e.width, e.height
}

// Render draws one frame of the active mode. It returns ErrDisposed or
// ErrNotInitialized for unusable engines and ErrNoProgram when no program
// could ever be compiled. On a lost device it does nothing and returns nil.
func (e *Engine) Render(u RenderUniforms) error {
	switch e.state {
	case StateDisposed:
		return ErrDisposed
	case StateUninitialized:
		return ErrNotInitialized
	case StateRendering:
		return fmt.Errorf("engine: render re-entered")
	}
	if e.lost {
		return nil
	}
	if e.active == nil {
		return ErrNoProgram
	}

	e.state = StateRendering
	defer func() {
		if e.state == StateRendering {
			e.state = StateReady
		}
	}()

	e.reclaim()

	view, w, h, err := e.ensureTarget()
	if err != nil {
		return e.absorb(err, "render target")
	}
	if err := e.ensureBindGroup(); err != nil {
		return e.absorb(err, "bind group")
	}

	p := u.resolve(e.mouse, e.elapsed())
	p.resolution = [2]float32{float32(w), float32(h)}
	p.texASize = [2]float32{float32(e.slots[SlotA].width), float32(e.slots[SlotA].height)}
	p.texBSize = [2]float32{float32(e.slots[SlotB].width), float32(e.slots[SlotB].height)}
	if err := e.queue.WriteBuffer(e.uniformBuf, 0, p.bytes()); err != nil {
		return e.absorb(err, "write uniforms")
	}

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: e.opts.label + "_frame"})
	if err != nil {
		return e.absorb(err, "create command encoder")
	}
	if err := encoder.BeginEncoding(e.opts.label + "_frame"); err != nil {
		return e.absorb(err, "begin encoding")
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: e.opts.label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{A: 1},
		}},
	})
	rp.SetPipeline(e.active.pipeline)
	rp.SetBindGroup(0, e.bindGroup, nil)
	rp.SetVertexBuffer(0, e.quadBuf, 0)
	rp.Draw(quadVertexCount, 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return e.absorb(err, "end encoding")
	}
	idx, err := e.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		e.device.FreeCommandBuffer(cmd)
		return e.absorb(err, "submit")
	}
	e.inflight = append(e.inflight, submission{index: idx, cmd: cmd})
	e.lastSubmit = idx
	e.frames++
	if e.surface == nil {
		e.rendered = true
	}
	return nil
}

func (e *Engine) elapsed() float64 {
	if e.started.IsZero() {
		return 0
	}
	return e.opts.now().Sub(e.started).Seconds()
}

// ensureTarget returns the view to draw into, reallocating the offscreen
// target when the canvas size changed.
func (e *Engine) ensureTarget() (hal.TextureView, int, int, error) {
	if e.surface != nil {
		return e.surface.view, e.surface.width, e.surface.height, nil
	}
	if e.target.tex != nil && e.target.width == e.width && e.target.height == e.height {
		return e.target.view, e.width, e.height, nil
	}
	tex, view, err := createTexture(e.device, e.opts.label+"_target", e.width, e.height, e.opts.format,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc|gputypes.TextureUsageTextureBinding)
	if err != nil {
		return nil, 0, 0, err
	}
	if e.target.tex != nil {
		old := e.target
		e.retire(func() { old.release(e.device) })
	}
	e.target = renderTarget{tex: tex, view: view, width: e.width, height: e.height}
	e.rendered = false
	slogger().Debug("engine: allocated target", "width", e.width, "height", e.height)
	return view, e.width, e.height, nil
}

func (e *Engine) invalidateBindGroup() {
	if e.bindGroup == nil {
		return
	}
	old := e.bindGroup
	e.bindGroup = nil
	e.retire(func() { e.device.DestroyBindGroup(old) })
}

func (e *Engine) ensureBindGroup() error {
	if e.bindGroup != nil {
		return nil
	}
	bg, err := e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  e.opts.label + "_bind_group",
		Layout: e.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: e.uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: e.slots[SlotA].view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: e.slots[SlotB].view.NativeHandle()}},
			{Binding: 3, Resource: gputypes.SamplerBinding{Sampler: e.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	e.bindGroup = bg
	return nil
}

// retire defers release until the GPU has finished every submission made
// so far.
func (e *Engine) retire(release func()) {
	e.retired = append(e.retired, retirement{after: e.lastSubmit, release: release})
}

// reclaim frees command buffers and retired objects whose submissions
// have completed.
func (e *Engine) reclaim() {
	if e.queue == nil {
		return
	}
	done := e.queue.PollCompleted()

	pending := e.inflight[:0]
	for _, s := range e.inflight {
		if s.index <= done {
			e.device.FreeCommandBuffer(s.cmd)
			continue
		}
		pending = append(pending, s)
	}
	clear(e.inflight[len(pending):])
	e.inflight = pending

	waiting := e.retired[:0]
	for _, r := range e.retired {
		if r.after <= done {
			r.release()
			continue
		}
		waiting = append(waiting, r)
	}
	clear(e.retired[len(waiting):])
	e.retired = waiting
}

// absorb turns a device loss into a silent lost state and wraps anything
// else.
func (e *Engine) absorb(err error, what string) error {
	if errors.Is(err, hal.ErrDeviceLost) {
		e.markLost(err)
		return nil
	}
	return fmt.Errorf("engine: %s: %w", what, err)
}

// report is absorb for operations that cannot return an error.
func (e *Engine) report(err error, what string) {
	if err = e.absorb(err, what); err != nil {
		slogger().Warn("engine: "+what+" failed", "err", err)
	}
}

func (e *Engine) markLost(err error) {
	if e.lost {
		return
	}
	e.lost = true
	slogger().Warn("engine: device lost", "err", err)
}

// MarkContextLost puts the engine in the lost state, in which Render and
// UpdateTexture do nothing until Reinitialize. Hosts call it when their
// surface or device reports loss out of band.
func (e *Engine) MarkContextLost() {
	e.markLost(hal.ErrDeviceLost)
}

// Lost reports whether the device is lost.
func (e *Engine) Lost() bool { return e.lost }

// Reinitialize rebuilds every GPU object after a loss, on a new device and
// queue or, when both are nil, on the current ones. The requested mode and
// the last source of each slot are restored.
func (e *Engine) Reinitialize(device hal.Device, queue hal.Queue) error {
	if e.state == StateDisposed {
		return ErrDisposed
	}
	e.release()
	if device != nil {
		e.device = device
	}
	if queue != nil {
		e.queue = queue
	}
	sources := [2]Source{e.slots[SlotA].source, e.slots[SlotB].source}
	e.slots = [2]slotTexture{}
	e.state = StateUninitialized
	e.lost = false

	if err := e.Init(); err != nil {
		return err
	}
	for i, src := range sources {
		if src != nil {
			e.UpdateTexture(Slot(i), src)
		}
	}
	slogger().Info("engine: reinitialized", "mode", e.ActiveMode())
	return nil
}

// Dispose releases every GPU object the engine created. It waits for the
// device to go idle first and is safe to call more than once. The device
// and queue are not destroyed.
func (e *Engine) Dispose() {
	if e.state == StateDisposed {
		return
	}
	e.release()
	e.state = StateDisposed
	slogger().Debug("engine: disposed", "frames", e.frames)
}

// release destroys all GPU objects, in reverse creation order, exactly
// once.
func (e *Engine) release() {
	if e.device == nil {
		return
	}
	if err := e.device.WaitIdle(); err != nil {
		slogger().Debug("engine: wait idle before release", "err", err)
	}
	for _, s := range e.inflight {
		e.device.FreeCommandBuffer(s.cmd)
	}
	e.inflight = nil
	for _, r := range e.retired {
		r.release()
	}
	e.retired = nil

	if e.bindGroup != nil {
		e.device.DestroyBindGroup(e.bindGroup)
		e.bindGroup = nil
	}
	for _, p := range e.programs.drain() {
		p.destroy(e.device)
	}
	if e.active != nil {
		e.active.destroy(e.device)
		e.active = nil
	}
	e.target.release(e.device)
	e.surface = nil
	e.rendered = false
	for i := range e.slots {
		e.slots[i].release(e.device)
	}
	if e.quadBuf != nil {
		e.device.DestroyBuffer(e.quadBuf)
		e.quadBuf = nil
	}
	if e.uniformBuf != nil {
		e.device.DestroyBuffer(e.uniformBuf)
		e.uniformBuf = nil
	}
	if e.sampler != nil {
		e.device.DestroySampler(e.sampler)
		e.sampler = nil
	}
	if e.pipeLayout != nil {
		e.device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		e.device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// ActiveMode returns the mode of the active program, which differs from
// RequestedMode while the fallback is engaged. It is empty when nothing is
// active.
func (e *Engine) ActiveMode() mode.ID {
	if e.active == nil {
		return ""
	}
	return e.active.ID
}

// RequestedMode returns the id most recently passed to SetMode or
// SetCustomMode.
func (e *Engine) RequestedMode() mode.ID { return e.requested }

// Programs exposes the compiled program cache for inspection.
func (e *Engine) Programs() *ProgramCache { return e.programs }

// Frames returns the number of frames submitted.
func (e *Engine) Frames() uint64 { return e.frames }

// Format returns the render target format.
func (e *Engine) Format() gputypes.TextureFormat { return e.opts.format }
