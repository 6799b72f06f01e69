package engine

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// fakeDevice is a noop device that counts object lifetimes and draws.
type fakeDevice struct {
	*noop.Device

	draws               int
	pipelines           int
	pipelinesDestroyed  int
	textures            int
	texturesDestroyed   int
	buffers             int
	buffersDestroyed    int
	bindGroups          int
	bindGroupsDestroyed int
	waitIdle            int
}

func (d *fakeDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelines++
	return d.Device.CreateRenderPipeline(desc)
}

func (d *fakeDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.pipelinesDestroyed++
	d.Device.DestroyRenderPipeline(p)
}

func (d *fakeDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.textures++
	return d.Device.CreateTexture(desc)
}

func (d *fakeDevice) DestroyTexture(t hal.Texture) {
	d.texturesDestroyed++
	d.Device.DestroyTexture(t)
}

func (d *fakeDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.buffers++
	return d.Device.CreateBuffer(desc)
}

func (d *fakeDevice) DestroyBuffer(b hal.Buffer) {
	d.buffersDestroyed++
	d.Device.DestroyBuffer(b)
}

func (d *fakeDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroups++
	return d.Device.CreateBindGroup(desc)
}

func (d *fakeDevice) DestroyBindGroup(g hal.BindGroup) {
	d.bindGroupsDestroyed++
	d.Device.DestroyBindGroup(g)
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdle++
	return d.Device.WaitIdle()
}

func (d *fakeDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &countingEncoder{CommandEncoder: enc, draws: &d.draws}, nil
}

type countingEncoder struct {
	hal.CommandEncoder
	draws *int
}

func (c *countingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	return &countingPass{RenderPassEncoder: c.CommandEncoder.BeginRenderPass(desc), draws: c.draws}
}

type countingPass struct {
	hal.RenderPassEncoder
	draws *int
}

func (p *countingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	*p.draws++
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// fakeQueue is a noop queue that can simulate device loss.
type fakeQueue struct {
	*noop.Queue

	lost          bool
	submits       int
	textureWrites int
}

func (q *fakeQueue) Submit(cbs []hal.CommandBuffer) (uint64, error) {
	if q.lost {
		return 0, hal.ErrDeviceLost
	}
	q.submits++
	return q.Queue.Submit(cbs)
}

func (q *fakeQueue) WriteBuffer(b hal.Buffer, off uint64, data []byte) error {
	if q.lost {
		return hal.ErrDeviceLost
	}
	return q.Queue.WriteBuffer(b, off, data)
}

func (q *fakeQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	if q.lost {
		return hal.ErrDeviceLost
	}
	q.textureWrites++
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func newFakes() (*fakeDevice, *fakeQueue) {
	return &fakeDevice{Device: &noop.Device{}}, &fakeQueue{Queue: &noop.Queue{}}
}

// openTestEngine opens an engine on fakes. Tests are skipped when naga
// cannot compile even the pass-through program.
func openTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeDevice, *fakeQueue) {
	t.Helper()
	dev, q := newFakes()
	all := append([]Option{WithBackend(gputypes.BackendEmpty)}, opts...)
	e, err := Open(dev, q, all...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(e.Dispose)
	if e.ActiveMode() == "" {
		t.Skip("Skipping: naga cannot compile the passthrough program")
	}
	return e, dev, q
}

// fakeProvider hands out HAL objects through the plain token accessors.
type fakeProvider struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (p *fakeProvider) Device() gpucontext.Device             { return p.device }
func (p *fakeProvider) Queue() gpucontext.Queue               { return p.queue }
func (p *fakeProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p *fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop"}
}

// halProvider returns opaque tokens from Device/Queue and the HAL objects
// from HalDevice/HalQueue.
type halProvider struct {
	fakeProvider
}

func (p *halProvider) Device() gpucontext.Device { return "token" }
func (p *halProvider) Queue() gpucontext.Queue   { return "token" }
func (p *halProvider) HalDevice() any            { return p.device }
func (p *halProvider) HalQueue() any             { return p.queue }
