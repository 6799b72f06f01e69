package engine

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// NewFromProvider creates an engine on the device a host application
// already owns. The provider must expose HAL types, either through
// HalDevice/HalQueue accessors or by returning them from Device and Queue
// directly. The surface format becomes the target format unless opts
// override it. The engine is returned uninitialized.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, ErrNilDevice
	}
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return nil, err
	}

	info := provider.AdapterInfo()
	slogger().Info("engine: using host device", "adapter", info.Name, "type", info.Type)

	all := make([]Option, 0, len(opts)+1)
	all = append(all, WithFormat(provider.SurfaceFormat()))
	all = append(all, opts...)
	return New(device, queue, all...), nil
}

func halFromProvider(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var dev, q any
	if hp, ok := provider.(halProvider); ok {
		dev, q = hp.HalDevice(), hp.HalQueue()
	} else {
		dev, q = provider.Device(), provider.Queue()
	}
	device, ok := dev.(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("engine: provider device is %T, not hal.Device", dev)
	}
	queue, ok := q.(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("engine: provider queue is %T, not hal.Queue", q)
	}
	return device, queue, nil
}
