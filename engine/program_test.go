package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gogpu/vdiff/mode"
)

func TestProgramCache(t *testing.T) {
	var evicted []mode.ID
	c := newProgramCache(2, func(p *Program) { evicted = append(evicted, p.ID) })

	c.put(&Program{ID: mode.Difference})
	c.put(&Program{ID: mode.Heatmap})
	if _, ok := c.get(mode.Difference); !ok {
		t.Fatal("get(difference) missed")
	}
	c.put(&Program{ID: mode.Blend})

	if !reflect.DeepEqual(evicted, []mode.ID{mode.Heatmap}) {
		t.Errorf("evicted = %v, want [heatmap]", evicted)
	}
	if got := c.Modes(); !reflect.DeepEqual(got, []mode.ID{mode.Blend, mode.Difference}) {
		t.Errorf("Modes() = %v", got)
	}

	errBroken := errors.New("broken")
	c.markFailed("custom", errBroken)
	if !c.Failed("custom") || !errors.Is(c.failure("custom"), errBroken) {
		t.Error("failure not remembered")
	}
	if c.failure(mode.Blend) != nil {
		t.Error("compiled mode reported as failed")
	}

	if _, ok := c.remove("custom"); ok {
		t.Error("remove reported a program that was never compiled")
	}
	if c.Failed("custom") {
		t.Error("remove kept the failure")
	}

	c.markFailed("other", errBroken)
	progs := c.drain()
	if len(progs) != 2 || c.Len() != 0 || c.Failed("other") {
		t.Errorf("drain returned %d programs, Len()=%d, failed kept=%v", len(progs), c.Len(), c.Failed("other"))
	}
}

func TestProgramDestroyIdempotent(t *testing.T) {
	dev, _ := newFakes()
	p := &Program{ID: mode.Passthrough}
	p.pipeline, _ = dev.CreateRenderPipeline(nil)
	p.module, _ = dev.CreateShaderModule(nil)

	p.destroy(dev)
	p.destroy(dev)
	if dev.pipelinesDestroyed != 1 {
		t.Errorf("pipeline destroyed %d times, want 1", dev.pipelinesDestroyed)
	}
}
