package engine

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vdiff/internal/cache"
	"github.com/gogpu/vdiff/mode"
)

// Program is a compiled comparison mode: a shader module and the render
// pipeline linked from it. Programs belong to exactly one engine.
type Program struct {
	ID       mode.ID
	module   hal.ShaderModule
	pipeline hal.RenderPipeline
}

// destroy releases the pipeline and module. Safe to call multiple times.
func (p *Program) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// ProgramCache holds at most one compiled program per mode, plus the
// modes that failed to compile so they are not retried every frame.
type ProgramCache struct {
	programs *cache.Cache[mode.ID, *Program]
	failed   map[mode.ID]error
}

// newProgramCache creates a cache holding up to limit programs (0 means
// unbounded). evicted receives programs pushed out by the limit.
func newProgramCache(limit int, evicted func(*Program)) *ProgramCache {
	c := &ProgramCache{
		programs: cache.New[mode.ID, *Program](limit),
		failed:   make(map[mode.ID]error),
	}
	if evicted != nil {
		c.programs.OnEvict(func(_ mode.ID, p *Program) { evicted(p) })
	}
	return c
}

// get returns the cached program for id and marks it recently used.
func (c *ProgramCache) get(id mode.ID) (*Program, bool) {
	return c.programs.Get(id)
}

// put stores p. The active program must have been touched (get or put)
// more recently than any other entry, which keeps it out of eviction for
// limits of two or more.
func (c *ProgramCache) put(p *Program) {
	c.programs.Set(p.ID, p)
}

// remove drops id without destroying it and returns the program, if any.
func (c *ProgramCache) remove(id mode.ID) (*Program, bool) {
	delete(c.failed, id)
	return c.programs.Delete(id)
}

// failure returns the remembered compile error for id, or nil.
func (c *ProgramCache) failure(id mode.ID) error {
	return c.failed[id]
}

func (c *ProgramCache) markFailed(id mode.ID, err error) {
	c.failed[id] = err
}

// drain empties the cache, returning every program and forgetting all
// failures.
func (c *ProgramCache) drain() []*Program {
	entries := c.programs.Drain()
	out := make([]*Program, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	clear(c.failed)
	return out
}

// Len returns the number of compiled programs.
func (c *ProgramCache) Len() int { return c.programs.Len() }

// Modes returns the compiled mode ids, most recently used first.
func (c *ProgramCache) Modes() []mode.ID { return c.programs.Keys() }

// Failed reports whether id is remembered as not compiling.
func (c *ProgramCache) Failed(id mode.ID) bool {
	_, ok := c.failed[id]
	return ok
}
