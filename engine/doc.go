// Package engine renders visual comparisons of two pixel sources on the GPU.
//
// An [Engine] owns everything it draws with: one program cache, two slot
// textures (A and B), a uniform buffer, a static full-screen quad and an
// offscreen render target. Engines never share GPU handles, so several can
// run side by side (for example a live view and an export preview) and be
// disposed independently.
//
// Each frame is one draw call:
//
//	e.UpdateTexture(engine.SlotA, videoA)
//	e.UpdateTexture(engine.SlotB, videoB)
//	e.SetMode(mode.Heatmap)
//	if err := e.Render(engine.RenderUniforms{Amplification: 4}); err != nil {
//		return err
//	}
//
// Failures that a host cannot act on are absorbed: a mode that does not
// compile engages the pass-through program, a source that is not ready keeps
// the previous frame, and a lost device turns Render into a no-op until
// [Engine.Reinitialize].
//
// The engine is not safe for concurrent use. Calls are expected from the
// host's frame loop.
package engine
