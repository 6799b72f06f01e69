// Package vdiff is a GPU visual comparison engine for two images or video
// frames.
//
// # Overview
//
// vdiff renders one of about forty comparison modes (differences,
// perceptual color distance, structural maps, exposure analysis, split and
// loupe layouts, channel views) as a fragment shader over two input
// textures, and computes numeric similarity metrics on the CPU.
//
// # Packages
//
//   - mode: the immutable shader catalog, one WGSL compare body per mode
//   - shader: WGSL compilation to SPIR-V and translation to GLSL, MSL, HLSL
//   - engine: device resources, texture uploads, program cache, render loop
//   - metrics: sampled SSIM, CIE94 ΔE and threshold statistics with ROI
//   - report: text, JSON and YAML rendering of metrics with a verdict
//   - scheduler: rate limiting for metrics refresh outside the render loop
//
// # Quick Start
//
//	e, err := engine.Open(device, queue, engine.WithSize(1280, 720))
//	if err != nil {
//	    return err
//	}
//	defer e.Dispose()
//
//	e.UpdateTexture(engine.SlotA, engine.NewImageSource(before))
//	e.UpdateTexture(engine.SlotB, engine.NewImageSource(after))
//	e.SetMode(mode.Heatmap)
//	if err := e.Render(engine.RenderUniforms{Amplification: 4}); err != nil {
//	    return err
//	}
//
//	m := metrics.ComputeImages(before, after, 10, nil)
//	fmt.Println(report.Summary(m))
//
// # Logging
//
// All packages are silent by default. [SetLogger] enables log/slog output
// for every package at once.
package vdiff
