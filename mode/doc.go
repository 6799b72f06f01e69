// Package mode is the catalog of comparison modes.
//
// Each mode is an immutable [Record] holding a WGSL fragment body that
// implements
//
//	fn compare(uv: vec2<f32>) -> vec4<f32>
//
// against one shared uniform contract:
//
//	@group(0) @binding(0) var<uniform> params: Params;
//	@group(0) @binding(1) var tex_a: texture_2d<f32>;
//	@group(0) @binding(2) var tex_b: texture_2d<f32>;
//	@group(0) @binding(3) var samp: sampler;
//
// [Source] joins the shared vertex stage, the helper library (sampling with
// aspect-ratio fit, heatmap and rainbow ramps, luminance, LAB, Delta-E,
// Sobel), the body and the fragment entry point into one WGSL module.
//
// The catalog knows nothing about compiled state. Compiled programs live in
// the engine, one cache per engine instance.
package mode
