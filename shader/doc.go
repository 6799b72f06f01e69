// Package shader compiles mode sources for the GPU.
//
// [Compile] turns WGSL into SPIR-V words through github.com/gogpu/naga and
// memoizes the result process-wide. The memo holds pure data keyed by the
// source text, never GPU handles, so engines on different devices can share
// it safely.
//
// [Translate] emits GLSL, MSL or HLSL for hosts that do not consume SPIR-V
// (WebGL, Metal, Direct3D).
package shader
