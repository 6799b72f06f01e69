// Package metrics computes numeric similarity statistics for two RGBA
// buffers on the CPU.
//
// [Compute] samples both buffers on a regular grid (every 4th pixel in each
// axis by default), optionally restricted to a normalized region of
// interest, and reports SSIM, mean CIE94 ΔE, and threshold pass/fail counts
// in one pass. Cost is proportional to the sampled area divided by the
// squared stride, not to the native resolution.
//
// The SSIM reported here is a single global window over the sampled
// luminance: one mean, variance and covariance per buffer, combined with
// the standard constants C1 = (0.01·255)² and C2 = (0.03·255)². It is not
// the windowed or multi-scale SSIM of the literature and produces different
// numbers; use the ssim_map render mode for a local view.
//
// Sampled rows are summed in fixed bands, so [WithWorkers] changes only how
// fast Compute runs, never its result.
//
// Compute is a pure function. It never fails: mismatched, empty or short
// inputs yield zeroed metrics with only the timestamp set. Callers that
// refresh metrics while rendering should rate-limit it themselves, see
// package scheduler.
package metrics
