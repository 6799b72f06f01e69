package metrics

import (
	"image"
	"math"
	"time"

	"github.com/gogpu/vdiff/internal/color"
	"github.com/gogpu/vdiff/internal/parallel"
)

// DefaultStride samples every 4th pixel in each axis.
const DefaultStride = 4

// SSIM stabilizing constants for 8-bit data.
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// AnalysisMetrics is the result of one Compute call. Differences are on the
// 0..255 channel scale.
type AnalysisMetrics struct {
	// SSIM is the global structural similarity of the sampled luminance,
	// in [0, 1].
	SSIM float64 `json:"ssim" yaml:"ssim"`

	// DeltaE is the mean CIE94 color difference.
	DeltaE float64 `json:"delta_e" yaml:"delta_e"`

	// DiffPixelPercent is the share of failing samples, in [0, 100].
	DiffPixelPercent float64 `json:"diff_pixel_percent" yaml:"diff_pixel_percent"`

	// PeakDifference is the largest per-sample max channel delta.
	PeakDifference float64 `json:"peak_difference" yaml:"peak_difference"`

	// MeanDifference is the mean over samples of the average channel delta.
	MeanDifference float64 `json:"mean_difference" yaml:"mean_difference"`

	PassPixelCount int `json:"pass_pixel_count" yaml:"pass_pixel_count"`
	FailPixelCount int `json:"fail_pixel_count" yaml:"fail_pixel_count"`

	// TotalPixelCount is the number of samples taken, not the resolution.
	TotalPixelCount int `json:"total_pixel_count" yaml:"total_pixel_count"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Empty reports whether nothing was sampled.
func (m AnalysisMetrics) Empty() bool {
	return m.TotalPixelCount == 0
}

// Passed reports whether at most maxFailPercent of the samples failed.
// Empty metrics never pass.
func (m AnalysisMetrics) Passed(maxFailPercent float64) bool {
	return !m.Empty() && m.DiffPixelPercent <= maxFailPercent
}

// Option configures Compute.
type Option func(*options)

type options struct {
	stride  int
	workers int
	now     func() time.Time
}

// WithStride sets the sampling step in pixels. Values below 1 select
// DefaultStride.
func WithStride(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.stride = n
		}
	}
}

// WithWorkers spreads sampling over n goroutines. Results are identical for
// every n. Values below 2 sample on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Compute compares a and b over roi (nil for the full frame).
//
// A sample fails when max(|Δr|, |Δg|, |Δb|) exceeds threshold, on the
// 0..255 scale; negative or NaN thresholds are treated as 0. Buffers of
// different or zero size, or with fewer than width·height·4 bytes, and
// regions with no pixels yield zeroed metrics.
func Compute(a, b Buffer, threshold float64, roi *ROI, opts ...Option) AnalysisMetrics {
	o := options{stride: DefaultStride, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	m := AnalysisMetrics{Timestamp: o.now()}

	if !a.valid() || !b.valid() || a.Width != b.Width || a.Height != b.Height {
		return m
	}
	rect := image.Rect(0, 0, a.Width, a.Height)
	if roi != nil {
		rect = roi.Rect(a.Width, a.Height)
	}
	if rect.Empty() {
		return m
	}
	if !(threshold > 0) {
		threshold = 0
	}

	rows := samples(rect.Dy(), o.stride)
	bands := parallel.Split(rows, bandRows)
	parts := make([]accum, len(bands))
	sample := func(i int) {
		y0 := rect.Min.Y + bands[i].Start*o.stride
		parts[i] = sampleRows(a, b, rect, y0, bands[i].End-bands[i].Start, o.stride, threshold)
	}
	if o.workers > 1 && len(bands) > 1 {
		pool := parallel.NewPool(min(o.workers, len(bands)))
		tasks := make([]func(), len(bands))
		for i := range bands {
			tasks[i] = func() { sample(i) }
		}
		pool.Run(tasks)
		pool.Close()
	} else {
		for i := range bands {
			sample(i)
		}
	}

	var total accum
	for _, p := range parts {
		total.merge(p)
	}

	if total.n == 0 {
		return m
	}
	fn := float64(total.n)
	m.SSIM = globalSSIM(total.sumA/fn, total.sumB/fn, total.sumAA/fn, total.sumBB/fn, total.sumAB/fn)
	m.DeltaE = total.sumDeltaE / fn
	m.DiffPixelPercent = float64(total.fail) / fn * 100
	m.PeakDifference = total.peak
	m.MeanDifference = total.sumMean / fn
	m.FailPixelCount = total.fail
	m.PassPixelCount = total.n - total.fail
	m.TotalPixelCount = total.n
	return m
}

// bandRows is the number of sampled rows summed together before the
// partial sums are merged. Merge order depends only on the region and the
// stride, so results do not change with the worker count.
const bandRows = 32

// accum holds the running sums of one band.
type accum struct {
	n, fail                         int
	sumA, sumB, sumAA, sumBB, sumAB float64
	sumDeltaE, sumMean, peak        float64
}

func (s *accum) merge(o accum) {
	s.n += o.n
	s.fail += o.fail
	s.sumA += o.sumA
	s.sumB += o.sumB
	s.sumAA += o.sumAA
	s.sumBB += o.sumBB
	s.sumAB += o.sumAB
	s.sumDeltaE += o.sumDeltaE
	s.sumMean += o.sumMean
	s.peak = math.Max(s.peak, o.peak)
}

func sampleRows(a, b Buffer, rect image.Rectangle, y0, rows, stride int, threshold float64) accum {
	var s accum
	cols := samples(rect.Dx(), stride)
	for r := range rows {
		row := (y0 + r*stride) * a.Width
		for c := range cols {
			x := rect.Min.X + c*stride
			i := (row + x) * 4
			ra, ga, ba := a.Pix[i], a.Pix[i+1], a.Pix[i+2]
			rb, gb, bb := b.Pix[i], b.Pix[i+1], b.Pix[i+2]

			la := color.Luma(ra, ga, ba)
			lb := color.Luma(rb, gb, bb)
			s.sumA += la
			s.sumB += lb
			s.sumAA += la * la
			s.sumBB += lb * lb
			s.sumAB += la * lb

			s.sumDeltaE += color.DeltaE94(color.RGBToLab(ra, ga, ba), color.RGBToLab(rb, gb, bb))

			dr, dg, db := absDiff(ra, rb), absDiff(ga, gb), absDiff(ba, bb)
			mx := float64(max(dr, dg, db))
			s.peak = math.Max(s.peak, mx)
			if mx > threshold {
				s.fail++
			}
			s.sumMean += float64(dr+dg+db) / 3
			s.n++
		}
	}
	return s
}

// ComputeImages is Compute on decoded images.
func ComputeImages(a, b image.Image, threshold float64, roi *ROI, opts ...Option) AnalysisMetrics {
	return Compute(FromImage(a), FromImage(b), threshold, roi, opts...)
}

// globalSSIM combines first and second moments into one SSIM value.
// Population statistics; the result is clamped to [0, 1].
func globalSSIM(meanA, meanB, meanAA, meanBB, meanAB float64) float64 {
	varA := math.Max(meanAA-meanA*meanA, 0)
	varB := math.Max(meanBB-meanB*meanB, 0)
	cov := meanAB - meanA*meanB

	num := (2*meanA*meanB + ssimC1) * (2*cov + ssimC2)
	den := (meanA*meanA + meanB*meanB + ssimC1) * (varA + varB + ssimC2)
	s := num / den
	if math.IsNaN(s) {
		return 0
	}
	return math.Min(math.Max(s, 0), 1)
}

// SampleCount returns how many samples Compute takes on a width×height
// frame for roi and stride.
func SampleCount(width, height int, roi *ROI, stride int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	if stride < 1 {
		stride = DefaultStride
	}
	rect := image.Rect(0, 0, width, height)
	if roi != nil {
		rect = roi.Rect(width, height)
	}
	if rect.Empty() {
		return 0
	}
	return samples(rect.Dx(), stride) * samples(rect.Dy(), stride)
}

// samples is the number of grid positions along an axis of n > 0 pixels.
// It does not overflow for any stride >= 1.
func samples(n, stride int) int {
	return (n-1)/stride + 1
}

func absDiff(p, q uint8) int {
	if p > q {
		return int(p - q)
	}
	return int(q - p)
}
