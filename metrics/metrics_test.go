package metrics

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
	"time"
)

func solid(w, h int, r, g, b uint8) Buffer {
	buf := NewBuffer(w, h)
	buf.Fill(r, g, b, 255)
	return buf
}

func noise(w, h int, seed int64) Buffer {
	rng := rand.New(rand.NewSource(seed))
	buf := NewBuffer(w, h)
	rng.Read(buf.Pix)
	return buf
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func TestComputeSolidColorScenario(t *testing.T) {
	a := solid(100, 100, 100, 100, 100)
	b := solid(100, 100, 110, 100, 100)

	m := Compute(a, b, 5, nil)

	if !near(m.MeanDifference, 10.0/3, 1e-9) {
		t.Errorf("MeanDifference = %v, want 3.333", m.MeanDifference)
	}
	if m.PeakDifference != 10 {
		t.Errorf("PeakDifference = %v, want 10", m.PeakDifference)
	}
	if m.DiffPixelPercent != 100 {
		t.Errorf("DiffPixelPercent = %v, want 100", m.DiffPixelPercent)
	}
	if m.TotalPixelCount != 625 || m.FailPixelCount != 625 || m.PassPixelCount != 0 {
		t.Errorf("counts = total %d fail %d pass %d, want 625/625/0",
			m.TotalPixelCount, m.FailPixelCount, m.PassPixelCount)
	}
	if m.SSIM < 0.999 || m.SSIM > 1 {
		t.Errorf("SSIM = %v, want near 1", m.SSIM)
	}
	if !near(m.SSIM, 0.999566, 1e-5) {
		t.Errorf("SSIM = %v, want about 0.999566", m.SSIM)
	}
	if m.DeltaE <= 0 {
		t.Errorf("DeltaE = %v, want > 0", m.DeltaE)
	}
}

func TestComputeIdentity(t *testing.T) {
	inputs := map[string]Buffer{
		"solid": solid(64, 48, 30, 60, 90),
		"noise": noise(64, 48, 1),
	}
	for name, img := range inputs {
		for _, threshold := range []float64{0, 1, 25, 255} {
			m := Compute(img, img, threshold, nil)
			if !near(m.SSIM, 1, 1e-9) {
				t.Errorf("%s t=%v: SSIM = %v, want 1", name, threshold, m.SSIM)
			}
			if m.DeltaE != 0 || m.DiffPixelPercent != 0 || m.PeakDifference != 0 || m.MeanDifference != 0 {
				t.Errorf("%s t=%v: nonzero difference %+v", name, threshold, m)
			}
			if m.FailPixelCount != 0 || m.PassPixelCount != m.TotalPixelCount {
				t.Errorf("%s t=%v: fail=%d pass=%d total=%d", name, threshold,
					m.FailPixelCount, m.PassPixelCount, m.TotalPixelCount)
			}
		}
	}
}

func TestComputeSymmetric(t *testing.T) {
	a := noise(80, 60, 2)
	b := noise(80, 60, 3)
	roi := &ROI{X: 0.1, Y: 0.2, Width: 0.5, Height: 0.6}

	for _, r := range []*ROI{nil, roi} {
		ab := Compute(a, b, 40, r, WithClock(fixedClock))
		ba := Compute(b, a, 40, r, WithClock(fixedClock))
		if ab != ba {
			t.Errorf("Compute not symmetric (roi %v):\n ab=%+v\n ba=%+v", r, ab, ba)
		}
	}
}

func TestComputeTotalPixelCount(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		roi    *ROI
		stride int
		want   int
	}{
		{"full default stride", 100, 100, nil, 0, 625},
		{"full stride 1", 10, 7, nil, 1, 70},
		{"uneven stride", 10, 7, nil, 3, 4 * 3},
		{"roi half", 100, 100, &ROI{X: 0, Y: 0, Width: 0.5, Height: 0.5}, 4, 13 * 13},
		{"roi floors", 10, 10, &ROI{X: 0.15, Y: 0.15, Width: 0.3, Height: 0.3}, 1, 3 * 3},
		{"roi clamped", 20, 20, &ROI{X: 0.5, Y: -1, Width: 5, Height: 2}, 1, 10 * 20},
		{"roi empty", 20, 20, &ROI{X: 0.5, Y: 0.5, Width: 0, Height: 0.5}, 1, 0},
		{"roi outside", 20, 20, &ROI{X: 1, Y: 1, Width: 1, Height: 1}, 1, 0},
		{"max stride", 10, 10, nil, math.MaxInt, 1},
		{"max stride roi", 20, 20, &ROI{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5}, math.MaxInt, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := noise(tt.w, tt.h, 4)
			b := noise(tt.w, tt.h, 5)
			m := Compute(a, b, 10, tt.roi, WithStride(tt.stride))
			if m.TotalPixelCount != tt.want {
				t.Errorf("TotalPixelCount = %d, want %d", m.TotalPixelCount, tt.want)
			}
			stride := tt.stride
			if got := SampleCount(tt.w, tt.h, tt.roi, stride); got != tt.want {
				t.Errorf("SampleCount = %d, want %d", got, tt.want)
			}
			if m.PassPixelCount+m.FailPixelCount != m.TotalPixelCount {
				t.Errorf("pass %d + fail %d != total %d", m.PassPixelCount, m.FailPixelCount, m.TotalPixelCount)
			}
		})
	}
}

func TestComputeMaxStrideSamplesOrigin(t *testing.T) {
	a := solid(10, 10, 0, 0, 0)
	b := solid(10, 10, 30, 0, 0)
	m := Compute(a, b, 5, nil, WithStride(math.MaxInt), WithClock(fixedClock))

	if m.TotalPixelCount != 1 || m.FailPixelCount != 1 {
		t.Fatalf("total %d fail %d, want 1 and 1", m.TotalPixelCount, m.FailPixelCount)
	}
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"diff percent", m.DiffPixelPercent, 100},
		{"peak", m.PeakDifference, 30},
		{"mean", m.MeanDifference, 10},
	}
	for _, tt := range tests {
		if !near(tt.got, tt.want, 1e-9) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if math.IsNaN(m.SSIM) || math.IsNaN(m.DeltaE) || m.DeltaE <= 0 {
		t.Errorf("SSIM %v DeltaE %v, want finite with DeltaE > 0", m.SSIM, m.DeltaE)
	}
}

func TestComputeROIIsolatesDifferences(t *testing.T) {
	a := solid(100, 100, 50, 50, 50)
	b := solid(100, 100, 50, 50, 50)
	for y := 0; y < 100; y++ {
		for x := 60; x < 100; x++ {
			b.Set(x, y, 200, 10, 10, 255)
		}
	}

	full := Compute(a, b, 5, nil)
	if full.FailPixelCount == 0 {
		t.Fatal("full frame shows no failures")
	}
	left := Compute(a, b, 5, &ROI{X: 0, Y: 0, Width: 0.5, Height: 1})
	if left.FailPixelCount != 0 || left.PeakDifference != 0 {
		t.Errorf("ROI over identical region: fail=%d peak=%v", left.FailPixelCount, left.PeakDifference)
	}
	if left.TotalPixelCount == 0 {
		t.Error("ROI took no samples")
	}
}

func TestComputeDegenerateInputs(t *testing.T) {
	ok := solid(10, 10, 1, 2, 3)
	short := Buffer{Width: 10, Height: 10, Pix: make([]byte, 399)}

	tests := []struct {
		name string
		a, b Buffer
		roi  *ROI
	}{
		{"mismatched", ok, solid(10, 11, 1, 2, 3), nil},
		{"zero size", Buffer{}, Buffer{}, nil},
		{"short pixels", ok, short, nil},
		{"empty roi", ok, ok, &ROI{X: 0.2, Y: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compute(tt.a, tt.b, 5, tt.roi, WithClock(fixedClock))
			want := AnalysisMetrics{Timestamp: fixedTime}
			if m != want {
				t.Errorf("Compute = %+v, want zeroed metrics", m)
			}
			if m.Passed(100) {
				t.Error("zeroed metrics passed")
			}
		})
	}
}

func TestComputeThresholdBoundary(t *testing.T) {
	a := solid(8, 8, 100, 100, 100)
	b := solid(8, 8, 105, 100, 100)

	tests := []struct {
		threshold float64
		wantFail  bool
	}{
		{4, true},
		{4.99, true},
		{5, false},
		{-3, true},
		{math.NaN(), true},
	}
	for _, tt := range tests {
		m := Compute(a, b, tt.threshold, nil, WithStride(1))
		if got := m.FailPixelCount == m.TotalPixelCount; got != tt.wantFail {
			t.Errorf("threshold %v: all failing = %v, want %v", tt.threshold, got, tt.wantFail)
		}
	}
}

func TestComputeSSIMDropsForUnrelatedImages(t *testing.T) {
	a := noise(64, 64, 10)
	b := noise(64, 64, 11)
	m := Compute(a, b, 0, nil, WithStride(1))
	if m.SSIM > 0.2 {
		t.Errorf("SSIM of independent noise = %v, want near 0", m.SSIM)
	}
	if m.SSIM < 0 || m.SSIM > 1 {
		t.Errorf("SSIM = %v out of [0,1]", m.SSIM)
	}
}

func TestComputeTimestamp(t *testing.T) {
	m := Compute(solid(4, 4, 0, 0, 0), solid(4, 4, 0, 0, 0), 0, nil, WithClock(fixedClock))
	if !m.Timestamp.Equal(fixedTime) {
		t.Errorf("Timestamp = %v, want %v", m.Timestamp, fixedTime)
	}
	before := time.Now()
	m = Compute(Buffer{}, Buffer{}, 0, nil)
	if m.Timestamp.Before(before) {
		t.Error("default clock not used for degenerate input")
	}
}

func TestPassed(t *testing.T) {
	m := AnalysisMetrics{DiffPixelPercent: 2.5, TotalPixelCount: 40}
	if !m.Passed(2.5) || !m.Passed(10) || m.Passed(1) {
		t.Errorf("Passed verdicts wrong for %v%%", m.DiffPixelPercent)
	}
}

func TestROIClampAndRect(t *testing.T) {
	tests := []struct {
		name string
		roi  ROI
		want image.Rectangle
	}{
		{"full", Full, image.Rect(0, 0, 200, 100)},
		{"inner", ROI{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.25}, image.Rect(50, 50, 150, 75)},
		{"negative origin", ROI{X: -0.5, Y: 0, Width: 0.5, Height: 1}, image.Rect(0, 0, 100, 100)},
		{"overflow", ROI{X: 0.9, Y: 0.9, Width: 1, Height: 1}, image.Rect(180, 90, 200, 100)},
		{"NaN", ROI{X: math.NaN(), Y: 0, Width: 1, Height: math.NaN()}, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.roi.Clamp()
			for _, v := range []float64{c.X, c.Y, c.Width, c.Height, c.X + c.Width, c.Y + c.Height} {
				if v < 0 || v > 1 {
					t.Errorf("Clamp() = %+v has coordinate outside [0,1]", c)
				}
			}
			got := tt.roi.Rect(200, 100)
			if got.Empty() && tt.want.Empty() {
				return
			}
			if got != tt.want {
				t.Errorf("Rect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromRect(t *testing.T) {
	r := FromRect(image.Rect(150, 75, 50, 25), 200, 100)
	want := ROI{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}
	if r != want {
		t.Errorf("FromRect = %+v, want %+v", r, want)
	}
	if got := r.Rect(200, 100); got != image.Rect(50, 25, 150, 75) {
		t.Errorf("round trip Rect = %v", got)
	}
	if FromRect(image.Rect(0, 0, 1, 1), 0, 10) != (ROI{}) {
		t.Error("zero-width frame produced a non-empty ROI")
	}
}

func TestFromImage(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	if buf := FromImage(rgba); &buf.Pix[0] != &rgba.Pix[0] {
		t.Error("packed RGBA was copied")
	}

	gray := image.NewGray(image.Rect(5, 5, 8, 7))
	gray.SetGray(5, 5, color.Gray{Y: 77})
	buf := FromImage(gray)
	if buf.Width != 3 || buf.Height != 2 || len(buf.Pix) != 24 {
		t.Fatalf("FromImage(gray) = %dx%d len %d", buf.Width, buf.Height, len(buf.Pix))
	}
	if buf.Pix[0] != 77 || buf.Pix[1] != 77 || buf.Pix[2] != 77 || buf.Pix[3] != 255 {
		t.Errorf("first pixel = %v", buf.Pix[:4])
	}
	if FromImage(nil).valid() {
		t.Error("nil image produced a valid buffer")
	}

	m := ComputeImages(gray, gray, 0, nil)
	if m.TotalPixelCount != 1 {
		t.Errorf("ComputeImages TotalPixelCount = %d, want 1", m.TotalPixelCount)
	}
	if got := buf.Image().Bounds(); got != image.Rect(0, 0, 3, 2) {
		t.Errorf("Image().Bounds() = %v", got)
	}
}

func TestComputeWorkersMatchSerial(t *testing.T) {
	a := noise(300, 257, 20)
	b := noise(300, 257, 21)
	roi := &ROI{X: 0.05, Y: 0.1, Width: 0.9, Height: 0.85}

	for _, stride := range []int{1, 3} {
		serial := Compute(a, b, 30, roi, WithStride(stride), WithClock(fixedClock))
		for _, workers := range []int{2, 4, 16} {
			got := Compute(a, b, 30, roi, WithStride(stride), WithWorkers(workers), WithClock(fixedClock))
			if got != serial {
				t.Errorf("stride %d workers %d:\n got %+v\nwant %+v", stride, workers, got, serial)
			}
		}
		if serial.TotalPixelCount != SampleCount(300, 257, roi, stride) {
			t.Errorf("stride %d: TotalPixelCount %d, SampleCount %d", stride, serial.TotalPixelCount, SampleCount(300, 257, roi, stride))
		}
	}
}
