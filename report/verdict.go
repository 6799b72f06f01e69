package report

import "github.com/gogpu/vdiff/metrics"

// Verdict classifies how far apart two frames are.
type Verdict string

const (
	VerdictIdentical           Verdict = "identical"
	VerdictMinor               Verdict = "minor_changes"
	VerdictMajor               Verdict = "major_changes"
	VerdictCompletelyDifferent Verdict = "completely_different"
	VerdictNoSamples           Verdict = "no_samples"
)

// Verdict bands on DiffPixelPercent.
const (
	MinorLimit = 5.0
	MajorLimit = 25.0
)

// Classify buckets m by the share of failing samples.
func Classify(m metrics.AnalysisMetrics) Verdict {
	if m.Empty() {
		return VerdictNoSamples
	}
	pct := m.DiffPixelPercent
	switch {
	case pct == 0:
		return VerdictIdentical
	case pct < MinorLimit:
		return VerdictMinor
	case pct < MajorLimit:
		return VerdictMajor
	default:
		return VerdictCompletelyDifferent
	}
}
