package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/vdiff/metrics"
)

// Format selects the Write encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for a format name Write does not support.
var ErrUnknownFormat = errors.New("report: unknown format")

// ParseFormat maps a case-insensitive name to a Format. "yml" is accepted
// for YAML and the empty string for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Report is one comparison with the inputs that produced it.
type Report struct {
	Mode           string                  `json:"mode,omitempty" yaml:"mode,omitempty"`
	A              string                  `json:"a,omitempty" yaml:"a,omitempty"`
	B              string                  `json:"b,omitempty" yaml:"b,omitempty"`
	Width          int                     `json:"width" yaml:"width"`
	Height         int                     `json:"height" yaml:"height"`
	Threshold      float64                 `json:"threshold" yaml:"threshold"`
	Stride         int                     `json:"stride" yaml:"stride"`
	ROI            *metrics.ROI            `json:"roi,omitempty" yaml:"roi,omitempty"`
	MaxFailPercent float64                 `json:"max_fail_percent" yaml:"max_fail_percent"`
	Metrics        metrics.AnalysisMetrics `json:"metrics" yaml:"metrics"`
	Verdict        Verdict                 `json:"verdict" yaml:"verdict"`
	Passed         bool                    `json:"passed" yaml:"passed"`
}

// New fills Verdict and Passed from m. maxFailPercent is the pass limit on
// DiffPixelPercent; a negative value is treated as 0. A non-nil roi is
// stored clamped.
func New(m metrics.AnalysisMetrics, threshold float64, roi *metrics.ROI, maxFailPercent float64) Report {
	if maxFailPercent < 0 {
		maxFailPercent = 0
	}
	r := Report{
		Threshold:      threshold,
		MaxFailPercent: maxFailPercent,
		Metrics:        m,
		Verdict:        Classify(m),
		Passed:         m.Passed(maxFailPercent),
	}
	if roi != nil {
		c := roi.Clamp()
		r.ROI = &c
	}
	return r
}

// Writer encodes reports. The zero value writes English text.
type Writer struct {
	Format   Format
	Language language.Tag
}

// Write encodes r to w.
func (wr Writer) Write(w io.Writer, r Report) error {
	switch wr.Format {
	case "", FormatText:
		return writeText(w, r, wr.printer())
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("report: json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("report: yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("report: yaml: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(wr.Format))
}

func (wr Writer) printer() *message.Printer {
	tag := wr.Language
	if tag == language.Und {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func writeText(w io.Writer, r Report, p *message.Printer) error {
	m := r.Metrics
	status := "FAIL"
	if r.Passed {
		status = "PASS"
	}

	var b strings.Builder
	if r.A != "" || r.B != "" {
		p.Fprintf(&b, "compare:     %s vs %s\n", r.A, r.B)
	}
	if r.Mode != "" {
		p.Fprintf(&b, "mode:        %s\n", r.Mode)
	}
	if r.Width > 0 && r.Height > 0 {
		p.Fprintf(&b, "size:        %d×%d\n", r.Width, r.Height)
	}
	p.Fprintf(&b, "verdict:     %s (%s, limit %.2f%%)\n", r.Verdict, status, r.MaxFailPercent)
	p.Fprintf(&b, "ssim:        %.4f\n", m.SSIM)
	p.Fprintf(&b, "delta e:     %.2f\n", m.DeltaE)
	p.Fprintf(&b, "diff pixels: %.2f%% (%d of %d samples)\n", m.DiffPixelPercent, m.FailPixelCount, m.TotalPixelCount)
	p.Fprintf(&b, "peak diff:   %.0f\n", m.PeakDifference)
	p.Fprintf(&b, "mean diff:   %.2f\n", m.MeanDifference)
	p.Fprintf(&b, "threshold:   %.0f\n", r.Threshold)
	if r.ROI != nil {
		p.Fprintf(&b, "roi:         %s\n", FormatROI(*r.ROI))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Summary is the one-line overlay text for m.
func Summary(m metrics.AnalysisMetrics) string {
	if m.Empty() {
		return "no samples"
	}
	return fmt.Sprintf("SSIM %.4f  ΔE %.2f  diff %.2f%%  peak %.0f", m.SSIM, m.DeltaE, m.DiffPixelPercent, m.PeakDifference)
}

// FormatROI renders r as percentages of the frame.
func FormatROI(r metrics.ROI) string {
	return fmt.Sprintf("x %.1f%% y %.1f%% w %.1f%% h %.1f%%", r.X*100, r.Y*100, r.Width*100, r.Height*100)
}
