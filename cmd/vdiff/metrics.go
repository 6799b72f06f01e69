package main

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/gogpu/vdiff/metrics"
	"github.com/gogpu/vdiff/report"
)

func runMetrics(args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("metrics", stderr)
	threshold := fs.Float64("threshold", 0, "per-channel difference (0-255) above which a sample fails")
	stride := fs.Int("stride", 0, "sample every Nth pixel in each axis")
	roiFlag := fs.String("roi", "", "region of interest as x,y,w,h fractions of the frame")
	maxFail := fs.Float64("max-fail", 0, "largest failing sample percentage that still passes")
	format := fs.String("format", "", "output format: text, json or yaml")
	lang := fs.String("lang", "", "language tag for number formatting in text output")
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "goroutines used for sampling")
	fit := fs.Bool("fit", false, "scale B to A's size instead of reporting a size mismatch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.setup(stderr)
	if err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("need exactly two image paths")
	}
	if !flagSet(fs, "threshold") {
		*threshold = *cfg.Threshold
	}
	if !flagSet(fs, "stride") {
		*stride = cfg.Stride
	}
	if !flagSet(fs, "max-fail") {
		*maxFail = *cfg.MaxFailPercent
	}
	if *format == "" {
		*format = cfg.Format
	}
	if *lang == "" {
		*lang = cfg.Language
	}

	roi := cfg.ROI
	if *roiFlag != "" {
		r, err := parseROI(*roiFlag)
		if err != nil {
			return err
		}
		roi = &r
	}
	f, err := report.ParseFormat(*format)
	if err != nil {
		return err
	}
	tag, err := language.Parse(*lang)
	if err != nil {
		return fmt.Errorf("language %q: %w", *lang, err)
	}

	pathA, pathB := fs.Arg(0), fs.Arg(1)
	imgA, err := loadImage(pathA)
	if err != nil {
		return err
	}
	imgB, err := loadImage(pathB)
	if err != nil {
		return err
	}
	ba, bb := imgA.Bounds(), imgB.Bounds()
	if ba.Size() != bb.Size() {
		if !*fit {
			return fmt.Errorf("size mismatch: %s is %dx%d, %s is %dx%d (use -fit)",
				pathA, ba.Dx(), ba.Dy(), pathB, bb.Dx(), bb.Dy())
		}
		imgB = fitTo(imgB, ba.Dx(), ba.Dy())
	}

	m := metrics.ComputeImages(imgA, imgB, *threshold, roi, metrics.WithStride(*stride), metrics.WithWorkers(*workers))
	r := report.New(m, *threshold, roi, *maxFail)
	r.A, r.B = pathA, pathB
	r.Width, r.Height = ba.Dx(), ba.Dy()
	r.Stride = *stride

	if err := (report.Writer{Format: f, Language: tag}).Write(stdout, r); err != nil {
		return err
	}
	if !r.Passed {
		return errComparisonFailed
	}
	return nil
}

// parseROI parses "x,y,w,h" with each value a fraction of the frame.
func parseROI(s string) (metrics.ROI, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return metrics.ROI{}, fmt.Errorf("roi %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return metrics.ROI{}, fmt.Errorf("roi %q: %w", s, err)
		}
		v[i] = f
	}
	return metrics.ROI{X: v[0], Y: v[1], Width: v[2], Height: v[3]}.Clamp(), nil
}
