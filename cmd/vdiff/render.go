package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vdiff/engine"
	"github.com/gogpu/vdiff/mode"
)

func runRender(args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("render", stderr)
	id := fs.String("mode", "", "mode id (see vdiff modes)")
	out := fs.String("o", "", "output PNG path")
	width := fs.Int("width", 0, "output width in pixels (default: image A's width)")
	height := fs.Int("height", 0, "output height in pixels (default: image A's height)")
	amp := fs.Float64("amp", 0, "difference amplification")
	threshold := fs.Float64("threshold", 0, "per-channel threshold on the 0-255 scale")
	opacity := fs.Float64("opacity", engine.DefaultOpacity, "overlay opacity, 0-1")
	mouseX := fs.Float64("mouse-x", 0.5, "loupe and split position, 0-1")
	mouseY := fs.Float64("mouse-y", 0.5, "loupe and split position, 0-1")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.setup(stderr)
	if err != nil {
		return err
	}
	if fs.NArg() != 2 || *out == "" {
		fs.Usage()
		return errors.New("need -o and exactly two image paths")
	}
	if *id == "" {
		*id = cfg.Mode
	}
	if _, ok := mode.Lookup(mode.ID(*id)); !ok {
		return fmt.Errorf("unknown mode %q", *id)
	}
	if !flagSet(fs, "threshold") {
		*threshold = *cfg.Threshold
	}
	if *amp <= 0 {
		*amp = cfg.Render.Amplification
	}
	alpha := cfg.Render.Opacity
	if flagSet(fs, "opacity") {
		alpha = engine.Float(*opacity)
	}

	imgA, err := loadImage(fs.Arg(0))
	if err != nil {
		return err
	}
	imgB, err := loadImage(fs.Arg(1))
	if err != nil {
		return err
	}
	w, h := *width, *height
	if w <= 0 {
		w = imgA.Bounds().Dx()
	}
	if h <= 0 {
		h = imgA.Bounds().Dy()
	}

	gpu, err := openGPU()
	if err != nil {
		return err
	}
	defer gpu.Close()

	e, err := engine.Open(gpu.device, gpu.queue,
		engine.WithBackend(gputypes.BackendVulkan),
		engine.WithFormat(gputypes.TextureFormatRGBA8Unorm),
		engine.WithSize(w, h),
		engine.WithInitialMode(mode.ID(*id)),
		engine.WithLabel("vdiff-cli"),
	)
	if err != nil {
		return err
	}
	defer e.Dispose()

	if e.ActiveMode() != mode.ID(*id) {
		logger().Warn("mode unavailable, rendered fallback", "mode", *id, "active", e.ActiveMode())
	}
	e.UpdateTexture(engine.SlotA, engine.NewImageSource(imgA))
	e.UpdateTexture(engine.SlotB, engine.NewImageSource(imgB))

	err = e.Render(engine.RenderUniforms{
		Amplification: *amp,
		Threshold:     engine.Float(*threshold / 255),
		Opacity:       alpha,
		BlockSize:     cfg.Render.BlockSize,
		Mouse:         &engine.Point{X: *mouseX, Y: *mouseY},
	})
	if err != nil {
		return err
	}
	img, err := e.Readback()
	if err != nil {
		return err
	}
	if err := savePNG(*out, img); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %s %dx%d on %s\n", *out, e.ActiveMode(), w, h, gpu.adapter)
	return nil
}
