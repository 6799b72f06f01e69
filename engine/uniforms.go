package engine

import (
	"encoding/binary"
	"math"
)

// Uniform defaults. A zero (or negative) size or scale field in
// RenderUniforms selects the matching default, as does a nil optional field.
const (
	DefaultAmplification = 1.0
	DefaultThreshold     = 0.1
	DefaultOpacity       = 0.5
	DefaultBlockSize     = 16.0
	DefaultLoupeSize     = 200.0
	DefaultLoupeZoom     = 4.0
	DefaultCheckerSize   = 32.0
)

// uniformSize is the byte size of the Params block, 16-byte aligned.
const uniformSize = 64

// Point is a normalized position, (0,0) top-left, (1,1) bottom-right.
type Point struct {
	X, Y float64
}

// RenderUniforms are the per-frame parameters of Render. Texture sizes and
// the output resolution are filled in by the engine.
type RenderUniforms struct {
	// Amplification scales difference magnitudes before color mapping.
	Amplification float64

	// Threshold is the per-channel difference, on a 0..1 scale, above which
	// threshold-style modes flag a pixel. Nil selects DefaultThreshold; an
	// explicit 0 flags every nonzero difference.
	Threshold *float64

	// Opacity weights overlays and blends, 0..1. Nil selects DefaultOpacity.
	Opacity *float64

	// BlockSize is the cell edge in pixels for block modes.
	BlockSize float64

	// LoupeSize is the loupe diameter in pixels; LoupeZoom its magnification.
	LoupeSize float64
	LoupeZoom float64

	// CheckerSize is the checkerboard cell edge in pixels.
	CheckerSize float64

	// Mouse overrides the pointer position tracked by HandlePointer.
	Mouse *Point

	// Time is the animation clock in seconds. If nil, the time since Init
	// is used.
	Time *float64
}

// Float returns a pointer to v, for the optional RenderUniforms fields.
func Float(v float64) *float64 { return &v }

// params is the resolved uniform block.
type params struct {
	resolution    [2]float32
	mouse         [2]float32
	texASize      [2]float32
	texBSize      [2]float32
	amplification float32
	threshold     float32
	opacity       float32
	time          float32
	blockSize     float32
	loupeSize     float32
	loupeZoom     float32
	checkerSize   float32
}

func orDefault(v, def float64) float32 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return float32(def)
	}
	return float32(v)
}

// orOptional keeps an explicit zero. Nil, negative or non-finite values
// select def.
func orOptional(v *float64, def float64) float32 {
	if v == nil || *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return float32(def)
	}
	return float32(*v)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Min(math.Max(v, 0), 1)
}

// resolve fills every field, so no uniform is ever left unset.
func (u RenderUniforms) resolve(mouse Point, elapsed float64) params {
	p := params{
		amplification: orDefault(u.Amplification, DefaultAmplification),
		threshold:     orOptional(u.Threshold, DefaultThreshold),
		opacity:       float32(clamp01(float64(orOptional(u.Opacity, DefaultOpacity)))),
		blockSize:     orDefault(u.BlockSize, DefaultBlockSize),
		loupeSize:     orDefault(u.LoupeSize, DefaultLoupeSize),
		loupeZoom:     orDefault(u.LoupeZoom, DefaultLoupeZoom),
		checkerSize:   orDefault(u.CheckerSize, DefaultCheckerSize),
		time:          orOptional(u.Time, elapsed),
	}
	if u.Mouse != nil {
		mouse = *u.Mouse
	}
	p.mouse = [2]float32{float32(clamp01(mouse.X)), float32(clamp01(mouse.Y))}
	return p
}

// bytes encodes p in the WGSL Params layout.
func (p *params) bytes() []byte {
	buf := make([]byte, uniformSize)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	put(0, p.resolution[0])
	put(4, p.resolution[1])
	put(8, p.mouse[0])
	put(12, p.mouse[1])
	put(16, p.texASize[0])
	put(20, p.texASize[1])
	put(24, p.texBSize[0])
	put(28, p.texBSize[1])
	put(32, p.amplification)
	put(36, p.threshold)
	put(40, p.opacity)
	put(44, p.time)
	put(48, p.blockSize)
	put(52, p.loupeSize)
	put(56, p.loupeZoom)
	put(60, p.checkerSize)
	return buf
}
