// Package color implements the color science used by the metrics sampler:
// sRGB linearization, sRGB to CIE XYZ (D65) to CIE LAB, the CIE94 color
// difference, and Rec. 601 luma.
package color

import "math"

// linearLUT maps an 8-bit sRGB component to its linear value in [0,1].
// 256 entries, computed once at init.
var linearLUT [256]float64

func init() {
	for i := range linearLUT {
		linearLUT[i] = linearizeExact(float64(i) / 255.0)
	}
}

// Linearize converts an 8-bit sRGB component to linear light in [0,1]
// using the lookup table.
func Linearize(v uint8) float64 {
	return linearLUT[v]
}

// linearizeExact applies the sRGB EOTF to s in [0,1].
// Formula: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
func linearizeExact(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// Luma returns the Rec. 601 luma of an 8-bit RGB triple on the 0-255 scale.
func Luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
