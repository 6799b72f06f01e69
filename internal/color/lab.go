package color

import "math"

// D65 reference white on the 0-100 scale.
const (
	whiteX = 95.047
	whiteY = 100.0
	whiteZ = 108.883
)

// CIE LAB constants.
const (
	labEpsilon = 216.0 / 24389.0 // 0.008856
	labKappa   = 24389.0 / 27.0  // 903.3
)

// XYZ is a CIE 1931 tristimulus value on the 0-100 scale.
type XYZ struct {
	X, Y, Z float64
}

// Lab is a CIE L*a*b* color relative to the D65 white point.
type Lab struct {
	L, A, B float64
}

// RGBToXYZ converts an 8-bit sRGB triple to XYZ (D65).
func RGBToXYZ(r, g, b uint8) XYZ {
	lr := Linearize(r) * 100
	lg := Linearize(g) * 100
	lb := Linearize(b) * 100
	return XYZ{
		X: lr*0.4124564 + lg*0.3575761 + lb*0.1804375,
		Y: lr*0.2126729 + lg*0.7151522 + lb*0.0721750,
		Z: lr*0.0193339 + lg*0.1191920 + lb*0.9503041,
	}
}

// XYZToLab converts XYZ (D65) to CIE LAB.
func XYZToLab(c XYZ) Lab {
	fx := labF(c.X / whiteX)
	fy := labF(c.Y / whiteY)
	fz := labF(c.Z / whiteZ)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// RGBToLab converts an 8-bit sRGB triple straight to CIE LAB.
func RGBToLab(r, g, b uint8) Lab {
	return XYZToLab(RGBToXYZ(r, g, b))
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16) / 116
}

// Chroma returns the LAB chroma sqrt(a² + b²).
func (c Lab) Chroma() float64 {
	return math.Hypot(c.A, c.B)
}

// DeltaE94 returns the CIE94 color difference between p and q with the
// graphic-arts weights kL = kC = kH = 1, sL = 1, sC = 1 + 0.045·C and
// sH = 1 + 0.015·C.
//
// C is the geometric mean of both chromas, so DeltaE94(p, q) == DeltaE94(q, p)
// bit for bit. With the textbook reference-chroma form the result depends on
// argument order.
func DeltaE94(p, q Lab) float64 {
	c1 := p.Chroma()
	c2 := q.Chroma()

	dL := p.L - q.L
	dC := c1 - c2
	da := p.A - q.A
	db := p.B - q.B

	dH2 := da*da + db*db - dC*dC
	if dH2 < 0 {
		dH2 = 0
	}

	c := math.Sqrt(c1 * c2)
	sC := 1 + 0.045*c
	sH := 1 + 0.015*c

	tC := dC / sC
	return math.Sqrt(dL*dL + tC*tC + dH2/(sH*sH))
}
