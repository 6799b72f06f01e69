package metrics

import (
	"image"

	"golang.org/x/image/draw"
)

// Buffer is a decoded frame: tightly packed, row-major RGBA8 in
// image.RGBA layout. Alpha is ignored by Compute.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewBuffer allocates a zeroed width×height buffer.
func NewBuffer(width, height int) Buffer {
	if width <= 0 || height <= 0 {
		return Buffer{}
	}
	return Buffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// FromImage converts img to a Buffer. A tightly packed *image.RGBA at the
// origin is shared, not copied.
func FromImage(img image.Image) Buffer {
	if img == nil {
		return Buffer{}
	}
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return Buffer{Width: b.Dx(), Height: b.Dy(), Pix: rgba.Pix}
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return Buffer{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Fill sets every pixel to (r, g, b, a).
func (buf Buffer) Fill(r, g, b, a uint8) {
	for i := 0; i+3 < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, a
	}
}

// Set writes one pixel. Out-of-range coordinates are ignored.
func (buf Buffer) Set(x, y int, r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= buf.Width || y >= buf.Height {
		return
	}
	i := (y*buf.Width + x) * 4
	if i+3 >= len(buf.Pix) {
		return
	}
	buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, a
}

// Image wraps the buffer as an *image.RGBA without copying.
func (buf Buffer) Image() *image.RGBA {
	return &image.RGBA{Pix: buf.Pix, Stride: buf.Width * 4, Rect: image.Rect(0, 0, buf.Width, buf.Height)}
}

// valid reports whether the buffer holds width·height pixels.
func (buf Buffer) valid() bool {
	return buf.Width > 0 && buf.Height > 0 && len(buf.Pix) >= buf.Width*buf.Height*4
}
