package game

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Coord is a pixel position. It doubles as the ownership-ledger key.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Raster is the paint state of the map: a fixed-size grid of non-premultiplied
// RGBA pixels, row-major.
type Raster struct {
	img *image.NRGBA
}

// NewRaster creates a w×h raster filled with c.
func NewRaster(w, h int, c color.NRGBA) *Raster {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return &Raster{img: img}
}

// RasterFromImage copies any decoded image into a new raster anchored at (0,0).
func RasterFromImage(src image.Image) *Raster {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(img, img.Bounds(), src, b.Min, xdraw.Src)
	return &Raster{img: img}
}

// RasterFromPix wraps raw NRGBA bytes (4 per pixel, row-major).
func RasterFromPix(w, h int, pix []byte) (*Raster, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster size %dx%d must be positive", w, h)
	}
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("raster pixel data has %d bytes, want %d", len(pix), w*h*4)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return &Raster{img: img}, nil
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.img.Rect.Dx() }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.img.Rect.Dy() }

// InBounds reports whether c lies inside the raster.
func (r *Raster) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < r.Width() && c.Y >= 0 && c.Y < r.Height()
}

func (r *Raster) index(c Coord) int {
	return c.Y*r.img.Stride + c.X*4
}

// Pixel returns the colour at c. Out-of-bounds reads return the zero colour.
func (r *Raster) Pixel(c Coord) color.NRGBA {
	if !r.InBounds(c) {
		return color.NRGBA{}
	}
	i := r.index(c)
	p := r.img.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// SetPixel writes c at position p. Out-of-bounds writes are dropped.
func (r *Raster) SetPixel(p Coord, c color.NRGBA) {
	if !r.InBounds(p) {
		return
	}
	i := r.index(p)
	s := r.img.Pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = c.R, c.G, c.B, c.A
}

// Clone returns an independent copy.
func (r *Raster) Clone() *Raster {
	img := image.NewNRGBA(r.img.Rect)
	copy(img.Pix, r.img.Pix)
	return &Raster{img: img}
}

// Equal reports whether both rasters have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.img.Rect.Eq(o.img.Rect) && bytes.Equal(r.img.Pix, o.img.Pix)
}

// Image exposes the backing image. Callers that draw into it mutate the raster.
func (r *Raster) Image() *image.NRGBA { return r.img }

// Pix returns a copy of the raw NRGBA bytes.
func (r *Raster) Pix() []byte {
	out := make([]byte, len(r.img.Pix))
	copy(out, r.img.Pix)
	return out
}
