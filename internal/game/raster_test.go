package game

import (
	"image"
	"image/color"
	"testing"
)

var gray = color.NRGBA{R: 200, G: 200, B: 200, A: 255}

func TestNewRaster_Filled(t *testing.T) {
	r := NewRaster(4, 3, gray)
	if r.Width() != 4 || r.Height() != 3 {
		t.Fatalf("size = %dx%d", r.Width(), r.Height())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if got := r.Pixel(Coord{x, y}); got != gray {
				t.Fatalf("pixel (%d,%d) = %v", x, y, got)
			}
		}
	}
}

func TestRaster_OutOfBounds(t *testing.T) {
	r := NewRaster(2, 2, gray)
	for _, c := range []Coord{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if r.InBounds(c) {
			t.Fatalf("%v reported in bounds", c)
		}
		if got := r.Pixel(c); got != (color.NRGBA{}) {
			t.Fatalf("Pixel(%v) = %v, want zero", c, got)
		}
		r.SetPixel(c, color.NRGBA{R: 1, A: 255}) // must not panic
	}
	if !r.Equal(NewRaster(2, 2, gray)) {
		t.Fatal("out-of-bounds writes changed the raster")
	}
}

func TestRaster_CloneIsIndependent(t *testing.T) {
	r := NewRaster(3, 3, gray)
	cp := r.Clone()
	r.SetPixel(Coord{1, 1}, color.NRGBA{R: 255, A: 255})
	if cp.Pixel(Coord{1, 1}) != gray {
		t.Fatal("clone shares pixel storage")
	}
	if r.Equal(cp) {
		t.Fatal("rasters should differ after write")
	}
	if !cp.Equal(NewRaster(3, 3, gray)) {
		t.Fatal("clone should still equal a fresh raster")
	}
	if cp.Equal(NewRaster(3, 4, gray)) {
		t.Fatal("rasters of different size compared equal")
	}
}

func TestRasterFromImage_RebasesBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 8, 7))
	src.Set(5, 5, color.RGBA{R: 9, A: 255})
	src.Set(7, 6, color.RGBA{G: 9, A: 255})
	r := RasterFromImage(src)
	if r.Width() != 3 || r.Height() != 2 {
		t.Fatalf("size = %dx%d", r.Width(), r.Height())
	}
	if got := r.Pixel(Coord{0, 0}); got.R != 9 || got.A != 255 {
		t.Fatalf("origin pixel = %v", got)
	}
	if got := r.Pixel(Coord{2, 1}); got.G != 9 {
		t.Fatalf("corner pixel = %v", got)
	}
}

func TestRasterFromPix_Validates(t *testing.T) {
	if _, err := RasterFromPix(2, 2, make([]byte, 15)); err == nil {
		t.Fatal("short pixel data accepted")
	}
	if _, err := RasterFromPix(0, 2, nil); err == nil {
		t.Fatal("zero width accepted")
	}
	orig := NewRaster(2, 2, gray)
	r, err := RasterFromPix(2, 2, orig.Pix())
	if err != nil {
		t.Fatalf("RasterFromPix: %v", err)
	}
	if !r.Equal(orig) {
		t.Fatal("pix round trip lost data")
	}
}
