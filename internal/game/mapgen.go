package game

import (
	"image/color"
	"math/rand"
)

// MapGenConfig holds tuneable parameters for procedural region maps.
type MapGenConfig struct {
	Regions   int // number of regions to scatter
	LakeCount int // number of water patches
	LakeMax   int // max radius of a water patch in pixels
}

// DefaultMapGenConfig is a small continent suitable for headless runs.
var DefaultMapGenConfig = MapGenConfig{
	Regions:   24,
	LakeCount: 3,
	LakeMax:   6,
}

var (
	borderInk = color.NRGBA{A: 255}
	waterInk  = color.NRGBA{R: 110, G: 160, B: 215, A: 255}
)

// GenerateRegionMap paints a political-style map: Voronoi regions in pale
// land colours separated by one-pixel black borders, with a few lakes.
// Every region has a distinct colour so a zero-tolerance fill stays inside it.
func GenerateRegionMap(w, h int, rng *rand.Rand, cfg MapGenConfig) *Raster {
	if cfg.Regions < 1 {
		cfg.Regions = 1
	}
	r := NewRaster(w, h, borderInk)

	seeds := make([]Coord, cfg.Regions)
	for i := range seeds {
		seeds[i] = Coord{X: rng.Intn(max(1, w)), Y: rng.Intn(max(1, h))}
	}
	inks := make([]color.NRGBA, cfg.Regions)
	for i := range inks {
		inks[i] = landInk(i)
	}

	owner := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			best, bestD := 0, -1
			for i, s := range seeds {
				dx, dy := x-s.X, y-s.Y
				if d := dx*dx + dy*dy; bestD < 0 || d < bestD {
					best, bestD = i, d
				}
			}
			owner[y*w+x] = best
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := owner[y*w+x]
			edge := (x+1 < w && owner[y*w+x+1] != id) || (y+1 < h && owner[(y+1)*w+x] != id)
			if !edge {
				r.SetPixel(Coord{X: x, Y: y}, inks[id])
			}
		}
	}

	for i := 0; i < cfg.LakeCount; i++ {
		placeLake(r, rng, cfg.LakeMax)
	}
	return r
}

// landInk spreads region colours over a pale palette; i indexes a region.
func landInk(i int) color.NRGBA {
	return color.NRGBA{
		R: uint8(150 + (i*37)%100), // #nosec G115 -- bounded by modulo
		G: uint8(150 + (i*59)%100), // #nosec G115 -- bounded by modulo
		B: uint8(120 + (i*83)%80),  // #nosec G115 -- bounded by modulo
		A: 255,
	}
}

// placeLake paints a rough disc of water, skipping border pixels.
func placeLake(r *Raster, rng *rand.Rand, maxRadius int) {
	if maxRadius < 1 {
		return
	}
	cx := rng.Intn(max(1, r.Width()))
	cy := rng.Intn(max(1, r.Height()))
	rad := 1 + rng.Intn(maxRadius)
	for y := cy - rad; y <= cy+rad; y++ {
		for x := cx - rad; x <= cx+rad; x++ {
			p := Coord{X: x, Y: y}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > rad*rad || r.Pixel(p) == borderInk {
				continue
			}
			r.SetPixel(p, waterInk)
		}
	}
}
