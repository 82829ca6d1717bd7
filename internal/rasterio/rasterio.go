// Package rasterio moves map rasters between files and the game.
package rasterio

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Garsondee/mapclaim/internal/game"
)

// ErrNoFrames is returned when an animation has nothing to encode.
var ErrNoFrames = errors.New("no frames to encode")

// DefaultFrameDelay is the time each turn is shown in a replay.
const DefaultFrameDelay = 500 * time.Millisecond

// Decode reads any registered image format (png, jpeg, gif, bmp, webp).
func Decode(r io.Reader) (*game.Raster, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return game.RasterFromImage(img), format, nil
}

// Load opens and decodes a map image.
func Load(path string) (*game.Raster, error) {
	f, err := os.Open(path) // #nosec G304 -- user-selected map file
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// EncodePNG writes r as PNG.
func EncodePNG(w io.Writer, r *game.Raster) error {
	if r == nil {
		return game.ErrNoMapLoaded
	}
	return png.Encode(w, r.Image())
}

// Save writes r to path as PNG.
func Save(path string, r *game.Raster) error {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return err
	}
	if err := EncodePNG(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// AnimationOptions controls replay encoding.
type AnimationOptions struct {
	Delay time.Duration // per frame; zero means DefaultFrameDelay
	Scale float64       // output scale; <= 0 means 1
}

// EncodeAnimation writes frames as a looping GIF.
func EncodeAnimation(w io.Writer, frames []*game.Raster, opts AnimationOptions) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultFrameDelay
	}
	delay := int(opts.Delay / (10 * time.Millisecond))
	if delay < 1 {
		delay = 1
	}

	anim := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		src := image.Image(f.Image())
		if opts.Scale > 0 && opts.Scale != 1 {
			src = scale(f.Image(), opts.Scale)
		}
		b := src.Bounds()
		pal := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(pal, b, src, b.Min)
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}

// SaveAnimation writes a GIF replay to path.
func SaveAnimation(path string, frames []*game.Raster, opts AnimationOptions) error {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return err
	}
	if err := EncodeAnimation(f, frames, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func scale(src *image.NRGBA, factor float64) *image.NRGBA {
	w := max(1, int(float64(src.Rect.Dx())*factor))
	h := max(1, int(float64(src.Rect.Dy())*factor))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return dst
}
