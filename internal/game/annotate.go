package game

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var annotationInk = color.NRGBA{A: 255}

// Stamp draws text onto the raster with its baseline starting at at. It
// returns the number of pixels changed.
func Stamp(r *Raster, at Coord, text string, ink color.NRGBA) int {
	before := r.Clone()
	d := &font.Drawer{
		Dst:  r.Image(),
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)

	changed := 0
	b := d.MeasureString(text).Ceil()
	for y := at.Y - basicfont.Face7x13.Ascent; y <= at.Y+basicfont.Face7x13.Descent; y++ {
		for x := at.X; x < at.X+b; x++ {
			p := Coord{X: x, Y: y}
			if r.InBounds(p) && r.Pixel(p) != before.Pixel(p) {
				changed++
			}
		}
	}
	return changed
}

func (c *Controller) annotate(at Coord, res *ClickResult) error {
	s := c.s
	text := strings.TrimSpace(s.note)
	if text == "" {
		return ErrEmptyAnnotation
	}
	ink := annotationInk
	if p, err := c.actingPlayer(); err == nil {
		ink = p.Color.Opaque()
		res.Player = p.Name
	}
	res.Painted = Stamp(s.raster, at, text, ink)
	res.NoOp = res.Painted == 0
	s.events.Add(s.turn, res.Player, CatAnnotate, "stamp", text, res.Painted)
	return nil
}
