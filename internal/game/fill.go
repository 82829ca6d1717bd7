package game

import "image/color"

// FillResult describes one flood-fill call.
type FillResult struct {
	Painted int  // pixels repainted
	Capped  bool // stopped at maxPixels with eligible pixels left unpainted
	NoOp    bool // replacement equals the seed colour exactly
}

// Warning returns ErrFillCapReached when the fill was cut short, else nil.
func (fr FillResult) Warning() error {
	if fr.Capped {
		return ErrFillCapReached
	}
	return nil
}

// rookSteps are the 4-connected neighbour offsets (no diagonals).
var rookSteps = [4]Coord{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// walkRegion runs a breadth-first walk from seed over 4-connected pixels whose
// colour matches target within tolerance. visit is called once per accepted
// pixel, before its neighbours are queued, so it may repaint in place. The
// walk stops after maxPixels visits (maxPixels <= 0 means unbounded); capped
// reports whether an eligible pixel was left behind.
func walkRegion(r *Raster, seed Coord, target color.NRGBA, tolerance, maxPixels int, visit func(Coord)) (count int, capped bool) {
	w, h := r.Width(), r.Height()
	visited := make([]bool, w*h)
	queue := make([]int, 0, 64)

	accept := func(c Coord) {
		visited[c.Y*w+c.X] = true
		visit(c)
		count++
		queue = append(queue, c.Y*w+c.X)
	}
	accept(seed)

	for head := 0; head < len(queue); head++ {
		cur := Coord{X: queue[head] % w, Y: queue[head] / w}
		for _, d := range rookSteps {
			n := Coord{X: cur.X + d.X, Y: cur.Y + d.Y}
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
				continue
			}
			if visited[n.Y*w+n.X] || !ColorMatches(r.Pixel(n), target, tolerance) {
				continue
			}
			if maxPixels > 0 && count >= maxPixels {
				return count, true
			}
			accept(n)
		}
	}
	return count, false
}

// Fill repaints the 4-connected region around seed whose colour is within
// tolerance of the seed's current colour. At most maxPixels pixels are
// painted (<= 0 means no cap). A replacement exactly equal to the seed colour
// is a no-op.
func Fill(r *Raster, seed Coord, replacement color.NRGBA, tolerance, maxPixels int) (FillResult, error) {
	if r == nil {
		return FillResult{}, ErrNoMapLoaded
	}
	if !r.InBounds(seed) {
		return FillResult{}, ErrInvalidCoordinate
	}
	target := r.Pixel(seed)
	if target == replacement {
		return FillResult{NoOp: true}, nil
	}
	n, capped := walkRegion(r, seed, target, tolerance, maxPixels, func(c Coord) {
		r.SetPixel(c, replacement)
	})
	return FillResult{Painted: n, Capped: capped}, nil
}

// Region returns the coordinates Fill would repaint, in visit order, without
// touching the raster.
func Region(r *Raster, seed Coord, tolerance, maxPixels int) ([]Coord, bool, error) {
	if r == nil {
		return nil, false, ErrNoMapLoaded
	}
	if !r.InBounds(seed) {
		return nil, false, ErrInvalidCoordinate
	}
	var out []Coord
	_, capped := walkRegion(r, seed, r.Pixel(seed), tolerance, maxPixels, func(c Coord) {
		out = append(out, c)
	})
	return out, capped, nil
}
