package viewer

import "math"

const (
	zoomMin = 0.25
	zoomMax = 8.0
)

// camera is a pan/zoom view onto the map. x, y is the map-space point
// shown at the viewport centre.
type camera struct {
	x, y float64
	zoom float64
}

// fit centres the map and picks the largest zoom that shows all of it.
func fit(mapW, mapH, vpW, vpH int) camera {
	z := math.Min(float64(vpW)/float64(mapW), float64(vpH)/float64(mapH))
	return camera{x: float64(mapW) / 2, y: float64(mapH) / 2, zoom: clampZoom(z)}
}

func clampZoom(z float64) float64 {
	return math.Max(zoomMin, math.Min(zoomMax, z))
}

// screenToMap converts viewport-relative pixels to map pixels.
func (c camera) screenToMap(sx, sy float64, vpW, vpH int) (float64, float64) {
	return (sx-float64(vpW)/2)/c.zoom + c.x, (sy-float64(vpH)/2)/c.zoom + c.y
}

// pan moves the centre by screen pixels.
func (c *camera) pan(dx, dy float64) {
	c.x += dx / c.zoom
	c.y += dy / c.zoom
}

func (c *camera) zoomBy(f float64) {
	c.zoom = clampZoom(c.zoom * f)
}

// clamp keeps the centre over the map.
func (c *camera) clamp(mapW, mapH int) {
	c.x = math.Max(0, math.Min(float64(mapW), c.x))
	c.y = math.Max(0, math.Min(float64(mapH), c.y))
}
