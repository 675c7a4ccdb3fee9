package render

import (
	"math"

	"vouch-graph/backend/internal/constants"
)

// Viewport maps world coordinates to screen coordinates:
// screen = world*zoom*scale + pan. ScaleY lets character cells, which are
// about twice as tall as they are wide, keep the layout's proportions.
type Viewport struct {
	Zoom   float64
	PanX   float64
	PanY   float64
	ScaleX float64
	ScaleY float64
}

// NewViewport returns an identity viewport with the given axis scales
func NewViewport(scaleX, scaleY float64) *Viewport {
	if scaleX <= 0 {
		scaleX = 1
	}
	if scaleY <= 0 {
		scaleY = 1
	}
	return &Viewport{Zoom: 1, ScaleX: scaleX, ScaleY: scaleY}
}

// ToScreen transforms a world point
func (v *Viewport) ToScreen(x, y float64) (float64, float64) {
	return x*v.Zoom*v.ScaleX + v.PanX, y*v.Zoom*v.ScaleY + v.PanY
}

// ToWorld is the inverse of ToScreen
func (v *Viewport) ToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.PanX) / (v.Zoom * v.ScaleX), (sy - v.PanY) / (v.Zoom * v.ScaleY)
}

// Pan shifts the view by a screen-space offset
func (v *Viewport) Pan(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

// ZoomAt multiplies the zoom by factor, clamped to the allowed range, keeping
// the world point under (sx, sy) fixed on screen.
func (v *Viewport) ZoomAt(factor, sx, sy float64) {
	wx, wy := v.ToWorld(sx, sy)
	v.Zoom = clampZoom(v.Zoom * factor)
	v.PanX = sx - wx*v.Zoom*v.ScaleX
	v.PanY = sy - wy*v.Zoom*v.ScaleY
}

// Fit centers the frame in a width x height screen, zooming out if needed
func (v *Viewport) Fit(f *Frame, width, height float64) {
	minX, minY, maxX, maxY := f.Bounds()
	w := (maxX - minX) * v.ScaleX
	h := (maxY - minY) * v.ScaleY
	zoom := 1.0
	if w > 0 && h > 0 {
		zoom = math.Min(width/w, height/h)
	}
	v.Zoom = clampZoom(math.Min(zoom, 1))
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	v.PanX = width/2 - cx*v.Zoom*v.ScaleX
	v.PanY = height/2 - cy*v.Zoom*v.ScaleY
}

// ShowLabel reports whether a node's label is drawn at the current zoom
func (v *Viewport) ShowLabel(n NodeView) bool {
	return n.Selected || v.Zoom > constants.LabelZoomThreshold
}

func clampZoom(z float64) float64 {
	return math.Max(constants.MinZoom, math.Min(constants.MaxZoom, z))
}
