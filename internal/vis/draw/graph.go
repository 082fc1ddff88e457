// Package draw provides rendering functions for visualization.
package draw

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/interact"
)

// Colors for vertices by capacity and load.
var (
	ColorVertexDefault  = color.NRGBA{R: 100, G: 120, B: 140, A: 255}
	ColorVertexWide     = color.NRGBA{R: 100, G: 140, B: 220, A: 255} // capacity above 1
	ColorVertexFull     = color.NRGBA{R: 230, G: 170, B: 60, A: 255}
	ColorVertexOver     = color.NRGBA{R: 230, G: 70, B: 70, A: 255}
	ColorVertexSelected = color.NRGBA{R: 255, G: 200, B: 80, A: 255}
	ColorEdgeDefault    = color.NRGBA{R: 80, G: 90, B: 100, A: 180}
	ColorArc            = color.NRGBA{R: 120, G: 100, B: 90, A: 200} // one-way
)

// GraphView is what DrawGraph needs to know about the scene.
type GraphView struct {
	Graph     core.Graph
	Positions map[core.VertexID]core.Pos
	// Load is the number of agents holding each vertex; nil hides load.
	Load     map[core.VertexID]int
	Selected core.VertexID
	HasSel   bool
}

// DrawGraph renders edges, then vertices colored by capacity and load.
func DrawGraph(gtx layout.Context, v GraphView, camera *interact.Camera) {
	for _, u := range v.Graph.AllVertices() {
		pu, ok := v.Positions[u]
		if !ok {
			continue
		}
		for _, w := range v.Graph.Succs(u) {
			pw, ok := v.Positions[w]
			if !ok {
				continue
			}
			twoWay := v.Graph.HasArc(w, u)
			// draw each edge once
			if twoWay && w < u {
				continue
			}
			col := ColorEdgeDefault
			if !twoWay {
				col = ColorArc
			}
			DrawEdge(gtx, pu, pw, camera, col)
		}
	}

	r := vertexRadius(camera)
	for _, u := range v.Graph.AllVertices() {
		p, ok := v.Positions[u]
		if !ok {
			continue
		}
		k := v.Graph.MaxCapacity(u)
		DrawVertex(gtx, p, camera, vertexColor(k, v.Load[u], v.Load != nil, v.HasSel && v.Selected == u), r)
		if k > 1 {
			x, y := camera.WorldToScreen(p.X, p.Y)
			DrawCircleOutline(gtx, x, y, r+3, ColorVertexWide, 1.5)
		}
	}
}

// vertexRadius keeps vertices below half the unit spacing.
func vertexRadius(camera *interact.Camera) float32 {
	r := camera.Pixels(0.18)
	if r < 2 {
		r = 2
	}
	return r
}

func vertexColor(capacity, load int, showLoad, selected bool) color.NRGBA {
	switch {
	case selected:
		return ColorVertexSelected
	case showLoad && load > capacity:
		return ColorVertexOver
	case showLoad && load > 0 && load == capacity:
		return ColorVertexFull
	case capacity > 1:
		return ColorVertexWide
	}
	return ColorVertexDefault
}

// DrawVertex draws a vertex as a filled circle of radius pixels.
func DrawVertex(gtx layout.Context, pos core.Pos, camera *interact.Camera, col color.NRGBA, radius float32) {
	x, y := camera.WorldToScreen(pos.X, pos.Y)
	drawFilledCircle(gtx, x, y, radius, col)
}

// DrawEdge draws an edge as a line between two positions.
func DrawEdge(gtx layout.Context, p1, p2 core.Pos, camera *interact.Camera, col color.NRGBA) {
	x1, y1 := camera.WorldToScreen(p1.X, p1.Y)
	x2, y2 := camera.WorldToScreen(p2.X, p2.Y)
	width := camera.Pixels(0.04)
	if width < 1 {
		width = 1
	}
	drawLine(gtx, x1, y1, x2, y2, width, col)
}

// DrawCircleOutline draws a ring.
func DrawCircleOutline(gtx layout.Context, centerX, centerY float32, radius float32, col color.NRGBA, strokeWidth float32) {
	const segments = 24
	var path clip.Path
	path.Begin(gtx.Ops)
	ring := func(r float32) {
		path.MoveTo(f32.Pt(centerX+r, centerY))
		for i := 1; i <= segments; i++ {
			angle := float64(i) * 2 * math.Pi / segments
			path.LineTo(f32.Pt(centerX+r*float32(math.Cos(angle)), centerY+r*float32(math.Sin(angle))))
		}
		path.Close()
	}
	ring(radius)
	ring(max(radius-strokeWidth, 0))

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

// HitTest reports whether the screen point is within radius pixels of pos.
func HitTest(screenX, screenY float32, pos core.Pos, camera *interact.Camera, radius float32) bool {
	vx, vy := camera.WorldToScreen(pos.X, pos.Y)
	dx, dy := screenX-vx, screenY-vy
	return dx*dx+dy*dy <= radius*radius
}

// FindVertexAt returns the vertex under the screen point.
func FindVertexAt(screenX, screenY float32, positions map[core.VertexID]core.Pos, camera *interact.Camera) (core.VertexID, bool) {
	r := vertexRadius(camera) + 2
	for v, p := range positions {
		if HitTest(screenX, screenY, p, camera, r) {
			return v, true
		}
	}
	return 0, false
}

// DrawGrid draws a background grid every gridSize world units.
func DrawGrid(gtx layout.Context, camera *interact.Camera, gridSize float64, col color.NRGBA) {
	bounds := gtx.Constraints.Max
	if camera.Pixels(gridSize) < 4 {
		return
	}

	minX, minY := camera.ScreenToWorld(0, 0)
	maxX, maxY := camera.ScreenToWorld(float32(bounds.X), float32(bounds.Y))

	for x := math.Floor(minX/gridSize) * gridSize; x <= maxX; x += gridSize {
		sx, _ := camera.WorldToScreen(x, minY)
		rect := image.Rect(int(sx), 0, int(sx)+1, bounds.Y)
		paint.FillShape(gtx.Ops, col, clip.Rect(rect).Op())
	}
	for y := math.Floor(minY/gridSize) * gridSize; y <= maxY; y += gridSize {
		_, sy := camera.WorldToScreen(minX, y)
		rect := image.Rect(0, int(sy), bounds.X, int(sy)+1)
		paint.FillShape(gtx.Ops, col, clip.Rect(rect).Op())
	}
}
