package draw

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/interact"
)

// DrawPath draws a polyline of world positions; width is in pixels.
func DrawPath(gtx layout.Context, path []core.Pos, camera *interact.Camera, col color.NRGBA, width float32) {
	for i := 0; i+1 < len(path); i++ {
		x1, y1 := camera.WorldToScreen(path[i].X, path[i].Y)
		x2, y2 := camera.WorldToScreen(path[i+1].X, path[i+1].Y)
		drawLine(gtx, x1, y1, x2, y2, width, col)
	}
}

// DrawPathTrail draws a trail behind an agent that fades towards its start.
func DrawPathTrail(gtx layout.Context, history []core.Pos, camera *interact.Camera, baseColor color.NRGBA, maxWidth float32) {
	n := len(history)
	for i := 0; i+1 < n; i++ {
		col := baseColor
		col.A = uint8(50 + float64(i)/float64(n)*150)
		w := maxWidth * (0.3 + 0.7*float32(i)/float32(n))

		x1, y1 := camera.WorldToScreen(history[i].X, history[i].Y)
		x2, y2 := camera.WorldToScreen(history[i+1].X, history[i+1].Y)
		drawLine(gtx, x1, y1, x2, y2, w, col)
	}
}

// DrawFuturePath draws the part of a path still ahead, dimmed, with an
// arrow on each hop.
func DrawFuturePath(gtx layout.Context, future []core.Pos, camera *interact.Camera, col color.NRGBA) {
	if len(future) < 2 {
		return
	}
	dim := col
	dim.A = 80
	DrawPath(gtx, future, camera, dim, 1.5)

	for i := 0; i+1 < len(future); i++ {
		dx := future[i+1].X - future[i].X
		dy := future[i+1].Y - future[i].Y
		length := math.Hypot(dx, dy)
		if camera.Pixels(length) < 16 {
			continue
		}
		drawArrow(gtx, (future[i].X+future[i+1].X)/2, (future[i].Y+future[i+1].Y)/2, dx/length, dy/length, camera, dim)
	}
}

// DrawMove highlights an edge being traversed by a push or swap.
func DrawMove(gtx layout.Context, from, to core.Pos, camera *interact.Camera, col color.NRGBA) {
	x1, y1 := camera.WorldToScreen(from.X, from.Y)
	x2, y2 := camera.WorldToScreen(to.X, to.Y)
	drawLine(gtx, x1, y1, x2, y2, 4, col)
}

func drawArrow(gtx layout.Context, x, y, dirX, dirY float64, camera *interact.Camera, col color.NRGBA) {
	screenX, screenY := camera.WorldToScreen(x, y)
	const size = 6

	tipX := screenX + float32(dirX)*size
	tipY := screenY + float32(dirY)*size
	perpX := -float32(dirY) * size * 0.5
	perpY := float32(dirX) * size * 0.5
	baseX := screenX - float32(dirX)*size*0.3
	baseY := screenY - float32(dirY)*size*0.3

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(tipX, tipY))
	path.LineTo(f32.Pt(baseX+perpX, baseY+perpY))
	path.LineTo(f32.Pt(baseX-perpX, baseY-perpY))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}
