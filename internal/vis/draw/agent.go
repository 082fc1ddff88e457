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

// ColorAgentSelected outlines selected agents.
var ColorAgentSelected = color.NRGBA{R: 255, G: 255, B: 100, A: 255}

// AgentColor returns a stable color per agent, stepping the hue by the
// golden angle so neighbours in id differ.
func AgentColor(id core.AgentID) color.NRGBA {
	h := math.Mod(float64(id)*137.508, 360)
	return hsv(h, 0.6, 0.95)
}

func hsv(h, s, v float64) color.NRGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.NRGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}
}

// AgentView is one agent to draw.
type AgentView struct {
	ID       core.AgentID
	Pos      core.Pos
	Goal     core.Pos
	AtGoal   bool
	Selected bool
	Dimmed   bool
}

// DrawAgent draws the agent as a square, its goal as a hollow square and,
// when selected, a ring around it.
func DrawAgent(gtx layout.Context, a AgentView, camera *interact.Camera) {
	size := camera.Pixels(0.45)
	if size < 6 {
		size = 6
	}
	col := AgentColor(a.ID)
	if a.Dimmed {
		col.A = 90
	}

	gx, gy := camera.WorldToScreen(a.Goal.X, a.Goal.Y)
	if !a.AtGoal {
		drawSquareOutline(gtx, gx, gy, size, 1.5, col)
	}

	x, y := camera.WorldToScreen(a.Pos.X, a.Pos.Y)
	drawSquare(gtx, x, y, size, col)
	if a.Selected {
		DrawCircleOutline(gtx, x, y, size*0.9, ColorAgentSelected, 2)
	}
}

// DrawAgents draws all agents.
func DrawAgents(gtx layout.Context, agents []AgentView, camera *interact.Camera) {
	for _, a := range agents {
		DrawAgent(gtx, a, camera)
	}
}

func drawSquare(gtx layout.Context, cx, cy, size float32, col color.NRGBA) {
	half := size / 2
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(cx-half, cy-half))
	path.LineTo(f32.Pt(cx+half, cy-half))
	path.LineTo(f32.Pt(cx+half, cy+half))
	path.LineTo(f32.Pt(cx-half, cy+half))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawSquareOutline(gtx layout.Context, cx, cy, size, width float32, col color.NRGBA) {
	half := size / 2
	paint.FillShape(gtx.Ops, col, clip.Stroke{
		Path:  rectPath(gtx, cx-half, cy-half, cx+half, cy+half),
		Width: width,
	}.Op())
}

func rectPath(gtx layout.Context, x0, y0, x1, y1 float32) clip.PathSpec {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x0, y0))
	path.LineTo(f32.Pt(x1, y0))
	path.LineTo(f32.Pt(x1, y1))
	path.LineTo(f32.Pt(x0, y1))
	path.Close()
	return path.End()
}

func drawLine(gtx layout.Context, x1, y1, x2, y2, width float32, col color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 0.1 {
		return
	}

	dx /= length
	dy /= length
	px := -dy * width / 2
	py := dx * width / 2

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+px, y1+py))
	path.LineTo(f32.Pt(x2+px, y2+py))
	path.LineTo(f32.Pt(x2-px, y2-py))
	path.LineTo(f32.Pt(x1-px, y1-py))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawFilledCircle(gtx layout.Context, cx, cy, radius float32, col color.NRGBA) {
	const segments = 16
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(cx+radius, cy))
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / segments
		path.LineTo(f32.Pt(cx+radius*float32(math.Cos(angle)), cy+radius*float32(math.Sin(angle))))
	}
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}
