// Package widgets provides Gio UI widgets for the visualizer.
package widgets

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/draw"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/interact"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/state"
)

// Move colors by planner decision.
var moveColors = map[string]color.NRGBA{
	"push":   {R: 240, G: 140, B: 60, A: 200},
	"swap":   {R: 200, G: 90, B: 230, A: 200},
	"pass":   {R: 90, G: 210, B: 200, A: 200},
	"forced": {R: 90, G: 210, B: 200, A: 200},
}

// Workspace is the main 2D view of the graph and agents.
type Workspace struct {
	state  *state.State
	camera *interact.Camera
}

// NewWorkspace creates a new workspace widget.
func NewWorkspace(st *state.State, camera *interact.Camera) *Workspace {
	return &Workspace{
		state:  st,
		camera: camera,
	}
}

// Layout renders the workspace.
func (w *Workspace) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	bounds := gtx.Constraints.Max
	defer clip.Rect(image.Rect(0, 0, bounds.X, bounds.Y)).Push(gtx.Ops).Pop()

	paint.Fill(gtx.Ops, color.NRGBA{R: 25, G: 28, B: 32, A: 255})

	positions := w.state.VertexPositions()
	minX, minY, maxX, maxY := state.Bounds(positions)
	w.camera.Fit(minX, minY, maxX, maxY, float32(bounds.X), float32(bounds.Y), 40)

	w.handlePointerEvents(gtx)

	draw.DrawGrid(gtx, w.camera, 1, color.NRGBA{R: 34, G: 38, B: 43, A: 255})

	sel := w.state.Selection
	view := draw.GraphView{
		Graph:     w.state.Instance.Graph,
		Positions: positions,
		Selected:  sel.Vertex,
		HasSel:    sel.HasVertex,
	}
	if sel.ShowLoad {
		view.Load = w.state.Load()
	}
	draw.DrawGraph(gtx, view, w.camera)

	if sel.ShowPaths {
		for _, a := range w.state.Instance.Agents {
			if !sel.Highlighted(a.ID) {
				continue
			}
			col := draw.AgentColor(a.ID)
			draw.DrawPathTrail(gtx, w.state.PathHistory(a.ID), w.camera, col, 3)
			draw.DrawFuturePath(gtx, w.state.FuturePath(a.ID), w.camera, col)
		}
	}

	for _, m := range w.state.Trace.Active(w.state.Playback.CurrentTime) {
		col, ok := moveColors[m.Kind]
		if !ok {
			continue
		}
		from, _ := w.state.VertexPos(m.From)
		to, _ := w.state.VertexPos(m.To)
		draw.DrawMove(gtx, from, to, w.camera, col)
	}

	draw.DrawAgents(gtx, w.agentViews(), w.camera)

	if sel.HasVertex {
		w.layoutVertexInfo(gtx, th)
	}
	return layout.Dimensions{Size: bounds}
}

func (w *Workspace) agentViews() []draw.AgentView {
	positions := w.state.CurrentPositions()
	sol := w.state.Solution
	out := make([]draw.AgentView, 0, len(w.state.Instance.Agents))
	for _, a := range w.state.Instance.Agents {
		goal, _ := w.state.VertexPos(a.Goal)
		atGoal := false
		if sol != nil {
			if end, ok := sol.Paths[a.ID].End(); ok {
				atGoal = sol.AtGoal[a.ID] && w.state.Playback.CurrentTime >= end.T
			}
		}
		out = append(out, draw.AgentView{
			ID:       a.ID,
			Pos:      positions[a.ID],
			Goal:     goal,
			AtGoal:   atGoal,
			Selected: w.state.Selection.Agents[a.ID],
			Dimmed:   !w.state.Selection.Highlighted(a.ID),
		})
	}
	return out
}

// layoutVertexInfo shows capacity and load of the selected vertex in the
// top-left corner.
func (w *Workspace) layoutVertexInfo(gtx layout.Context, th *material.Theme) {
	v := w.state.Selection.Vertex
	g := w.state.Instance.Graph
	txt := fmt.Sprintf("vertex %d  capacity %d  load %d", v, g.MaxCapacity(v), w.state.Load()[v])
	if p, ok := w.state.VertexPos(v); ok {
		txt += fmt.Sprintf("  (%.1f, %.1f)", p.X, p.Y)
	}

	defer op.Offset(image.Pt(8, 8)).Push(gtx.Ops).Pop()
	layout.Inset{Top: unit.Dp(2), Left: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		label := material.Label(th, 12, txt)
		label.Color = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
		return label.Layout(gtx)
	})
}

func (w *Workspace) handlePointerEvents(gtx layout.Context) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, gtx.Constraints.Max.Y)).Push(gtx.Ops)
	event.Op(gtx.Ops, w)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		w.camera.HandleEvent(pe)
		if pe.Kind == pointer.Press && pe.Buttons.Contain(pointer.ButtonPrimary) {
			w.handleClick(pe.Position.X, pe.Position.Y, pe.Modifiers.Contain(key.ModShift))
		}
	}
}

func (w *Workspace) handleClick(screenX, screenY float32, multi bool) {
	positions := w.state.CurrentPositions()
	for _, a := range w.state.Instance.Agents {
		if draw.HitTest(screenX, screenY, positions[a.ID], w.camera, w.camera.Pixels(0.3)+3) {
			w.state.Selection.SelectAgent(a.ID, multi)
			return
		}
	}

	if v, ok := draw.FindVertexAt(screenX, screenY, w.state.VertexPositions(), w.camera); ok {
		w.state.Selection.SelectVertex(v)
		return
	}

	if !multi {
		w.state.Selection.Clear()
	}
}
