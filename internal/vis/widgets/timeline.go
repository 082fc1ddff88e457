package widgets

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/state"
)

const timelineMargin = 20

// Timeline is a time scrubber with a tick per plan event.
type Timeline struct {
	state    *state.State
	dragging bool
}

// NewTimeline creates a new timeline widget.
func NewTimeline(st *state.State) *Timeline {
	return &Timeline{
		state: st,
	}
}

// Layout renders the timeline.
func (t *Timeline) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	height := 60
	width := gtx.Constraints.Max.X

	rect := image.Rect(0, 0, width, height)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 35, G: 38, B: 42, A: 255}, clip.Rect(rect).Op())

	trackWidth := width - 2*timelineMargin
	t.handlePointerEvents(gtx, height, trackWidth)

	trackY := height / 2
	trackHeight := 6
	trackRect := image.Rect(timelineMargin, trackY-trackHeight/2, timelineMargin+trackWidth, trackY+trackHeight/2)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 65, B: 70, A: 255}, clip.Rect(trackRect).Op())

	pb := t.state.Playback
	progress := pb.Progress()
	fillWidth := int(float64(trackWidth) * progress)
	if fillWidth > 0 {
		fillRect := image.Rect(timelineMargin, trackY-trackHeight/2, timelineMargin+fillWidth, trackY+trackHeight/2)
		paint.FillShape(gtx.Ops, color.NRGBA{R: 100, G: 180, B: 255, A: 255}, clip.Rect(fillRect).Op())
	}

	if pb.MaxTime > 0 {
		tick := color.NRGBA{R: 180, G: 185, B: 190, A: 160}
		for _, at := range pb.Events {
			x := timelineMargin + int(float64(trackWidth)*at/pb.MaxTime)
			paint.FillShape(gtx.Ops, tick, clip.Rect(image.Rect(x, trackY+trackHeight/2+2, x+1, trackY+trackHeight/2+8)).Op())
		}
	}

	playheadX := timelineMargin + fillWidth
	playheadSize := 12
	playheadRect := image.Rect(playheadX-playheadSize/2, trackY-playheadSize/2, playheadX+playheadSize/2, trackY+playheadSize/2)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, clip.Rect(playheadRect).Op())

	t.drawLabels(gtx, th)

	return layout.Dimensions{Size: image.Point{X: width, Y: height}}
}

func (t *Timeline) drawLabels(gtx layout.Context, th *material.Theme) {
	pb := t.state.Playback

	currentLabel := material.Label(th, 12, fmt.Sprintf("%.2fs", pb.CurrentTime))
	currentLabel.Color = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	currentLabel.Alignment = text.Start

	status := ""
	if sol := t.state.Solution; sol != nil {
		status = fmt.Sprintf("%s  %d/%d at goal  SoC %.2f", sol.Status, sol.NumAtGoal(), len(t.state.Instance.Agents), sol.SoC)
	}
	statusLabel := material.Label(th, 12, fmt.Sprintf("%s  %.1fx", status, pb.Speed))
	statusLabel.Color = color.NRGBA{R: 150, G: 180, B: 200, A: 255}

	maxLabel := material.Label(th, 12, fmt.Sprintf("%.2fs", pb.MaxTime))
	maxLabel.Color = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	maxLabel.Alignment = text.End

	layout.Inset{Top: unit.Dp(4), Left: unit.Dp(timelineMargin), Right: unit.Dp(timelineMargin)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Spacing: layout.SpaceBetween}.Layout(gtx,
			layout.Rigid(currentLabel.Layout),
			layout.Rigid(statusLabel.Layout),
			layout.Rigid(maxLabel.Layout),
		)
	})
}

func (t *Timeline) handlePointerEvents(gtx layout.Context, height, trackWidth int) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, height)).Push(gtx.Ops)
	event.Op(gtx.Ops, t)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: t,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			t.dragging = true
			t.seek(pe.Position.X, trackWidth)
		case pointer.Drag:
			if t.dragging {
				t.seek(pe.Position.X, trackWidth)
			}
		case pointer.Release:
			t.dragging = false
		}
	}
}

func (t *Timeline) seek(screenX float32, trackWidth int) {
	if trackWidth <= 0 {
		return
	}
	progress := (float64(screenX) - timelineMargin) / float64(trackWidth)
	t.state.Playback.SetTime(progress * t.state.Playback.MaxTime)
}
