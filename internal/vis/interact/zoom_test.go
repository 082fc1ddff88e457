package interact

import (
	"testing"

	"gioui.org/f32"
	"gioui.org/io/pointer"
	"github.com/stretchr/testify/assert"
)

func TestCameraTransform(t *testing.T) {
	c := NewCamera(50)

	x, y := c.WorldToScreen(1, 2)
	assert.Equal(t, float32(90), x)
	assert.Equal(t, float32(140), y)

	wx, wy := c.ScreenToWorld(x, y)
	assert.InDelta(t, 1, wx, 1e-6)
	assert.InDelta(t, 2, wy, 1e-6)

	assert.Equal(t, float32(100), c.Pixels(2))
}

func TestZoomByKeepsAnchor(t *testing.T) {
	c := NewCamera(50)
	wx, wy := c.ScreenToWorld(200, 120)

	c.ZoomBy(2, 200, 120)
	assert.Equal(t, float32(2), c.Zoom)
	sx, sy := c.WorldToScreen(wx, wy)
	assert.InDelta(t, 200, sx, 1e-3)
	assert.InDelta(t, 120, sy, 1e-3)

	c.ZoomBy(1000, 0, 0)
	assert.Equal(t, float32(maxZoom), c.Zoom)
	c.ZoomBy(1e-6, 0, 0)
	assert.Equal(t, float32(minZoom), c.Zoom)
}

func TestFit(t *testing.T) {
	c := NewCamera(50)
	c.Fit(0, 0, 10, 5, 540, 340, 20)
	assert.Equal(t, float32(1), c.Zoom)
	x, y := c.WorldToScreen(5, 2.5)
	assert.InDelta(t, 270, x, 1e-3)
	assert.InDelta(t, 170, y, 1e-3)

	// only the first call fits
	c.Fit(0, 0, 1, 1, 540, 340, 20)
	assert.Equal(t, float32(1), c.Zoom)

	c.Reset()
	c.Fit(0, 0, 1, 1, 540, 340, 20)
	assert.InDelta(t, 6, c.Zoom, 1e-5)
}

func TestFitSinglePoint(t *testing.T) {
	c := NewCamera(50)
	c.Fit(3, 3, 3, 3, 400, 200, 20)
	x, y := c.WorldToScreen(3, 3)
	assert.InDelta(t, 200, x, 1e-3)
	assert.InDelta(t, 100, y, 1e-3)
}

func TestFitWaitsForLayout(t *testing.T) {
	c := NewCamera(50)
	c.Fit(0, 0, 10, 10, 0, 0, 20)
	assert.False(t, c.fitted)
}

func TestHandleEvent(t *testing.T) {
	c := NewCamera(50)

	c.HandleEvent(pointer.Event{Kind: pointer.Press, Buttons: pointer.ButtonSecondary, Position: f32.Pt(10, 10)})
	c.HandleEvent(pointer.Event{Kind: pointer.Drag, Buttons: pointer.ButtonSecondary, Position: f32.Pt(30, 15)})
	c.HandleEvent(pointer.Event{Kind: pointer.Release, Position: f32.Pt(30, 15)})
	assert.Equal(t, float32(60), c.OffsetX)
	assert.Equal(t, float32(45), c.OffsetY)

	// primary drags select, they do not pan
	c.HandleEvent(pointer.Event{Kind: pointer.Press, Buttons: pointer.ButtonPrimary, Position: f32.Pt(0, 0)})
	c.HandleEvent(pointer.Event{Kind: pointer.Drag, Buttons: pointer.ButtonPrimary, Position: f32.Pt(50, 50)})
	assert.Equal(t, float32(60), c.OffsetX)

	c.HandleEvent(pointer.Event{Kind: pointer.Scroll, Scroll: f32.Pt(0, -1), Position: f32.Pt(100, 100)})
	assert.InDelta(t, zoomFactor, c.Zoom, 1e-6)
	c.HandleEvent(pointer.Event{Kind: pointer.Scroll, Scroll: f32.Pt(0, 1), Position: f32.Pt(100, 100)})
	assert.InDelta(t, 1, c.Zoom, 1e-6)
}
