// Package interact handles user interactions like pan, zoom, and selection.
package interact

import (
	"gioui.org/io/pointer"
)

const (
	minZoom    = 0.1
	maxZoom    = 20
	zoomFactor = 1.1
)

// Camera manages view transformation (pan and zoom). World coordinates are
// graph units; Scale is the number of pixels per unit at zoom 1.
type Camera struct {
	OffsetX float32 // Pan offset in screen pixels
	OffsetY float32
	Zoom    float32
	Scale   float32

	dragging bool
	lastX    float32
	lastY    float32
	fitted   bool
}

// NewCamera creates a camera drawing one graph unit as scale pixels.
func NewCamera(scale float32) *Camera {
	c := &Camera{Scale: scale}
	c.Reset()
	return c
}

// Reset returns to the default view; the next Fit call refits the graph.
func (c *Camera) Reset() {
	c.OffsetX = 40
	c.OffsetY = 40
	c.Zoom = 1
	c.fitted = false
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(worldX, worldY float64) (screenX, screenY float32) {
	k := c.Zoom * c.Scale
	return float32(worldX)*k + c.OffsetX, float32(worldY)*k + c.OffsetY
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(screenX, screenY float32) (worldX, worldY float64) {
	k := c.Zoom * c.Scale
	return float64((screenX - c.OffsetX) / k), float64((screenY - c.OffsetY) / k)
}

// Pixels converts a length in world units to pixels.
func (c *Camera) Pixels(world float64) float32 {
	return float32(world) * c.Zoom * c.Scale
}

// HandleEvent pans on secondary/tertiary drag and zooms on scroll.
func (c *Camera) HandleEvent(ev pointer.Event) {
	switch ev.Kind {
	case pointer.Press:
		c.dragging = ev.Buttons.Contain(pointer.ButtonSecondary) || ev.Buttons.Contain(pointer.ButtonTertiary)
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Drag:
		if c.dragging {
			c.Pan(ev.Position.X-c.lastX, ev.Position.Y-c.lastY)
		}
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Release:
		c.dragging = false

	case pointer.Scroll:
		switch {
		case ev.Scroll.Y > 0:
			c.ZoomBy(1/zoomFactor, ev.Position.X, ev.Position.Y)
		case ev.Scroll.Y < 0:
			c.ZoomBy(zoomFactor, ev.Position.X, ev.Position.Y)
		}
	}
}

// Pan pans the camera by the given screen delta.
func (c *Camera) Pan(dx, dy float32) {
	c.OffsetX += dx
	c.OffsetY += dy
}

// ZoomBy zooms by factor keeping the world point under (centerX, centerY)
// in place.
func (c *Camera) ZoomBy(factor float32, centerX, centerY float32) {
	worldX, worldY := c.ScreenToWorld(centerX, centerY)
	c.Zoom = clamp(c.Zoom*factor, minZoom, maxZoom)
	newX, newY := c.WorldToScreen(worldX, worldY)
	c.OffsetX += centerX - newX
	c.OffsetY += centerY - newY
}

// CenterOn centers the camera on a world position.
func (c *Camera) CenterOn(worldX, worldY float64, screenWidth, screenHeight float32) {
	k := c.Zoom * c.Scale
	c.OffsetX = screenWidth/2 - float32(worldX)*k
	c.OffsetY = screenHeight/2 - float32(worldY)*k
}

// Fit adjusts the camera once so the world bounds fill the screen minus
// margin. Later calls are no-ops until Reset.
func (c *Camera) Fit(minX, minY, maxX, maxY float64, screenWidth, screenHeight, margin float32) {
	if c.fitted || screenWidth <= 2*margin || screenHeight <= 2*margin {
		return
	}
	c.fitted = true

	worldW, worldH := maxX-minX, maxY-minY
	if worldW <= 0 && worldH <= 0 {
		c.Zoom = 1
		c.CenterOn(minX, minY, screenWidth, screenHeight)
		return
	}

	zoom := float32(maxZoom)
	if worldW > 0 {
		zoom = (screenWidth - 2*margin) / (float32(worldW) * c.Scale)
	}
	if worldH > 0 {
		if zy := (screenHeight - 2*margin) / (float32(worldH) * c.Scale); zy < zoom {
			zoom = zy
		}
	}
	c.Zoom = clamp(zoom, minZoom, maxZoom)
	c.CenterOn((minX+maxX)/2, (minY+maxY)/2, screenWidth, screenHeight)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
