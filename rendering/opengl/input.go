package opengl

import (
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"climateglobe/core"
	"climateglobe/rendering"
)

// clickSlop is how far the pointer may move, in pixels, before a press is
// treated as a drag instead of a pick
const clickSlop = 4.0

func (r *GlobeRenderer) installCallbacks() {
	r.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		r.onResize(width, height)
	})

	r.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		r.onKey(key, action, mods)
	})

	r.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		r.camera.Zoom(yoff)
	})

	r.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		r.onMouseButton(button, action)
	})

	r.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		r.onMouseMove(xpos, ypos)
	})
}

func (r *GlobeRenderer) onResize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	if r.legend != nil {
		r.legend.UpdateSize(width, height)
		r.lastLegend = rendering.Legend{}
	}
	if ww, _ := r.window.GetSize(); ww > 0 {
		r.framebufferScale = float64(width) / float64(ww)
	}
}

func (r *GlobeRenderer) onKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}

	switch key {
	case glfw.KeyEscape:
		r.window.SetShouldClose(true)
	case glfw.KeyTab:
		if r.input == nil {
			return
		}
		if mods&glfw.ModShift != 0 {
			r.input.CycleRegion(-1)
		} else {
			r.input.CycleRegion(1)
		}
	case glfw.KeyG:
		if r.input != nil {
			r.input.SelectRegion(core.Global)
		}
	case glfw.KeyA:
		r.camera.AutoRotate = !r.camera.AutoRotate
		r.logger.Info("auto-rotate", "enabled", r.camera.AutoRotate)
	case glfw.KeyF1:
		r.showLegend = !r.showLegend
	}
}

// onMouseButton starts a drag on press and picks a region on a release that
// did not move the camera
func (r *GlobeRenderer) onMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		r.mouseDown = true
		r.dragged = false
		r.lastMouseX, r.lastMouseY = r.window.GetCursorPos()
	case glfw.Release:
		r.mouseDown = false
		if !r.dragged {
			r.pick(r.window.GetCursorPos())
		}
	}
}

func (r *GlobeRenderer) onMouseMove(xpos, ypos float64) {
	if !r.mouseDown {
		return
	}
	dx := xpos - r.lastMouseX
	dy := ypos - r.lastMouseY
	if !r.dragged && math.Hypot(dx, dy) < clickSlop {
		return
	}
	r.dragged = true
	r.camera.Drag(dx, dy)
	r.lastMouseX = xpos
	r.lastMouseY = ypos
}

// pick converts a cursor position (window coordinates) into a selection
func (r *GlobeRenderer) pick(xpos, ypos float64) {
	if r.input == nil {
		return
	}
	scale := r.framebufferScale
	if scale <= 0 {
		scale = 1
	}
	hit, ok := rendering.PickRegion(r.camera, xpos*scale, ypos*scale, r.width, r.height, r.globeAngle)
	if !ok {
		return
	}
	r.logger.Debug("picked", "region", hit.Region, "lat", hit.Geo.Lat, "lon", hit.Geo.Lon)
	r.input.SelectRegion(hit.Region)
}
