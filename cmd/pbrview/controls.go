package main

import (
	"pbr-renderer/core"
	"pbr-renderer/renderer"
	"pbr-renderer/scene"
)

const exposureStep = 0.25

// orbitControl turns left-button drags into camera orbits.
type orbitControl struct {
	dragging bool
	x, y     float64
}

func (c *orbitControl) update(w *core.Window, cam *scene.OrbitCamera) {
	if !w.IsMouseButtonPressed(core.MouseButtonLeft) {
		c.dragging = false
		return
	}
	x, y := w.CursorPos()
	if c.dragging {
		cam.Orbit(float32(x-c.x)*0.005, float32(y-c.y)*0.005)
	}
	c.dragging = true
	c.x, c.y = x, y
}

// keyEdges reports each key once per press.
type keyEdges map[int]bool

func (k keyEdges) pressed(w *core.Window, key int) bool {
	down := w.IsKeyPressed(key)
	was := k[key]
	k[key] = down
	return down && !was
}

// toggleKeys adjust the live config: B bloom, S skybox, E and Q exposure.
var toggleKeys = []int{core.KeyB, core.KeyS, core.KeyE, core.KeyQ}

func keyAction(cfg renderer.Config, key int) renderer.Config {
	switch key {
	case core.KeyB:
		cfg.Bloom.Enabled = !cfg.Bloom.Enabled
	case core.KeyS:
		cfg.Skybox = !cfg.Skybox
	case core.KeyE:
		cfg.Exposure += exposureStep
	case core.KeyQ:
		cfg.Exposure -= exposureStep
	}
	return cfg
}

// reloadedConfig takes the tunables of a reloaded file. The framebuffer
// size and the loaded scene and environment stay as they are.
func reloadedConfig(next, live renderer.Config) renderer.Config {
	next.Width, next.Height = live.Width, live.Height
	next.Scene, next.HDR = live.Scene, live.HDR
	return next
}
