package renderer

import (
	"fmt"

	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// shadowEntry is the shadow pass owned by one light.
type shadowEntry struct {
	revision uint64
	planar   *DepthPass
	cube     *CubeDepthPass
}

func (e *shadowEntry) pass() Pass {
	if e.cube != nil {
		return e.cube
	}
	return e.planar
}

func (e *shadowEntry) texture() (gpu.Texture, gpu.Target) {
	if e.cube != nil {
		return e.cube.Depth(), gpu.TextureCube
	}
	return e.planar.Depth(), gpu.Texture2D
}

// shadowTable maps light shadow handles to their passes. Lights hold only
// the handle; the table owns the GPU objects.
type shadowTable struct {
	ctx         *Context
	defaultSize int
	entries     map[scene.ShadowHandle]*shadowEntry
	next        scene.ShadowHandle
}

func newShadowTable(ctx *Context, defaultSize int) *shadowTable {
	return &shadowTable{
		ctx:         ctx,
		defaultSize: defaultSize,
		entries:     map[scene.ShadowHandle]*shadowEntry{},
	}
}

// sync gives every light an up-to-date shadow pass. Entries whose light was
// reinitialized are recreated; entries of lights not in lights are destroyed.
func (t *shadowTable) sync(lights []*scene.Light) {
	live := make(map[scene.ShadowHandle]bool, len(lights))
	for _, l := range lights {
		e, ok := t.entries[l.Shadow]
		switch {
		case ok && live[l.Shadow]:
			// handle copied from another light in this frame
			ok = false
		case ok && (e.revision != l.Revision() || (e.cube != nil) != (l.Kind == scene.Point)):
			e.pass().Destroy()
			delete(t.entries, l.Shadow)
			ok = false
		}
		if !ok {
			t.next++
			l.Shadow = t.next
			t.entries[l.Shadow] = t.newEntry(l)
		}
		live[l.Shadow] = true
	}
	for h, e := range t.entries {
		if !live[h] {
			e.pass().Destroy()
			delete(t.entries, h)
		}
	}
}

func (t *shadowTable) newEntry(l *scene.Light) *shadowEntry {
	size := l.ShadowSize
	if size < 1 {
		size = t.defaultSize
	}
	e := &shadowEntry{revision: l.Revision()}
	if l.Kind == scene.Point {
		e.cube = NewCubeDepthPass(t.ctx, size)
	} else {
		e.planar = NewDepthPass(t.ctx, size, gpu.CullFront)
	}
	Logger().Debug("shadow target created", "handle", l.Shadow, "light", l.Kind, "size", size)
	return e
}

// render refreshes the shadow map of every light. sync must run first.
// render draws every light's shadow map and returns the number of draws.
func (t *shadowTable) render(lights []*scene.Light, meshes []*scene.Mesh) (int, error) {
	draws := 0
	for _, l := range lights {
		e := t.lookup(l)
		if e.cube != nil {
			if err := e.cube.Render(meshes, l.Camera().(*scene.Camera360)); err != nil {
				return draws, err
			}
			draws += e.cube.Drawn()
			continue
		}
		if err := e.planar.Render(meshes, l.LightSpace()); err != nil {
			return draws, err
		}
		draws += e.planar.Drawn()
	}
	return draws, nil
}

func (t *shadowTable) lookup(l *scene.Light) *shadowEntry {
	e, ok := t.entries[l.Shadow]
	if !ok {
		panic(fmt.Sprintf("renderer: %s light has no shadow target (handle %d)", l.Kind, l.Shadow))
	}
	return e
}

func (t *shadowTable) len() int { return len(t.entries) }

func (t *shadowTable) destroy() {
	for h, e := range t.entries {
		e.pass().Destroy()
		delete(t.entries, h)
	}
}
