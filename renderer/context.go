package renderer

import (
	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// PrimitiveKind names a shared built-in mesh.
type PrimitiveKind int

const (
	PrimitiveQuad PrimitiveKind = iota
	PrimitiveCube
)

// Context owns the device plus every mesh uploaded on behalf of passes. One
// Context serves one GL context and must be used from its goroutine.
type Context struct {
	dev        gpu.Device
	primitives map[PrimitiveKind]gpu.Mesh
	meshes     map[*scene.Geometry]gpu.Mesh
}

func NewContext(dev gpu.Device) *Context {
	return &Context{
		dev:        dev,
		primitives: map[PrimitiveKind]gpu.Mesh{},
		meshes:     map[*scene.Geometry]gpu.Mesh{},
	}
}

func (c *Context) Device() gpu.Device { return c.dev }

// Primitive returns the shared quad or cube, uploading it on first use.
func (c *Context) Primitive(kind PrimitiveKind) gpu.Mesh {
	if m, ok := c.primitives[kind]; ok {
		return m
	}
	var g *scene.Geometry
	switch kind {
	case PrimitiveQuad:
		g = scene.Quad()
	case PrimitiveCube:
		g = scene.Cube()
	default:
		panic("renderer: unknown primitive kind")
	}
	m := c.dev.UploadMesh(g.Interleaved(), g.Indices())
	c.primitives[kind] = m
	return m
}

// Mesh returns the uploaded copy of g. Geometry shared between scene meshes
// is uploaded once.
func (c *Context) Mesh(g *scene.Geometry) gpu.Mesh {
	if m, ok := c.meshes[g]; ok {
		return m
	}
	m := c.dev.UploadMesh(g.Interleaved(), g.Indices())
	c.meshes[g] = m
	return m
}

// Release deletes the uploaded copy of g, if any.
func (c *Context) Release(g *scene.Geometry) {
	if m, ok := c.meshes[g]; ok {
		c.dev.DeleteMesh(m)
		delete(c.meshes, g)
	}
}

// Destroy deletes every mesh the context uploaded.
func (c *Context) Destroy() {
	for k, m := range c.primitives {
		c.dev.DeleteMesh(m)
		delete(c.primitives, k)
	}
	for g, m := range c.meshes {
		c.dev.DeleteMesh(m)
		delete(c.meshes, g)
	}
}
