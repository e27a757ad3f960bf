// Package opengl implements gpu.Device on an OpenGL 4.1 core context. It is
// the only package that calls into go-gl.
package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"pbr-renderer/gpu"
	"pbr-renderer/math"
)

type Device struct {
	// bound is restored after any call that has to bind another framebuffer.
	bound      gpu.Framebuffer
	current    gpu.Program
	depthWrite bool
	locations  map[gpu.Program]map[string]int32
}

var _ gpu.Device = (*Device)(nil)

// NewDevice loads the GL entry points. A context must be current on the
// calling thread.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &Device{locations: map[gpu.Program]map[string]int32{}}, nil
}

// Version returns the driver's GL_VERSION string.
func (d *Device) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) BindTexture(unit int, target gpu.Target, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(glTarget(target), uint32(tex))
}

func (d *Device) ApplyState(state gpu.PipelineState) {
	setCap(gl.DEPTH_TEST, state.DepthTest)
	gl.DepthMask(state.DepthWrite)
	d.depthWrite = state.DepthWrite
	if state.DepthFunc == gpu.DepthLessEqual {
		gl.DepthFunc(gl.LEQUAL)
	} else {
		gl.DepthFunc(gl.LESS)
	}

	switch state.Cull {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	}

	if state.Blend == gpu.BlendAdditive {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.Disable(gl.BLEND)
	}

	setCap(gl.TEXTURE_CUBE_MAP_SEAMLESS, state.SeamlessCubemap)
}

func setCap(c uint32, on bool) {
	if on {
		gl.Enable(c)
	} else {
		gl.Disable(c)
	}
}

// ── Uniforms ─────────────────────────────────────────────────────────────────

func (d *Device) location(name string) int32 {
	cache := d.locations[d.current]
	if cache == nil {
		cache = map[string]int32{}
		d.locations[d.current] = cache
	}
	if loc, ok := cache[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(d.current), gl.Str(name+"\x00"))
	cache[name] = loc
	return loc
}

func (d *Device) SetInt(name string, v int32) {
	gl.Uniform1i(d.location(name), v)
}

func (d *Device) SetFloat(name string, v float32) {
	gl.Uniform1f(d.location(name), v)
}

func (d *Device) SetVec2(name string, x, y float32) {
	gl.Uniform2f(d.location(name), x, y)
}

func (d *Device) SetVec3(name string, v math.Vec3) {
	gl.Uniform3f(d.location(name), v.X, v.Y, v.Z)
}

func (d *Device) SetMat4(name string, m math.Mat4) {
	gl.UniformMatrix4fv(d.location(name), 1, false, &m[0][0])
}

// ── Meshes ───────────────────────────────────────────────────────────────────

// UploadMesh stores interleaved position/normal/uv vertices. Attribute
// locations are fixed: 0 position, 1 uv, 2 normal.
func (d *Device) UploadMesh(vertices []float32, indices []uint32) gpu.Mesh {
	const stride = 8 * 4
	m := gpu.Mesh{IndexCount: int32(len(indices))}

	gl.GenVertexArrays(1, &m.VAO)
	gl.GenBuffers(1, &m.VBO)
	gl.GenBuffers(1, &m.EBO)
	gl.BindVertexArray(m.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(6*4))

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m
}

func (d *Device) DeleteMesh(m gpu.Mesh) {
	gl.DeleteVertexArrays(1, &m.VAO)
	gl.DeleteBuffers(1, &m.VBO)
	gl.DeleteBuffers(1, &m.EBO)
}

func (d *Device) DrawMesh(m gpu.Mesh) {
	gl.BindVertexArray(m.VAO)
	gl.DrawElements(gl.TRIANGLES, m.IndexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}
