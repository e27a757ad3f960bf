// Package gputest provides a recording gpu.Device for tests. It tracks every
// allocation, validates framebuffer completeness with the same rules a GL
// driver applies, and snapshots bindings and uniforms at each draw.
package gputest

import (
	"fmt"
	"maps"

	"pbr-renderer/gpu"
	"pbr-renderer/math"
)

type Attached struct {
	Texture      gpu.Texture
	Renderbuffer gpu.Renderbuffer
	Face         gpu.Face
	Level        int
}

type FramebufferState struct {
	Attachments map[gpu.Attachment]Attached
	DrawBuffers int
}

type RenderbufferState struct {
	Format        gpu.Format
	Width, Height int
}

type ProgramState struct {
	Name     string
	Vertex   string
	Fragment string
	Uniforms map[string]any
}

type Binding struct {
	Target  gpu.Target
	Texture gpu.Texture
}

// Draw is a snapshot of the device state at a DrawMesh call.
type Draw struct {
	Framebuffer gpu.Framebuffer
	Program     gpu.Program
	ProgramName string
	Mesh        gpu.Mesh
	Viewport    [2]int
	State       gpu.PipelineState
	Bindings    map[int]Binding
	Targets     map[gpu.Attachment]Attached
	Uniforms    map[string]any
}

type Device struct {
	Textures      map[gpu.Texture]gpu.TextureDesc
	Framebuffers  map[gpu.Framebuffer]*FramebufferState
	Renderbuffers map[gpu.Renderbuffer]RenderbufferState
	Programs      map[gpu.Program]*ProgramState
	Meshes        map[uint32]gpu.Mesh

	// Allocations counts every object ever created; Deletions every object
	// released.
	Allocations int
	Deletions   int
	Mipmaps     int
	Clears      int
	Blits       int
	Reads       int

	// Log is an ordered, human-readable command stream.
	Log   []string
	Draws []Draw

	// FailProgram makes CreateProgram fail for the named program ("*" for all).
	FailProgram string
	// FailFramebuffer makes every CheckFramebuffer call fail.
	FailFramebuffer bool

	next     uint32
	bound    gpu.Framebuffer
	program  gpu.Program
	units    map[int]Binding
	state    gpu.PipelineState
	viewport [2]int
}

var _ gpu.Device = (*Device)(nil)

func New() *Device {
	return &Device{
		Textures:      map[gpu.Texture]gpu.TextureDesc{},
		Framebuffers:  map[gpu.Framebuffer]*FramebufferState{},
		Renderbuffers: map[gpu.Renderbuffer]RenderbufferState{},
		Programs:      map[gpu.Program]*ProgramState{},
		Meshes:        map[uint32]gpu.Mesh{},
		units:         map[int]Binding{},
	}
}

func (d *Device) alloc() uint32 {
	d.next++
	d.Allocations++
	return d.next
}

func (d *Device) logf(format string, args ...any) {
	d.Log = append(d.Log, fmt.Sprintf(format, args...))
}

// Live returns the number of objects that have not been deleted.
func (d *Device) Live() int {
	return len(d.Textures) + len(d.Framebuffers) + len(d.Renderbuffers) + len(d.Programs) + len(d.Meshes)
}

// TextureSize returns the dimensions of tex at the given mip level.
func (d *Device) TextureSize(tex gpu.Texture, level int) (int, int) {
	desc, ok := d.Textures[tex]
	if !ok {
		return 0, 0
	}
	return max(desc.Width>>level, 1), max(desc.Height>>level, 1)
}

// ProgramNamed finds a live program by name.
func (d *Device) ProgramNamed(name string) (gpu.Program, bool) {
	for p, ps := range d.Programs {
		if ps.Name == name {
			return p, true
		}
	}
	return 0, false
}

// DrawsFor returns the draws issued with the named program.
func (d *Device) DrawsFor(name string) []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.ProgramName == name {
			out = append(out, dr)
		}
	}
	return out
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) gpu.Texture {
	tex := gpu.Texture(d.alloc())
	d.Textures[tex] = desc
	d.logf("texture %d %s %dx%d levels=%d target=%d", tex, desc.Format, desc.Width, desc.Height, desc.MipLevels(), desc.Target)
	return tex
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	if _, ok := d.Textures[tex]; ok {
		delete(d.Textures, tex)
		d.Deletions++
		d.logf("delete texture %d", tex)
	}
}

func (d *Device) GenerateMipmap(target gpu.Target, tex gpu.Texture) {
	d.Mipmaps++
	d.logf("mipmap %d", tex)
}

func (d *Device) CreateRenderbuffer(format gpu.Format, width, height int) gpu.Renderbuffer {
	rb := gpu.Renderbuffer(d.alloc())
	d.Renderbuffers[rb] = RenderbufferState{Format: format, Width: width, Height: height}
	d.logf("renderbuffer %d %s %dx%d", rb, format, width, height)
	return rb
}

func (d *Device) ResizeRenderbuffer(rb gpu.Renderbuffer, format gpu.Format, width, height int) {
	d.Renderbuffers[rb] = RenderbufferState{Format: format, Width: width, Height: height}
	d.logf("resize renderbuffer %d %dx%d", rb, width, height)
}

func (d *Device) DeleteRenderbuffer(rb gpu.Renderbuffer) {
	if _, ok := d.Renderbuffers[rb]; ok {
		delete(d.Renderbuffers, rb)
		d.Deletions++
		d.logf("delete renderbuffer %d", rb)
	}
}

func (d *Device) CreateFramebuffer() gpu.Framebuffer {
	fb := gpu.Framebuffer(d.alloc())
	d.Framebuffers[fb] = &FramebufferState{Attachments: map[gpu.Attachment]Attached{}, DrawBuffers: 1}
	d.logf("framebuffer %d", fb)
	return fb
}

func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	if _, ok := d.Framebuffers[fb]; ok {
		delete(d.Framebuffers, fb)
		d.Deletions++
		d.logf("delete framebuffer %d", fb)
	}
}

func (d *Device) mustFramebuffer(fb gpu.Framebuffer) *FramebufferState {
	st, ok := d.Framebuffers[fb]
	if !ok {
		panic(fmt.Sprintf("gputest: framebuffer %d does not exist", fb))
	}
	return st
}

func (d *Device) AttachTexture(fb gpu.Framebuffer, at gpu.Attachment, tex gpu.Texture, face gpu.Face, level int) {
	d.mustFramebuffer(fb).Attachments[at] = Attached{Texture: tex, Face: face, Level: level}
	d.logf("attach fb=%d at=%d tex=%d face=%d level=%d", fb, at, tex, face, level)
}

func (d *Device) AttachRenderbuffer(fb gpu.Framebuffer, rb gpu.Renderbuffer) {
	d.mustFramebuffer(fb).Attachments[gpu.DepthAttachment] = Attached{Renderbuffer: rb, Face: gpu.NoFace}
	d.logf("attach fb=%d depth rb=%d", fb, rb)
}

func (d *Device) SetDrawBuffers(fb gpu.Framebuffer, n int) {
	d.mustFramebuffer(fb).DrawBuffers = n
	d.logf("drawbuffers fb=%d n=%d", fb, n)
}

func (d *Device) CheckFramebuffer(fb gpu.Framebuffer) error {
	incomplete := func(format string, args ...any) error {
		return fmt.Errorf("%w: framebuffer %d: %s", gpu.ErrIncompleteFramebuffer, fb, fmt.Sprintf(format, args...))
	}

	st, ok := d.Framebuffers[fb]
	switch {
	case !ok:
		return incomplete("does not exist")
	case d.FailFramebuffer:
		return incomplete("injected failure")
	case len(st.Attachments) == 0:
		return incomplete("missing attachment")
	}

	width, height := -1, -1
	for at, a := range st.Attachments {
		var w, h int
		var format gpu.Format
		if a.Renderbuffer != 0 {
			rb, ok := d.Renderbuffers[a.Renderbuffer]
			if !ok {
				return incomplete("renderbuffer %d deleted", a.Renderbuffer)
			}
			w, h, format = rb.Width, rb.Height, rb.Format
		} else {
			desc, ok := d.Textures[a.Texture]
			if !ok {
				return incomplete("texture %d deleted", a.Texture)
			}
			if a.Level >= desc.MipLevels() {
				return incomplete("level %d beyond %d", a.Level, desc.MipLevels())
			}
			if (desc.Target == gpu.TextureCube) != (a.Face != gpu.NoFace) {
				return incomplete("face %d does not match texture target", a.Face)
			}
			w, h = d.TextureSize(a.Texture, a.Level)
			format = desc.Format
		}

		if w < 1 || h < 1 {
			return incomplete("zero-sized attachment")
		}
		if (at == gpu.DepthAttachment) != format.IsDepth() {
			return incomplete("attachment %d has format %s", at, format)
		}
		if width < 0 {
			width, height = w, h
		} else if w != width || h != height {
			return incomplete("attachment sizes differ")
		}
	}

	for i := 0; i < st.DrawBuffers; i++ {
		if _, ok := st.Attachments[gpu.ColorAttachment(i)]; !ok {
			return incomplete("draw buffer %d has no attachment", i)
		}
	}
	return nil
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) {
	d.bound = fb
	d.logf("bind fb=%d", fb)
}

// Bound returns the currently bound framebuffer.
func (d *Device) Bound() gpu.Framebuffer {
	return d.bound
}

func (d *Device) Viewport(width, height int) {
	d.viewport = [2]int{width, height}
	d.logf("viewport %dx%d", width, height)
}

func (d *Device) Clear(mask gpu.BufferMask, color [4]float32) {
	d.Clears++
	d.logf("clear fb=%d mask=%d color=%v", d.bound, mask, color)
}

func (d *Device) Blit(src, dst gpu.Framebuffer, srcW, srcH, dstW, dstH int, mask gpu.BufferMask) {
	d.Blits++
	d.logf("blit %d->%d %dx%d->%dx%d mask=%d", src, dst, srcW, srcH, dstW, dstH, mask)
}

func (d *Device) CreateProgram(name, vertex, fragment string) (gpu.Program, error) {
	if d.FailProgram == "*" || d.FailProgram == name {
		return 0, fmt.Errorf("program %s: compile failed: 0:1: injected error", name)
	}
	p := gpu.Program(d.alloc())
	d.Programs[p] = &ProgramState{Name: name, Vertex: vertex, Fragment: fragment, Uniforms: map[string]any{}}
	d.logf("program %d %s", p, name)
	return p, nil
}

func (d *Device) DeleteProgram(p gpu.Program) {
	if _, ok := d.Programs[p]; ok {
		delete(d.Programs, p)
		d.Deletions++
		d.logf("delete program %d", p)
	}
}

func (d *Device) UseProgram(p gpu.Program) {
	d.program = p
	d.logf("use program %d", p)
}

func (d *Device) setUniform(name string, v any) {
	ps, ok := d.Programs[d.program]
	if !ok {
		panic(fmt.Sprintf("gputest: uniform %q set with no program bound", name))
	}
	ps.Uniforms[name] = v
	d.logf("uniform %s=%v", name, v)
}

func (d *Device) SetInt(name string, v int32)       { d.setUniform(name, v) }
func (d *Device) SetFloat(name string, v float32)   { d.setUniform(name, v) }
func (d *Device) SetVec2(name string, x, y float32) { d.setUniform(name, [2]float32{x, y}) }
func (d *Device) SetVec3(name string, v math.Vec3)  { d.setUniform(name, v) }
func (d *Device) SetMat4(name string, m math.Mat4)  { d.setUniform(name, m) }

func (d *Device) BindTexture(unit int, target gpu.Target, tex gpu.Texture) {
	d.units[unit] = Binding{Target: target, Texture: tex}
	d.logf("bind unit=%d target=%d tex=%d", unit, target, tex)
}

func (d *Device) ApplyState(state gpu.PipelineState) {
	d.state = state
	d.logf("state %+v", state)
}

func (d *Device) UploadMesh(vertices []float32, indices []uint32) gpu.Mesh {
	vao := d.alloc()
	m := gpu.Mesh{VAO: vao, VBO: vao, EBO: vao, IndexCount: int32(len(indices))}
	d.Meshes[vao] = m
	d.logf("mesh %d verts=%d indices=%d", vao, len(vertices), len(indices))
	return m
}

func (d *Device) DeleteMesh(m gpu.Mesh) {
	if _, ok := d.Meshes[m.VAO]; ok {
		delete(d.Meshes, m.VAO)
		d.Deletions++
		d.logf("delete mesh %d", m.VAO)
	}
}

func (d *Device) DrawMesh(m gpu.Mesh) {
	if _, ok := d.Meshes[m.VAO]; !ok {
		panic(fmt.Sprintf("gputest: draw of unknown mesh %d", m.VAO))
	}
	dr := Draw{
		Framebuffer: d.bound,
		Program:     d.program,
		Mesh:        m,
		Viewport:    d.viewport,
		State:       d.state,
		Bindings:    maps.Clone(d.units),
	}
	if ps, ok := d.Programs[d.program]; ok {
		dr.ProgramName = ps.Name
		dr.Uniforms = maps.Clone(ps.Uniforms)
	}
	if st, ok := d.Framebuffers[d.bound]; ok {
		dr.Targets = maps.Clone(st.Attachments)
	}
	d.Draws = append(d.Draws, dr)
	d.logf("draw fb=%d program=%d mesh=%d", d.bound, d.program, m.VAO)
}

func (d *Device) ReadPixels(fb gpu.Framebuffer, width, height int) []uint8 {
	d.Reads++
	d.logf("read fb=%d %dx%d", fb, width, height)
	return make([]uint8, width*height*4)
}
