package renderer

import (
	"fmt"

	"pbr-renderer/gpu"
)

// ErrIncompleteFramebuffer is returned (wrapped) by Setup when the driver
// rejects a pass's framebuffer.
var ErrIncompleteFramebuffer = gpu.ErrIncompleteFramebuffer

// Kind identifies a concrete pass type.
type Kind int

const (
	KindGeometry Kind = iota
	KindDepth
	KindCubeDepth
	KindEnvironment
	KindIrradiance
	KindPrefilter
	KindBRDF
	KindLighting
	KindClamp
	KindBlur
	KindAdd
	KindTonemap
	KindSkybox
)

var kindNames = [...]string{
	KindGeometry:    "geometry",
	KindDepth:       "depth",
	KindCubeDepth:   "cube-depth",
	KindEnvironment: "environment",
	KindIrradiance:  "irradiance",
	KindPrefilter:   "prefilter",
	KindBRDF:        "brdf",
	KindLighting:    "lighting",
	KindClamp:       "clamp",
	KindBlur:        "blur",
	KindAdd:         "add",
	KindTonemap:     "tonemap",
	KindSkybox:      "skybox",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Lifecycle is the allocation state of a pass. Passes move
// Unconfigured -> Ready on the first successful Setup and to Invalid on
// Destroy. An Invalid pass is never used again.
type Lifecycle int

const (
	Unconfigured Lifecycle = iota
	Ready
	Invalid
)

func (l Lifecycle) String() string {
	switch l {
	case Unconfigured:
		return "unconfigured"
	case Ready:
		return "ready"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("Lifecycle(%d)", int(l))
}

// Pass is implemented by every render pass. Rendering is a typed method on
// each concrete pass since inputs differ per kind.
type Pass interface {
	Kind() Kind
	Size() (width, height int)
	Lifecycle() Lifecycle
	// Setup allocates GPU objects. It runs once; later calls return the
	// first result without allocating.
	Setup() error
	Destroy()
	Framebuffer() gpu.Framebuffer
}

// base carries the state shared by all passes. Concrete passes embed it and
// provide allocate, which runs inside Setup.
type base struct {
	ctx       *Context
	kind      Kind
	width     int
	height    int
	state     gpu.PipelineState
	lifecycle Lifecycle
	setupErr  error
	allocate  func() error

	fb            gpu.Framebuffer
	program       gpu.Program
	framebuffers  []gpu.Framebuffer
	textures      []gpu.Texture
	renderbuffers []gpu.Renderbuffer
}

func newBase(ctx *Context, kind Kind, width, height int, state gpu.PipelineState) base {
	return base{ctx: ctx, kind: kind, width: width, height: height, state: state}
}

func (b *base) Kind() Kind                   { return b.kind }
func (b *base) Size() (int, int)             { return b.width, b.height }
func (b *base) Lifecycle() Lifecycle         { return b.lifecycle }
func (b *base) Framebuffer() gpu.Framebuffer { return b.fb }

// State returns the pipeline state applied at the start of every render.
func (b *base) State() gpu.PipelineState { return b.state }

func (b *base) Setup() error {
	switch b.lifecycle {
	case Ready:
		return nil
	case Invalid:
		panic(fmt.Sprintf("renderer: %s pass used after Destroy", b.kind))
	}
	if b.setupErr != nil {
		return b.setupErr
	}
	if b.width < 1 || b.height < 1 {
		b.setupErr = fmt.Errorf("%s pass: invalid size %dx%d", b.kind, b.width, b.height)
		return b.setupErr
	}

	err := b.allocate()
	b.ctx.dev.BindFramebuffer(gpu.DefaultFramebuffer)
	if err != nil {
		b.release()
		b.setupErr = fmt.Errorf("%s pass setup: %w", b.kind, err)
		Logger().Error("pass setup failed", "kind", b.kind, "err", err)
		return b.setupErr
	}
	b.lifecycle = Ready
	Logger().Debug("pass ready", "kind", b.kind, "width", b.width, "height", b.height)
	return nil
}

// Destroy releases every GPU object the pass owns. The pass is Invalid
// afterwards, even if Setup never ran.
func (b *base) Destroy() {
	if b.lifecycle == Invalid {
		return
	}
	b.release()
	b.lifecycle = Invalid
}

// CopyBufferFrom blits the planes selected by mask from src's framebuffer
// into this pass's framebuffer, scaling to this pass's size.
func (b *base) CopyBufferFrom(src Pass, mask gpu.BufferMask) error {
	if err := b.Setup(); err != nil {
		return err
	}
	if src.Lifecycle() != Ready {
		panic(fmt.Sprintf("renderer: copy from %s pass in state %s", src.Kind(), src.Lifecycle()))
	}
	sw, sh := src.Size()
	b.ctx.dev.Blit(src.Framebuffer(), b.fb, sw, sh, b.width, b.height, mask)
	return nil
}

func (b *base) release() {
	dev := b.ctx.dev
	for _, fb := range b.framebuffers {
		dev.DeleteFramebuffer(fb)
	}
	for _, tex := range b.textures {
		dev.DeleteTexture(tex)
	}
	for _, rb := range b.renderbuffers {
		dev.DeleteRenderbuffer(rb)
	}
	if b.program != 0 {
		dev.DeleteProgram(b.program)
	}
	b.framebuffers, b.textures, b.renderbuffers = nil, nil, nil
	b.fb, b.program = 0, 0
}

// newFramebuffer creates a framebuffer owned by the pass. The first one
// becomes the pass framebuffer.
func (b *base) newFramebuffer() gpu.Framebuffer {
	fb := b.ctx.dev.CreateFramebuffer()
	b.framebuffers = append(b.framebuffers, fb)
	if b.fb == 0 {
		b.fb = fb
	}
	return fb
}

func (b *base) newTexture(desc gpu.TextureDesc) gpu.Texture {
	tex := b.ctx.dev.CreateTexture(desc)
	b.textures = append(b.textures, tex)
	return tex
}

func (b *base) newRenderbuffer(format gpu.Format, width, height int) gpu.Renderbuffer {
	rb := b.ctx.dev.CreateRenderbuffer(format, width, height)
	b.renderbuffers = append(b.renderbuffers, rb)
	return rb
}

func (b *base) compile(vertex, fragment string) error {
	p, err := b.ctx.dev.CreateProgram(b.kind.String(), vertex, fragment)
	if err != nil {
		return err
	}
	b.program = p
	return nil
}

// colorTargets creates a framebuffer with one pass-sized 2D texture per
// format attached at consecutive colour indices.
func (b *base) colorTargets(filter gpu.Filter, formats ...gpu.Format) (gpu.Framebuffer, []gpu.Texture) {
	dev := b.ctx.dev
	fb := b.newFramebuffer()
	out := make([]gpu.Texture, len(formats))
	for i, f := range formats {
		out[i] = b.newTexture(gpu.TextureDesc{
			Target:    gpu.Texture2D,
			Width:     b.width,
			Height:    b.height,
			Format:    f,
			MinFilter: filter,
			MagFilter: filter,
			Wrap:      gpu.ClampToEdge,
		})
		dev.AttachTexture(fb, gpu.ColorAttachment(i), out[i], gpu.NoFace, 0)
	}
	dev.SetDrawBuffers(fb, len(formats))
	return fb, out
}

// begin binds fb with the pass viewport, pipeline state and program.
func (b *base) begin(fb gpu.Framebuffer) gpu.Device {
	dev := b.ctx.dev
	dev.BindFramebuffer(fb)
	dev.Viewport(b.width, b.height)
	dev.ApplyState(b.state)
	dev.UseProgram(b.program)
	return dev
}

func (b *base) drawQuad() {
	b.ctx.dev.DrawMesh(b.ctx.Primitive(PrimitiveQuad))
}

func (b *base) drawCube() {
	b.ctx.dev.DrawMesh(b.ctx.Primitive(PrimitiveCube))
}

// fullscreen is the state used by quad passes.
var fullscreen = gpu.PipelineState{Cull: gpu.CullNone, Blend: gpu.BlendNone}
