// Package gpu defines the graphics device contract the render passes are
// written against. internal/opengl implements it on a GL 4.1 core context;
// gpu/gputest records calls for tests.
package gpu

import (
	"errors"

	"pbr-renderer/math"
)

var ErrIncompleteFramebuffer = errors.New("incomplete framebuffer")

type (
	Texture      uint32
	Framebuffer  uint32
	Renderbuffer uint32
	Program      uint32
)

// DefaultFramebuffer is the window's back buffer.
const DefaultFramebuffer Framebuffer = 0

// Mesh is an uploaded vertex array with its index count.
type Mesh struct {
	VAO, VBO, EBO uint32
	IndexCount    int32
}

type Target int

const (
	Texture2D Target = iota
	TextureCube
)

type Format int

const (
	RGBA32F Format = iota
	RGB32F
	RG16F
	R32F
	RGBA16F
	RGBA8
	Depth24
	Depth32F
)

func (f Format) IsDepth() bool {
	return f == Depth24 || f == Depth32F
}

func (f Format) String() string {
	switch f {
	case RGBA32F:
		return "RGBA32F"
	case RGB32F:
		return "RGB32F"
	case RG16F:
		return "RG16F"
	case R32F:
		return "R32F"
	case RGBA16F:
		return "RGBA16F"
	case RGBA8:
		return "RGBA8"
	case Depth24:
		return "DEPTH24"
	case Depth32F:
		return "DEPTH32F"
	}
	return "unknown"
}

type Filter int

const (
	Nearest Filter = iota
	Linear
	LinearMipmapLinear
)

type Wrap int

const (
	ClampToEdge Wrap = iota
	Repeat
	ClampToBorder
)

// TextureDesc describes an immutable texture allocation. Levels > 1 reserves
// a full mip chain. Pixels, when set, is RGB float data for level 0 of a 2D
// texture.
type TextureDesc struct {
	Target        Target
	Width, Height int
	Format        Format
	Levels        int
	MinFilter     Filter
	MagFilter     Filter
	Wrap          Wrap
	Border        [4]float32
	Pixels        []float32
}

// MipLevels returns Levels, treating zero as one.
func (d TextureDesc) MipLevels() int {
	return max(d.Levels, 1)
}

// Attachment selects a framebuffer attachment point: colour index i, or
// DepthAttachment.
type Attachment int

const DepthAttachment Attachment = -1

func ColorAttachment(i int) Attachment { return Attachment(i) }

// Face selects a cubemap face; NoFace attaches a 2D texture.
type Face int

const NoFace Face = -1

type BufferMask uint8

const (
	ColorBuffer BufferMask = 1 << iota
	DepthBuffer
)

type CullFace int

const (
	CullNone CullFace = iota
	CullBack
	CullFront
)

type Blend int

const (
	BlendNone Blend = iota
	BlendAdditive
)

type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

// PipelineState is applied at the start of every pass render.
type PipelineState struct {
	DepthTest       bool
	DepthWrite      bool
	DepthFunc       DepthFunc
	Cull            CullFace
	Blend           Blend
	SeamlessCubemap bool
}

// Device is the set of GPU operations used by the renderer. All calls must be
// made from the goroutine that owns the context.
type Device interface {
	CreateTexture(desc TextureDesc) Texture
	DeleteTexture(tex Texture)
	GenerateMipmap(target Target, tex Texture)

	CreateRenderbuffer(format Format, width, height int) Renderbuffer
	ResizeRenderbuffer(rb Renderbuffer, format Format, width, height int)
	DeleteRenderbuffer(rb Renderbuffer)

	CreateFramebuffer() Framebuffer
	DeleteFramebuffer(fb Framebuffer)
	AttachTexture(fb Framebuffer, at Attachment, tex Texture, face Face, level int)
	AttachRenderbuffer(fb Framebuffer, rb Renderbuffer)
	// SetDrawBuffers enables colour attachments 0..n-1; n == 0 disables
	// colour output for depth-only targets.
	SetDrawBuffers(fb Framebuffer, n int)
	// CheckFramebuffer returns an error wrapping ErrIncompleteFramebuffer.
	CheckFramebuffer(fb Framebuffer) error
	BindFramebuffer(fb Framebuffer)
	Viewport(width, height int)
	Clear(mask BufferMask, color [4]float32)
	Blit(src, dst Framebuffer, srcW, srcH, dstW, dstH int, mask BufferMask)

	CreateProgram(name, vertex, fragment string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	// Uniform setters act on the program bound by UseProgram.
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec2(name string, x, y float32)
	SetVec3(name string, v math.Vec3)
	SetMat4(name string, m math.Mat4)

	BindTexture(unit int, target Target, tex Texture)
	ApplyState(state PipelineState)

	UploadMesh(vertices []float32, indices []uint32) Mesh
	DeleteMesh(m Mesh)
	DrawMesh(m Mesh)

	// ReadPixels returns RGBA8 rows of colour attachment 0, bottom row first.
	ReadPixels(fb Framebuffer, width, height int) []uint8
}
