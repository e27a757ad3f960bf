package renderer

import (
	"fmt"
	"math/bits"

	"pbr-renderer/assets"
	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// captureCamera looks down each cube axis from the origin.
var captureCamera = scene.Camera360{Near: 0.1, Far: 10}

var captureState = gpu.PipelineState{
	DepthTest:       true,
	DepthWrite:      true,
	DepthFunc:       gpu.DepthLessEqual,
	Cull:            gpu.CullNone,
	SeamlessCubemap: true,
}

// fullMipChain is the level count of a complete chain for size.
func fullMipChain(size int) int {
	return bits.Len(uint(size))
}

// cubeTarget creates the pass framebuffer around a cube colour texture with
// levels mips plus a depth renderbuffer, with face 0 of level 0 attached.
func (b *base) cubeTarget(format gpu.Format, levels int, minFilter gpu.Filter) (gpu.Texture, gpu.Renderbuffer, error) {
	dev := b.ctx.dev
	fb := b.newFramebuffer()
	cube := b.newTexture(gpu.TextureDesc{
		Target:    gpu.TextureCube,
		Width:     b.width,
		Height:    b.height,
		Format:    format,
		Levels:    levels,
		MinFilter: minFilter,
		MagFilter: gpu.Linear,
		Wrap:      gpu.ClampToEdge,
	})
	depth := b.newRenderbuffer(gpu.Depth24, b.width, b.height)
	dev.AttachTexture(fb, gpu.ColorAttachment(0), cube, 0, 0)
	dev.AttachRenderbuffer(fb, depth)
	dev.SetDrawBuffers(fb, 1)
	return cube, depth, dev.CheckFramebuffer(fb)
}

// renderFaces draws the unit cube into all six faces of cube at level. The
// program and viewport must already be set.
func (b *base) renderFaces(cube gpu.Texture, level int) {
	dev := b.ctx.dev
	dev.SetMat4("projection", captureCamera.Projection())
	for face, view := range captureCamera.Views() {
		dev.AttachTexture(b.fb, gpu.ColorAttachment(0), cube, gpu.Face(face), level)
		dev.Clear(gpu.ColorBuffer|gpu.DepthBuffer, [4]float32{})
		dev.SetMat4("view", view)
		b.drawCube()
	}
}

// EnvironmentPass converts an equirectangular HDR image into a cubemap with
// a full mip chain.
type EnvironmentPass struct {
	base
	cube  gpu.Texture
	depth gpu.Renderbuffer
}

var _ Pass = (*EnvironmentPass)(nil)

func NewEnvironmentPass(ctx *Context, size int) *EnvironmentPass {
	p := &EnvironmentPass{base: newBase(ctx, KindEnvironment, size, size, captureState)}
	p.allocate = p.setup
	return p
}

func (p *EnvironmentPass) setup() error {
	var err error
	if p.cube, p.depth, err = p.cubeTarget(gpu.RGB32F, fullMipChain(p.width), gpu.LinearMipmapLinear); err != nil {
		return err
	}
	return p.compile(cubeVertSrc, equirectFragSrc)
}

// Cube returns the environment cubemap.
func (p *EnvironmentPass) Cube() gpu.Texture { return p.cube }

// Render uploads img, projects it onto the six faces and builds the mips.
// The equirectangular source texture only lives for the call.
func (p *EnvironmentPass) Render(img *assets.Image) error {
	if err := p.Setup(); err != nil {
		return err
	}
	if err := img.Validate(); err != nil {
		return fmt.Errorf("environment pass: %w", err)
	}
	dev := p.ctx.dev
	source := dev.CreateTexture(gpu.TextureDesc{
		Target:    gpu.Texture2D,
		Width:     img.Width,
		Height:    img.Height,
		Format:    gpu.RGB32F,
		MinFilter: gpu.Linear,
		MagFilter: gpu.Linear,
		Wrap:      gpu.ClampToEdge,
		Pixels:    img.Pix,
	})
	defer dev.DeleteTexture(source)

	p.begin(p.fb)
	dev.BindTexture(0, gpu.Texture2D, source)
	dev.SetInt("equirect", 0)
	p.renderFaces(p.cube, 0)
	dev.GenerateMipmap(gpu.TextureCube, p.cube)
	return nil
}

// IrradiancePass convolves the environment into a small diffuse cubemap.
type IrradiancePass struct {
	base
	cube  gpu.Texture
	depth gpu.Renderbuffer
}

var _ Pass = (*IrradiancePass)(nil)

func NewIrradiancePass(ctx *Context) *IrradiancePass {
	p := &IrradiancePass{base: newBase(ctx, KindIrradiance, IrradianceSize, IrradianceSize, captureState)}
	p.allocate = p.setup
	return p
}

func (p *IrradiancePass) setup() error {
	var err error
	if p.cube, p.depth, err = p.cubeTarget(gpu.RGB32F, 1, gpu.Linear); err != nil {
		return err
	}
	return p.compile(cubeVertSrc, irradianceFragSrc)
}

func (p *IrradiancePass) Cube() gpu.Texture { return p.cube }

func (p *IrradiancePass) Render(env gpu.Texture) error {
	if env == 0 {
		panic("renderer: irradiance pass needs an environment cubemap")
	}
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.BindTexture(0, gpu.TextureCube, env)
	dev.SetInt("environment", 0)
	p.renderFaces(p.cube, 0)
	return nil
}

// PrefilterPass stores the environment convolved with the GGX lobe, one
// roughness per mip level.
type PrefilterPass struct {
	base
	levels int
	cube   gpu.Texture
	depth  gpu.Renderbuffer
}

var _ Pass = (*PrefilterPass)(nil)

func NewPrefilterPass(ctx *Context) *PrefilterPass {
	p := &PrefilterPass{
		base:   newBase(ctx, KindPrefilter, PrefilterSize, PrefilterSize, captureState),
		levels: MaxMipLevels,
	}
	p.allocate = p.setup
	return p
}

func (p *PrefilterPass) setup() error {
	var err error
	if p.cube, p.depth, err = p.cubeTarget(gpu.RGB32F, p.levels, gpu.LinearMipmapLinear); err != nil {
		return err
	}
	return p.compile(cubeVertSrc, prefilterFragSrc)
}

func (p *PrefilterPass) Cube() gpu.Texture { return p.cube }

// Levels is the number of roughness levels in the cube's mip chain.
func (p *PrefilterPass) Levels() int { return p.levels }

// Render prefilters env, whose base face size is envSize. Mip m is drawn at
// MipSize(128, m) with roughness PrefilterRoughness(m, levels).
func (p *PrefilterPass) Render(env gpu.Texture, envSize int) error {
	if env == 0 {
		panic("renderer: prefilter pass needs an environment cubemap")
	}
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.BindTexture(0, gpu.TextureCube, env)
	dev.SetInt("environment", 0)
	dev.SetFloat("resolution", float32(envSize))
	for level := range p.levels {
		size := MipSize(p.width, level)
		dev.ResizeRenderbuffer(p.depth, gpu.Depth24, size, size)
		dev.Viewport(size, size)
		dev.SetFloat("roughness", PrefilterRoughness(level, p.levels))
		p.renderFaces(p.cube, level)
	}
	return nil
}

// BRDFPass integrates the split-sum BRDF into a 2D lookup table indexed by
// (N·V, roughness).
type BRDFPass struct {
	base
	lut gpu.Texture
}

var _ Pass = (*BRDFPass)(nil)

func NewBRDFPass(ctx *Context) *BRDFPass {
	p := &BRDFPass{base: newBase(ctx, KindBRDF, BRDFSize, BRDFSize, fullscreen)}
	p.allocate = p.setup
	return p
}

func (p *BRDFPass) setup() error {
	fb, tex := p.colorTargets(gpu.Linear, gpu.RG16F)
	p.lut = tex[0]
	if err := p.ctx.dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(quadVertSrc, brdfFragSrc)
}

func (p *BRDFPass) LUT() gpu.Texture { return p.lut }

func (p *BRDFPass) Render() error {
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.Clear(gpu.ColorBuffer, [4]float32{})
	p.drawQuad()
	return nil
}
