package renderer

import (
	"pbr-renderer/gpu"
	"pbr-renderer/math"
)

func mustTexture(kind Kind, tex gpu.Texture) {
	if tex == 0 {
		panic("renderer: " + kind.String() + " pass input texture is not set")
	}
}

// ClampPass keeps pixels whose luminance lies in [Min, Max] and blackens
// the rest. It feeds the bloom blur.
type ClampPass struct {
	base
	Min, Max float32
	output   gpu.Texture
}

var _ Pass = (*ClampPass)(nil)

func NewClampPass(ctx *Context, width, height int, lo, hi float32) *ClampPass {
	p := &ClampPass{base: newBase(ctx, KindClamp, width, height, fullscreen), Min: lo, Max: hi}
	p.allocate = p.setup
	return p
}

func (p *ClampPass) setup() error {
	fb, tex := p.colorTargets(gpu.Linear, gpu.RGBA16F)
	p.output = tex[0]
	if err := p.ctx.dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(quadVertSrc, clampFragSrc)
}

func (p *ClampPass) Output() gpu.Texture { return p.output }

func (p *ClampPass) Render(src gpu.Texture) error {
	mustTexture(p.kind, src)
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.BindTexture(0, gpu.Texture2D, src)
	dev.SetInt("source", 0)
	dev.SetFloat("minLuminance", p.Min)
	dev.SetFloat("maxLuminance", p.Max)
	p.drawQuad()
	return nil
}

// Keeps reports whether the clamp pass passes colour c through.
func (p *ClampPass) Keeps(c math.Vec3) bool {
	l := Luminance(c)
	return l >= p.Min && l <= p.Max
}

// GaussianBlurPass blurs with alternating horizontal and vertical passes
// between two ping-pong targets.
type GaussianBlurPass struct {
	base
	Iterations int
	targets    [2]gpu.Framebuffer
	planes     [2]gpu.Texture
	output     gpu.Texture
}

var _ Pass = (*GaussianBlurPass)(nil)

func NewGaussianBlurPass(ctx *Context, width, height, iterations int) *GaussianBlurPass {
	p := &GaussianBlurPass{base: newBase(ctx, KindBlur, width, height, fullscreen), Iterations: iterations}
	p.allocate = p.setup
	return p
}

func (p *GaussianBlurPass) setup() error {
	for i := range p.targets {
		fb, tex := p.colorTargets(gpu.Linear, gpu.RGBA16F)
		if err := p.ctx.dev.CheckFramebuffer(fb); err != nil {
			return err
		}
		p.targets[i], p.planes[i] = fb, tex[0]
	}
	return p.compile(quadVertSrc, blurFragSrc)
}

// Output is the texture written by the last vertical pass.
func (p *GaussianBlurPass) Output() gpu.Texture { return p.output }

// Render issues Iterations x 2 draws. Even draws blur horizontally into the
// first target, odd draws vertically into the second.
func (p *GaussianBlurPass) Render(src gpu.Texture) error {
	mustTexture(p.kind, src)
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.ctx.dev
	input := src
	for i := range max(p.Iterations, 1) * 2 {
		horizontal := i%2 == 0
		dst := 1
		if horizontal {
			dst = 0
		}
		p.begin(p.targets[dst])
		dev.BindTexture(0, gpu.Texture2D, input)
		dev.SetInt("source", 0)
		if horizontal {
			dev.SetInt("horizontal", 1)
		} else {
			dev.SetInt("horizontal", 0)
		}
		p.drawQuad()
		input = p.planes[dst]
	}
	p.output = input
	return nil
}

// AddPass sums two equal-size textures.
type AddPass struct {
	base
	output gpu.Texture
}

var _ Pass = (*AddPass)(nil)

func NewAddPass(ctx *Context, width, height int) *AddPass {
	p := &AddPass{base: newBase(ctx, KindAdd, width, height, fullscreen)}
	p.allocate = p.setup
	return p
}

func (p *AddPass) setup() error {
	fb, tex := p.colorTargets(gpu.Linear, gpu.RGBA16F)
	p.output = tex[0]
	if err := p.ctx.dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(quadVertSrc, addFragSrc)
}

func (p *AddPass) Output() gpu.Texture { return p.output }

func (p *AddPass) Render(first, second gpu.Texture) error {
	mustTexture(p.kind, first)
	mustTexture(p.kind, second)
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.BindTexture(0, gpu.Texture2D, first)
	dev.BindTexture(1, gpu.Texture2D, second)
	dev.SetInt("first", 0)
	dev.SetInt("second", 1)
	p.drawQuad()
	return nil
}

// TonemappingPass maps HDR radiance to an 8-bit display image.
type TonemappingPass struct {
	base
	Exposure float32
	Gamma    float32
	output   gpu.Texture
}

var _ Pass = (*TonemappingPass)(nil)

func NewTonemappingPass(ctx *Context, width, height int, exposure, gamma float32) *TonemappingPass {
	p := &TonemappingPass{
		base:     newBase(ctx, KindTonemap, width, height, fullscreen),
		Exposure: exposure,
		Gamma:    gamma,
	}
	p.allocate = p.setup
	return p
}

func (p *TonemappingPass) setup() error {
	fb, tex := p.colorTargets(gpu.Linear, gpu.RGBA8)
	p.output = tex[0]
	if err := p.ctx.dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(quadVertSrc, tonemapFragSrc)
}

func (p *TonemappingPass) Output() gpu.Texture { return p.output }

func (p *TonemappingPass) Render(src gpu.Texture) error {
	mustTexture(p.kind, src)
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.BindTexture(0, gpu.Texture2D, src)
	dev.SetInt("source", 0)
	dev.SetFloat("exposure", p.Exposure)
	dev.SetFloat("gamma", p.Gamma)
	p.drawQuad()
	return nil
}

// Map applies the pass's curve to one colour on the CPU.
func (p *TonemappingPass) Map(hdr math.Vec3) math.Vec3 {
	return Tonemap(hdr, p.Exposure, p.Gamma)
}
