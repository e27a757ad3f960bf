package renderer

import (
	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// SkyboxPass draws the environment cube behind the lit scene. Its target
// starts as a copy of the lighting output and the G-buffer depth, so the sky
// only fills pixels no geometry covered.
type SkyboxPass struct {
	base
	output gpu.Texture
	depth  gpu.Renderbuffer
}

var _ Pass = (*SkyboxPass)(nil)

func NewSkyboxPass(ctx *Context, width, height int) *SkyboxPass {
	p := &SkyboxPass{
		base: newBase(ctx, KindSkybox, width, height, gpu.PipelineState{
			DepthTest:       true,
			DepthWrite:      false,
			DepthFunc:       gpu.DepthLessEqual,
			Cull:            gpu.CullNone,
			SeamlessCubemap: true,
		}),
	}
	p.allocate = p.setup
	return p
}

func (p *SkyboxPass) setup() error {
	fb, tex := p.colorTargets(gpu.Linear, gpu.RGBA16F)
	p.output = tex[0]
	p.depth = p.newRenderbuffer(gpu.Depth24, p.width, p.height)
	dev := p.ctx.dev
	dev.AttachRenderbuffer(fb, p.depth)
	if err := dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(skyboxVertSrc, skyboxFragSrc)
}

func (p *SkyboxPass) Output() gpu.Texture { return p.output }

// Render draws env seen from cam. It does not clear: callers copy colour
// and depth in with CopyBufferFrom first.
func (p *SkyboxPass) Render(env gpu.Texture, cam scene.Camera) error {
	mustTexture(p.kind, env)
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.BindTexture(0, gpu.TextureCube, env)
	dev.SetInt("environment", 0)
	dev.SetMat4("view", cam.View().WithoutTranslation())
	dev.SetMat4("projection", cam.Projection())
	p.drawCube()
	return nil
}
