package renderer

import (
	"pbr-renderer/gpu"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

// DepthPass renders a 2D shadow map for a directional or spot light.
type DepthPass struct {
	base
	depth gpu.Texture
	drawn int
}

var _ Pass = (*DepthPass)(nil)

// NewDepthPass creates a size x size shadow map pass that culls cull.
// Front-face culling is the usual choice.
func NewDepthPass(ctx *Context, size int, cull gpu.CullFace) *DepthPass {
	p := &DepthPass{
		base: newBase(ctx, KindDepth, size, size, gpu.PipelineState{
			DepthTest:  true,
			DepthWrite: true,
			DepthFunc:  gpu.DepthLess,
			Cull:       cull,
		}),
	}
	p.allocate = p.setup
	return p
}

func (p *DepthPass) setup() error {
	dev := p.ctx.dev
	fb := p.newFramebuffer()
	// outside the map reads as the far plane, so it never shadows
	p.depth = p.newTexture(gpu.TextureDesc{
		Target:    gpu.Texture2D,
		Width:     p.width,
		Height:    p.height,
		Format:    gpu.Depth32F,
		MinFilter: gpu.Nearest,
		MagFilter: gpu.Nearest,
		Wrap:      gpu.ClampToBorder,
		Border:    [4]float32{1, 1, 1, 1},
	})
	dev.AttachTexture(fb, gpu.DepthAttachment, p.depth, gpu.NoFace, 0)
	dev.SetDrawBuffers(fb, 0)
	if err := dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(depthVertSrc, depthFragSrc)
}

func (p *DepthPass) Depth() gpu.Texture { return p.depth }

// Render draws meshes into the shadow map as seen through lightSpace.
func (p *DepthPass) Render(meshes []*scene.Mesh, lightSpace math.Mat4) error {
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.Clear(gpu.DepthBuffer, [4]float32{})
	dev.SetMat4("lightSpace", lightSpace)
	p.drawn = 0
	for _, m := range meshes {
		if m == nil || m.Geometry == nil {
			continue
		}
		dev.SetMat4("model", m.Model())
		dev.DrawMesh(p.ctx.Mesh(m.Geometry))
		p.drawn++
	}
	return nil
}

// Drawn is the number of draws the last Render issued.
func (p *DepthPass) Drawn() int { return p.drawn }

// CubeDepthPass renders an omnidirectional shadow cube for a point light.
// Each texel holds the distance to the light divided by the far plane.
type CubeDepthPass struct {
	base
	depth gpu.Texture
	drawn int
}

var _ Pass = (*CubeDepthPass)(nil)

func NewCubeDepthPass(ctx *Context, size int) *CubeDepthPass {
	p := &CubeDepthPass{
		base: newBase(ctx, KindCubeDepth, size, size, gpu.PipelineState{
			DepthTest:       true,
			DepthWrite:      true,
			DepthFunc:       gpu.DepthLess,
			Cull:            gpu.CullBack,
			SeamlessCubemap: true,
		}),
	}
	p.allocate = p.setup
	return p
}

func (p *CubeDepthPass) setup() error {
	dev := p.ctx.dev
	fb := p.newFramebuffer()
	p.depth = p.newTexture(gpu.TextureDesc{
		Target:    gpu.TextureCube,
		Width:     p.width,
		Height:    p.height,
		Format:    gpu.Depth32F,
		MinFilter: gpu.Nearest,
		MagFilter: gpu.Nearest,
		Wrap:      gpu.ClampToEdge,
	})
	dev.AttachTexture(fb, gpu.DepthAttachment, p.depth, 0, 0)
	dev.SetDrawBuffers(fb, 0)
	if err := dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(cubeDepthVertSrc, cubeDepthFragSrc)
}

func (p *CubeDepthPass) Depth() gpu.Texture { return p.depth }

// Render draws every mesh once per cube face.
func (p *CubeDepthPass) Render(meshes []*scene.Mesh, cam *scene.Camera360) error {
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.SetMat4("projection", cam.Projection())
	dev.SetVec3("lightPos", cam.Eye)
	dev.SetFloat("far", cam.Far)
	p.drawn = 0
	for face, view := range cam.Views() {
		dev.AttachTexture(p.fb, gpu.DepthAttachment, p.depth, gpu.Face(face), 0)
		dev.Clear(gpu.DepthBuffer, [4]float32{})
		dev.SetMat4("view", view)
		for _, m := range meshes {
			if m == nil || m.Geometry == nil {
				continue
			}
			dev.SetMat4("model", m.Model())
			dev.DrawMesh(p.ctx.Mesh(m.Geometry))
			p.drawn++
		}
	}
	return nil
}

// Drawn is the number of draws the last Render issued, over all six faces.
func (p *CubeDepthPass) Drawn() int { return p.drawn }
