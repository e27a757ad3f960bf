package renderer

import (
	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// G-buffer plane indices, in attachment order.
const (
	GPosition = iota
	GNormal
	GAlbedo
	GEmission
	GRoughness
	GMetallic
	gbufferPlanes
)

var gbufferFormats = [gbufferPlanes]gpu.Format{
	GPosition:  gpu.RGBA32F,
	GNormal:    gpu.RGB32F,
	GAlbedo:    gpu.RGB32F,
	GEmission:  gpu.RGB32F,
	GRoughness: gpu.R32F,
	GMetallic:  gpu.R32F,
}

// GBuffer is the set of textures the geometry pass writes.
type GBuffer [gbufferPlanes]gpu.Texture

// GeometryPass rasterises scene meshes into the G-buffer.
type GeometryPass struct {
	base
	planes GBuffer
	depth  gpu.Texture
	drawn  int
}

var _ Pass = (*GeometryPass)(nil)

func NewGeometryPass(ctx *Context, width, height int) *GeometryPass {
	p := &GeometryPass{
		base: newBase(ctx, KindGeometry, width, height, gpu.PipelineState{
			DepthTest:  true,
			DepthWrite: true,
			DepthFunc:  gpu.DepthLess,
			Cull:       gpu.CullBack,
		}),
	}
	p.allocate = p.setup
	return p
}

func (p *GeometryPass) setup() error {
	fb, planes := p.colorTargets(gpu.Nearest, gbufferFormats[:]...)
	copy(p.planes[:], planes)
	p.depth = p.newTexture(gpu.TextureDesc{
		Target:    gpu.Texture2D,
		Width:     p.width,
		Height:    p.height,
		Format:    gpu.Depth24,
		MinFilter: gpu.Nearest,
		MagFilter: gpu.Nearest,
		Wrap:      gpu.ClampToEdge,
	})
	dev := p.ctx.dev
	dev.AttachTexture(fb, gpu.DepthAttachment, p.depth, gpu.NoFace, 0)
	if err := dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(geometryVertSrc, geometryFragSrc)
}

// GBuffer returns the plane textures. Valid once the pass is Ready.
func (p *GeometryPass) GBuffer() GBuffer { return p.planes }

// Depth returns the depth attachment.
func (p *GeometryPass) Depth() gpu.Texture { return p.depth }

// Drawn is the number of meshes the last Render submitted.
func (p *GeometryPass) Drawn() int { return p.drawn }

// Render clears the G-buffer and draws every mesh with its material.
// Meshes whose bounds fall outside the camera frustum are skipped.
func (p *GeometryPass) Render(meshes []*scene.Mesh, cam scene.Camera) error {
	if err := p.Setup(); err != nil {
		return err
	}
	dev := p.begin(p.fb)
	dev.Clear(gpu.ColorBuffer|gpu.DepthBuffer, [4]float32{})
	dev.SetMat4("view", cam.View())
	dev.SetMat4("projection", cam.Projection())

	frustum := scene.CameraFrustum(cam)
	p.drawn = 0
	for _, m := range meshes {
		if m == nil || m.Geometry == nil || !m.WorldBounds().Intersects(frustum) {
			continue
		}
		mat := m.Material.Clamped()
		dev.SetMat4("model", m.Model())
		dev.SetVec3("albedo", mat.Albedo)
		dev.SetVec3("emission", mat.Emission)
		dev.SetFloat("roughness", mat.Roughness)
		dev.SetFloat("metallic", mat.Metallic)
		dev.SetFloat("ao", mat.AO)
		dev.DrawMesh(p.ctx.Mesh(m.Geometry))
		p.drawn++
	}
	return nil
}
