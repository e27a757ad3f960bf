package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbr-renderer/gpu"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

func TestGeometryPassLayout(t *testing.T) {
	ctx, dev := newTestContext()
	p := NewGeometryPass(ctx, 64, 32)
	require.NoError(t, p.Setup())

	st := dev.Framebuffers[p.Framebuffer()]
	assert.Equal(t, gbufferPlanes, st.DrawBuffers)
	want := []gpu.Format{gpu.RGBA32F, gpu.RGB32F, gpu.RGB32F, gpu.RGB32F, gpu.R32F, gpu.R32F}
	for i, tex := range p.GBuffer() {
		assert.Equal(t, want[i], dev.Textures[tex].Format, "plane %d", i)
		assert.Equal(t, tex, st.Attachments[gpu.ColorAttachment(i)].Texture)
		w, h := dev.TextureSize(tex, 0)
		assert.Equal(t, [2]int{64, 32}, [2]int{w, h})
	}
	assert.Equal(t, gpu.Depth24, dev.Textures[p.Depth()].Format)
	assert.Equal(t, p.Depth(), st.Attachments[gpu.DepthAttachment].Texture)
}

func TestGeometryPassEmptyMeshList(t *testing.T) {
	ctx, dev := newTestContext()
	p := NewGeometryPass(ctx, 64, 32)
	require.NoError(t, p.Render(nil, testCamera()))

	assert.Equal(t, 1, dev.Clears)
	assert.Empty(t, dev.Draws)
	for _, tex := range p.GBuffer() {
		w, h := dev.TextureSize(tex, 0)
		assert.Equal(t, [2]int{64, 32}, [2]int{w, h})
	}
}

func TestGeometryPassDrawsMaterials(t *testing.T) {
	ctx, dev := newTestContext()
	sphere := scene.Sphere(1, 16, 8)

	gold := scene.NewMesh("gold", sphere, scene.Material{
		Albedo: math.NewVec3(1, 0.8, 0.3), Roughness: 0.2, Metallic: 1, AO: 1,
	})
	lamp := scene.NewMesh("lamp", sphere, scene.Material{
		Albedo: math.Vec3One, Emission: math.NewVec3(4, 4, 4), Roughness: 2, AO: 1,
	})
	lamp.Transform.Position = math.NewVec3(3, 0, 0)

	cam := testCamera()
	p := NewGeometryPass(ctx, 32, 32)
	require.NoError(t, p.Render([]*scene.Mesh{gold, nil, lamp}, cam))

	draws := dev.DrawsFor("geometry")
	require.Len(t, draws, 2)
	assert.Len(t, dev.Meshes, 1, "shared geometry is uploaded once")

	assert.Equal(t, gold.Material.Albedo, draws[0].Uniforms["albedo"])
	assert.Equal(t, float32(1), draws[0].Uniforms["metallic"])
	assert.Equal(t, lamp.Material.Emission, draws[1].Uniforms["emission"])
	assert.Equal(t, float32(1), draws[1].Uniforms["roughness"], "roughness is clamped")
	assert.Equal(t, lamp.Model(), draws[1].Uniforms["model"])
	assert.Equal(t, cam.View(), draws[1].Uniforms["view"])
	assert.Equal(t, cam.Projection(), draws[1].Uniforms["projection"])

	for _, d := range draws {
		assert.Equal(t, p.Framebuffer(), d.Framebuffer)
		assert.Equal(t, [2]int{32, 32}, d.Viewport)
		assert.Equal(t, p.State(), d.State)
	}
}

func TestGeometryPassCullsOutsideFrustum(t *testing.T) {
	ctx, dev := newTestContext()
	cube := scene.Cube()
	visible := scene.NewMesh("visible", cube, scene.DefaultMaterial())
	behind := scene.NewMesh("behind", cube, scene.DefaultMaterial())
	behind.Transform.Position = math.NewVec3(0, 0, 20)

	p := NewGeometryPass(ctx, 16, 16)
	require.NoError(t, p.Render([]*scene.Mesh{visible, behind}, testCamera()))
	assert.Len(t, dev.DrawsFor("geometry"), 1)
	assert.Equal(t, 1, p.Drawn())
}
