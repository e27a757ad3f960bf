package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbr-renderer/gpu"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

func TestDepthPassTarget(t *testing.T) {
	ctx, dev := newTestContext()
	p := NewDepthPass(ctx, 256, gpu.CullFront)
	require.NoError(t, p.Setup())

	st := dev.Framebuffers[p.Framebuffer()]
	assert.Equal(t, 0, st.DrawBuffers)
	require.Len(t, st.Attachments, 1)
	desc := dev.Textures[p.Depth()]
	assert.Equal(t, gpu.Depth32F, desc.Format)
	assert.Equal(t, gpu.ClampToBorder, desc.Wrap)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, desc.Border)
}

// A directional light 10 units above a floor, looking straight down with a
// [-5,5]² frustum, near 1 and far 30.
func TestDirectionalShadowScenario(t *testing.T) {
	light := scene.NewDirectionalLight(math.NewVec3(0, 10, 0), math.Vec3Down)
	floor := scene.NewMesh("floor", scene.Plane(20), scene.DefaultMaterial())
	box := scene.NewMesh("box", scene.Cube(), scene.DefaultMaterial())
	box.Transform.Position = math.NewVec3(0, 3, 0)

	ctx, dev := newTestContext()
	p := NewDepthPass(ctx, 512, gpu.CullFront)
	require.NoError(t, p.Render([]*scene.Mesh{floor, box}, light.LightSpace()))

	draws := dev.DrawsFor("depth")
	require.Len(t, draws, 2)
	assert.Equal(t, light.LightSpace(), draws[0].Uniforms["lightSpace"])
	assert.Equal(t, box.Model(), draws[1].Uniforms["model"])
	assert.Equal(t, gpu.CullFront, draws[0].State.Cull)
	assert.Equal(t, [2]int{512, 512}, draws[0].Viewport)

	ls := light.LightSpace()

	// The floor at distance 10 lands at (10-1)/(30-1) in the map.
	uv, floorDepth, inside := ProjectShadow(ls, math.Vec3Zero)
	require.True(t, inside)
	assert.InDelta(t, 0.5, uv.X, 1e-5)
	assert.InDelta(t, 0.5, uv.Y, 1e-5)
	assert.InDelta(t, 9.0/29.0, floorDepth, 1e-5)

	// The top of the box (distance 6) occludes the floor under it.
	_, boxDepth, _ := ProjectShadow(ls, math.NewVec3(0, 4, 0))
	assert.InDelta(t, 5.0/29.0, boxDepth, 1e-5)
	assert.True(t, Occluded(floorDepth, boxDepth))
	// A surface does not shadow itself.
	assert.False(t, Occluded(floorDepth, floorDepth))
	assert.False(t, Occluded(floorDepth+ShadowBias/2, floorDepth))

	// Points outside the [-5,5] extent are lit.
	_, _, inside = ProjectShadow(ls, math.NewVec3(6, 0, 0))
	assert.False(t, inside)
	_, _, inside = ProjectShadow(ls, math.NewVec3(0, -25, 0))
	assert.False(t, inside)
}

func TestCubeDepthPassRendersSixFaces(t *testing.T) {
	light := scene.NewPointLight(math.NewVec3(0, 2, 0), 25)
	meshes := []*scene.Mesh{
		scene.NewMesh("floor", scene.Plane(10), scene.DefaultMaterial()),
		scene.NewMesh("ball", scene.Sphere(0.5, 8, 4), scene.DefaultMaterial()),
	}

	ctx, dev := newTestContext()
	p := NewCubeDepthPass(ctx, 64)
	cam := light.Camera().(*scene.Camera360)
	require.NoError(t, p.Render(meshes, cam))

	draws := dev.DrawsFor("cube-depth")
	require.Len(t, draws, 12)
	views := cam.Views()
	for i, d := range draws {
		face := i / len(meshes)
		at := d.Targets[gpu.DepthAttachment]
		assert.Equal(t, p.Depth(), at.Texture)
		assert.Equal(t, gpu.Face(face), at.Face)
		assert.Equal(t, views[face], d.Uniforms["view"])
		assert.Equal(t, light.Position, d.Uniforms["lightPos"])
		assert.Equal(t, float32(25), d.Uniforms["far"])
	}
	assert.Equal(t, 6, dev.Clears)
	assert.Equal(t, gpu.TextureCube, dev.Textures[p.Depth()].Target)
	assert.Equal(t, gpu.Depth32F, dev.Textures[p.Depth()].Format)

	assert.InDelta(t, 0.2, CubeShadowDepth(math.NewVec3(0, 2, 5), light.Position, light.Far), 1e-6)
}

func TestShadowTableCountsIssuedDraws(t *testing.T) {
	ctx, dev := newTestContext()
	table := newShadowTable(ctx, 64)

	sun := scene.NewDirectionalLight(math.NewVec3(0, 10, 0), math.Vec3Down)
	bulb := scene.NewPointLight(math.NewVec3(1, 1, 1), 10)
	lights := []*scene.Light{sun, bulb}
	table.sync(lights)

	// meshes without geometry issue no draws
	meshes := []*scene.Mesh{
		scene.NewMesh("box", scene.Cube(), scene.DefaultMaterial()),
		scene.NewMesh("empty", nil, scene.DefaultMaterial()),
		nil,
	}
	draws, err := table.render(lights, meshes)
	require.NoError(t, err)
	assert.Equal(t, 1+6, draws)
	assert.Equal(t, draws, len(dev.Draws))
}

func TestShadowTableLifecycle(t *testing.T) {
	ctx, dev := newTestContext()
	table := newShadowTable(ctx, 128)

	sun := scene.NewDirectionalLight(math.NewVec3(0, 10, 0), math.Vec3Down)
	bulb := scene.NewPointLight(math.NewVec3(1, 1, 1), 10)
	bulb.ShadowSize = 0

	table.sync([]*scene.Light{sun, bulb})
	require.NotZero(t, sun.Shadow)
	require.NotZero(t, bulb.Shadow)
	assert.NotEqual(t, sun.Shadow, bulb.Shadow)
	assert.Equal(t, 2, table.len())

	_, target := table.lookup(sun).texture()
	assert.Equal(t, gpu.Texture2D, target)
	_, target = table.lookup(bulb).texture()
	assert.Equal(t, gpu.TextureCube, target)
	assert.Equal(t, 128, table.lookup(bulb).cube.width, "default size for unsized lights")

	draws, err := table.render([]*scene.Light{sun, bulb}, nil)
	require.NoError(t, err)
	assert.Zero(t, draws)
	sunPass := table.lookup(sun).pass()
	handle := sun.Shadow

	// steady state: same handle, same pass, no allocations
	allocs := dev.Allocations
	table.sync([]*scene.Light{sun, bulb})
	assert.Equal(t, handle, sun.Shadow)
	assert.Same(t, sunPass, table.lookup(sun).pass())
	assert.Equal(t, allocs, dev.Allocations)

	// reinitialize replaces the pass
	sun.ShadowSize = 2048
	sun.Reinitialize()
	table.sync([]*scene.Light{sun, bulb})
	assert.NotEqual(t, handle, sun.Shadow)
	assert.Equal(t, Invalid, sunPass.Lifecycle())
	w, _ := table.lookup(sun).pass().Size()
	assert.Equal(t, 2048, w)

	// a kind change is picked up without Reinitialize
	sun.Kind = scene.Point
	table.sync([]*scene.Light{sun, bulb})
	_, target = table.lookup(sun).texture()
	assert.Equal(t, gpu.TextureCube, target)

	// removed lights lose their target
	bulbPass := table.lookup(bulb).pass()
	table.sync([]*scene.Light{sun})
	assert.Equal(t, 1, table.len())
	assert.Equal(t, Invalid, bulbPass.Lifecycle())

	// a copied light gets its own target
	twin := *sun
	table.sync([]*scene.Light{sun, &twin})
	assert.NotEqual(t, sun.Shadow, twin.Shadow)
	assert.Equal(t, 2, table.len())

	table.destroy()
	assert.Equal(t, 0, table.len())
	assert.Panics(t, func() { table.lookup(sun) })
}
