package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbr-renderer/gpu"
	"pbr-renderer/math"
)

func TestClampPass(t *testing.T) {
	ctx, dev := newTestContext()
	src := texture2D(dev, gpu.RGBA16F)
	p := NewClampPass(ctx, 8, 8, 1, 10)
	require.NoError(t, p.Render(src))

	d := dev.DrawsFor("clamp")[0]
	assert.Equal(t, float32(1), d.Uniforms["minLuminance"])
	assert.Equal(t, float32(10), d.Uniforms["maxLuminance"])
	assert.Equal(t, src, d.Bindings[0].Texture)

	assert.True(t, p.Keeps(math.NewVec3(2, 2, 2)))
	assert.False(t, p.Keeps(math.NewVec3(0.5, 0.5, 0.5)))
	assert.False(t, p.Keeps(math.NewVec3(50, 50, 50)))

	assert.Panics(t, func() { _ = p.Render(0) })
}

func TestGaussianBlurPingPong(t *testing.T) {
	ctx, dev := newTestContext()
	src := texture2D(dev, gpu.RGBA16F)
	p := NewGaussianBlurPass(ctx, 16, 16, 3)
	require.NoError(t, p.Render(src))

	draws := dev.DrawsFor("blur")
	require.Len(t, draws, 6)
	assert.Equal(t, src, draws[0].Bindings[0].Texture)
	for i, d := range draws {
		horizontal := i%2 == 0
		if horizontal {
			assert.Equal(t, int32(1), d.Uniforms["horizontal"], "draw %d", i)
			assert.Equal(t, p.targets[0], d.Framebuffer)
		} else {
			assert.Equal(t, int32(0), d.Uniforms["horizontal"], "draw %d", i)
			assert.Equal(t, p.targets[1], d.Framebuffer)
		}
		if i > 0 {
			// each draw reads what the previous one wrote
			prev := draws[i-1].Targets[gpu.ColorAttachment(0)].Texture
			assert.Equal(t, prev, d.Bindings[0].Texture)
		}
	}
	assert.Equal(t, p.planes[1], p.Output())
	assert.NotEqual(t, p.targets[0], p.targets[1])
}

func TestAddPass(t *testing.T) {
	ctx, dev := newTestContext()
	a, b := texture2D(dev, gpu.RGBA16F), texture2D(dev, gpu.RGBA16F)
	p := NewAddPass(ctx, 8, 8)
	require.NoError(t, p.Render(a, b))

	d := dev.DrawsFor("add")[0]
	assert.Equal(t, a, d.Bindings[0].Texture)
	assert.Equal(t, b, d.Bindings[1].Texture)
	assert.Equal(t, int32(1), d.Uniforms["second"])
	assert.Equal(t, gpu.BlendNone, d.State.Blend)
}

// Exposure 0 and gamma 2.2 on white: 1-exp(-1) before gamma.
func TestTonemapScenario(t *testing.T) {
	ctx, dev := newTestContext()
	src := texture2D(dev, gpu.RGBA16F)
	p := NewTonemappingPass(ctx, 8, 8, 0, 2.2)
	require.NoError(t, p.Render(src))

	d := dev.DrawsFor("tonemap")[0]
	assert.Equal(t, float32(0), d.Uniforms["exposure"])
	assert.Equal(t, float32(2.2), d.Uniforms["gamma"])
	assert.Equal(t, gpu.RGBA8, dev.Textures[p.Output()].Format)

	linear := Tonemap(math.Vec3One, 0, 1)
	assert.InDelta(t, 0.632, linear.X, 1e-3)
	out := p.Map(math.Vec3One)
	assert.InDelta(t, 0.812, out.X, 1e-3)
	assert.Equal(t, out.X, out.Y)
	assert.Equal(t, out.Y, out.Z)
}

func TestSkyboxPass(t *testing.T) {
	ctx, dev := newTestContext()
	env := textureCube(dev, gpu.RGB32F)
	cam := testCamera()
	p := NewSkyboxPass(ctx, 16, 8)
	require.NoError(t, p.Render(env, cam))

	d := dev.DrawsFor("skybox")[0]
	assert.Equal(t, gpu.TextureCube, d.Bindings[0].Target)
	assert.Equal(t, cam.View().WithoutTranslation(), d.Uniforms["view"])
	assert.False(t, d.State.DepthWrite)
	assert.Equal(t, 0, dev.Clears, "sky keeps the copied colour and depth")
}
