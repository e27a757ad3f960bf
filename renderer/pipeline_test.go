package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbr-renderer/assets"
	"pbr-renderer/gpu"
	"pbr-renderer/gpu/gputest"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

func testRenderer(t *testing.T, edit func(*Config)) (*Renderer, *gputest.Device) {
	t.Helper()
	dev := gputest.New()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 64, 32
	cfg.EnvironmentSize = 32
	cfg.ShadowSize = 64
	if edit != nil {
		edit(&cfg)
	}
	r, err := NewRenderer(dev, cfg)
	require.NoError(t, err)
	return r, dev
}

func testScene() *scene.Scene {
	s := scene.NewScene()
	s.Add(
		scene.NewMesh("floor", scene.Plane(20), scene.DefaultMaterial()),
		scene.NewMesh("ball", scene.Sphere(1, 16, 8), scene.DefaultMaterial()),
		scene.NewDirectionalLight(math.NewVec3(0, 10, 0), math.Vec3Down),
		scene.NewPointLight(math.NewVec3(2, 3, 0), 25),
	)
	return s
}

// programOrder collapses consecutive draws of the same program.
func programOrder(draws []gputest.Draw) []string {
	var out []string
	for _, d := range draws {
		if len(out) == 0 || out[len(out)-1] != d.ProgramName {
			out = append(out, d.ProgramName)
		}
	}
	return out
}

func TestNewRendererValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gamma = 0
	_, err := NewRenderer(gputest.New(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRenderFrameBeforePrecomputePanics(t *testing.T) {
	r, _ := testRenderer(t, nil)
	assert.Panics(t, func() { _ = r.RenderFrame(testScene(), testCamera()) })
}

func TestRenderFramePassOrder(t *testing.T) {
	r, dev := testRenderer(t, nil)
	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	dev.Draws = nil

	require.NoError(t, r.RenderFrame(testScene(), testCamera()))
	assert.Equal(t, []string{
		"depth", "cube-depth", "geometry", "lighting", "skybox",
		"clamp", "blur", "add", "tonemap",
	}, programOrder(dev.Draws))
	assert.Equal(t, gpu.DefaultFramebuffer, dev.Bound())

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Frames)
	assert.Equal(t, 2, stats.Meshes)
	assert.Zero(t, stats.Culled)
	assert.Equal(t, 2, stats.Lights)
	assert.Equal(t, 2, stats.ShadowTargets)
	assert.Equal(t, len(dev.Draws), stats.Draws)
}

func TestRenderFrameToggles(t *testing.T) {
	r, dev := testRenderer(t, func(c *Config) {
		c.Skybox = false
		c.Bloom.Enabled = false
	})
	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	dev.Draws = nil

	require.NoError(t, r.RenderFrame(testScene(), testCamera()))
	assert.Equal(t, []string{"depth", "cube-depth", "geometry", "lighting", "tonemap"}, programOrder(dev.Draws))
	assert.Equal(t, len(dev.Draws), r.Stats().Draws)

	tone := dev.DrawsFor("tonemap")[0]
	assert.Equal(t, r.lighting.Output(), tone.Bindings[0].Texture)
}

func TestRenderFrameSkyCopiesBuffers(t *testing.T) {
	r, dev := testRenderer(t, nil)
	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	blits := dev.Blits

	require.NoError(t, r.RenderFrame(scene.NewScene(), testCamera()))
	assert.Equal(t, blits+2, dev.Blits, "colour from lighting and depth from geometry")

	sky := dev.DrawsFor("skybox")[0]
	assert.Equal(t, r.environment.Cube(), sky.Bindings[0].Texture)
}

func TestRenderFrameShadowsOnlyForFirstLights(t *testing.T) {
	r, dev := testRenderer(t, func(c *Config) { c.Bloom.Enabled = false })
	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	dev.Draws = nil

	s := scene.NewScene()
	s.Add(scene.NewMesh("ball", scene.Sphere(1, 8, 4), scene.DefaultMaterial()))
	for i := range MaxLights + 2 {
		s.Add(scene.NewSpotLight(math.NewVec3(float32(i), 5, 0), math.Vec3Down, 30))
	}
	require.NoError(t, r.RenderFrame(s, testCamera()))
	assert.Equal(t, MaxLights, r.Stats().ShadowTargets)
	assert.Len(t, dev.DrawsFor("depth"), MaxLights)
	assert.Equal(t, int32(MaxLights), dev.DrawsFor("lighting")[0].Uniforms["lightCount"])
}

func TestRendererResize(t *testing.T) {
	r, dev := testRenderer(t, nil)
	require.NoError(t, r.Setup())
	old := r.framePasses()

	assert.ErrorIs(t, r.Resize(0, 10), ErrInvalidConfig)
	require.NoError(t, r.Resize(64, 32))
	assert.Equal(t, Ready, r.geometry.Lifecycle(), "same size keeps the passes")

	require.NoError(t, r.Resize(128, 96))
	for _, p := range old {
		assert.Equal(t, Invalid, p.Lifecycle(), p.Kind().String())
	}
	for _, p := range r.framePasses() {
		assert.Equal(t, Unconfigured, p.Lifecycle(), p.Kind().String())
		w, h := p.Size()
		assert.Equal(t, [2]int{128, 96}, [2]int{w, h})
	}

	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	require.NoError(t, r.RenderFrame(testScene(), testCamera()))
	geometry := dev.DrawsFor("geometry")
	assert.Equal(t, [2]int{128, 96}, geometry[len(geometry)-1].Viewport)
}

func TestRendererApplyConfig(t *testing.T) {
	r, _ := testRenderer(t, nil)
	cfg := r.Config()
	cfg.Exposure = 1.5
	cfg.Gamma = 1.8
	cfg.Bloom.Iterations = 2
	cfg.EnvironmentSize = 64
	require.NoError(t, r.ApplyConfig(cfg))
	assert.Equal(t, float32(1.5), r.tonemap.Exposure)
	assert.Equal(t, float32(1.8), r.tonemap.Gamma)
	assert.Equal(t, 2, r.blur.Iterations)
	w, _ := r.environment.Size()
	assert.Equal(t, 64, w, "environment rebuilt before precompute")

	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	cfg.EnvironmentSize = 128
	require.NoError(t, r.ApplyConfig(cfg))
	assert.Equal(t, 64, r.Config().EnvironmentSize, "fixed after precompute")

	bad := cfg
	bad.Width = 0
	assert.ErrorIs(t, r.ApplyConfig(bad), ErrInvalidConfig)
	assert.Equal(t, float32(1.5), r.Config().Exposure)
}

func TestRendererPresentAndScreenshot(t *testing.T) {
	r, dev := testRenderer(t, nil)
	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	require.NoError(t, r.RenderFrame(testScene(), testCamera()))

	blits := dev.Blits
	r.Present(640, 480)
	assert.Equal(t, blits+1, dev.Blits)
	assert.Equal(t, gpu.DefaultFramebuffer, dev.Bound())

	img := r.Screenshot()
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
	assert.Equal(t, 1, dev.Reads)
}

func TestRendererDestroyReleasesEverything(t *testing.T) {
	r, dev := testRenderer(t, nil)
	require.NoError(t, r.PrecomputeEnvironment(assets.NewUniform(16, 8, 1, 1, 1)))
	require.NoError(t, r.RenderFrame(testScene(), testCamera()))
	require.Positive(t, dev.Live())

	r.Destroy()
	assert.Zero(t, dev.Live())
	assert.Equal(t, dev.Allocations, dev.Deletions)
}
