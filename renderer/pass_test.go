package renderer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbr-renderer/gpu"
	"pbr-renderer/gpu/gputest"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

func newTestContext() (*Context, *gputest.Device) {
	dev := gputest.New()
	return NewContext(dev), dev
}

func testCamera() *scene.PerspectiveCamera {
	return scene.NewPerspectiveCamera(math.Radians(60), 16.0/9.0, 0.1, 100)
}

// sizedPasses builds one of each size-parameterised pass kind.
func sizedPasses(ctx *Context, w, h int) []Pass {
	return []Pass{
		NewGeometryPass(ctx, w, h),
		NewPBRLightingPass(ctx, w, h),
		NewSkyboxPass(ctx, w, h),
		NewClampPass(ctx, w, h, 1, 10),
		NewGaussianBlurPass(ctx, w, h, 2),
		NewAddPass(ctx, w, h),
		NewTonemappingPass(ctx, w, h, 0, 2.2),
	}
}

func allPasses(ctx *Context, w, h int) []Pass {
	return append(sizedPasses(ctx, w, h),
		NewDepthPass(ctx, w, gpu.CullFront),
		NewCubeDepthPass(ctx, w),
		NewEnvironmentPass(ctx, w),
		NewIrradiancePass(ctx),
		NewPrefilterPass(ctx),
		NewBRDFPass(ctx),
	)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "geometry", KindGeometry.String())
	assert.Equal(t, "cube-depth", KindCubeDepth.String())
	assert.Equal(t, "skybox", KindSkybox.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, "ready", Ready.String())
}

func TestSetupCompleteForAnySize(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {7, 3}, {640, 480}} {
		t.Run(fmt.Sprintf("%dx%d", size[0], size[1]), func(t *testing.T) {
			ctx, dev := newTestContext()
			for _, p := range allPasses(ctx, size[0], size[1]) {
				require.NoError(t, p.Setup(), p.Kind().String())
				assert.Equal(t, Ready, p.Lifecycle(), p.Kind().String())
				assert.NoError(t, dev.CheckFramebuffer(p.Framebuffer()), p.Kind().String())
			}
			assert.Equal(t, gpu.DefaultFramebuffer, dev.Bound())
		})
	}
}

func TestSetupIdempotent(t *testing.T) {
	ctx, dev := newTestContext()
	for _, p := range allPasses(ctx, 32, 16) {
		require.NoError(t, p.Setup())
		fb := p.Framebuffer()
		allocs := dev.Allocations

		require.NoError(t, p.Setup())
		assert.Equal(t, allocs, dev.Allocations, p.Kind().String())
		assert.Equal(t, fb, p.Framebuffer(), p.Kind().String())
	}
}

func TestSetupFailureReleasesEverything(t *testing.T) {
	ctx, dev := newTestContext()
	dev.FailFramebuffer = true
	for _, p := range allPasses(ctx, 16, 16) {
		err := p.Setup()
		require.Error(t, err, p.Kind().String())
		assert.ErrorIs(t, err, ErrIncompleteFramebuffer)
		assert.Contains(t, err.Error(), p.Kind().String()+" pass setup")
		assert.Equal(t, Unconfigured, p.Lifecycle())
		assert.Equal(t, 0, dev.Live(), p.Kind().String())
	}
}

func TestSetupFailureNotRetried(t *testing.T) {
	ctx, dev := newTestContext()
	dev.FailProgram = "tonemap"
	p := NewTonemappingPass(ctx, 8, 8, 0, 2.2)

	err := p.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected error")
	allocs := dev.Allocations

	dev.FailProgram = ""
	assert.Equal(t, err, p.Setup())
	assert.Equal(t, allocs, dev.Allocations)
	assert.Equal(t, err, p.Render(1))
}

func TestSetupRejectsEmptySize(t *testing.T) {
	ctx, dev := newTestContext()
	p := NewAddPass(ctx, 0, 4)
	assert.ErrorContains(t, p.Setup(), "invalid size 0x4")
	assert.Equal(t, 0, dev.Allocations)
}

func TestDestroy(t *testing.T) {
	ctx, dev := newTestContext()
	passes := allPasses(ctx, 8, 8)
	for _, p := range passes {
		require.NoError(t, p.Setup())
	}
	for _, p := range passes {
		p.Destroy()
		p.Destroy()
		assert.Equal(t, Invalid, p.Lifecycle())
	}
	assert.Equal(t, 0, dev.Live())

	assert.Panics(t, func() { _ = passes[0].Setup() })
	assert.Panics(t, func() { _ = passes[0].(*GeometryPass).Render(nil, testCamera()) })
}

func TestDestroyBeforeSetup(t *testing.T) {
	ctx, dev := newTestContext()
	p := NewClampPass(ctx, 4, 4, 0, 1)
	p.Destroy()
	assert.Equal(t, Invalid, p.Lifecycle())
	assert.Equal(t, 0, dev.Allocations)
}

func TestCopyBufferFrom(t *testing.T) {
	ctx, dev := newTestContext()
	src := NewGeometryPass(ctx, 64, 32)
	dst := NewSkyboxPass(ctx, 128, 64)

	assert.Panics(t, func() { _ = dst.CopyBufferFrom(src, gpu.DepthBuffer) })

	require.NoError(t, src.Setup())
	require.NoError(t, dst.CopyBufferFrom(src, gpu.DepthBuffer))
	assert.Equal(t, 1, dev.Blits)
	assert.Equal(t,
		fmt.Sprintf("blit %d->%d 64x32->128x64 mask=%d", src.Framebuffer(), dst.Framebuffer(), gpu.DepthBuffer),
		dev.Log[len(dev.Log)-1])
}

func TestPassStates(t *testing.T) {
	ctx, _ := newTestContext()
	assert.Equal(t, gpu.CullFront, NewDepthPass(ctx, 8, gpu.CullFront).State().Cull)
	assert.True(t, NewGeometryPass(ctx, 8, 8).State().DepthWrite)

	sky := NewSkyboxPass(ctx, 8, 8).State()
	assert.False(t, sky.DepthWrite)
	assert.Equal(t, gpu.DepthLessEqual, sky.DepthFunc)
	assert.True(t, NewPrefilterPass(ctx).State().SeamlessCubemap)
}

func TestContextCachesMeshes(t *testing.T) {
	ctx, dev := newTestContext()
	q1 := ctx.Primitive(PrimitiveQuad)
	q2 := ctx.Primitive(PrimitiveQuad)
	assert.Equal(t, q1, q2)
	assert.Equal(t, int32(6), q1.IndexCount)
	assert.Equal(t, int32(36), ctx.Primitive(PrimitiveCube).IndexCount)

	g := scene.Sphere(1, 8, 4)
	m := ctx.Mesh(g)
	assert.Equal(t, m, ctx.Mesh(g))
	assert.Len(t, dev.Meshes, 3)

	ctx.Release(g)
	assert.Len(t, dev.Meshes, 2)
	ctx.Destroy()
	assert.Equal(t, 0, dev.Live())
	assert.Panics(t, func() { ctx.Primitive(PrimitiveKind(7)) })
}
