package renderer

import (
	"fmt"
	"image"
	"time"

	"pbr-renderer/assets"
	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// Stats describes the last rendered frame.
type Stats struct {
	Frames        uint64
	Meshes        int
	Culled        int
	Lights        int
	ShadowTargets int
	Draws         int
	FrameTime     time.Duration
}

// Renderer owns every pass and sequences them:
//
//	shadows -> geometry -> lighting -> skybox -> clamp -> blur -> add -> tonemap
//
// The environment chain runs once in PrecomputeEnvironment.
type Renderer struct {
	ctx     *Context
	cfg     Config
	shadows *shadowTable

	environment *EnvironmentPass
	irradiance  *IrradiancePass
	prefilter   *PrefilterPass
	brdf        *BRDFPass
	precomputed bool

	geometry *GeometryPass
	lighting *PBRLightingPass
	skybox   *SkyboxPass
	clamp    *ClampPass
	blur     *GaussianBlurPass
	add      *AddPass
	tonemap  *TonemappingPass

	stats Stats
}

// NewRenderer creates the passes for cfg. GPU objects are allocated by
// Setup or lazily by the first render.
func NewRenderer(dev gpu.Device, cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := NewContext(dev)
	r := &Renderer{
		ctx:         ctx,
		cfg:         cfg,
		shadows:     newShadowTable(ctx, cfg.ShadowSize),
		environment: NewEnvironmentPass(ctx, cfg.EnvironmentSize),
		irradiance:  NewIrradiancePass(ctx),
		prefilter:   NewPrefilterPass(ctx),
		brdf:        NewBRDFPass(ctx),
	}
	r.buildFramePasses()
	return r, nil
}

func (r *Renderer) buildFramePasses() {
	w, h := r.cfg.Width, r.cfg.Height
	r.geometry = NewGeometryPass(r.ctx, w, h)
	r.lighting = NewPBRLightingPass(r.ctx, w, h)
	r.skybox = NewSkyboxPass(r.ctx, w, h)
	r.clamp = NewClampPass(r.ctx, w, h, r.cfg.Bloom.Min, r.cfg.Bloom.Max)
	r.blur = NewGaussianBlurPass(r.ctx, w, h, r.cfg.Bloom.Iterations)
	r.add = NewAddPass(r.ctx, w, h)
	r.tonemap = NewTonemappingPass(r.ctx, w, h, r.cfg.Exposure, r.cfg.Gamma)
}

func (r *Renderer) framePasses() []Pass {
	return []Pass{r.geometry, r.lighting, r.skybox, r.clamp, r.blur, r.add, r.tonemap}
}

func (r *Renderer) environmentPasses() []Pass {
	return []Pass{r.environment, r.irradiance, r.prefilter, r.brdf}
}

// Setup allocates every pass up front and returns the first failure.
func (r *Renderer) Setup() error {
	for _, p := range append(r.environmentPasses(), r.framePasses()...) {
		if err := p.Setup(); err != nil {
			return err
		}
	}
	return nil
}

// Config returns the active configuration.
func (r *Renderer) Config() Config { return r.cfg }

func (r *Renderer) Context() *Context { return r.ctx }

// PrecomputeEnvironment builds the environment cube, irradiance map,
// prefiltered specular map and BRDF LUT from an equirectangular image.
func (r *Renderer) PrecomputeEnvironment(img *assets.Image) error {
	start := time.Now()
	if err := r.environment.Render(img); err != nil {
		return fmt.Errorf("precompute environment: %w", err)
	}
	if err := r.irradiance.Render(r.environment.Cube()); err != nil {
		return fmt.Errorf("precompute environment: %w", err)
	}
	if err := r.prefilter.Render(r.environment.Cube(), r.cfg.EnvironmentSize); err != nil {
		return fmt.Errorf("precompute environment: %w", err)
	}
	if err := r.brdf.Render(); err != nil {
		return fmt.Errorf("precompute environment: %w", err)
	}
	r.ctx.dev.BindFramebuffer(gpu.DefaultFramebuffer)
	r.precomputed = true
	Logger().Info("environment precomputed",
		"source", fmt.Sprintf("%dx%d", img.Width, img.Height),
		"size", r.cfg.EnvironmentSize,
		"elapsed", time.Since(start))
	return nil
}

// RenderFrame draws s from cam into the tonemapped target. Call Present to
// show it.
func (r *Renderer) RenderFrame(s *scene.Scene, cam scene.Camera) error {
	if !r.precomputed {
		panic("renderer: RenderFrame before PrecomputeEnvironment")
	}
	start := time.Now()
	meshes := s.Meshes()
	lights := s.Lights()
	shadowed := lights[:min(len(lights), MaxLights)]

	r.shadows.sync(shadowed)
	draws, err := r.shadows.render(shadowed, meshes)
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	if err := r.geometry.Render(meshes, cam); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	draws += r.geometry.Drawn()

	shadowMaps := make([]gpu.Texture, len(lights))
	for i, l := range shadowed {
		shadowMaps[i], _ = r.shadows.lookup(l).texture()
	}
	err = r.lighting.Render(LightingInputs{
		CameraPosition:  cam.Position(),
		Lights:          lights,
		Shadows:         shadowMaps,
		GBuffer:         r.geometry.GBuffer(),
		Irradiance:      r.irradiance.Cube(),
		Prefilter:       r.prefilter.Cube(),
		PrefilterLevels: r.prefilter.Levels(),
		BRDF:            r.brdf.LUT(),
	})
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	draws++

	hdr := r.lighting.Output()
	if r.cfg.Skybox {
		if err := r.drawSky(cam); err != nil {
			return fmt.Errorf("render frame: %w", err)
		}
		hdr = r.skybox.Output()
		draws++
	}
	if r.cfg.Bloom.Enabled {
		if err := r.bloom(hdr); err != nil {
			return fmt.Errorf("render frame: %w", err)
		}
		hdr = r.add.Output()
		draws += 2 + 2*max(r.blur.Iterations, 1)
	}
	if err := r.tonemap.Render(hdr); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	draws++
	r.ctx.dev.BindFramebuffer(gpu.DefaultFramebuffer)

	r.stats = Stats{
		Frames:        r.stats.Frames + 1,
		Meshes:        len(meshes),
		Culled:        len(meshes) - r.geometry.Drawn(),
		Lights:        len(lights),
		ShadowTargets: r.shadows.len(),
		Draws:         draws,
		FrameTime:     time.Since(start),
	}
	Logger().Debug("frame", "n", r.stats.Frames, "draws", draws, "lights", len(lights), "elapsed", r.stats.FrameTime)
	return nil
}

func (r *Renderer) drawSky(cam scene.Camera) error {
	if err := r.skybox.CopyBufferFrom(r.lighting, gpu.ColorBuffer); err != nil {
		return err
	}
	if err := r.skybox.CopyBufferFrom(r.geometry, gpu.DepthBuffer); err != nil {
		return err
	}
	return r.skybox.Render(r.environment.Cube(), cam)
}

func (r *Renderer) bloom(hdr gpu.Texture) error {
	if err := r.clamp.Render(hdr); err != nil {
		return err
	}
	if err := r.blur.Render(r.clamp.Output()); err != nil {
		return err
	}
	return r.add.Render(hdr, r.blur.Output())
}

// Output is the tonemapped RGBA8 texture of the last frame.
func (r *Renderer) Output() gpu.Texture { return r.tonemap.Output() }

// Present blits the last frame to the window's back buffer, scaled to the
// framebuffer size.
func (r *Renderer) Present(width, height int) {
	dev := r.ctx.dev
	dev.Blit(r.tonemap.Framebuffer(), gpu.DefaultFramebuffer, r.cfg.Width, r.cfg.Height, width, height, gpu.ColorBuffer)
	dev.BindFramebuffer(gpu.DefaultFramebuffer)
}

// Screenshot reads back the last frame as an upright image.
func (r *Renderer) Screenshot() *image.RGBA {
	w, h := r.cfg.Width, r.cfg.Height
	return assets.FromFramebuffer(w, h, r.ctx.dev.ReadPixels(r.tonemap.Framebuffer(), w, h))
}

// Resize replaces every size-bound pass. The old passes become Invalid.
func (r *Renderer) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, width, height)
	}
	if width == r.cfg.Width && height == r.cfg.Height {
		return nil
	}
	for _, p := range r.framePasses() {
		p.Destroy()
	}
	r.cfg.Width, r.cfg.Height = width, height
	r.buildFramePasses()
	Logger().Debug("renderer resized", "width", width, "height", height)
	return nil
}

// ApplyConfig switches to cfg at runtime. Tonemap, bloom and skybox settings
// apply to the next frame, a size change resizes, and a new shadow size is
// used for shadow targets created afterwards. EnvironmentSize is fixed once
// the environment has been precomputed.
func (r *Renderer) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.EnvironmentSize != r.cfg.EnvironmentSize {
		if r.precomputed {
			Logger().Warn("environment size change ignored until restart",
				"current", r.cfg.EnvironmentSize, "requested", cfg.EnvironmentSize)
			cfg.EnvironmentSize = r.cfg.EnvironmentSize
		} else {
			r.environment.Destroy()
			r.environment = NewEnvironmentPass(r.ctx, cfg.EnvironmentSize)
		}
	}
	if err := r.Resize(cfg.Width, cfg.Height); err != nil {
		return err
	}
	r.cfg = cfg
	r.shadows.defaultSize = cfg.ShadowSize
	r.tonemap.Exposure, r.tonemap.Gamma = cfg.Exposure, cfg.Gamma
	r.clamp.Min, r.clamp.Max = cfg.Bloom.Min, cfg.Bloom.Max
	r.blur.Iterations = cfg.Bloom.Iterations
	return nil
}

// Stats returns statistics of the last frame.
func (r *Renderer) Stats() Stats { return r.stats }

// Destroy releases every GPU object the renderer created.
func (r *Renderer) Destroy() {
	for _, p := range append(r.environmentPasses(), r.framePasses()...) {
		p.Destroy()
	}
	r.shadows.destroy()
	r.ctx.Destroy()
}
