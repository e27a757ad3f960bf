package renderer

import (
	"fmt"

	"pbr-renderer/gpu"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

// LightingInputs is everything one lighting draw reads.
type LightingInputs struct {
	CameraPosition math.Vec3
	Lights         []*scene.Light
	// Shadows holds each light's shadow texture, parallel to Lights: a 2D
	// depth map for directional and spot lights, a cube for point lights.
	Shadows         []gpu.Texture
	GBuffer         GBuffer
	Irradiance      gpu.Texture
	Prefilter       gpu.Texture
	PrefilterLevels int
	BRDF            gpu.Texture
}

func (in LightingInputs) mustComplete() {
	for i, tex := range in.GBuffer {
		if tex == 0 {
			panic(fmt.Sprintf("renderer: lighting input %s is missing", gbufferSamplers[i]))
		}
	}
	if in.Irradiance == 0 || in.Prefilter == 0 || in.BRDF == 0 {
		panic("renderer: lighting pass needs the irradiance, prefilter and BRDF maps")
	}
	if len(in.Shadows) != len(in.Lights) {
		panic(fmt.Sprintf("renderer: %d shadow maps for %d lights", len(in.Shadows), len(in.Lights)))
	}
}

// PBRLightingPass resolves the G-buffer into HDR radiance with direct
// Cook-Torrance lighting, shadows and image-based ambient light.
type PBRLightingPass struct {
	base
	output gpu.Texture
	warned int
}

var _ Pass = (*PBRLightingPass)(nil)

func NewPBRLightingPass(ctx *Context, width, height int) *PBRLightingPass {
	p := &PBRLightingPass{base: newBase(ctx, KindLighting, width, height, fullscreen)}
	p.allocate = p.setup
	return p
}

func (p *PBRLightingPass) setup() error {
	fb, tex := p.colorTargets(gpu.Linear, gpu.RGBA16F)
	p.output = tex[0]
	if err := p.ctx.dev.CheckFramebuffer(fb); err != nil {
		return err
	}
	return p.compile(quadVertSrc, lightingFragSrc)
}

// Output is the HDR radiance texture.
func (p *PBRLightingPass) Output() gpu.Texture { return p.output }

// Render draws one full-screen quad. Lights past MaxLights are skipped.
func (p *PBRLightingPass) Render(in LightingInputs) error {
	in.mustComplete()
	if err := p.Setup(); err != nil {
		return err
	}

	count := min(len(in.Lights), MaxLights)
	if len(in.Lights) > MaxLights && p.warned != len(in.Lights) {
		Logger().Warn("lights beyond limit skipped", "lights", len(in.Lights), "max", MaxLights)
	}
	p.warned = len(in.Lights)
	table := lightingBindings(in, count)

	dev := p.begin(p.fb)
	dev.Clear(gpu.ColorBuffer, [4]float32{})
	table.apply(dev)
	dev.SetInt("lightCount", int32(count))
	dev.SetVec3("cameraPos", in.CameraPosition)
	dev.SetFloat("shadowBias", ShadowBias)
	dev.SetFloat("prefilterLevels", float32(max(in.PrefilterLevels-1, 0)))
	for i, l := range in.Lights[:count] {
		setLight(dev, i, l)
	}
	p.drawQuad()
	return nil
}

func setLight(dev gpu.Device, i int, l *scene.Light) {
	field := func(name string) string { return fmt.Sprintf("lights[%d].%s", i, name) }
	dev.SetInt(field("type"), int32(l.Kind))
	dev.SetVec3(field("color"), l.Radiance())
	dev.SetVec3(field("position"), l.Position)
	dev.SetVec3(field("direction"), l.Direction.Normalize())
	dev.SetFloat(field("cutOff"), l.CosCutOff())
	dev.SetFloat(field("far"), l.Far)
	if l.Kind != scene.Point {
		dev.SetMat4(field("lightSpace"), l.LightSpace())
	}
}
