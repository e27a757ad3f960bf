package renderer

import (
	"fmt"

	"pbr-renderer/gpu"
	"pbr-renderer/scene"
)

// Texture units used by the lighting program.
const (
	unitGBuffer    = 0
	unitIrradiance = unitGBuffer + gbufferPlanes
	unitPrefilter  = unitIrradiance + 1
	unitBRDF       = unitPrefilter + 1
	unitShadows    = unitBRDF + 1
)

var gbufferSamplers = [gbufferPlanes]string{
	GPosition:  "gPosition",
	GNormal:    "gNormal",
	GAlbedo:    "gAlbedo",
	GEmission:  "gEmission",
	GRoughness: "gRoughness",
	GMetallic:  "gMetallic",
}

type binding struct {
	unit    int
	target  gpu.Target
	texture gpu.Texture
}

type samplerSlot struct {
	name string
	unit int
}

// bindingTable is the complete texture state of one lighting draw. Every
// sampler uniform gets a unit whose bound target matches its type, including
// the shadow slots of absent lights.
type bindingTable struct {
	bindings []binding
	samplers []samplerSlot
}

func (t *bindingTable) bind(unit int, target gpu.Target, tex gpu.Texture, sampler string) {
	t.bindings = append(t.bindings, binding{unit: unit, target: target, texture: tex})
	if sampler != "" {
		t.sampler(sampler, unit)
	}
}

func (t *bindingTable) sampler(name string, unit int) {
	t.samplers = append(t.samplers, samplerSlot{name: name, unit: unit})
}

// unit returns the binding for unit, if any.
func (t *bindingTable) unit(unit int) (binding, bool) {
	for _, b := range t.bindings {
		if b.unit == unit {
			return b, true
		}
	}
	return binding{}, false
}

func (t *bindingTable) apply(dev gpu.Device) {
	for _, b := range t.bindings {
		dev.BindTexture(b.unit, b.target, b.texture)
	}
	for _, s := range t.samplers {
		dev.SetInt(s.name, int32(s.unit))
	}
}

// lightingBindings lays out the G-buffer, IBL maps and the shadow maps of
// the first count lights. Unused shadow samplers point at the irradiance
// cube or the BRDF LUT.
func lightingBindings(in LightingInputs, count int) bindingTable {
	var t bindingTable
	for i, tex := range in.GBuffer {
		t.bind(unitGBuffer+i, gpu.Texture2D, tex, gbufferSamplers[i])
	}
	t.bind(unitIrradiance, gpu.TextureCube, in.Irradiance, "irradianceMap")
	t.bind(unitPrefilter, gpu.TextureCube, in.Prefilter, "prefilterMap")
	t.bind(unitBRDF, gpu.Texture2D, in.BRDF, "brdfLUT")

	for i := range MaxLights {
		planar, cube := unitBRDF, unitIrradiance
		if i < count {
			unit := unitShadows + i
			if in.Lights[i].Kind == scene.Point {
				t.bind(unit, gpu.TextureCube, in.Shadows[i], "")
				cube = unit
			} else {
				t.bind(unit, gpu.Texture2D, in.Shadows[i], "")
				planar = unit
			}
		}
		t.sampler(fmt.Sprintf("shadowMaps[%d]", i), planar)
		t.sampler(fmt.Sprintf("shadowCubes[%d]", i), cube)
	}
	return t
}
