package scene

import "pbr-renderer/math"

// Material holds the metallic-roughness parameters written into the G-buffer.
// It is a plain value with no GPU resources.
type Material struct {
	Albedo    math.Vec3
	Emission  math.Vec3
	Roughness float32
	Metallic  float32
	AO        float32
}

func DefaultMaterial() Material {
	return Material{
		Albedo:    math.Splat(0.8),
		Roughness: 0.5,
		AO:        1,
	}
}

// Clamped returns a copy with the scalar parameters limited to [0, 1].
// Albedo and emission are left alone so emissive surfaces can exceed 1.
func (m Material) Clamped() Material {
	m.Roughness = clamp01(m.Roughness)
	m.Metallic = clamp01(m.Metallic)
	m.AO = clamp01(m.AO)
	return m
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
