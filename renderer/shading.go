package renderer

import (
	stdmath "math"
	"math/bits"

	"github.com/chewxy/math32"

	"pbr-renderer/math"
	"pbr-renderer/scene"
)

const (
	// MaxLights is the number of lights the lighting shader evaluates.
	MaxLights = 6
	// ShadowBias is subtracted from a receiver's depth before the
	// comparison with the stored occluder depth.
	ShadowBias float32 = 1e-4

	DefaultEnvironmentSize = 512
	IrradianceSize         = 32
	PrefilterSize          = 128
	MaxMipLevels           = 5
	BRDFSize               = 512
)

const (
	pi     = float32(stdmath.Pi)
	invPi  = float32(1 / stdmath.Pi)
	inv2Pi = float32(0.5 / stdmath.Pi)
)

// The functions below are CPU versions of the shader math. They pin down
// the shader contracts in tests and serve tools that need the same numbers.

// MipSize returns the edge length of mip level of a base-sized texture.
func MipSize(base, level int) int {
	return max(base>>level, 1)
}

// PrefilterRoughness is the roughness rendered into mip level of a
// levels-deep prefilter chain.
func PrefilterRoughness(level, levels int) float32 {
	if levels <= 1 {
		return 0
	}
	return float32(level) / float32(levels-1)
}

// Luminance uses Rec. 709 weights, as the clamp pass does.
func Luminance(c math.Vec3) float32 {
	return 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
}

// Tonemap maps an HDR colour to display range:
// c = pow(1 - exp(-hdr * 2^exposure), 1/gamma).
func Tonemap(hdr math.Vec3, exposure, gamma float32) math.Vec3 {
	scale := math32.Pow(2, exposure)
	return hdr.Map(func(c float32) float32 {
		return math32.Pow(1-math32.Exp(-c*scale), 1/gamma)
	})
}

// RadicalInverse mirrors the bits of i around the binary point.
func RadicalInverse(i uint32) float32 {
	return float32(float64(bits.Reverse32(i)) * 0x1p-32)
}

// Hammersley returns point i of an n-point Hammersley set in [0,1)².
func Hammersley(i, n uint32) math.Vec2 {
	return math.Vec2{X: float32(i) / float32(n), Y: RadicalInverse(i)}
}

// EquirectUV maps a direction to equirectangular texture coordinates with
// v = 0 at the top row (+Y).
func EquirectUV(dir math.Vec3) math.Vec2 {
	d := dir.Normalize()
	return math.Vec2{
		X: math32.Atan2(d.Z, d.X)*inv2Pi + 0.5,
		Y: 0.5 - math32.Asin(d.Y)*invPi,
	}
}

// ProjectShadow transforms a world point into shadow-map space. inside is
// false when the point falls outside the light volume and is treated as lit.
func ProjectShadow(lightSpace math.Mat4, world math.Vec3) (uv math.Vec2, depth float32, inside bool) {
	p := world.ToVec4(1).MulMat(lightSpace).ToVec3DivW().Mul(0.5).Add(math.Splat(0.5))
	inside = p.Z <= 1 && p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
	return math.Vec2{X: p.X, Y: p.Y}, p.Z, inside
}

// Occluded compares a receiver depth against the stored occluder depth.
func Occluded(depth, stored float32) bool {
	return depth-ShadowBias > stored
}

// CubeShadowDepth is the value the cube depth pass stores for a point.
func CubeShadowDepth(world, lightPos math.Vec3, far float32) float32 {
	return world.Distance(lightPos) / far
}

// Surface is one decoded G-buffer texel.
type Surface struct {
	Position  math.Vec3
	Normal    math.Vec3
	Albedo    math.Vec3
	Emission  math.Vec3
	Roughness float32
	Metallic  float32
	AO        float32
}

// IBLSample holds the environment lookups for one surface point.
type IBLSample struct {
	Irradiance  math.Vec3
	Prefiltered math.Vec3
	BRDF        math.Vec2
}

// LightSample is one light as the lighting shader sees it. Shadow is 1 for
// occluded and 0 for lit.
type LightSample struct {
	Kind      scene.LightKind
	Radiance  math.Vec3
	Position  math.Vec3
	Direction math.Vec3
	CosCutOff float32
	Shadow    float32
}

// SampleLight converts a scene light, with its resolved shadow term.
func SampleLight(l *scene.Light, shadow float32) LightSample {
	return LightSample{
		Kind:      l.Kind,
		Radiance:  l.Radiance(),
		Position:  l.Position,
		Direction: l.Direction,
		CosCutOff: l.CosCutOff(),
		Shadow:    shadow,
	}
}

// Shade evaluates the lighting shader for one surface.
func Shade(s Surface, eye math.Vec3, lights []LightSample, ibl IBLSample) math.Vec3 {
	n := s.Normal.Normalize()
	v := eye.Sub(s.Position).Normalize()
	ndv := max(n.Dot(v), 0)
	f0 := mixVec3(math.Splat(0.04), s.Albedo, s.Metallic)

	lo := math.Vec3Zero
	for _, l := range lights {
		var dir math.Vec3
		attenuation := float32(1)
		if l.Kind == scene.Directional {
			dir = l.Direction.Negate().Normalize()
		} else {
			toLight := l.Position.Sub(s.Position)
			dist := toLight.Length()
			dir = toLight.Mul(1 / dist)
			attenuation = 1 / (dist * dist)
			if l.Kind == scene.Spot && dir.Dot(l.Direction.Negate().Normalize()) < l.CosCutOff {
				attenuation = 0
			}
		}
		ndl := max(n.Dot(dir), 0)
		if ndl <= 0 || attenuation <= 0 {
			continue
		}
		h := v.Add(dir).Normalize()
		d := distributionGGX(max(n.Dot(h), 0), s.Roughness)
		g := geometrySmith(ndv, ndl, s.Roughness)
		f := fresnelSchlick(max(h.Dot(v), 0), f0)

		kd := math.Vec3One.Sub(f).Mul(1 - s.Metallic)
		spec := f.Mul(d * g / max(4*ndv*ndl, 0.001))
		radiance := l.Radiance.Mul(attenuation * ndl * (1 - l.Shadow))
		lo = lo.Add(kd.MulVec(s.Albedo).Mul(invPi).Add(spec).MulVec(radiance))
	}
	return Ambient(s, eye, ibl).Add(lo).Add(s.Emission)
}

// Ambient is the image-based term of Shade.
func Ambient(s Surface, eye math.Vec3, ibl IBLSample) math.Vec3 {
	n := s.Normal.Normalize()
	v := eye.Sub(s.Position).Normalize()
	ndv := max(n.Dot(v), 0)
	f0 := mixVec3(math.Splat(0.04), s.Albedo, s.Metallic)

	f := fresnelSchlickRoughness(ndv, f0, s.Roughness)
	kd := math.Vec3One.Sub(f).Mul(1 - s.Metallic)
	diffuse := ibl.Irradiance.MulVec(s.Albedo)
	spec := ibl.Prefiltered.MulVec(f.Mul(ibl.BRDF.X).Add(math.Splat(ibl.BRDF.Y)))
	return kd.MulVec(diffuse).Add(spec).Mul(s.AO)
}

func distributionGGX(ndh, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	d := ndh*ndh*(a2-1) + 1
	return a2 / (pi * d * d)
}

func geometrySchlickGGX(c, roughness float32) float32 {
	r := roughness + 1
	k := r * r / 8
	return c / (c*(1-k) + k)
}

func geometrySmith(ndv, ndl, roughness float32) float32 {
	return geometrySchlickGGX(ndv, roughness) * geometrySchlickGGX(ndl, roughness)
}

func fresnelSchlick(cosTheta float32, f0 math.Vec3) math.Vec3 {
	t := math32.Pow(clamp01(1-cosTheta), 5)
	return f0.Add(math.Vec3One.Sub(f0).Mul(t))
}

func fresnelSchlickRoughness(cosTheta float32, f0 math.Vec3, roughness float32) math.Vec3 {
	t := math32.Pow(clamp01(1-cosTheta), 5)
	hi := f0.Map(func(c float32) float32 { return max(1-roughness, c) })
	return f0.Add(hi.Sub(f0).Mul(t))
}

func mixVec3(a, b math.Vec3, t float32) math.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
