package scene

import (
	"github.com/chewxy/math32"

	"pbr-renderer/math"
)

// LightKind values double as the shader type tag.
type LightKind int

const (
	Directional LightKind = iota
	Spot
	Point
)

func (k LightKind) String() string {
	switch k {
	case Directional:
		return "directional"
	case Spot:
		return "spot"
	case Point:
		return "point"
	}
	return "unknown"
}

// ShadowHandle indexes the renderer's shadow table. Zero means unassigned.
type ShadowHandle uint32

const DefaultShadowSize = 1024

type Light struct {
	Kind      LightKind
	Position  math.Vec3
	Direction math.Vec3
	Color     math.Vec3
	Intensity float32

	// CutOff is the spot cone half-angle in degrees.
	CutOff float32
	Near   float32
	Far    float32
	// Extent is the half-size of a directional light's orthographic frustum.
	Extent float32
	// ShadowSize is the shadow map resolution per side.
	ShadowSize int

	Shadow   ShadowHandle
	revision uint64
}

func NewDirectionalLight(position, direction math.Vec3) *Light {
	return &Light{
		Kind:       Directional,
		Position:   position,
		Direction:  direction.Normalize(),
		Color:      math.Vec3One,
		Intensity:  1,
		Near:       1,
		Far:        30,
		Extent:     5,
		ShadowSize: DefaultShadowSize,
	}
}

func NewSpotLight(position, direction math.Vec3, cutOff float32) *Light {
	return &Light{
		Kind:       Spot,
		Position:   position,
		Direction:  direction.Normalize(),
		Color:      math.Vec3One,
		Intensity:  1,
		CutOff:     cutOff,
		Near:       0.1,
		Far:        50,
		ShadowSize: DefaultShadowSize,
	}
}

func NewPointLight(position math.Vec3, far float32) *Light {
	return &Light{
		Kind:       Point,
		Position:   position,
		Direction:  math.Vec3Down,
		Color:      math.Vec3One,
		Intensity:  1,
		Near:       0.1,
		Far:        far,
		ShadowSize: DefaultShadowSize / 2,
	}
}

func (*Light) isNode() {}

// Radiance is colour scaled by intensity, as uploaded to the shader.
func (l *Light) Radiance() math.Vec3 {
	return l.Color.Mul(l.Intensity)
}

// CosCutOff is the cosine of the spot half-angle.
func (l *Light) CosCutOff() float32 {
	return math32.Cos(math.Radians(l.CutOff))
}

// Reinitialize asks the renderer to destroy and recreate the shadow target on
// the next frame, e.g. after ShadowSize or Kind changed.
func (l *Light) Reinitialize() {
	l.revision++
}

// Revision changes every time Reinitialize is called.
func (l *Light) Revision() uint64 {
	return l.revision
}

// Camera builds the shadow camera from the current light parameters. It is
// never cached so moving a light is reflected on the next frame.
func (l *Light) Camera() Camera {
	switch l.Kind {
	case Point:
		return &Camera360{Eye: l.Position, Near: l.Near, Far: l.Far}
	case Spot:
		return &PerspectiveCamera{
			Eye:    l.Position,
			Target: l.Position.Add(l.Direction),
			Up:     upFor(l.Direction),
			FovY:   math.Radians(2 * l.CutOff),
			Aspect: 1,
			Near:   l.Near,
			Far:    l.Far,
		}
	default:
		return &OrthographicCamera{
			Eye:    l.Position,
			Target: l.Position.Add(l.Direction),
			Up:     upFor(l.Direction),
			Left:   -l.Extent,
			Right:  l.Extent,
			Bottom: -l.Extent,
			Top:    l.Extent,
			Near:   l.Near,
			Far:    l.Far,
		}
	}
}

// LightSpace maps world positions into the light's clip space.
func (l *Light) LightSpace() math.Mat4 {
	cam := l.Camera()
	return cam.View().Mul(cam.Projection())
}

// upFor picks an up vector that is not parallel to dir.
func upFor(dir math.Vec3) math.Vec3 {
	if math32.Abs(dir.Normalize().Dot(math.Vec3Up)) > 0.999 {
		return math.Vec3Front
	}
	return math.Vec3Up
}
