package scene

import (
	stdmath "math"

	"github.com/chewxy/math32"

	"pbr-renderer/math"
)

// Camera provides the matrices a pass needs to rasterize from a viewpoint.
type Camera interface {
	View() math.Mat4
	Projection() math.Mat4
	Position() math.Vec3
}

type PerspectiveCamera struct {
	Eye, Target, Up math.Vec3
	FovY            float32 // radians
	Aspect          float32
	Near, Far       float32
}

func NewPerspectiveCamera(fovY, aspect, near, far float32) *PerspectiveCamera {
	return &PerspectiveCamera{
		Eye:    math.NewVec3(0, 0, 5),
		Target: math.Vec3Zero,
		Up:     math.Vec3Up,
		FovY:   fovY,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
}

func (c *PerspectiveCamera) View() math.Mat4 {
	return math.Mat4LookAt(c.Eye, c.Target, c.Up)
}

func (c *PerspectiveCamera) Projection() math.Mat4 {
	return math.Mat4Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) Position() math.Vec3 { return c.Eye }

func (c *PerspectiveCamera) UpdateAspectRatio(width, height int) {
	if height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

type OrthographicCamera struct {
	Eye, Target, Up          math.Vec3
	Left, Right, Bottom, Top float32
	Near, Far                float32
}

func (c *OrthographicCamera) View() math.Mat4 {
	return math.Mat4LookAt(c.Eye, c.Target, c.Up)
}

func (c *OrthographicCamera) Projection() math.Mat4 {
	return math.Mat4Orthographic(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
}

func (c *OrthographicCamera) Position() math.Vec3 { return c.Eye }

// cubeFaces is the look-at table for the six cubemap faces in GL face order.
var cubeFaces = [6]struct{ target, up math.Vec3 }{
	{math.Vec3Right, math.Vec3Down},
	{math.Vec3Left, math.Vec3Down},
	{math.Vec3Up, math.Vec3Front},
	{math.Vec3Down, math.Vec3Back},
	{math.Vec3Front, math.Vec3Down},
	{math.Vec3Back, math.Vec3Down},
}

// Camera360 renders the six faces of a cubemap around Eye with a shared
// 90° square projection.
type Camera360 struct {
	Eye       math.Vec3
	Near, Far float32
}

func (c *Camera360) Views() [6]math.Mat4 {
	var views [6]math.Mat4
	for i, f := range cubeFaces {
		views[i] = math.Mat4LookAt(c.Eye, c.Eye.Add(f.target), f.up)
	}
	return views
}

// View returns the +X face view.
func (c *Camera360) View() math.Mat4 {
	return c.Views()[0]
}

func (c *Camera360) Projection() math.Mat4 {
	return math.Mat4Perspective(math.Radians(90), 1, c.Near, c.Far)
}

func (c *Camera360) Position() math.Vec3 { return c.Eye }

// OrbitCamera circles Target at Distance. Yaw and Pitch are in radians.
type OrbitCamera struct {
	Target    math.Vec3
	Distance  float32
	Yaw       float32
	Pitch     float32
	FovY      float32
	Aspect    float32
	Near, Far float32
}

func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	offset := math.NewVec3(
		c.Distance*cp*math32.Sin(c.Yaw),
		c.Distance*math32.Sin(c.Pitch),
		c.Distance*cp*math32.Cos(c.Yaw),
	)
	return c.Target.Add(offset)
}

func (c *OrbitCamera) View() math.Mat4 {
	return math.Mat4LookAt(c.Position(), c.Target, math.Vec3Up)
}

func (c *OrbitCamera) Projection() math.Mat4 {
	return math.Mat4Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// Orbit rotates the camera and keeps pitch short of the poles.
func (c *OrbitCamera) Orbit(dYaw, dPitch float32) {
	const limit = stdmath.Pi/2 - 0.01
	c.Yaw += dYaw
	c.Pitch = math32.Max(-limit, math32.Min(limit, c.Pitch+dPitch))
}

func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance = math32.Max(0.1, c.Distance-delta)
}

func (c *OrbitCamera) UpdateAspectRatio(width, height int) {
	if height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}
