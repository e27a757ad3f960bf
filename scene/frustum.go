package scene

import "pbr-renderer/math"

// ClipPlane is the half-space Normal·p + D >= 0.
type ClipPlane struct {
	Normal math.Vec3
	D      float32
}

// DistanceTo is positive on the inside.
func (p ClipPlane) DistanceTo(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a camera: left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]ClipPlane
}

// NewFrustum extracts the planes from a view-projection matrix (Gribb and
// Hartmann). Points are row vectors, so clip coordinate j is the dot product
// with column j of vp.
func NewFrustum(vp math.Mat4) Frustum {
	var c [4]math.Vec4
	for j := range c {
		c[j] = math.Vec4{X: vp[0][j], Y: vp[1][j], Z: vp[2][j], W: vp[3][j]}
	}
	var f Frustum
	for axis := range 3 {
		f.Planes[2*axis] = clipPlane(c[3].Add(c[axis]))
		f.Planes[2*axis+1] = clipPlane(c[3].Sub(c[axis]))
	}
	return f
}

// CameraFrustum is the frustum of cam's current view and projection.
func CameraFrustum(cam Camera) Frustum {
	return NewFrustum(cam.View().Mul(cam.Projection()))
}

func clipPlane(v math.Vec4) ClipPlane {
	n := math.NewVec3(v.X, v.Y, v.Z)
	l := n.Length()
	if l == 0 {
		return ClipPlane{}
	}
	return ClipPlane{Normal: n.Mul(1 / l), D: v.W / l}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

// Intersects is false only when the box lies entirely outside one plane.
// It may report boxes near frustum corners as visible.
func (b AABB) Intersects(f Frustum) bool {
	for _, p := range f.Planes {
		pos := b.Max
		if p.Normal.X < 0 {
			pos.X = b.Min.X
		}
		if p.Normal.Y < 0 {
			pos.Y = b.Min.Y
		}
		if p.Normal.Z < 0 {
			pos.Z = b.Min.Z
		}
		if p.DistanceTo(pos) < 0 {
			return false
		}
	}
	return true
}

// Transform returns the bounds of the box's eight corners moved by m.
func (b AABB) Transform(m math.Mat4) AABB {
	out := AABB{Min: m.MulPoint(b.Min)}
	out.Max = out.Min
	for i := 1; i < 8; i++ {
		corner := b.Min
		if i&1 != 0 {
			corner.X = b.Max.X
		}
		if i&2 != 0 {
			corner.Y = b.Max.Y
		}
		if i&4 != 0 {
			corner.Z = b.Max.Z
		}
		p := m.MulPoint(corner)
		out.Min = math.NewVec3(min(out.Min.X, p.X), min(out.Min.Y, p.Y), min(out.Min.Z, p.Z))
		out.Max = math.NewVec3(max(out.Max.X, p.X), max(out.Max.Y, p.Y), max(out.Max.Z, p.Z))
	}
	return out
}

// WorldBounds is the mesh's geometry bounds in world space.
func (m *Mesh) WorldBounds() AABB {
	lo, hi := m.Geometry.Bounds()
	return AABB{Min: lo, Max: hi}.Transform(m.Model())
}
