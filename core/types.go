package core

import (
	"pbr-renderer/math"
)

// Vertex is one interleaved mesh vertex. The GPU layout is eight floats:
// position, normal, then texture coordinate.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
}

// VertexStride is the number of floats per interleaved vertex.
const VertexStride = 8

// Interleave flattens vertices into the eight-float GPU layout.
func Interleave(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*VertexStride)
	for _, v := range vertices {
		out = append(out,
			v.Position.X, v.Position.Y, v.Position.Z,
			v.Normal.X, v.Normal.Y, v.Normal.Z,
			v.UV.X, v.UV.Y,
		)
	}
	return out
}

type Transform struct {
	Position math.Vec3
	Rotation math.Quaternion
	Scale    math.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: math.Vec3Zero,
		Rotation: math.QuaternionIdentity(),
		Scale:    math.Vec3One,
	}
}

// Matrix returns the model matrix: scale, then rotate, then translate.
func (t Transform) Matrix() math.Mat4 {
	return math.Mat4TRS(t.Position, t.Rotation, t.Scale)
}

// Compose applies child in the space of t. Exact for uniform scale.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Position: t.Position.Add(t.Rotation.RotateVector(child.Position.MulVec(t.Scale))),
		Rotation: t.Rotation.Mul(child.Rotation).Normalize(),
		Scale:    t.Scale.MulVec(child.Scale),
	}
}

func (t Transform) Forward() math.Vec3 {
	return t.Rotation.RotateVector(math.Vec3Back)
}
