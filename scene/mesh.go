package scene

import (
	"pbr-renderer/core"
	"pbr-renderer/math"
)

// Mesh places a shared Geometry in the world with its own material.
type Mesh struct {
	Name      string
	Transform core.Transform
	Geometry  *Geometry
	Material  Material
}

func NewMesh(name string, geometry *Geometry, material Material) *Mesh {
	return &Mesh{
		Name:      name,
		Transform: core.NewTransform(),
		Geometry:  geometry,
		Material:  material,
	}
}

func (m *Mesh) Model() math.Mat4 {
	return m.Transform.Matrix()
}

func (*Mesh) isNode() {}
