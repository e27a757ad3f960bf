package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"pbr-renderer/core"
	"pbr-renderer/math"
)

// LoadGLTF opens a .glb or .gltf file and flattens its default scene into
// meshes with world transforms. Materials take the metallic-roughness factors;
// textures are not sampled by the G-buffer and are ignored.
func LoadGLTF(path string) ([]*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return meshesFromDocument(doc)
}

func meshesFromDocument(doc *gltf.Document) ([]*Mesh, error) {
	materials := make([]Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		materials[i] = gltfMaterial(gm)
	}

	// one geometry per primitive, shared by every node instancing the mesh
	type primitive struct {
		geometry *Geometry
		material Material
	}
	prims := make([][]primitive, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, p := range gm.Primitives {
			if p.Mode != gltf.PrimitiveTriangles {
				continue
			}
			geom, err := gltfGeometry(doc, p)
			if err != nil {
				return nil, fmt.Errorf("gltf mesh %d primitive %d: %w", mi, pi, err)
			}
			mat := DefaultMaterial()
			if p.Material != nil && *p.Material < len(materials) {
				mat = materials[*p.Material]
			}
			prims[mi] = append(prims[mi], primitive{geometry: geom, material: mat})
		}
	}

	var meshes []*Mesh
	var visit func(idx int, parent core.Transform)
	visit = func(idx int, parent core.Transform) {
		gn := doc.Nodes[idx]
		world := parent.Compose(nodeTransform(gn))
		if gn.Mesh != nil && *gn.Mesh < len(prims) {
			for pi, p := range prims[*gn.Mesh] {
				name := gn.Name
				if name == "" {
					name = fmt.Sprintf("node_%d", idx)
				}
				m := NewMesh(fmt.Sprintf("%s_p%d", name, pi), p.geometry, p.material)
				m.Transform = world
				meshes = append(meshes, m)
			}
		}
		for _, c := range gn.Children {
			if c < len(doc.Nodes) {
				visit(c, world)
			}
		}
	}
	for _, root := range rootNodes(doc) {
		visit(root, core.NewTransform())
	}

	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w: gltf has no triangle meshes", ErrInvalidGeometry)
	}
	return meshes, nil
}

func gltfMaterial(gm *gltf.Material) Material {
	mat := DefaultMaterial()
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.Albedo = math.NewVec3(float32(cf[0]), float32(cf[1]), float32(cf[2]))
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
	}
	ef := gm.EmissiveFactor
	mat.Emission = math.NewVec3(float32(ef[0]), float32(ef[1]), float32(ef[2]))
	return mat.Clamped()
}

func gltfGeometry(doc *gltf.Document, prim *gltf.Primitive) (*Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: no POSITION attribute", ErrInvalidGeometry)
	}
	rawPos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions := make([]math.Vec3, len(rawPos))
	for i, p := range rawPos {
		positions[i] = math.NewVec3(p[0], p[1], p[2])
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	var normals []math.Vec3
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		raw, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		normals = make([]math.Vec3, len(raw))
		for i, n := range raw {
			normals[i] = math.NewVec3(n[0], n[1], n[2])
		}
	}

	var uvs []math.Vec2
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		raw, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		uvs = make([]math.Vec2, len(raw))
		for i, t := range raw {
			uvs[i] = math.NewVec2(t[0], t[1])
		}
	}

	if normals == nil {
		seq := indices
		if seq == nil {
			seq = make([]uint32, len(positions))
			for i := range seq {
				seq[i] = uint32(i)
			}
		}
		normals = smoothNormals(positions, seq)
	}
	return NewGeometry(positions, normals, uvs, indices)
}

func nodeTransform(gn *gltf.Node) core.Transform {
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault()
	s := gn.ScaleOrDefault()
	return core.Transform{
		Position: math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])),
		Rotation: math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		Scale:    math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])),
	}
}

func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}
