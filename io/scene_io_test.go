package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbr-renderer/scene"
)

func TestSaveLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.pbrscene")
	want := NewDefaultSceneFile("default")
	require.NoError(t, SaveScene(path, want))

	got, err := LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSceneErrors(t *testing.T) {
	_, err := LoadScene(filepath.Join(t.TempDir(), "missing.pbrscene"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.pbrscene")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadScene(bad)
	assert.Error(t, err)
}

func TestBuildDefaultScene(t *testing.T) {
	s, cam, err := NewDefaultSceneFile("default").Build(".")
	require.NoError(t, err)

	require.Len(t, s.Lights(), 1)
	assert.Equal(t, scene.Directional, s.Lights()[0].Kind)
	assert.Equal(t, float32(8), s.Lights()[0].Extent)
	assert.Len(t, s.Meshes(), 2)
	assert.Equal(t, float32(8), cam.Distance)
	assert.InDelta(t, 1.0472, cam.FovY, 1e-4)
}

func TestBuildSharesPrimitiveGeometry(t *testing.T) {
	sf := &SceneFile{Objects: []ObjectData{
		{Name: "a", MeshType: "cube"},
		{Name: "b", MeshType: "cube", Position: [3]float32{2, 0, 0}},
	}}
	s, _, err := sf.Build(".")
	require.NoError(t, err)

	meshes := s.Meshes()
	require.Len(t, meshes, 2)
	assert.Same(t, meshes[0].Geometry, meshes[1].Geometry)
	// zero rotation and scale fall back to identity
	assert.Equal(t, float32(1), meshes[0].Transform.Rotation.W)
	assert.Equal(t, float32(1), meshes[0].Transform.Scale.X)
}

func TestBuildMeshFile(t *testing.T) {
	dir := t.TempDir()
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(obj), 0o644))

	sf := &SceneFile{Objects: []ObjectData{
		{Name: "one", MeshType: "file", MeshFile: "tri.obj"},
		{Name: "two", MeshType: "file", MeshFile: "tri.obj"},
	}}
	s, _, err := sf.Build(dir)
	require.NoError(t, err)
	meshes := s.Meshes()
	require.Len(t, meshes, 2)
	assert.Same(t, meshes[0].Geometry, meshes[1].Geometry)
	assert.Equal(t, "two", meshes[1].Name)
}

// writePairGLB saves a model with one triangle at x=-5 and one at x=+5,
// each with its own material.
func writePairGLB(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Materials = []*gltf.Material{
		{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{MetallicFactor: gltf.Float(0)}},
		{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{MetallicFactor: gltf.Float(1)}},
	}
	prim := func(mat int) []*gltf.Primitive {
		return []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
			Material:   gltf.Index(mat),
		}}
	}
	doc.Meshes = []*gltf.Mesh{{Name: "a", Primitives: prim(0)}, {Name: "b", Primitives: prim(1)}}
	doc.Nodes = []*gltf.Node{
		{Name: "left", Mesh: gltf.Index(0), Translation: [3]float64{-5, 0, 0}},
		{Name: "right", Mesh: gltf.Index(1), Translation: [3]float64{5, 0, 0}},
	}
	doc.Scenes[0].Nodes = []int{0, 1}
	require.NoError(t, gltf.SaveBinary(doc, path))
}

func TestBuildMeshFileKeepsNodes(t *testing.T) {
	dir := t.TempDir()
	writePairGLB(t, filepath.Join(dir, "pair.glb"))

	sf := &SceneFile{Objects: []ObjectData{
		{Name: "pair", MeshType: "file", MeshFile: "pair.glb", Position: [3]float32{0, 0, 10}},
		{
			Name:     "painted",
			MeshType: "file",
			MeshFile: "pair.glb",
			Material: &MaterialData{Albedo: [3]float32{1, 0, 0}, Roughness: 0.5, Metallic: 0.5, AO: 1},
		},
	}}
	s, _, err := sf.Build(dir)
	require.NoError(t, err)
	meshes := s.Meshes()
	require.Len(t, meshes, 4)

	left, right := meshes[0], meshes[1]
	assert.Equal(t, "pair/left_p0", left.Name)
	assert.InDelta(t, -5, left.Transform.Position.X, 1e-5)
	assert.InDelta(t, 10, left.Transform.Position.Z, 1e-5)
	assert.InDelta(t, 5, right.Transform.Position.X, 1e-5)
	assert.InDelta(t, 10, right.Transform.Position.Z, 1e-5)
	assert.Equal(t, float32(0), left.Material.Metallic)
	assert.Equal(t, float32(1), right.Material.Metallic)

	// an explicit material replaces the file's
	for _, m := range meshes[2:] {
		assert.Equal(t, float32(0.5), m.Material.Metallic)
		assert.Equal(t, float32(1), m.Material.Albedo.X)
	}
	assert.InDelta(t, -5, meshes[2].Transform.Position.X, 1e-5)
	assert.Same(t, left.Geometry, meshes[2].Geometry)
}

func TestBuildPrimitiveDefaultMaterial(t *testing.T) {
	s, _, err := (&SceneFile{Objects: []ObjectData{{Name: "box", MeshType: "cube"}}}).Build(".")
	require.NoError(t, err)
	assert.Equal(t, scene.DefaultMaterial(), s.Meshes()[0].Material)
}

func TestBuildUnknownKinds(t *testing.T) {
	_, _, err := (&SceneFile{Lights: []LightData{{Type: "area"}}}).Build(".")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, _, err = (&SceneFile{Objects: []ObjectData{{MeshType: "torus"}}}).Build(".")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, _, err = (&SceneFile{Objects: []ObjectData{{MeshType: "file", MeshFile: "x.fbx"}}}).Build(".")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPointLightDefaultsFar(t *testing.T) {
	s, _, err := (&SceneFile{Lights: []LightData{{Type: "point", Intensity: 2}}}).Build(".")
	require.NoError(t, err)
	l := s.Lights()[0]
	assert.Equal(t, float32(25), l.Far)
	assert.Equal(t, float32(2), l.Intensity)
}
