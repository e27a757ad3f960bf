package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pbr-renderer/core"
	"pbr-renderer/math"
	"pbr-renderer/scene"
)

var ErrUnknownKind = errors.New("unknown kind")

// SceneFile is the top-level structure of the .pbrscene JSON format.
type SceneFile struct {
	Version string       `json:"version"`
	Name    string       `json:"name"`
	Camera  CameraData   `json:"camera"`
	Lights  []LightData  `json:"lights"`
	Objects []ObjectData `json:"objects"`
}

// CameraData describes the viewer's orbit camera.
type CameraData struct {
	Target   [3]float32 `json:"target"`
	Distance float32    `json:"distance"`
	Yaw      float32    `json:"yaw"`   // degrees
	Pitch    float32    `json:"pitch"` // degrees
	FOV      float32    `json:"fov"`   // degrees
	Near     float32    `json:"near"`
	Far      float32    `json:"far"`
}

type LightData struct {
	Type       string     `json:"type"` // "directional", "spot", "point"
	Position   [3]float32 `json:"position"`
	Direction  [3]float32 `json:"direction"`
	Color      [3]float32 `json:"color"`
	Intensity  float32    `json:"intensity"`
	CutOff     float32    `json:"cutoff,omitempty"` // degrees
	Near       float32    `json:"near,omitempty"`
	Far        float32    `json:"far,omitempty"`
	Extent     float32    `json:"extent,omitempty"`
	ShadowSize int        `json:"shadow_size,omitempty"`
}

// ObjectData places a primitive or a mesh file. Material, when set,
// overrides the materials of a mesh file; primitives without one use
// scene.DefaultMaterial.
type ObjectData struct {
	Name     string        `json:"name"`
	Position [3]float32    `json:"position"`
	Rotation [4]float32    `json:"rotation"` // quaternion (x,y,z,w)
	Scale    [3]float32    `json:"scale"`
	MeshType string        `json:"mesh_type"`           // "cube", "sphere", "plane", "file"
	MeshFile string        `json:"mesh_file,omitempty"` // .gltf, .glb or .obj when mesh_type is "file"
	Material *MaterialData `json:"material,omitempty"`
}

type MaterialData struct {
	Albedo    [3]float32 `json:"albedo"`
	Emission  [3]float32 `json:"emission"`
	Roughness float32    `json:"roughness"`
	Metallic  float32    `json:"metallic"`
	AO        float32    `json:"ao"`
}

func SaveScene(path string, sf *SceneFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadScene(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	sf := &SceneFile{}
	if err := json.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("failed to parse scene file: %w", err)
	}
	return sf, nil
}

// NewDefaultSceneFile is a sphere on a floor lit by one shadow-casting sun.
func NewDefaultSceneFile(name string) *SceneFile {
	return &SceneFile{
		Version: "1.0",
		Name:    name,
		Camera: CameraData{
			Distance: 8,
			Pitch:    20,
			FOV:      60,
			Near:     0.1,
			Far:      100,
		},
		Lights: []LightData{
			{
				Type:      "directional",
				Position:  [3]float32{4, 10, 4},
				Direction: [3]float32{-0.4, -1, -0.4},
				Color:     [3]float32{1, 1, 1},
				Intensity: 3,
				Near:      1,
				Far:       30,
				Extent:    8,
			},
		},
		Objects: []ObjectData{
			{
				Name:     "floor",
				Rotation: [4]float32{0, 0, 0, 1},
				Scale:    [3]float32{1, 1, 1},
				MeshType: "plane",
				Material: &MaterialData{Albedo: [3]float32{0.6, 0.6, 0.6}, Roughness: 0.8, AO: 1},
			},
			{
				Name:     "ball",
				Position: [3]float32{0, 1, 0},
				Rotation: [4]float32{0, 0, 0, 1},
				Scale:    [3]float32{1, 1, 1},
				MeshType: "sphere",
				Material: &MaterialData{Albedo: [3]float32{0.9, 0.2, 0.1}, Roughness: 0.3, Metallic: 1, AO: 1},
			},
		},
	}
}

// Build constructs the scene and the viewer camera. Relative mesh files are
// resolved against baseDir. Geometry is shared between objects of the same
// primitive type or file.
func (sf *SceneFile) Build(baseDir string) (*scene.Scene, *scene.OrbitCamera, error) {
	s := scene.NewScene()

	for i, ld := range sf.Lights {
		l, err := ld.light()
		if err != nil {
			return nil, nil, fmt.Errorf("light %d: %w", i, err)
		}
		s.Add(l)
	}

	prims := map[string]*scene.Geometry{}
	files := map[string][]*scene.Mesh{}
	for _, od := range sf.Objects {
		meshes, err := od.meshes(baseDir, prims, files)
		if err != nil {
			return nil, nil, fmt.Errorf("object %q: %w", od.Name, err)
		}
		for _, m := range meshes {
			s.Add(m)
		}
	}

	cd := sf.Camera
	cam := &scene.OrbitCamera{
		Target:   ArrayToVec3(cd.Target),
		Distance: cd.Distance,
		Yaw:      math.Radians(cd.Yaw),
		Pitch:    math.Radians(cd.Pitch),
		FovY:     math.Radians(cd.FOV),
		Aspect:   1,
		Near:     cd.Near,
		Far:      cd.Far,
	}
	return s, cam, nil
}

func (ld LightData) light() (*scene.Light, error) {
	var l *scene.Light
	pos, dir := ArrayToVec3(ld.Position), ArrayToVec3(ld.Direction)
	switch ld.Type {
	case "directional":
		l = scene.NewDirectionalLight(pos, dir)
		if ld.Extent > 0 {
			l.Extent = ld.Extent
		}
	case "spot":
		l = scene.NewSpotLight(pos, dir, ld.CutOff)
	case "point":
		far := ld.Far
		if far <= 0 {
			far = 25
		}
		l = scene.NewPointLight(pos, far)
	default:
		return nil, fmt.Errorf("%w: light type %q", ErrUnknownKind, ld.Type)
	}
	l.Color = ArrayToVec3(ld.Color)
	l.Intensity = ld.Intensity
	if ld.Near > 0 {
		l.Near = ld.Near
	}
	if ld.Far > 0 {
		l.Far = ld.Far
	}
	if ld.ShadowSize > 0 {
		l.ShadowSize = ld.ShadowSize
	}
	return l, nil
}

func (od ObjectData) meshes(baseDir string, prims map[string]*scene.Geometry, files map[string][]*scene.Mesh) ([]*scene.Mesh, error) {
	tr := core.Transform{
		Position: ArrayToVec3(od.Position),
		Rotation: ArrayToQuat(od.Rotation).Normalize(),
		Scale:    ArrayToVec3(od.Scale),
	}
	if tr.Rotation == (math.Quaternion{}) {
		tr.Rotation = math.QuaternionIdentity()
	}
	if tr.Scale == math.Vec3Zero {
		tr.Scale = math.Vec3One
	}
	if od.MeshType == "file" {
		path := od.MeshFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		loaded, ok := files[path]
		if !ok {
			var err error
			loaded, err = loadMeshFile(path)
			if err != nil {
				return nil, err
			}
			files[path] = loaded
		}
		// Instances share geometry. Each mesh keeps its place in the file,
		// relative to the object.
		out := make([]*scene.Mesh, len(loaded))
		for i, src := range loaded {
			mat := src.Material
			if od.Material != nil {
				mat = od.Material.material()
			}
			name := od.Name
			if len(loaded) > 1 {
				name += "/" + src.Name
			}
			m := scene.NewMesh(name, src.Geometry, mat)
			m.Transform = tr.Compose(src.Transform)
			out[i] = m
		}
		return out, nil
	}

	geom, ok := prims[od.MeshType]
	if !ok {
		switch od.MeshType {
		case "cube":
			geom = scene.Cube()
		case "sphere":
			geom = scene.Sphere(1, 48, 24)
		case "plane":
			geom = scene.Plane(20)
		default:
			return nil, fmt.Errorf("%w: mesh type %q", ErrUnknownKind, od.MeshType)
		}
		prims[od.MeshType] = geom
	}
	mat := scene.DefaultMaterial()
	if od.Material != nil {
		mat = od.Material.material()
	}
	m := scene.NewMesh(od.Name, geom, mat)
	m.Transform = tr
	return []*scene.Mesh{m}, nil
}

func loadMeshFile(path string) ([]*scene.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return scene.LoadGLTF(path)
	case ".obj":
		return scene.LoadOBJ(path)
	}
	return nil, fmt.Errorf("%w: mesh file %q", ErrUnknownKind, path)
}

func (md MaterialData) material() scene.Material {
	return scene.Material{
		Albedo:    ArrayToVec3(md.Albedo),
		Emission:  ArrayToVec3(md.Emission),
		Roughness: md.Roughness,
		Metallic:  md.Metallic,
		AO:        md.AO,
	}.Clamped()
}

func ArrayToVec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func ArrayToQuat(a [4]float32) math.Quaternion {
	return math.Quaternion{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}
