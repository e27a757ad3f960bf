package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"pbr-renderer/math"
)

type objIndex struct{ v, vt, vn int }

type objObject struct {
	name    string
	matName string
	faces   [][3]objIndex
}

// LoadOBJ parses a Wavefront .obj file into one mesh per object or group.
// A referenced .mtl library is read for Kd, Ke, Ns and the PBR Pr/Pm
// extension.
func LoadOBJ(path string) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	meshes, err := ParseOBJ(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}
	return meshes, nil
}

// ParseOBJ reads OBJ text from r. mtllib paths resolve against dir.
func ParseOBJ(r io.Reader, dir string) ([]*Mesh, error) {
	var positions, normals []math.Vec3
	var uvs []math.Vec2
	materials := map[string]Material{}

	var objects []objObject
	cur := &objObject{name: "default"}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if v, ok := parseVec3(fields[1:]); ok {
				positions = append(positions, v)
			}
		case "vn":
			if v, ok := parseVec3(fields[1:]); ok {
				normals = append(normals, v)
			}
		case "vt":
			if len(fields) >= 3 {
				u, _ := strconv.ParseFloat(fields[1], 32)
				v, _ := strconv.ParseFloat(fields[2], 32)
				uvs = append(uvs, math.NewVec2(float32(u), float32(v)))
			}
		case "o", "g":
			if len(cur.faces) > 0 {
				objects = append(objects, *cur)
			}
			name := "default"
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = &objObject{name: name, matName: cur.matName}
		case "usemtl":
			if len(fields) > 1 {
				cur.matName = fields[1]
			}
		case "mtllib":
			if len(fields) > 1 {
				loaded, err := loadMTL(filepath.Join(dir, fields[1]))
				if err != nil {
					return nil, err
				}
				for k, v := range loaded {
					materials[k] = v
				}
			}
		case "f":
			if len(fields) < 4 {
				continue
			}
			verts := make([]objIndex, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				verts = append(verts, parseFaceVertex(tok, len(positions), len(uvs), len(normals)))
			}
			// fan triangulation
			for i := 1; i+1 < len(verts); i++ {
				cur.faces = append(cur.faces, [3]objIndex{verts[0], verts[i], verts[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj: %w", err)
	}
	if len(cur.faces) > 0 {
		objects = append(objects, *cur)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrInvalidGeometry)
	}

	meshes := make([]*Mesh, 0, len(objects))
	for _, obj := range objects {
		geom, err := buildOBJGeometry(obj.faces, positions, normals, uvs)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", obj.name, err)
		}
		mat, ok := materials[obj.matName]
		if !ok {
			mat = DefaultMaterial()
		}
		meshes = append(meshes, NewMesh(obj.name, geom, mat))
	}
	return meshes, nil
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn". OBJ indices are
// 1-based and negative values count back from the end; the result is 0-based
// with -1 for absent components.
func parseFaceVertex(tok string, nv, nvt, nvn int) objIndex {
	resolve := func(s string, n int) int {
		if s == "" {
			return -1
		}
		i, err := strconv.Atoi(s)
		switch {
		case err != nil:
			return -1
		case i > 0:
			return i - 1
		case i < 0:
			return n + i
		}
		return -1
	}

	parts := strings.Split(tok, "/")
	idx := objIndex{v: -1, vt: -1, vn: -1}
	idx.v = resolve(parts[0], nv)
	if len(parts) > 1 {
		idx.vt = resolve(parts[1], nvt)
	}
	if len(parts) > 2 {
		idx.vn = resolve(parts[2], nvn)
	}
	return idx
}

// buildOBJGeometry deduplicates v/vt/vn triples into an indexed Geometry.
func buildOBJGeometry(faces [][3]objIndex, positions, normals []math.Vec3, uvs []math.Vec2) (*Geometry, error) {
	lookup := map[objIndex]uint32{}
	var outPos, outNorm []math.Vec3
	var outUV []math.Vec2
	var indices []uint32
	hasNormals := true

	for _, face := range faces {
		for _, k := range face {
			if idx, ok := lookup[k]; ok {
				indices = append(indices, idx)
				continue
			}
			if k.v < 0 || k.v >= len(positions) {
				return nil, fmt.Errorf("%w: position index %d out of range", ErrInvalidGeometry, k.v+1)
			}
			idx := uint32(len(outPos))
			lookup[k] = idx
			indices = append(indices, idx)

			outPos = append(outPos, positions[k.v])
			if k.vn >= 0 && k.vn < len(normals) {
				outNorm = append(outNorm, normals[k.vn])
			} else {
				outNorm = append(outNorm, math.Vec3Zero)
				hasNormals = false
			}
			if k.vt >= 0 && k.vt < len(uvs) {
				outUV = append(outUV, uvs[k.vt])
			} else {
				outUV = append(outUV, math.Vec2{})
			}
		}
	}

	if !hasNormals {
		outNorm = smoothNormals(outPos, indices)
	}
	return NewGeometry(outPos, outNorm, outUV, indices)
}

func loadMTL(path string) (map[string]Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mtl: %w", err)
	}
	defer f.Close()
	return parseMTL(f)
}

func parseMTL(r io.Reader) (map[string]Material, error) {
	mats := map[string]Material{}
	var name string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) > 1 {
				name = fields[1]
				mats[name] = DefaultMaterial()
			}
			continue
		}
		m, ok := mats[name]
		if !ok {
			continue
		}

		switch fields[0] {
		case "Kd":
			if v, ok := parseVec3(fields[1:]); ok {
				m.Albedo = v
			}
		case "Ke":
			if v, ok := parseVec3(fields[1:]); ok {
				m.Emission = v
			}
		case "Ns":
			// Blinn-Phong exponent to roughness
			if len(fields) > 1 {
				ns, _ := strconv.ParseFloat(fields[1], 32)
				m.Roughness = math32.Sqrt(2 / (float32(ns) + 2))
			}
		case "Pr":
			if len(fields) > 1 {
				v, _ := strconv.ParseFloat(fields[1], 32)
				m.Roughness = float32(v)
			}
		case "Pm":
			if len(fields) > 1 {
				v, _ := strconv.ParseFloat(fields[1], 32)
				m.Metallic = float32(v)
			}
		}
		mats[name] = m.Clamped()
	}
	return mats, scanner.Err()
}

func parseVec3(fields []string) (math.Vec3, bool) {
	if len(fields) < 3 {
		return math.Vec3{}, false
	}
	var out [3]float32
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, false
		}
		out[i] = float32(v)
	}
	return math.NewVec3(out[0], out[1], out[2]), true
}
