package scene

import (
	"errors"
	"fmt"

	"pbr-renderer/core"
	"pbr-renderer/math"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is an immutable indexed triangle list. It is shared by pointer
// between meshes; the renderer uploads it once, on first draw.
type Geometry struct {
	positions []math.Vec3
	normals   []math.Vec3
	uvs       []math.Vec2
	indices   []uint32
}

// NewGeometry validates and copies the vertex streams. Normals and UVs may be
// empty; when present they must match the position count. Nil indices draw
// the positions in order.
func NewGeometry(positions, normals []math.Vec3, uvs []math.Vec2, indices []uint32) (*Geometry, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrInvalidGeometry)
	}
	if len(normals) != 0 && len(normals) != len(positions) {
		return nil, fmt.Errorf("%w: %d normals for %d positions", ErrInvalidGeometry, len(normals), len(positions))
	}
	if len(uvs) != 0 && len(uvs) != len(positions) {
		return nil, fmt.Errorf("%w: %d uvs for %d positions", ErrInvalidGeometry, len(uvs), len(positions))
	}
	if indices == nil {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidGeometry, len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidGeometry, idx)
		}
	}

	return &Geometry{
		positions: append([]math.Vec3(nil), positions...),
		normals:   append([]math.Vec3(nil), normals...),
		uvs:       append([]math.Vec2(nil), uvs...),
		indices:   append([]uint32(nil), indices...),
	}, nil
}

func mustGeometry(positions, normals []math.Vec3, uvs []math.Vec2, indices []uint32) *Geometry {
	g, err := NewGeometry(positions, normals, uvs, indices)
	if err != nil {
		panic(err)
	}
	return g
}

// The returned slices alias the geometry and must not be modified.
func (g *Geometry) Positions() []math.Vec3 { return g.positions }
func (g *Geometry) Normals() []math.Vec3   { return g.normals }
func (g *Geometry) UVs() []math.Vec2       { return g.uvs }
func (g *Geometry) Indices() []uint32      { return g.indices }

func (g *Geometry) VertexCount() int { return len(g.positions) }
func (g *Geometry) IndexCount() int  { return len(g.indices) }

// Interleaved returns the vertex data in the upload layout (see
// core.VertexStride). Missing normals and UVs are written as zero.
func (g *Geometry) Interleaved() []float32 {
	verts := make([]core.Vertex, len(g.positions))
	for i, p := range g.positions {
		verts[i].Position = p
		if len(g.normals) > 0 {
			verts[i].Normal = g.normals[i]
		}
		if len(g.uvs) > 0 {
			verts[i].UV = g.uvs[i]
		}
	}
	return core.Interleave(verts)
}

// Bounds returns the axis-aligned bounding box of the positions.
func (g *Geometry) Bounds() (lo, hi math.Vec3) {
	lo, hi = g.positions[0], g.positions[0]
	for _, p := range g.positions[1:] {
		lo = math.NewVec3(min(lo.X, p.X), min(lo.Y, p.Y), min(lo.Z, p.Z))
		hi = math.NewVec3(max(hi.X, p.X), max(hi.Y, p.Y), max(hi.Z, p.Z))
	}
	return lo, hi
}

// smoothNormals computes area-weighted vertex normals.
func smoothNormals(positions []math.Vec3, indices []uint32) []math.Vec3 {
	accum := make([]math.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := positions[i0], positions[i1], positions[i2]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
	}
	for i := range accum {
		accum[i] = accum[i].Normalize()
	}
	return accum
}
