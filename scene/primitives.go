package scene

import (
	stdmath "math"

	"github.com/chewxy/math32"

	"pbr-renderer/math"
)

// Cube returns a unit cube spanning [-1, 1] on every axis with outward
// normals and counter-clockwise front faces.
func Cube() *Geometry {
	faces := [6]struct{ n, u, v math.Vec3 }{
		{math.Vec3Right, math.Vec3Back, math.Vec3Up},
		{math.Vec3Left, math.Vec3Front, math.Vec3Up},
		{math.Vec3Up, math.Vec3Right, math.Vec3Back},
		{math.Vec3Down, math.Vec3Right, math.Vec3Front},
		{math.Vec3Front, math.Vec3Right, math.Vec3Up},
		{math.Vec3Back, math.Vec3Left, math.Vec3Up},
	}
	corners := [4]math.Vec2{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}

	var positions, normals []math.Vec3
	var uvs []math.Vec2
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(positions))
		for _, c := range corners {
			positions = append(positions, f.n.Add(f.u.Mul(c.X)).Add(f.v.Mul(c.Y)))
			normals = append(normals, f.n)
			uvs = append(uvs, math.NewVec2((c.X+1)/2, (c.Y+1)/2))
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mustGeometry(positions, normals, uvs, indices)
}

// Sphere generates a UV sphere centred on the origin.
func Sphere(radius float32, segments, rings int) *Geometry {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var positions, normals []math.Vec3
	var uvs []math.Vec2
	for ring := 0; ring <= rings; ring++ {
		phi := float32(ring) * stdmath.Pi / float32(rings)
		sinPhi, cosPhi := math32.Sin(phi), math32.Cos(phi)

		for seg := 0; seg <= segments; seg++ {
			theta := float32(seg) * 2 * stdmath.Pi / float32(segments)
			normal := math.NewVec3(sinPhi*math32.Cos(theta), cosPhi, sinPhi*math32.Sin(theta))

			positions = append(positions, normal.Mul(radius))
			normals = append(normals, normal)
			uvs = append(uvs, math.NewVec2(float32(seg)/float32(segments), float32(ring)/float32(rings)))
		}
	}

	var indices []uint32
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)

			indices = append(indices, current, current+1, next)
			indices = append(indices, current+1, next+1, next)
		}
	}
	return mustGeometry(positions, normals, uvs, indices)
}

// Plane is a size×size square on the XZ plane facing +Y.
func Plane(size float32) *Geometry {
	h := size / 2
	positions := []math.Vec3{{X: -h, Z: -h}, {X: -h, Z: h}, {X: h, Z: h}, {X: h, Z: -h}}
	normals := []math.Vec3{math.Vec3Up, math.Vec3Up, math.Vec3Up, math.Vec3Up}
	uvs := []math.Vec2{{X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	return mustGeometry(positions, normals, uvs, []uint32{0, 1, 2, 0, 2, 3})
}

// Quad covers clip space [-1, 1]² at z = 0, for full-screen passes.
func Quad() *Geometry {
	positions := []math.Vec3{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	normals := []math.Vec3{math.Vec3Front, math.Vec3Front, math.Vec3Front, math.Vec3Front}
	uvs := []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	return mustGeometry(positions, normals, uvs, []uint32{0, 1, 2, 0, 2, 3})
}
