package math

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func approxVec3(a, b Vec3) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) && approx(a.Z, b.Z)
}

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	if got := v1.Add(v2); got != NewVec3(5, 7, 9) {
		t.Errorf("Add: got %v", got)
	}
	if got := v2.Sub(v1); got != Splat(3) {
		t.Errorf("Sub: got %v", got)
	}
	if got := v1.Mul(2); got != NewVec3(2, 4, 6) {
		t.Errorf("Mul: got %v", got)
	}
	if got := v1.MulVec(v2); got != NewVec3(4, 10, 18) {
		t.Errorf("MulVec: got %v", got)
	}
	if dot := v1.Dot(v2); dot != 32 {
		t.Errorf("Dot: expected 32, got %v", dot)
	}

	// Right x Up = Front in a right-handed system
	if cross := Vec3Right.Cross(Vec3Up); cross != Vec3Front {
		t.Errorf("Cross: expected %v, got %v", Vec3Front, cross)
	}
}

func TestVec3Normalize(t *testing.T) {
	normalized := NewVec3(3, 0, 0).Normalize()
	if normalized != Vec3Right {
		t.Errorf("Normalize: expected %v, got %v", Vec3Right, normalized)
	}
	if !approx(normalized.Length(), 1) {
		t.Errorf("Normalize: expected length 1, got %v", normalized.Length())
	}

	// zero vector must not produce NaNs
	if got := Vec3Zero.Normalize(); got != Vec3Zero {
		t.Errorf("Normalize zero: got %v", got)
	}
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if m[i][j] != want {
				t.Errorf("Identity: [%d][%d] = %v", i, j, m[i][j])
			}
		}
	}
	if got := m.Mul(m); got != m {
		t.Errorf("Identity * Identity: got %v", got)
	}
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	if m[3][0] != 1 || m[3][1] != 2 || m[3][2] != 3 {
		t.Errorf("Translation: expected (1,2,3), got (%v,%v,%v)", m[3][0], m[3][1], m[3][2])
	}
	if got := NewVec4(0, 0, 0, 1).MulMat(m).ToVec3(); got != translation {
		t.Errorf("Translation: expected %v, got %v", translation, got)
	}
	if got := m.WithoutTranslation(); got != Mat4Identity() {
		t.Errorf("WithoutTranslation: got %v", got)
	}
}

func TestMat4TRSOrder(t *testing.T) {
	// scale, then rotate a quarter turn about Y, then translate
	q := QuaternionFromAxisAngle(Vec3Up, math.Pi/2)
	m := Mat4TRS(NewVec3(10, 0, 0), q, Splat(2))

	got := m.MulPoint(Vec3Right)
	if !approxVec3(got, NewVec3(10, 0, -2)) {
		t.Errorf("TRS: expected (10,0,-2), got %v", got)
	}
}

func TestQuaternionRotation(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3Up, float32(math.Pi/2))

	result := q.RotateVector(Vec3Right)
	if !approxVec3(result, Vec3Back) {
		t.Errorf("Quaternion rotation: expected (0,0,-1), got %v", result)
	}

	// the matrix form must agree with RotateVector
	viaMat := q.ToMat4().MulPoint(Vec3Right)
	if !approxVec3(viaMat, result) {
		t.Errorf("ToMat4: expected %v, got %v", result, viaMat)
	}
	viaY := Mat4RotationY(math.Pi / 2).MulPoint(Vec3Right)
	if !approxVec3(viaY, result) {
		t.Errorf("RotationY: expected %v, got %v", result, viaY)
	}
}

func TestMat4Perspective(t *testing.T) {
	m := Mat4Perspective(Radians(90), 1, 0.1, 100)

	// a point on the near plane maps to depth -1, the far plane to +1
	if got := m.MulPoint(NewVec3(0, 0, -0.1)); !approx(got.Z, -1) {
		t.Errorf("Perspective near: got %v", got.Z)
	}
	if got := m.MulPoint(NewVec3(0, 0, -100)); !approx(got.Z, 1) {
		t.Errorf("Perspective far: got %v", got.Z)
	}
	// 90 degree fov: x == -z lands on the right edge
	if got := m.MulPoint(NewVec3(5, 0, -5)); !approx(got.X, 1) {
		t.Errorf("Perspective edge: got %v", got.X)
	}
}

func TestMat4Orthographic(t *testing.T) {
	m := Mat4Orthographic(-5, 5, -5, 5, 1, 30)

	got := m.MulPoint(NewVec3(5, -5, -1))
	if !approxVec3(got, NewVec3(1, -1, -1)) {
		t.Errorf("Orthographic near corner: got %v", got)
	}
	got = m.MulPoint(NewVec3(0, 0, -30))
	if !approx(got.Z, 1) {
		t.Errorf("Orthographic far: got %v", got.Z)
	}
}

func TestMat4LookAt(t *testing.T) {
	eye := NewVec3(0, 0, 5)
	m := Mat4LookAt(eye, Vec3Zero, Vec3Up)

	if got := m.MulPoint(eye); !approxVec3(got, Vec3Zero) {
		t.Errorf("LookAt: expected eye to transform to origin, got %v", got)
	}
	// the target lies straight ahead, down -Z in view space
	if got := m.MulPoint(Vec3Zero); !approxVec3(got, NewVec3(0, 0, -5)) {
		t.Errorf("LookAt: expected target at (0,0,-5), got %v", got)
	}
}

func TestMat4LookAtCubeFaces(t *testing.T) {
	faces := []struct {
		target, up Vec3
	}{
		{Vec3Right, Vec3Down},
		{Vec3Left, Vec3Down},
		{Vec3Up, Vec3Front},
		{Vec3Down, Vec3Back},
		{Vec3Front, Vec3Down},
		{Vec3Back, Vec3Down},
	}
	for i, f := range faces {
		m := Mat4LookAt(Vec3Zero, f.target, f.up)
		if got := m.MulPoint(f.target); !approxVec3(got, NewVec3(0, 0, -1)) {
			t.Errorf("face %d: target should land on -Z, got %v", i, got)
		}
		// up maps to +Y
		if got := m.MulPoint(f.up); !approxVec3(got, Vec3Up) {
			t.Errorf("face %d: up should land on +Y, got %v", i, got)
		}
	}
}

func TestMat4Transpose(t *testing.T) {
	m := Mat4Translation(NewVec3(1, 2, 3))
	tr := m.Transpose()
	if tr[0][3] != 1 || tr[1][3] != 2 || tr[2][3] != 3 {
		t.Errorf("Transpose: got %v", tr)
	}
	if tr.Transpose() != m {
		t.Error("Transpose should be an involution")
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4Perspective(1, 1, 0.1, 10)
	m2 := Mat4Translation(NewVec3(1, 2, 3))

	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}
