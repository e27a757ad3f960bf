package math

// Vec2 is a texture coordinate or any other pair of floats.
type Vec2 struct {
	X, Y float32
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}
