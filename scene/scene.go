package scene

// Node is a scene child: either a *Mesh or a *Light.
type Node interface {
	isNode()
}

// Scene is an unordered set of meshes and lights. It holds no GPU state.
type Scene struct {
	children []Node
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) Add(nodes ...Node) {
	for _, n := range nodes {
		if n != nil {
			s.children = append(s.children, n)
		}
	}
}

// Remove drops n from the scene and reports whether it was present.
func (s *Scene) Remove(n Node) bool {
	for i, c := range s.children {
		if c == n {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) Len() int {
	return len(s.children)
}

func (s *Scene) Meshes() []*Mesh {
	var meshes []*Mesh
	for _, c := range s.children {
		if m, ok := c.(*Mesh); ok {
			meshes = append(meshes, m)
		}
	}
	return meshes
}

// Lights returns the lights in insertion order, which is also the order the
// lighting pass assigns shader slots.
func (s *Scene) Lights() []*Light {
	var lights []*Light
	for _, c := range s.children {
		if l, ok := c.(*Light); ok {
			lights = append(lights, l)
		}
	}
	return lights
}
