package scene

import (
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
)

// Drawable is a renderable node flattened out of the graph.
type Drawable struct {
	Node     *Node
	Mesh     *model.Mesh
	Points   *particles.Field
	Material material.Material
}

// Scene is the live scene graph the render loop draws.
// The program only inserts nodes and swaps material references; it never restructures the tree.
type Scene interface {
	// Root returns the root node.
	Root() *Node

	// Add inserts nodes under the root.
	//
	// Parameters:
	//   - nodes: the nodes to insert
	Add(nodes ...*Node)

	// Drawables flattens every node that carries a mesh or points, in depth-first order.
	//
	// Returns:
	//   - []Drawable: the renderable nodes
	Drawables() []Drawable

	// Version increases whenever nodes are inserted.
	Version() uint64
}

type sceneImpl struct {
	root    *Node
	version uint64
}

var _ Scene = &sceneImpl{}

// NewScene creates an empty scene.
//
// Returns:
//   - Scene: the new scene
func NewScene() Scene {
	return &sceneImpl{root: NewNode("scene")}
}

func (s *sceneImpl) Root() *Node {
	return s.root
}

func (s *sceneImpl) Add(nodes ...*Node) {
	s.root.Add(nodes...)
	s.version++
}

func (s *sceneImpl) Drawables() []Drawable {
	var out []Drawable
	s.root.Walk(func(n *Node) bool {
		if n.Mesh != nil || n.Points != nil {
			out = append(out, Drawable{Node: n, Mesh: n.Mesh, Points: n.Points, Material: n.Material})
		}
		return true
	})
	return out
}

func (s *sceneImpl) Version() uint64 {
	return s.version
}
