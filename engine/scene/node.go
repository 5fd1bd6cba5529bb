package scene

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
)

// Node is an element of the scene graph. A node may carry a triangle mesh, a point field,
// or nothing (a grouping node), plus the material it renders with.
type Node struct {
	Name     string
	Mesh     *model.Mesh
	Points   *particles.Field
	Material material.Material

	parent   *Node
	children []*Node
}

// NewNode creates a node with the given name.
//
// Parameters:
//   - name: the node name
//   - options: functional options setting mesh, points, material or children
//
// Returns:
//   - *Node: the new node
func NewNode(name string, options ...NodeBuilderOption) *Node {
	n := &Node{Name: name}
	for _, opt := range options {
		opt(n)
	}
	return n
}

// Add appends children, detaching each from any previous parent.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.parent != nil {
			c.parent.remove(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Children returns a copy of the direct children in insertion order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Walk visits n and its descendants depth-first. Returning false from fn skips that node's children.
//
// Parameters:
//   - fn: visitor called for each node
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// FindChildren looks up direct children by exact name. The first child with a matching name wins.
//
// Parameters:
//   - names: the names to resolve
//
// Returns:
//   - Lookup: the found/absent result for every requested name
func (n *Node) FindChildren(names ...string) Lookup {
	l := Lookup{found: make(map[string]*Node, len(names))}
	for _, name := range names {
		idx := slices.IndexFunc(n.children, func(c *Node) bool { return c.Name == name })
		if idx < 0 {
			l.missing = append(l.missing, name)
			continue
		}
		l.found[name] = n.children[idx]
	}
	return l
}

func (n *Node) remove(child *Node) {
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool { return c == child })
	child.parent = nil
}

// Lookup is the result of FindChildren: each requested name is either found or absent.
type Lookup struct {
	found   map[string]*Node
	missing []string
}

// Get returns the node for name and whether it was found.
func (l Lookup) Get(name string) (*Node, bool) {
	n, ok := l.found[name]
	return n, ok
}

// Missing returns the requested names that were absent, in request order.
func (l Lookup) Missing() []string {
	return slices.Clone(l.missing)
}

// OK reports whether every requested name was found.
func (l Lookup) OK() bool {
	return len(l.missing) == 0
}
