package scene

import (
	"github.com/Carmen-Shannon/oxy-portal/engine/model"
	"github.com/Carmen-Shannon/oxy-portal/engine/particles"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
)

// NodeBuilderOption is a functional option for configuring a Node.
type NodeBuilderOption func(n *Node)

// WithMesh sets the node's triangle mesh.
func WithMesh(m *model.Mesh) NodeBuilderOption {
	return func(n *Node) {
		n.Mesh = m
	}
}

// WithPoints sets the node's point field.
func WithPoints(f *particles.Field) NodeBuilderOption {
	return func(n *Node) {
		n.Points = f
	}
}

// WithMaterial sets the material the node renders with.
func WithMaterial(m material.Material) NodeBuilderOption {
	return func(n *Node) {
		n.Material = m
	}
}

// WithChildren attaches child nodes.
func WithChildren(children ...*Node) NodeBuilderOption {
	return func(n *Node) {
		n.Add(children...)
	}
}
