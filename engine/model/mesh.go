// Package model holds CPU-side mesh data produced by the loader and uploaded by the renderer.
package model

import (
	"github.com/Carmen-Shannon/oxy-portal/common"
)

// Mesh is an indexed triangle mesh in world space.
// Node transforms from the source file are already applied to the positions.
type Mesh struct {
	// Name is the mesh identifier from the source file.
	Name string

	// Vertices are the mesh vertices (position + UV).
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}

// Append adds vertices and indices from another primitive, rebasing the indices.
//
// Parameters:
//   - vertices: the primitive's vertices
//   - indices: the primitive's indices, relative to its own vertices
func (m *Mesh) Append(vertices []GPUVertex, indices []uint32) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, vertices...)
	for _, i := range indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// Transform applies a column-major 4x4 matrix to every vertex position and refreshes the bounds.
//
// Parameters:
//   - matrix: the 16-element transform
func (m *Mesh) Transform(matrix []float32) {
	for i := range m.Vertices {
		m.Vertices[i].Position = common.TransformPoint(matrix, m.Vertices[i].Position)
	}
	m.ComputeBounds()
}

// ComputeBounds recomputes BoundingMin and BoundingMax from the vertices.
func (m *Mesh) ComputeBounds() {
	if len(m.Vertices) == 0 {
		m.BoundingMin, m.BoundingMax = [3]float32{}, [3]float32{}
		return
	}
	m.BoundingMin = m.Vertices[0].Position
	m.BoundingMax = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		for a := range 3 {
			m.BoundingMin[a] = min(m.BoundingMin[a], v.Position[a])
			m.BoundingMax[a] = max(m.BoundingMax[a], v.Position[a])
		}
	}
}

// VertexBytes returns the vertex data as a tightly packed byte buffer.
func (m *Mesh) VertexBytes() []byte {
	buf := make([]byte, 0, len(m.Vertices)*GPUVertexSize)
	for i := range m.Vertices {
		buf = append(buf, m.Vertices[i].Marshal()...)
	}
	return buf
}

// IndexBytes returns the index data as a byte buffer of little-endian uint32s.
func (m *Mesh) IndexBytes() []byte {
	return append([]byte(nil), common.SliceToBytes(m.Indices)...)
}
