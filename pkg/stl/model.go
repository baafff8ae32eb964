package stl

import (
	"github.com/printfarm/meshview/pkg/geometry"
)

// Model represents a complete STL model
type Model struct {
	Name      string
	Format    Format
	Triangles []geometry.Triangle
}

// NewModel creates a new STL model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// AddTriangle adds a triangle to the model
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// HasNormals reports whether every facet carries a usable in-stream normal.
// Exporters that leave the normal slot zeroed expect the reader to compute it.
func (m *Model) HasNormals() bool {
	if len(m.Triangles) == 0 {
		return false
	}
	for _, triangle := range m.Triangles {
		if triangle.Normal.IsZero() || !triangle.Normal.IsFinite() {
			return false
		}
	}
	return true
}

// Mesh converts the model into raw vertex buffers. In-stream normals are
// carried over only when every facet has one.
func (m *Model) Mesh() *geometry.Mesh {
	return geometry.NewMeshFromTriangles(m.Triangles, m.HasNormals())
}
