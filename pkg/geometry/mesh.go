package geometry

// Mesh is a non-indexed triangle soup: every three consecutive positions
// form one triangle. Normals, when present, hold one entry per position.
type Mesh struct {
	Positions []Vector3
	Normals   []Vector3
}

// NewMeshFromTriangles flattens triangles into a mesh.
// When withNormals is set, each facet normal is repeated for its three vertices.
func NewMeshFromTriangles(triangles []Triangle, withNormals bool) *Mesh {
	m := &Mesh{
		Positions: make([]Vector3, 0, len(triangles)*3),
	}
	if withNormals {
		m.Normals = make([]Vector3, 0, len(triangles)*3)
	}

	for _, t := range triangles {
		m.Positions = append(m.Positions, t.V1, t.V2, t.V3)
		if withNormals {
			m.Normals = append(m.Normals, t.Normal, t.Normal, t.Normal)
		}
	}
	return m
}

// TriangleCount returns the number of complete triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Positions) / 3
}

// HasNormals reports whether every vertex carries a normal
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions)
}

// Triangle returns the i-th triangle with a normal computed from its winding
func (m *Mesh) Triangle(i int) Triangle {
	t := Triangle{
		V1: m.Positions[i*3],
		V2: m.Positions[i*3+1],
		V3: m.Positions[i*3+2],
	}
	t.Normal = t.CalculateNormal()
	return t
}

// BoundingBox calculates the bounding box of all positions
func (m *Mesh) BoundingBox() BoundingBox {
	bbox := NewBoundingBox()
	for _, p := range m.Positions {
		bbox.Extend(p)
	}
	return bbox
}
