package normalize

import "github.com/printfarm/meshview/pkg/geometry"

// VertexNormals computes smooth per-vertex normals. Vertices sharing a
// position are welded, and each welded vertex gets the normalized sum of the
// area-weighted normals of its adjacent faces.
func VertexNormals(m *geometry.Mesh) []geometry.Vector3 {
	triangles := m.TriangleCount()
	normals := make([]geometry.Vector3, len(m.Positions))

	welded := make(map[geometry.Vector3]int, len(m.Positions))
	slot := make([]int, triangles*3)
	var sums []geometry.Vector3

	for i := 0; i < triangles; i++ {
		a, b, c := m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]
		// cross product length is twice the face area, which weights large faces
		face := b.Sub(a).Cross(c.Sub(a))

		for j, p := range [3]geometry.Vector3{a, b, c} {
			idx, ok := welded[p]
			if !ok {
				idx = len(sums)
				welded[p] = idx
				sums = append(sums, geometry.Vector3{})
			}
			sums[idx] = sums[idx].Add(face)
			slot[i*3+j] = idx
		}
	}

	for i := range slot {
		normals[i] = sums[slot[i]].Normalize()
	}
	return normals
}

// EnsureNormals fills in smooth normals when the mesh arrived without them.
// It reports whether normals were computed.
func EnsureNormals(m *geometry.Mesh) bool {
	if m.HasNormals() {
		return false
	}
	m.Normals = VertexNormals(m)
	return true
}
