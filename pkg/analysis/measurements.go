// Package analysis summarizes a loaded mesh for the info command
package analysis

import (
	"fmt"
	"math"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/normalize"
)

// Report contains the measurements of a mesh
type Report struct {
	normalize.Result

	SurfaceArea float64
	// Volume is the enclosed volume; meaningful only for closed meshes
	Volume float64

	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64

	// OpenEdges counts edges used by only one triangle
	OpenEdges int
}

// Watertight reports whether every edge is shared by two triangles
func (r *Report) Watertight() bool {
	return r.Triangles > 0 && r.OpenEdges == 0
}

type edgeKey struct {
	a, b geometry.Vector3
}

func newEdgeKey(a, b geometry.Vector3) edgeKey {
	if a.X > b.X || (a.X == b.X && (a.Y > b.Y || (a.Y == b.Y && a.Z > b.Z))) {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Analyze measures m in its source units
func Analyze(m *geometry.Mesh) *Report {
	r := &Report{Result: normalize.Normalize(m)}

	minLength := math.MaxFloat64
	total := 0.0
	uses := make(map[edgeKey]int)

	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		r.SurfaceArea += t.Area()
		// signed volume of the tetrahedron spanned with the origin
		r.Volume += t.V1.Dot(t.V2.Cross(t.V3)) / 6

		vs := t.Vertices()
		for j, length := range t.EdgeLengths() {
			total += length
			minLength = math.Min(minLength, length)
			r.MaxEdgeLength = math.Max(r.MaxEdgeLength, length)
			uses[newEdgeKey(vs[j], vs[(j+1)%3])]++
		}
	}

	r.Volume = math.Abs(r.Volume)
	r.EdgeCount = len(uses)
	if r.Triangles > 0 {
		r.MinEdgeLength = minLength
		r.AvgEdgeLength = total / float64(r.Triangles*3)
	}
	for _, n := range uses {
		if n == 1 {
			r.OpenEdges++
		}
	}
	return r
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
