package analysis

import (
	"math"
	"testing"

	"github.com/printfarm/meshview/pkg/geometry"
)

const tolerance = 1e-10

func cube(size float64) *geometry.Mesh {
	c := func(x, y, z float64) geometry.Vector3 { return geometry.NewVector3(x*size, y*size, z*size) }
	quads := [][4]geometry.Vector3{
		{c(0, 0, 0), c(0, 1, 0), c(1, 1, 0), c(1, 0, 0)},
		{c(0, 0, 1), c(1, 0, 1), c(1, 1, 1), c(0, 1, 1)},
		{c(0, 0, 0), c(1, 0, 0), c(1, 0, 1), c(0, 0, 1)},
		{c(0, 1, 0), c(0, 1, 1), c(1, 1, 1), c(1, 1, 0)},
		{c(0, 0, 0), c(0, 0, 1), c(0, 1, 1), c(0, 1, 0)},
		{c(1, 0, 0), c(1, 1, 0), c(1, 1, 1), c(1, 0, 1)},
	}
	m := &geometry.Mesh{}
	for _, q := range quads {
		m.Positions = append(m.Positions, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return m
}

func TestAnalyzeCube(t *testing.T) {
	r := Analyze(cube(2))

	if r.Triangles != 12 {
		t.Errorf("Triangles failed: expected 12, got %d", r.Triangles)
	}
	if math.Abs(r.SurfaceArea-24) > tolerance {
		t.Errorf("SurfaceArea failed: expected 24, got %f", r.SurfaceArea)
	}
	if math.Abs(r.Volume-8) > tolerance {
		t.Errorf("Volume failed: expected 8, got %f", r.Volume)
	}
	if r.EdgeCount != 18 {
		t.Errorf("EdgeCount failed: expected 18, got %d", r.EdgeCount)
	}
	if !r.Watertight() {
		t.Errorf("cube should be watertight, %d open edges", r.OpenEdges)
	}
	if math.Abs(r.MinEdgeLength-2) > tolerance {
		t.Errorf("MinEdgeLength failed: expected 2, got %f", r.MinEdgeLength)
	}
	if math.Abs(r.MaxEdgeLength-2*math.Sqrt2) > tolerance {
		t.Errorf("MaxEdgeLength failed: expected %f, got %f", 2*math.Sqrt2, r.MaxEdgeLength)
	}
	if r.Dimensions.Width != 2 || r.Dimensions.Height != 2 || r.Dimensions.Depth != 2 {
		t.Errorf("Dimensions failed: got %v", r.Dimensions)
	}
}

func TestAnalyzeOpenMesh(t *testing.T) {
	m := &geometry.Mesh{Positions: []geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(3, 0, 0),
		geometry.NewVector3(0, 4, 0),
	}}
	r := Analyze(m)

	if r.OpenEdges != 3 || r.Watertight() {
		t.Errorf("single triangle should have 3 open edges, got %d", r.OpenEdges)
	}
	if math.Abs(r.SurfaceArea-6) > tolerance {
		t.Errorf("SurfaceArea failed: expected 6, got %f", r.SurfaceArea)
	}
	if math.Abs(r.AvgEdgeLength-4) > tolerance {
		t.Errorf("AvgEdgeLength failed: expected 4, got %f", r.AvgEdgeLength)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze(&geometry.Mesh{})
	if r.Watertight() || r.MinEdgeLength != 0 || r.EdgeCount != 0 {
		t.Errorf("empty mesh report failed: %+v", r)
	}
}

func TestFormatVector(t *testing.T) {
	if got := FormatVector(geometry.NewVector3(1, 2.5, -3)); got != "(1.000, 2.500, -3.000)" {
		t.Errorf("FormatVector failed: got %s", got)
	}
}
