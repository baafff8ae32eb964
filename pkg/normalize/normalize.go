// Package normalize places a raw mesh into a unit frame centered on the
// origin and reports its real-world dimensions.
package normalize

import (
	"fmt"
	"math"

	"github.com/printfarm/meshview/pkg/geometry"
)

// Transform maps native mesh coordinates into the unit frame:
// p' = p*Scale + Translation.
type Transform struct {
	Scale       float64
	Translation geometry.Vector3
}

// Apply transforms a single point
func (t Transform) Apply(p geometry.Vector3) geometry.Vector3 {
	return p.Mul(t.Scale).Add(t.Translation)
}

// Dimensions are the un-scaled bounding-box extents in source units,
// rounded to one decimal place.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%.1f x %.1f x %.1f", d.Width, d.Height, d.Depth)
}

// Result bundles everything derived from one mesh
type Result struct {
	Bounds     geometry.BoundingBox
	Transform  Transform
	Dimensions Dimensions
	Triangles  int
	Degenerate bool

	nonFinite bool
}

// DegenerateGeometryError describes a mesh that cannot be scaled
// meaningfully. It is informational: the transform already fell back to 1.
type DegenerateGeometryError struct {
	Triangles int
	Size      geometry.Vector3
	NonFinite bool
}

func (e *DegenerateGeometryError) Error() string {
	if e.Triangles == 0 {
		return "degenerate geometry: mesh has no triangles"
	}
	if e.NonFinite {
		return fmt.Sprintf("degenerate geometry: %d triangles with non-finite coordinates", e.Triangles)
	}
	return fmt.Sprintf("degenerate geometry: %d triangles with zero extent %v", e.Triangles, e.Size)
}

// Err returns a *DegenerateGeometryError when the mesh was degenerate
func (r Result) Err() error {
	if !r.Degenerate {
		return nil
	}
	return &DegenerateGeometryError{Triangles: r.Triangles, Size: r.Bounds.Size(), NonFinite: r.nonFinite}
}

// Normalize computes bounds, transform and dimensions of a mesh in a single
// pass over its vertices. A mesh with NaN or infinite coordinates is
// degenerate and keeps the identity transform.
func Normalize(m *geometry.Mesh) Result {
	bounds := Bounds(m)
	if !bounds.Min.IsFinite() || !bounds.Max.IsFinite() {
		return Result{
			Transform:  Transform{Scale: 1},
			Triangles:  m.TriangleCount(),
			Degenerate: true,
			nonFinite:  true,
		}
	}
	size := bounds.Size()

	return Result{
		Bounds:     bounds,
		Transform:  ComputeTransform(bounds),
		Dimensions: ComputeDimensions(bounds),
		Triangles:  m.TriangleCount(),
		Degenerate: m.TriangleCount() == 0 || size.MaxComponent() <= 0,
	}
}

// Bounds returns the bounding box of the mesh. An empty mesh yields a zero
// box at the origin so downstream math never sees the sentinel extremes.
func Bounds(m *geometry.Mesh) geometry.BoundingBox {
	bbox := m.BoundingBox()
	if bbox.IsEmpty() {
		return geometry.BoundingBox{}
	}
	return bbox
}

// ComputeTransform derives the uniform scale that maps the longest axis to
// unit length and the translation that moves the center to the origin.
func ComputeTransform(bounds geometry.BoundingBox) Transform {
	maxDim := bounds.Size().MaxComponent()

	scale := 1.0
	if maxDim > 0 && !math.IsInf(maxDim, 0) {
		scale = 1 / maxDim
	}

	return Transform{
		Scale:       scale,
		Translation: bounds.Center().Mul(-scale),
	}
}

// ComputeDimensions reports raw extents: width along X, height along Y and
// depth along Z.
func ComputeDimensions(bounds geometry.BoundingBox) Dimensions {
	size := bounds.Size()
	return Dimensions{
		Width:  Round1(size.X),
		Height: Round1(size.Y),
		Depth:  Round1(size.Z),
	}
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// GroundLevel returns the Y coordinate of the bottom of the normalized mesh
func (r Result) GroundLevel() float64 {
	return r.Transform.Apply(r.Bounds.Min).Y
}
