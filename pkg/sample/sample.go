// Package sample generates fixture meshes from signed distance functions
package sample

import (
	"fmt"
	"math"
	"sort"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/stl"
)

// DefaultCells is the marching cubes resolution along the longest axis
const DefaultCells = 64

// Options size a generated shape. Zero values take the shape's defaults.
type Options struct {
	Width  float64
	Height float64
	Depth  float64
	Radius float64
	Cells  int
}

type generator func(Options) (sdf.SDF3, error)

var shapes = map[string]generator{
	"box":      box,
	"cylinder": cylinder,
}

// Shapes lists the names Generate accepts
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate builds the named shape as an STL model
func Generate(name string, opts Options) (*stl.Model, error) {
	gen, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", name)
	}
	s, err := gen(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ToModel(name, s, opts.Cells), nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// box has its minimum corner at the origin, width along X, height along Y
// and depth along Z
func box(opts Options) (sdf.SDF3, error) {
	x := orDefault(opts.Width, 10)
	y := orDefault(opts.Height, 5)
	z := orDefault(opts.Depth, 2)

	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, err
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return sdf.Transform3D(s, m), nil
}

// cylinder stands upright on the XZ plane
func cylinder(opts Options) (sdf.SDF3, error) {
	height := orDefault(opts.Height, 20)
	radius := orDefault(opts.Radius, 5)

	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, err
	}
	m := sdf.Translate3d(v3.Vec{Y: height / 2}).Mul(sdf.RotateX(-math.Pi / 2))
	return sdf.Transform3D(s, m), nil
}

// ToModel meshes s with marching cubes
func ToModel(name string, s sdf.SDF3, cells int) *stl.Model {
	if cells <= 0 {
		cells = DefaultCells
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	model := stl.NewModel(name)
	for _, tri := range triangles {
		n := tri.Normal()
		model.AddTriangle(geometry.NewTriangle(
			geometry.NewVector3(n.X, n.Y, n.Z),
			geometry.NewVector3(tri[0].X, tri[0].Y, tri[0].Z),
			geometry.NewVector3(tri[1].X, tri[1].Y, tri[1].Z),
			geometry.NewVector3(tri[2].X, tri[2].Y, tri[2].Z),
		))
	}
	return model
}
