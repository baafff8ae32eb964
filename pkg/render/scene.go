package render

import (
	"image/color"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/normalize"
)

// DefaultBackground is the light gray behind the mesh
var DefaultBackground = color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// AmbientLight lights every surface uniformly
type AmbientLight struct {
	Color     color.RGBA
	Intensity float64
}

// DirectionalLight shines from Position towards the origin
type DirectionalLight struct {
	Color     color.RGBA
	Intensity float64
	Position  geometry.Vector3
}

// Direction returns the unit vector pointing towards the light
func (l DirectionalLight) Direction() geometry.Vector3 {
	return l.Position.Normalize()
}

// MeshEntity is a geometry drawn with a material under a transform
type MeshEntity struct {
	Geometry  *Geometry
	Material  *Material
	Transform normalize.Transform
}

// Dispose releases the entity's geometry and material
func (m *MeshEntity) Dispose() {
	if m.Geometry != nil {
		m.Geometry.Dispose()
	}
	if m.Material != nil {
		m.Material.Dispose()
	}
}

// Scene is everything a frame draws
type Scene struct {
	Background  color.RGBA
	Ambient     AmbientLight
	Directional DirectionalLight
	Ground      *Ground
	Mesh        *MeshEntity
}

// NewScene creates a scene with the default background and lights
func NewScene() *Scene {
	return &Scene{
		Background: DefaultBackground,
		Ambient:    AmbientLight{Color: white, Intensity: 0.7},
		Directional: DirectionalLight{
			Color:     white,
			Intensity: 0.6,
			Position:  geometry.NewVector3(5, 10, 7.5),
		},
	}
}

// Ground is a reference grid with a translucent plane under the mesh
type Ground struct {
	Level         float64
	Plane         *Geometry
	PlaneMaterial *Material
	Grid          *Geometry
	GridMaterial  *Material
}

// Ground layout in normalized units
const (
	groundSize      = 2.0
	groundDivisions = 10
)

var (
	gridColor  = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	planeColor = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// NewGround allocates the ground reference at the given height. Resources
// allocated before a failure are released.
func NewGround(ctx *Context, level float64) (g *Ground, err error) {
	g = &Ground{Level: level}
	defer func() {
		if err != nil {
			g.Dispose()
			g = nil
		}
	}()

	half := groundSize / 2
	up := geometry.NewVector3(0, 1, 0)
	a := geometry.NewVector3(-half, level, -half)
	b := geometry.NewVector3(-half, level, half)
	c := geometry.NewVector3(half, level, half)
	d := geometry.NewVector3(half, level, -half)

	g.Plane, err = ctx.NewGeometry(
		[]geometry.Vector3{a, b, c, a, c, d},
		[]geometry.Vector3{up, up, up, up, up, up},
	)
	if err != nil {
		return g, err
	}
	g.PlaneMaterial, err = ctx.NewMaterial(planeColor)
	if err != nil {
		return g, err
	}
	g.PlaneMaterial.Opacity = 0.4

	var lines []geometry.Vector3
	step := groundSize / groundDivisions
	for i := 0; i <= groundDivisions; i++ {
		t := -half + float64(i)*step
		lines = append(lines,
			geometry.NewVector3(t, level, -half), geometry.NewVector3(t, level, half),
			geometry.NewVector3(-half, level, t), geometry.NewVector3(half, level, t),
		)
	}
	g.Grid, err = ctx.NewGeometry(lines, nil)
	if err != nil {
		return g, err
	}
	g.Grid.Lines = true
	g.GridMaterial, err = ctx.NewMaterial(gridColor)
	if err != nil {
		return g, err
	}
	g.GridMaterial.Unlit = true

	return g, nil
}

// Dispose releases the ground's geometries and materials
func (g *Ground) Dispose() {
	if g.Plane != nil {
		g.Plane.Dispose()
	}
	if g.PlaneMaterial != nil {
		g.PlaneMaterial.Dispose()
	}
	if g.Grid != nil {
		g.Grid.Dispose()
	}
	if g.GridMaterial != nil {
		g.GridMaterial.Dispose()
	}
}
