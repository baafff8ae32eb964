package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/normalize"
)

// Render draws one frame of the scene as seen by the camera
func (c *Context) Render(scene *Scene, camera *Camera) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.frames++

	s := c.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear(scene.Background)
	pw, ph := s.physical()
	if pw == 0 || ph == 0 {
		return nil
	}

	f := frame{
		scene:    scene,
		eye:      camera.Position,
		viewProj: camera.ViewProjection(),
		near:     camera.Near,
		width:    float64(pw),
		height:   float64(ph),
		light:    scene.Directional.Direction(),
	}

	// Opaque mesh first so the translucent ground blends over it
	if m := scene.Mesh; m != nil && m.Geometry != nil && m.Material != nil && !m.Geometry.disposed && !m.Material.disposed {
		c.verts = f.shade(c.verts[:0], m.Geometry, m.Material, m.Transform)
		f.drawTriangles(s, c.verts, m.Material.Opacity, true)
	}

	if g := scene.Ground; g != nil {
		identity := normalize.Transform{Scale: 1}
		if g.Plane != nil && g.PlaneMaterial != nil && !g.Plane.disposed && !g.PlaneMaterial.disposed {
			c.verts = f.shade(c.verts[:0], g.Plane, g.PlaneMaterial, identity)
			f.drawTriangles(s, c.verts, g.PlaneMaterial.Opacity, false)
		}
		if g.Grid != nil && g.GridMaterial != nil && !g.Grid.disposed && !g.GridMaterial.disposed {
			f.drawSegments(s, g.Grid.Positions, g.GridMaterial.Color)
		}
	}

	return nil
}

type frame struct {
	scene    *Scene
	eye      geometry.Vector3
	viewProj mgl64.Mat4
	near     float64
	width    float64
	height   float64
	light    geometry.Vector3
}

// shade transforms and lights every vertex of g
func (f *frame) shade(out []shadedVertex, g *Geometry, m *Material, t normalize.Transform) []shadedVertex {
	hasNormals := len(g.Normals) == len(g.Positions)

	for i, p := range g.Positions {
		world := t.Apply(p)

		var sv shadedVertex
		sv.x, sv.y, sv.z, sv.visible = project(f.viewProj, world, f.width, f.height, f.near)

		if m.Unlit {
			sv.r, sv.g, sv.b = float64(m.Color.R), float64(m.Color.G), float64(m.Color.B)
			out = append(out, sv)
			continue
		}

		var n geometry.Vector3
		if hasNormals {
			n = g.Normals[i].Normalize()
		}
		if n.IsZero() && !g.Lines {
			n = faceNormal(g.Positions, i)
		}
		sv.r, sv.g, sv.b = f.light3(world, n, m)
		out = append(out, sv)
	}
	return out
}

// light3 evaluates ambient, diffuse and Blinn-Phong specular terms
func (f *frame) light3(p, n geometry.Vector3, m *Material) (r, g, b float64) {
	amb := f.scene.Ambient
	dir := f.scene.Directional

	diffuse := math.Max(0, n.Dot(f.light)) * dir.Intensity

	specular := 0.0
	if diffuse > 0 && m.Specular > 0 {
		view := f.eye.Sub(p).Normalize()
		half := f.light.Add(view).Normalize()
		specular = m.Specular * math.Pow(math.Max(0, n.Dot(half)), m.Shininess) * dir.Intensity * 255
	}

	channel := func(base, ambient, direct uint8) float64 {
		lit := float64(ambient)/255*amb.Intensity + float64(direct)/255*diffuse
		return float64(base)*lit + specular*float64(direct)/255
	}
	return channel(m.Color.R, amb.Color.R, dir.Color.R),
		channel(m.Color.G, amb.Color.G, dir.Color.G),
		channel(m.Color.B, amb.Color.B, dir.Color.B)
}

func (f *frame) drawTriangles(s *Surface, verts []shadedVertex, opacity float64, cullBack bool) {
	for i := 0; i+2 < len(verts); i += 3 {
		tri := [3]shadedVertex{verts[i], verts[i+1], verts[i+2]}
		if !tri[0].visible || !tri[1].visible || !tri[2].visible {
			continue
		}

		if cullBack {
			// screen Y points down, so counter-clockwise world winding has a negative area
			area := (tri[1].x-tri[0].x)*(tri[2].y-tri[0].y) - (tri[1].y-tri[0].y)*(tri[2].x-tri[0].x)
			if area > 0 {
				continue
			}
		}

		fillTriangle(s.color, s.depth, tri, opacity)
	}
}

// drawSegments draws world-space line pairs clipped to the near plane and
// then to the viewport, so no segment walks more pixels than the surface has.
func (f *frame) drawSegments(s *Surface, points []geometry.Vector3, col color.RGBA) {
	for i := 0; i+1 < len(points); i += 2 {
		a := f.viewProj.Mul4x1(toVec3(points[i]).Vec4(1))
		b := f.viewProj.Mul4x1(toVec3(points[i+1]).Vec4(1))
		if !clipNear(&a, &b, f.near) {
			continue
		}

		var p, q shadedVertex
		p.x, p.y, p.z = toScreen(a, f.width, f.height)
		q.x, q.y, q.z = toScreen(b, f.width, f.height)
		if !clipViewport(&p, &q, f.width-1, f.height-1) {
			continue
		}
		drawLine(s.color, s.depth, p, q, col)
	}
}

func faceNormal(positions []geometry.Vector3, i int) geometry.Vector3 {
	base := i - i%3
	if base+2 >= len(positions) {
		return geometry.Vector3{}
	}
	t := geometry.Triangle{V1: positions[base], V2: positions[base+1], V3: positions[base+2]}
	return t.CalculateNormal()
}
