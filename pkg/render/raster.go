package render

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// shadedVertex is a vertex projected to physical pixels with its lit color
type shadedVertex struct {
	x, y, z float64
	r, g, b float64
	visible bool
}

func lerpVertex(a, b shadedVertex, t float64) shadedVertex {
	return shadedVertex{
		x: a.x + t*(b.x-a.x),
		y: a.y + t*(b.y-a.y),
		z: a.z + t*(b.z-a.z),
		r: a.r + t*(b.r-a.r),
		g: a.g + t*(b.g-a.g),
		b: a.b + t*(b.b-a.b),
	}
}

// fillTriangle fills a Gouraud-shaded triangle with depth testing. Opaque
// triangles write depth; translucent ones blend over what is already drawn.
func fillTriangle(img *image.RGBA, zbuffer []float64, v [3]shadedVertex, opacity float64) {
	// Sort vertices by Y coordinate (top to bottom)
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	if v[1].y > v[2].y {
		v[1], v[2] = v[2], v[1]
	}
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}

	bounds := img.Bounds()
	width := bounds.Max.X
	opaque := opacity >= 1

	// Scanline algorithm with depth and color interpolation
	yStart := int(math.Max(0, math.Ceil(v[0].y)))
	yEnd := int(math.Min(float64(bounds.Max.Y-1), v[2].y))
	for y := yStart; y <= yEnd; y++ {
		fy := float64(y)

		// Long edge 0-2 always spans the scanline
		if v[2].y == v[0].y {
			continue
		}
		long := lerpVertex(v[0], v[2], (fy-v[0].y)/(v[2].y-v[0].y))

		var short shadedVertex
		if fy < v[1].y {
			if v[1].y == v[0].y {
				continue
			}
			short = lerpVertex(v[0], v[1], (fy-v[0].y)/(v[1].y-v[0].y))
		} else {
			if v[2].y == v[1].y {
				short = v[1]
			} else {
				short = lerpVertex(v[1], v[2], (fy-v[1].y)/(v[2].y-v[1].y))
			}
		}

		start, end := long, short
		if start.x > end.x {
			start, end = end, start
		}

		// Clamp to image bounds
		xStart := int(math.Max(0, math.Ceil(start.x)))
		xEnd := int(math.Min(float64(width-1), end.x))

		span := end.x - start.x
		for x := xStart; x <= xEnd; x++ {
			t := 0.0
			if span != 0 {
				t = (float64(x) - start.x) / span
			}
			p := lerpVertex(start, end, t)

			idx := y*width + x
			if idx < 0 || idx >= len(zbuffer) || p.z >= zbuffer[idx] {
				continue
			}

			col := color.RGBA{R: clamp8(p.r), G: clamp8(p.g), B: clamp8(p.b), A: 0xff}
			if opaque {
				zbuffer[idx] = p.z
				img.SetRGBA(x, y, col)
			} else {
				img.SetRGBA(x, y, blend(img.RGBAAt(x, y), col, opacity))
			}
		}
	}
}

// clipNear clips a clip-space segment to w >= near. It reports false when
// the whole segment lies in front of the near plane.
func clipNear(a, b *mgl64.Vec4, near float64) bool {
	da, db := a.W()-near, b.W()-near
	switch {
	case da < 0 && db < 0:
		return false
	case da < 0:
		*a = a.Add(b.Sub(*a).Mul(da / (da - db)))
	case db < 0:
		*b = b.Add(a.Sub(*b).Mul(db / (db - da)))
	}
	return true
}

// clipViewport clips a screen segment to [0, xmax] x [0, ymax] with the
// Liang-Barsky algorithm. It reports false when nothing is left.
func clipViewport(a, b *shadedVertex, xmax, ymax float64) bool {
	dx, dy := b.x-a.x, b.y-a.y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.x},
		{dx, xmax - a.x},
		{-dy, a.y},
		{dy, ymax - a.y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = math.Min(t1, r)
		}
	}

	start := *a
	*a = lerpVertex(start, *b, t0)
	*b = lerpVertex(start, *b, t1)
	return true
}

// drawLine draws a depth-tested line using Bresenham's algorithm
func drawLine(img *image.RGBA, zbuffer []float64, a, b shadedVertex, col color.RGBA) {
	bounds := img.Bounds()
	width := bounds.Max.X

	x1, y1 := int(math.Round(a.x)), int(math.Round(a.y))
	x2, y2 := int(math.Round(b.x)), int(math.Round(b.y))

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	steps := max(dx, dy)

	var sx, sy int
	if x1 < x2 {
		sx = 1
	} else {
		sx = -1
	}
	if y1 < y2 {
		sy = 1
	} else {
		sy = -1
	}

	err := dx - dy

	for i := 0; ; i++ {
		// Check bounds
		if x1 >= 0 && x1 < bounds.Max.X && y1 >= 0 && y1 < bounds.Max.Y {
			z := a.z
			if steps > 0 {
				z += (b.z - a.z) * float64(i) / float64(steps)
			}
			if idx := y1*width + x1; z < zbuffer[idx] {
				img.SetRGBA(x1, y1, col)
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func blend(dst, src color.RGBA, alpha float64) color.RGBA {
	mix := func(d, s uint8) uint8 {
		return clamp8(float64(s)*alpha + float64(d)*(1-alpha))
	}
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 0xff}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
