// Package render draws a lit, colored triangle mesh into an in-memory
// surface. A Device hands out at most one live Context at a time; the
// Context owns the surface and every geometry and material allocated on it.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/printfarm/meshview/pkg/geometry"
)

var (
	// ErrDeviceBusy is returned by Acquire while another context is live
	ErrDeviceBusy = errors.New("render device already has a live context")
	// ErrDisposed is returned when using a context after Dispose
	ErrDisposed = errors.New("render context disposed")
)

// MaxPixelRatio caps the device pixel ratio used for surfaces
const MaxPixelRatio = 2.0

// Device is the capability handle for one graphics surface
type Device struct {
	mu            sync.Mutex
	active        *Context
	maxPixelRatio float64
	acquired      int
}

// NewDevice creates a device. maxPixelRatio <= 0 means MaxPixelRatio.
func NewDevice(maxPixelRatio float64) *Device {
	if maxPixelRatio <= 0 {
		maxPixelRatio = MaxPixelRatio
	}
	return &Device{maxPixelRatio: maxPixelRatio}
}

// Acquire claims the device and creates a context with a surface of the
// given logical size.
func (d *Device) Acquire(width, height int, pixelRatio float64) (*Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, ErrDeviceBusy
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	ratio := pixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	if ratio > d.maxPixelRatio {
		ratio = d.maxPixelRatio
	}

	ctx := &Context{
		device:     d,
		surface:    NewSurface(width, height, ratio),
		geometries: make(map[*Geometry]struct{}),
		materials:  make(map[*Material]struct{}),
	}
	d.active = ctx
	d.acquired++
	return ctx, nil
}

// Busy reports whether a context currently holds the device
func (d *Device) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

// Acquisitions returns how many contexts have been created on the device
func (d *Device) Acquisitions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquired
}

func (d *Device) release(ctx *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == ctx {
		d.active = nil
	}
}

// Stats describes the resources held by a context
type Stats struct {
	Geometries int
	Materials  int
	Frames     uint64
	Disposed   bool
}

// Context owns a surface and the GPU-side resources drawn into it
type Context struct {
	device  *Device
	surface *Surface

	mu         sync.Mutex
	geometries map[*Geometry]struct{}
	materials  map[*Material]struct{}
	frames     uint64
	disposed   bool

	// scratch buffers reused across frames
	verts []shadedVertex
}

// Surface returns the surface the context draws into
func (c *Context) Surface() *Surface {
	return c.surface
}

// SetSize resizes the surface to a new logical size
func (c *Context) SetSize(width, height int) {
	c.surface.SetSize(width, height)
}

// NewGeometry uploads positions and per-vertex normals. Normals must match
// positions one to one.
func (c *Context) NewGeometry(positions, normals []geometry.Vector3) (*Geometry, error) {
	if len(normals) != 0 && len(normals) != len(positions) {
		return nil, fmt.Errorf("geometry has %d positions but %d normals", len(positions), len(normals))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, ErrDisposed
	}

	g := &Geometry{ctx: c, Positions: positions, Normals: normals}
	c.geometries[g] = struct{}{}
	return g, nil
}

// NewMaterial allocates a Phong material of the given color
func (c *Context) NewMaterial(col color.RGBA) (*Material, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, ErrDisposed
	}

	m := &Material{
		ctx:       c,
		Color:     col,
		Opacity:   1,
		Specular:  0x11 / 255.0,
		Shininess: 30,
	}
	c.materials[m] = struct{}{}
	return m, nil
}

// Stats returns a snapshot of live resources
func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Geometries: len(c.geometries),
		Materials:  len(c.materials),
		Frames:     c.frames,
		Disposed:   c.disposed,
	}
}

// Dispose releases every resource still live on the context and frees the
// device. Calling it again is a no-op.
func (c *Context) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	for g := range c.geometries {
		g.release()
	}
	for m := range c.materials {
		m.disposed = true
	}
	c.geometries = map[*Geometry]struct{}{}
	c.materials = map[*Material]struct{}{}
	c.verts = nil
	c.mu.Unlock()

	c.surface.Clear(color.RGBA{})
	c.device.release(c)
}

// Disposed reports whether Dispose has run
func (c *Context) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Geometry holds vertex buffers owned by a context
type Geometry struct {
	ctx       *Context
	Positions []geometry.Vector3
	Normals   []geometry.Vector3
	// Lines draws consecutive position pairs as segments instead of triangles
	Lines    bool
	disposed bool
}

// Dispose frees the geometry. A second call is a no-op.
func (g *Geometry) Dispose() {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	if g.disposed {
		return
	}
	g.release()
	delete(g.ctx.geometries, g)
}

func (g *Geometry) release() {
	g.disposed = true
	g.Positions = nil
	g.Normals = nil
}

// Material describes how a surface is shaded
type Material struct {
	ctx       *Context
	Color     color.RGBA
	Opacity   float64
	Specular  float64
	Shininess float64
	// Unlit skips lighting, used for grid lines
	Unlit    bool
	disposed bool
}

// Dispose frees the material. A second call is a no-op.
func (m *Material) Dispose() {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	if m.disposed {
		return
	}
	m.disposed = true
	delete(m.ctx.materials, m)
}
