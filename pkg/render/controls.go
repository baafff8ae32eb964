package render

import (
	"math"
	"sync"

	"github.com/printfarm/meshview/pkg/geometry"
)

// DefaultDampingFactor is the fraction of pending motion applied per update
const DefaultDampingFactor = 0.05

type dragState int

const (
	dragNone dragState = iota
	dragRotate
	dragPan
)

// OrbitControls orbits, pans and zooms a camera around its target in
// response to surface events. Motion is inertial: input accumulates into a
// pending delta that Update drains by DampingFactor each frame.
type OrbitControls struct {
	mu      sync.Mutex
	camera  *Camera
	surface *Surface
	id      ListenerID

	DampingFactor float64
	RotateSpeed   float64
	ZoomSpeed     float64
	PanSpeed      float64
	MinDistance   float64
	MaxDistance   float64

	// pending motion
	deltaTheta float64
	deltaPhi   float64
	panOffset  geometry.Vector3
	scale      float64

	state        dragState
	lastX, lastY float64
	attached     bool
}

// NewOrbitControls attaches controls for camera to the surface's events
func NewOrbitControls(camera *Camera, surface *Surface) *OrbitControls {
	c := &OrbitControls{
		camera:        camera,
		surface:       surface,
		DampingFactor: DefaultDampingFactor,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		MinDistance:   0.2,
		MaxDistance:   100,
		scale:         1,
	}
	c.id = surface.AddEventListener(c.handle)
	c.attached = true
	return c
}

// Dispose detaches the event listener. Calling it again is a no-op.
func (c *OrbitControls) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return
	}
	c.surface.RemoveEventListener(c.id)
	c.attached = false
	c.state = dragNone
}

// Attached reports whether the controls still listen to the surface
func (c *OrbitControls) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

func (c *OrbitControls) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return
	}

	switch e.Kind {
	case PointerDown:
		c.state = dragRotate
		if e.Button == ButtonSecondary {
			c.state = dragPan
		}
		c.lastX, c.lastY = e.X, e.Y

	case PointerMove:
		dx, dy := e.X-c.lastX, e.Y-c.lastY
		c.lastX, c.lastY = e.X, e.Y
		switch c.state {
		case dragRotate:
			c.rotate(dx, dy)
		case dragPan:
			c.pan(dx, dy)
		}

	case PointerUp:
		c.state = dragNone

	case Wheel:
		c.zoom(e.DeltaY)
	}
}

func (c *OrbitControls) viewportHeight() float64 {
	_, h := c.surface.Size()
	if h <= 0 {
		return 1
	}
	return float64(h)
}

func (c *OrbitControls) rotate(dx, dy float64) {
	h := c.viewportHeight()
	c.deltaTheta -= 2 * math.Pi * dx / h * c.RotateSpeed
	c.deltaPhi -= 2 * math.Pi * dy / h * c.RotateSpeed
}

func (c *OrbitControls) pan(dx, dy float64) {
	h := c.viewportHeight()
	// pan speed matches the visible extent at the target distance
	distance := c.camera.Distance() * math.Tan(c.camera.FOV/2*math.Pi/180)

	_, right, up := c.camera.Basis()
	c.panOffset = c.panOffset.
		Add(right.Mul(-2 * dx * distance / h * c.PanSpeed)).
		Add(up.Mul(2 * dy * distance / h * c.PanSpeed))
}

func (c *OrbitControls) zoom(deltaY float64) {
	if deltaY == 0 {
		return
	}
	step := math.Pow(0.95, c.ZoomSpeed)
	if deltaY > 0 {
		c.scale /= step
	} else {
		c.scale *= step
	}
}

// Update applies one step of pending motion to the camera. It returns
// whether the camera moved.
func (c *OrbitControls) Update() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cam := c.camera
	offset := cam.Position.Sub(cam.Target)

	radius := offset.Length()
	theta := math.Atan2(offset.X, offset.Z)
	phi := 0.0
	if radius > 0 {
		phi = math.Acos(math.Max(-1, math.Min(1, offset.Y/radius)))
	}

	damping := c.DampingFactor
	if damping <= 0 || damping > 1 {
		damping = 1
	}

	theta += c.deltaTheta * damping
	phi += c.deltaPhi * damping

	const eps = 1e-6
	phi = math.Max(eps, math.Min(math.Pi-eps, phi))

	radius *= c.scale
	radius = math.Max(c.MinDistance, math.Min(c.MaxDistance, radius))

	target := cam.Target.Add(c.panOffset.Mul(damping))

	sinPhi := math.Sin(phi)
	position := target.Add(geometry.NewVector3(
		radius*sinPhi*math.Sin(theta),
		radius*math.Cos(phi),
		radius*sinPhi*math.Cos(theta),
	))

	moved := position.Distance(cam.Position) > 1e-9 || target.Distance(cam.Target) > 1e-9
	cam.Position = position
	cam.Target = target

	c.deltaTheta *= 1 - damping
	c.deltaPhi *= 1 - damping
	c.panOffset = c.panOffset.Mul(1 - damping)
	c.scale = 1

	return moved
}
