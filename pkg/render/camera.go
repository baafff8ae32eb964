package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/printfarm/meshview/pkg/geometry"
)

// Default camera framing for a unit-normalized mesh
const (
	DefaultFOV  = 45.0
	DefaultNear = 0.1
	DefaultFar  = 1000.0
)

// DefaultCameraPosition looks at the origin from the upper front right
var DefaultCameraPosition = geometry.NewVector3(2, 2, 2)

// Camera is a perspective camera looking at a target point
type Camera struct {
	Position geometry.Vector3
	Target   geometry.Vector3
	Up       geometry.Vector3
	FOV      float64 // Vertical field of view in degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera creates the default camera for the given aspect ratio
func NewCamera(aspect float64) *Camera {
	c := &Camera{
		Position: DefaultCameraPosition,
		Target:   geometry.Vector3{},
		Up:       geometry.NewVector3(0, 1, 0),
		FOV:      DefaultFOV,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
	c.SetAspect(aspect)
	return c
}

// SetAspect updates the aspect ratio; non-positive values are ignored
func (c *Camera) SetAspect(aspect float64) {
	if aspect > 0 {
		c.Aspect = aspect
	} else if c.Aspect == 0 {
		c.Aspect = 1
	}
}

// View returns the world-to-camera matrix
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(toVec3(c.Position), toVec3(c.Target), toVec3(c.Up))
}

// Projection returns the perspective projection matrix
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Basis returns the camera's forward, right and up unit vectors
func (c *Camera) Basis() (forward, right, up geometry.Vector3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward).Normalize()
	return forward, right, up
}

// Distance returns the distance from the camera to its target
func (c *Camera) Distance() float64 {
	return c.Position.Distance(c.Target)
}

// Project projects a world point to screen coordinates of a width x height
// viewport. The returned depth is in normalized device space; ok is false for
// points closer than the near plane.
func (c *Camera) Project(point geometry.Vector3, width, height float64) (x, y, depth float64, ok bool) {
	return project(c.ViewProjection(), point, width, height, c.Near)
}

func project(viewProj mgl64.Mat4, point geometry.Vector3, width, height, near float64) (x, y, depth float64, ok bool) {
	clip := viewProj.Mul4x1(toVec3(point).Vec4(1))
	// clip w is the eye-space distance along the view axis
	if clip.W() < near {
		return 0, 0, 0, false
	}
	x, y, depth = toScreen(clip, width, height)
	return x, y, depth, true
}

// toScreen divides a clip-space point by w and maps it to the viewport
func toScreen(clip mgl64.Vec4, width, height float64) (x, y, depth float64) {
	w := clip.W()
	x = (clip.X()/w + 1) * 0.5 * width
	y = (1 - clip.Y()/w) * 0.5 * height
	return x, y, clip.Z() / w
}

func toVec3(v geometry.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
