package viewer

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/render"
)

// session is everything one mount of the viewer allocates. It is only
// touched with Viewer.mu held.
type session struct {
	gen   uint64
	state State

	mountWidth int
	width      int
	height     int

	ctx      *render.Context
	appended bool
	camera   *render.Camera
	controls *render.OrbitControls
	scene    *render.Scene
	observer ResizeObserver
	cancel   context.CancelFunc

	tick    func(time.Time)
	frame   render.FrameID
	looping bool
	frames  int

	result  normalize.Result
	loadErr error
	settled chan struct{}
	torn    bool
}

func (s *session) setState(state State) {
	s.state = state
	if state.settled() {
		select {
		case <-s.settled:
		default:
			close(s.settled)
		}
	}
}

// build allocates the mesh entity and ground. On error nothing new stays
// attached to the scene; whatever was allocated is released.
func (s *session) build(positions, normals []geometry.Vector3, col color.RGBA, result normalize.Result) (err error) {
	mesh := &render.MeshEntity{Transform: result.Transform}
	defer func() {
		if err != nil {
			mesh.Dispose()
		}
	}()

	mesh.Geometry, err = s.ctx.NewGeometry(positions, normals)
	if err != nil {
		return fmt.Errorf("mesh geometry: %w", err)
	}
	mesh.Material, err = s.ctx.NewMaterial(col)
	if err != nil {
		return fmt.Errorf("mesh material: %w", err)
	}

	ground, err := render.NewGround(s.ctx, result.GroundLevel())
	if err != nil {
		return fmt.Errorf("ground: %w", err)
	}

	s.scene.Mesh = mesh
	s.scene.Ground = ground
	return nil
}
