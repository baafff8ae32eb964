package headless

import (
	"context"
	"errors"
	"image"

	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/render"
	"github.com/printfarm/meshview/pkg/viewer"
)

// Capture mounts a viewer on an offscreen container, waits for the mesh,
// draws frames and returns the final image at logical size.
func Capture(ctx context.Context, device *render.Device, loader viewer.MeshLoader, props viewer.Props, width, frames int, opts ...viewer.Option) (*image.RGBA, normalize.Dimensions, error) {
	container := NewContainer(width)
	scheduler := NewScheduler()

	v := viewer.New(device, scheduler, loader, opts...)
	if err := v.Mount(container, props); err != nil {
		return nil, normalize.Dimensions{}, err
	}
	defer v.Unmount()

	state, err := v.Wait(ctx)
	if err != nil {
		return nil, normalize.Dimensions{}, err
	}
	if state != viewer.StateReady {
		return nil, normalize.Dimensions{}, errors.New("viewer did not become ready: " + state.String())
	}

	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		scheduler.Step()
	}

	surface := container.Surface()
	if surface == nil {
		return nil, normalize.Dimensions{}, errors.New("viewer has no surface")
	}
	dims, _ := v.Dimensions()
	return surface.Image(), dims, nil
}
