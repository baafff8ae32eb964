// Package headless hosts a viewer without a window: an in-memory container
// and a manually stepped frame scheduler.
package headless

import (
	"errors"
	"sync"
	"time"

	"github.com/printfarm/meshview/pkg/render"
	"github.com/printfarm/meshview/pkg/viewer"
)

// ErrNotChild is returned when removing a surface that was never appended
var ErrNotChild = errors.New("surface is not a child of the container")

// Container is an in-memory viewer.Container
type Container struct {
	mu         sync.Mutex
	width      int
	pixelRatio float64
	children   []*render.Surface
	observers  map[int]func()
	nextID     int
}

// NewContainer creates a container of the given width
func NewContainer(width int) *Container {
	return &Container{
		width:      width,
		pixelRatio: 1,
		observers:  make(map[int]func()),
	}
}

// Width implements viewer.Container
func (c *Container) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// SetWidth changes the width and notifies resize observers
func (c *Container) SetWidth(width int) {
	c.mu.Lock()
	if c.width == width {
		c.mu.Unlock()
		return
	}
	c.width = width
	fns := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SetPixelRatio sets the device pixel ratio reported to the viewer
func (c *Container) SetPixelRatio(ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pixelRatio = ratio
}

// PixelRatio implements viewer.PixelRatioProvider
func (c *Container) PixelRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pixelRatio
}

// Append implements viewer.Container
func (c *Container) Append(s *render.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = append(c.children, s)
	return nil
}

// Remove implements viewer.Container
func (c *Container) Remove(s *render.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, child := range c.children {
		if child == s {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return nil
		}
	}
	return ErrNotChild
}

// Children returns the appended surfaces
func (c *Container) Children() []*render.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*render.Surface, len(c.children))
	copy(out, c.children)
	return out
}

// Surface returns the single appended surface, or nil
func (c *Container) Surface() *render.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.children) != 1 {
		return nil
	}
	return c.children[0]
}

// ObserveResize implements viewer.Container
func (c *Container) ObserveResize(fn func()) (viewer.ResizeObserver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.observers[c.nextID] = fn
	return &observer{c: c, id: c.nextID}, nil
}

// Observers returns the number of connected resize observers
func (c *Container) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

type observer struct {
	c  *Container
	id int
}

func (o *observer) Disconnect() error {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	delete(o.c.observers, o.id)
	return nil
}

// Scheduler is a render.FrameScheduler stepped by the caller
type Scheduler struct {
	render.FrameQueue
}

// NewScheduler creates an idle scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Step runs one frame and returns how many callbacks ran
func (s *Scheduler) Step() int {
	return s.Run(time.Now())
}
