package viewer

import (
	"context"
	"fmt"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/render"
)

// DefaultHeight is the viewport height used when Props.Height is zero
const DefaultHeight = 360

// Props are the inputs of a mounted viewer. Changing URL, Height or Color
// rebuilds the session; the callback may change freely.
type Props struct {
	URL    string
	Height int
	Color  string
	// OnDimensionsCalculated runs once per successful load
	OnDimensionsCalculated func(normalize.Dimensions)
}

func (p Props) height() int {
	if p.Height <= 0 {
		return DefaultHeight
	}
	return p.Height
}

func (p Props) sameInputs(o Props) bool {
	return p.URL == o.URL && p.height() == o.height() && p.Color == o.Color
}

// ResizeObserver is returned by Container.ObserveResize
type ResizeObserver interface {
	Disconnect() error
}

// Container is the host element the viewer draws into
type Container interface {
	// Width is the current width in logical pixels; zero if not laid out yet
	Width() int
	Append(surface *render.Surface) error
	Remove(surface *render.Surface) error
	ObserveResize(fn func()) (ResizeObserver, error)
}

// PixelRatioProvider is implemented by containers on high density displays
type PixelRatioProvider interface {
	PixelRatio() float64
}

// MeshLoader produces raw geometry for a URL
type MeshLoader interface {
	Load(ctx context.Context, url string) (*geometry.Mesh, error)
}

// State is the lifecycle state of a viewer session
type State int

const (
	StateUnmounted State = iota
	StateMounting
	StateLoading
	StateReady
	StateFailed
	StateTearingDown
)

func (s State) String() string {
	switch s {
	case StateUnmounted:
		return "unmounted"
	case StateMounting:
		return "mounting"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTearingDown:
		return "tearing down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// settled reports whether a session finished loading, one way or the other
func (s State) settled() bool {
	return s == StateReady || s == StateFailed || s == StateUnmounted
}
