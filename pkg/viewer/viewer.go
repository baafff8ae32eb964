// Package viewer binds a mesh render session to a host container. A Viewer
// owns at most one session at a time; every change of URL, color or height
// tears the session down completely before the next one acquires the render
// device.
package viewer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/printfarm/meshview/pkg/colors"
	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/render"
)

var (
	// ErrAlreadyMounted is returned by Mount on a mounted viewer
	ErrAlreadyMounted = errors.New("viewer already mounted")
	// ErrNotMounted is returned by Update and Reload before Mount
	ErrNotMounted = errors.New("viewer not mounted")
)

// DefaultWidth is used when the container reports no width at mount time
const DefaultWidth = 600

// Option configures a Viewer
type Option func(*Viewer)

// WithLogger sets the logger for load failures and teardown errors
func WithLogger(l *log.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithDefaultWidth overrides the fallback width for unsized containers
func WithDefaultWidth(width int) Option {
	return func(v *Viewer) {
		if width > 0 {
			v.defaultWidth = width
		}
	}
}

// WithDampingFactor sets the inertia of the orbit controls
func WithDampingFactor(f float64) Option {
	return func(v *Viewer) {
		if f > 0 {
			v.damping = f
		}
	}
}

// Viewer is an interactive mesh view bound to one container at a time
type Viewer struct {
	device    *render.Device
	scheduler render.FrameScheduler
	loader    MeshLoader

	logger       *log.Logger
	defaultWidth int
	damping      float64

	mu         sync.Mutex
	container  Container
	props      Props
	mounted    bool
	generation uint64
	session    *session
}

// New creates an unmounted viewer. The device is the exclusive render
// capability; the scheduler drives the frame loop.
func New(device *render.Device, scheduler render.FrameScheduler, loader MeshLoader, opts ...Option) *Viewer {
	v := &Viewer{
		device:       device,
		scheduler:    scheduler,
		loader:       loader,
		logger:       log.Default(),
		defaultWidth: DefaultWidth,
		damping:      render.DefaultDampingFactor,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount binds the viewer to a container and starts loading props.URL.
// Failures are logged and leave the viewer mounted in the failed state;
// the returned error reports them for callers that care.
func (v *Viewer) Mount(c Container, props Props) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mounted {
		return ErrAlreadyMounted
	}
	v.container = c
	v.props = props
	v.mounted = true
	return v.start()
}

// Update applies new props. A change of URL, color or height tears the
// current session down and builds a new one.
func (v *Viewer) Update(props Props) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}
	old := v.props
	v.props = props
	if old.sameInputs(props) {
		return nil
	}

	v.teardown()
	return v.start()
}

// Reload rebuilds the session with the current props
func (v *Viewer) Reload() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}
	v.teardown()
	return v.start()
}

// Unmount tears down the session and detaches from the container. It is
// safe to call more than once.
func (v *Viewer) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return
	}
	v.teardown()
	v.mounted = false
	v.container = nil
}

// State returns the state of the current session
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return StateUnmounted
	}
	return v.session.state
}

// Dimensions returns the dimensions of the loaded mesh, if any
func (v *Viewer) Dimensions() (normalize.Dimensions, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil || v.session.state != StateReady {
		return normalize.Dimensions{}, false
	}
	return v.session.result.Dimensions, true
}

// Snapshot describes the current session
type Snapshot struct {
	State      State
	Generation uint64
	Width      int
	Height     int
	Aspect     float64
	Frames     int
	Render     render.Stats
}

// Snapshot returns diagnostics about the current session
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.session
	if s == nil {
		return Snapshot{State: StateUnmounted, Generation: v.generation}
	}
	snap := Snapshot{
		State:      s.state,
		Generation: s.gen,
		Width:      s.width,
		Height:     s.height,
		Frames:     s.frames,
	}
	if s.camera != nil {
		snap.Aspect = s.camera.Aspect
	}
	if s.ctx != nil {
		snap.Render = s.ctx.Stats()
	}
	return snap
}

// Wait blocks until the current session has finished loading or ctx ends.
// It returns the load error of a failed session.
func (v *Viewer) Wait(ctx context.Context) (State, error) {
	for {
		v.mu.Lock()
		s := v.session
		if s == nil {
			v.mu.Unlock()
			return StateUnmounted, nil
		}
		state, settled, loadErr := s.state, s.settled, s.loadErr
		v.mu.Unlock()

		if state.settled() {
			return state, loadErr
		}

		select {
		case <-settled:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// start builds a session for the current props. The caller holds v.mu and
// has torn down any previous session.
func (v *Viewer) start() error {
	v.generation++
	s := &session{
		gen:     v.generation,
		state:   StateMounting,
		height:  v.props.height(),
		settled: make(chan struct{}),
	}
	v.session = s

	width := v.container.Width()
	if width <= 0 {
		width = v.defaultWidth
	}
	s.mountWidth = width
	s.width = width

	ratio := 1.0
	if p, ok := v.container.(PixelRatioProvider); ok {
		ratio = p.PixelRatio()
	}

	ctx, err := v.device.Acquire(width, s.height, ratio)
	if err != nil {
		v.fail(s, err)
		return err
	}
	s.ctx = ctx
	s.camera = render.NewCamera(float64(width) / float64(s.height))
	s.scene = render.NewScene()

	if err := v.container.Append(ctx.Surface()); err != nil {
		v.fail(s, err)
		return err
	}
	s.appended = true

	s.controls = render.NewOrbitControls(s.camera, ctx.Surface())
	s.controls.DampingFactor = v.damping

	gen := s.gen
	observer, err := v.container.ObserveResize(func() { v.resize(gen) })
	if err != nil {
		v.logger.Printf("viewer: resize observer unavailable: %v", err)
	}
	s.observer = observer

	// idle frame until the mesh arrives
	if err := ctx.Render(s.scene, s.camera); err != nil {
		v.logger.Printf("viewer: initial frame failed: %v", err)
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateLoading
	go v.load(loadCtx, gen, v.props.URL, v.props.Color)

	return nil
}

func (v *Viewer) fail(s *session, err error) {
	v.logger.Printf("viewer: %v", err)
	s.loadErr = err
	s.setState(StateFailed)
}

// load runs off the lock; only its completion touches the session, and only
// if the session is still the one that started it.
func (v *Viewer) load(ctx context.Context, gen uint64, url, colorName string) {
	mesh, err := v.loader.Load(ctx, url)

	var result normalize.Result
	if err == nil {
		normalize.EnsureNormals(mesh)
		result = normalize.Normalize(mesh)
	}

	v.mu.Lock()
	s := v.session
	if s == nil || s.gen != gen || s.state != StateLoading {
		v.mu.Unlock()
		return
	}

	if err != nil {
		v.logger.Printf("viewer: failed to load mesh %s: %v", url, err)
		s.loadErr = err
		s.setState(StateFailed)
		v.mu.Unlock()
		return
	}

	if derr := result.Err(); derr != nil {
		v.logger.Printf("viewer: warning: %s: %v", url, derr)
	}

	if err := s.build(mesh.Positions, mesh.Normals, colors.RGBA(colorName), result); err != nil {
		v.logger.Printf("viewer: failed to build scene for %s: %v", url, err)
		s.loadErr = err
		s.setState(StateFailed)
		v.mu.Unlock()
		return
	}

	s.result = result
	s.setState(StateReady)
	s.tick = v.frame(gen)
	s.frame = v.scheduler.RequestFrame(s.tick)
	s.looping = true

	callback := v.props.OnDimensionsCalculated
	v.mu.Unlock()

	if callback != nil {
		v.notify(callback, result.Dimensions)
	}
}

func (v *Viewer) notify(fn func(normalize.Dimensions), d normalize.Dimensions) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Printf("viewer: dimensions callback panicked: %v", r)
		}
	}()
	fn(d)
}

// frame returns the per-frame callback of session gen. Each tick advances
// the controls, draws, and schedules the next tick.
func (v *Viewer) frame(gen uint64) func(time.Time) {
	return func(time.Time) {
		v.mu.Lock()
		defer v.mu.Unlock()

		s := v.session
		if s == nil || s.gen != gen || s.state != StateReady {
			return
		}

		s.controls.Update()
		if err := s.ctx.Render(s.scene, s.camera); err != nil {
			v.logger.Printf("viewer: render failed: %v", err)
			s.looping = false
			return
		}
		s.frames++
		s.frame = v.scheduler.RequestFrame(s.tick)
	}
}

func (v *Viewer) resize(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.session
	if s == nil || s.gen != gen || s.torn || s.ctx == nil || v.container == nil {
		return
	}

	width := v.container.Width()
	if width <= 0 {
		width = s.mountWidth
	}
	if width == s.width {
		return
	}

	s.width = width
	s.camera.SetAspect(float64(width) / float64(s.height))
	s.ctx.SetSize(width, s.height)
}

// teardown releases the current session. The caller holds v.mu.
func (v *Viewer) teardown() {
	s := v.session
	if s == nil || s.torn {
		return
	}
	s.torn = true
	s.setState(StateTearingDown)

	if s.cancel != nil {
		v.guard("cancel load", func() error { s.cancel(); return nil })
	}
	if s.looping {
		v.guard("cancel frame", func() error {
			v.scheduler.CancelFrame(s.frame)
			s.looping = false
			return nil
		})
	}
	if s.observer != nil {
		v.guard("disconnect resize observer", s.observer.Disconnect)
	}
	if s.controls != nil {
		v.guard("dispose controls", func() error { s.controls.Dispose(); return nil })
	}
	if s.scene != nil && s.scene.Mesh != nil {
		v.guard("dispose mesh", func() error { s.scene.Mesh.Dispose(); return nil })
	}
	if s.scene != nil && s.scene.Ground != nil {
		v.guard("dispose ground", func() error { s.scene.Ground.Dispose(); return nil })
	}
	if s.ctx != nil {
		v.guard("dispose context", func() error { s.ctx.Dispose(); return nil })
	}
	if s.appended && v.container != nil {
		v.guard("remove surface", func() error { return v.container.Remove(s.ctx.Surface()) })
	}

	s.setState(StateUnmounted)
	v.session = nil
}

// guard runs one teardown step so that a failing step never stops the rest
func (v *Viewer) guard(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Printf("viewer: %s panicked: %v", step, r)
		}
	}()
	if err := fn(); err != nil {
		v.logger.Printf("viewer: %s: %v", step, err)
	}
}
