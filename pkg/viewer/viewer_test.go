package viewer_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printfarm/meshview/pkg/geometry"
	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/render"
	"github.com/printfarm/meshview/pkg/viewer"
	"github.com/printfarm/meshview/pkg/viewer/headless"
)

// box returns the 12 triangles of an axis-aligned box from min to max
func box(min, max geometry.Vector3) *geometry.Mesh {
	c := func(x, y, z int) geometry.Vector3 {
		v := min
		if x == 1 {
			v.X = max.X
		}
		if y == 1 {
			v.Y = max.Y
		}
		if z == 1 {
			v.Z = max.Z
		}
		return v
	}
	quads := [][4]geometry.Vector3{
		{c(0, 0, 0), c(0, 1, 0), c(1, 1, 0), c(1, 0, 0)},
		{c(0, 0, 1), c(1, 0, 1), c(1, 1, 1), c(0, 1, 1)},
		{c(0, 0, 0), c(1, 0, 0), c(1, 0, 1), c(0, 0, 1)},
		{c(0, 1, 0), c(0, 1, 1), c(1, 1, 1), c(1, 1, 0)},
		{c(0, 0, 0), c(0, 0, 1), c(0, 1, 1), c(0, 1, 0)},
		{c(1, 0, 0), c(1, 1, 0), c(1, 1, 1), c(1, 0, 1)},
	}
	m := &geometry.Mesh{}
	for _, q := range quads {
		m.Positions = append(m.Positions, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return m
}

// fakeLoader serves meshes from memory. A gated URL blocks until its gate is
// closed, ignoring cancellation, like a fetch that cannot be aborted.
type fakeLoader struct {
	mu     sync.Mutex
	meshes map[string]func() *geometry.Mesh
	errs   map[string]error
	gates  map[string]chan struct{}
	done   map[string]chan struct{}
	calls  map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		meshes: map[string]func() *geometry.Mesh{},
		errs:   map[string]error{},
		gates:  map[string]chan struct{}{},
		done:   map[string]chan struct{}{},
		calls:  map[string]int{},
	}
}

func (l *fakeLoader) add(url string, mk func() *geometry.Mesh) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meshes[url] = mk
}

func (l *fakeLoader) gate(url string) (release func(), finished <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gate := make(chan struct{})
	done := make(chan struct{})
	l.gates[url] = gate
	l.done[url] = done
	return func() { close(gate) }, done
}

func (l *fakeLoader) Load(ctx context.Context, url string) (*geometry.Mesh, error) {
	l.mu.Lock()
	l.calls[url]++
	gate, done := l.gates[url], l.done[url]
	mk, err := l.meshes[url], l.errs[url]
	l.mu.Unlock()

	if gate != nil {
		<-gate
		defer close(done)
	}
	if err != nil {
		return nil, err
	}
	if mk == nil {
		return nil, errors.New("not found: " + url)
	}
	return mk(), nil
}

func (l *fakeLoader) count(url string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[url]
}

type fixture struct {
	device    *render.Device
	scheduler *headless.Scheduler
	container *headless.Container
	loader    *fakeLoader
	logs      *bytes.Buffer
	viewer    *viewer.Viewer
}

func newFixture(width int) *fixture {
	f := &fixture{
		device:    render.NewDevice(0),
		scheduler: headless.NewScheduler(),
		container: headless.NewContainer(width),
		loader:    newFakeLoader(),
		logs:      &bytes.Buffer{},
	}
	f.loader.add("box.stl", func() *geometry.Mesh {
		return box(geometry.NewVector3(-3.5, 12.25, 100), geometry.NewVector3(6.5, 17.25, 102))
	})
	f.viewer = viewer.New(f.device, f.scheduler, f.loader, viewer.WithLogger(log.New(f.logs, "", 0)))
	return f
}

func wait(t *testing.T, v *viewer.Viewer) (viewer.State, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return v.Wait(ctx)
}

func TestViewerEndToEnd(t *testing.T) {
	f := newFixture(600)

	var mu sync.Mutex
	var got []normalize.Dimensions
	props := viewer.Props{
		URL:    "box.stl",
		Height: 360,
		Color:  "red",
		OnDimensionsCalculated: func(d normalize.Dimensions) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, d)
		},
	}

	require.NoError(t, f.viewer.Mount(f.container, props))
	state, err := wait(t, f.viewer)
	require.NoError(t, err)
	require.Equal(t, viewer.StateReady, state)

	expected := normalize.Dimensions{Width: 10, Height: 5, Depth: 2}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []normalize.Dimensions{expected}, got)
	mu.Unlock()

	dims, ok := f.viewer.Dimensions()
	assert.True(t, ok)
	assert.Equal(t, expected, dims)

	snap := f.viewer.Snapshot()
	assert.Equal(t, 600, snap.Width)
	assert.Equal(t, 360, snap.Height)
	assert.Equal(t, 3, snap.Render.Geometries, "mesh, ground plane and grid")
	assert.Equal(t, 3, snap.Render.Materials)

	assert.Equal(t, 1, f.scheduler.Step())
	assert.Equal(t, 1, f.scheduler.Step())
	assert.Equal(t, 2, f.viewer.Snapshot().Frames)

	surface := f.container.Surface()
	require.NotNil(t, surface)
	w, h := surface.Size()
	assert.Equal(t, 600, w)
	assert.Equal(t, 360, h)
	assert.NotEqual(t, render.DefaultBackground, surface.At(300, 180), "mesh is drawn at the center")

	f.viewer.Unmount()
	assert.Equal(t, viewer.StateUnmounted, f.viewer.State())
}

func TestViewerResize(t *testing.T) {
	f := newFixture(600)
	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "box.stl", Height: 300}))
	state, err := wait(t, f.viewer)
	require.NoError(t, err)
	require.Equal(t, viewer.StateReady, state)

	f.scheduler.Step()
	before := f.viewer.Snapshot()
	assert.InDelta(t, 2.0, before.Aspect, 1e-12)

	f.container.SetWidth(300)

	after := f.viewer.Snapshot()
	assert.Equal(t, 300, after.Width)
	assert.InDelta(t, 1.0, after.Aspect, 1e-12)
	assert.Equal(t, before.Generation, after.Generation, "resize does not rebuild")
	assert.Equal(t, viewer.StateReady, after.State)

	w, _ := f.container.Surface().Size()
	assert.Equal(t, 300, w)

	// the existing loop keeps running on the same context
	assert.Equal(t, 1, f.scheduler.Pending())
	f.scheduler.Step()
	assert.Equal(t, before.Frames+1, f.viewer.Snapshot().Frames)
	assert.Equal(t, 1, f.loader.count("box.stl"))
	assert.Equal(t, 1, f.device.Acquisitions())

	// an unsized container falls back to the mount width
	f.container.SetWidth(0)
	assert.Equal(t, 600, f.viewer.Snapshot().Width)

	f.viewer.Unmount()
}

func TestViewerStaleLoad(t *testing.T) {
	f := newFixture(600)
	f.loader.add("slow.stl", func() *geometry.Mesh {
		return box(geometry.Vector3{}, geometry.NewVector3(1, 1, 1))
	})
	release, finished := f.loader.gate("slow.stl")

	var mu sync.Mutex
	var got []normalize.Dimensions
	record := func(d normalize.Dimensions) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, d)
	}

	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "slow.stl", OnDimensionsCalculated: record}))
	assert.Equal(t, viewer.StateLoading, f.viewer.State())

	require.NoError(t, f.viewer.Update(viewer.Props{URL: "box.stl", OnDimensionsCalculated: record}))
	state, err := wait(t, f.viewer)
	require.NoError(t, err)
	require.Equal(t, viewer.StateReady, state)
	generation := f.viewer.Snapshot().Generation

	release()
	<-finished
	// give the stale completion handler time to run
	time.Sleep(20 * time.Millisecond)

	dims, ok := f.viewer.Dimensions()
	require.True(t, ok)
	assert.Equal(t, normalize.Dimensions{Width: 10, Height: 5, Depth: 2}, dims)
	assert.Equal(t, generation, f.viewer.Snapshot().Generation)
	assert.Equal(t, 1, f.scheduler.Pending(), "only the current loop is scheduled")

	mu.Lock()
	assert.Equal(t, []normalize.Dimensions{{Width: 10, Height: 5, Depth: 2}}, got)
	mu.Unlock()

	f.viewer.Unmount()
}

func TestViewerTeardownIdempotent(t *testing.T) {
	f := newFixture(600)
	f.loader.add("slow.stl", func() *geometry.Mesh {
		return box(geometry.Vector3{}, geometry.NewVector3(1, 1, 1))
	})
	release, finished := f.loader.gate("slow.stl")

	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "slow.stl"}))
	require.True(t, f.device.Busy())
	require.Equal(t, 1, f.container.Observers())

	f.viewer.Unmount()
	f.viewer.Unmount()

	assert.False(t, f.device.Busy())
	assert.Empty(t, f.container.Children())
	assert.Zero(t, f.container.Observers())
	assert.Equal(t, viewer.StateUnmounted, f.viewer.State())

	release()
	<-finished
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, viewer.StateUnmounted, f.viewer.State())
	assert.False(t, f.device.Busy())
	assert.Zero(t, f.scheduler.Pending())
	assert.Empty(t, f.logs.String(), "teardown steps succeed quietly")
}

func TestViewerUnmountStopsLoop(t *testing.T) {
	f := newFixture(600)
	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "box.stl"}))
	_, err := wait(t, f.viewer)
	require.NoError(t, err)
	require.Equal(t, 1, f.scheduler.Pending())

	f.viewer.Unmount()
	assert.Zero(t, f.scheduler.Pending())
	assert.Zero(t, f.scheduler.Step())
}

func TestViewerLoadFailure(t *testing.T) {
	f := newFixture(600)
	f.loader.errs["broken.stl"] = errors.New("boom")

	called := false
	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{
		URL:                    "broken.stl",
		OnDimensionsCalculated: func(normalize.Dimensions) { called = true },
	}))

	state, err := wait(t, f.viewer)
	assert.Equal(t, viewer.StateFailed, state)
	assert.EqualError(t, err, "boom")
	assert.Contains(t, f.logs.String(), "failed to load mesh broken.stl")
	assert.False(t, called)

	_, ok := f.viewer.Dimensions()
	assert.False(t, ok)

	// the idle viewport keeps what it allocated until teardown
	assert.True(t, f.device.Busy())
	require.NotNil(t, f.container.Surface())
	assert.Equal(t, render.DefaultBackground, f.container.Surface().At(10, 10))
	assert.Zero(t, f.scheduler.Pending(), "no loop without a mesh")

	f.viewer.Unmount()
	assert.False(t, f.device.Busy())
	assert.Empty(t, f.container.Children())
}

func TestViewerUpdateRebuilds(t *testing.T) {
	f := newFixture(600)

	var mu sync.Mutex
	calls := 0
	props := viewer.Props{
		URL:   "box.stl",
		Color: "red",
		OnDimensionsCalculated: func(normalize.Dimensions) {
			mu.Lock()
			defer mu.Unlock()
			calls++
		},
	}

	require.NoError(t, f.viewer.Mount(f.container, props))
	_, err := wait(t, f.viewer)
	require.NoError(t, err)
	first := f.viewer.Snapshot()

	// only the callback changed
	props.OnDimensionsCalculated = func(normalize.Dimensions) {
		mu.Lock()
		defer mu.Unlock()
		calls += 10
	}
	require.NoError(t, f.viewer.Update(props))
	assert.Equal(t, first.Generation, f.viewer.Snapshot().Generation)

	props.Color = "blue"
	require.NoError(t, f.viewer.Update(props))
	_, err = wait(t, f.viewer)
	require.NoError(t, err)

	assert.Equal(t, first.Generation+1, f.viewer.Snapshot().Generation)
	assert.Equal(t, 2, f.device.Acquisitions())
	assert.Len(t, f.container.Children(), 1, "old surface removed before the new one is appended")
	assert.Equal(t, 1, f.scheduler.Pending())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 11
	}, time.Second, time.Millisecond)

	props.Height = 200
	require.NoError(t, f.viewer.Update(props))
	_, err = wait(t, f.viewer)
	require.NoError(t, err)
	assert.Equal(t, 200, f.viewer.Snapshot().Height)

	require.NoError(t, f.viewer.Reload())
	_, err = wait(t, f.viewer)
	require.NoError(t, err)
	assert.Equal(t, 4, f.device.Acquisitions())

	f.viewer.Unmount()
	assert.ErrorIs(t, f.viewer.Update(props), viewer.ErrNotMounted)
	assert.ErrorIs(t, f.viewer.Reload(), viewer.ErrNotMounted)
}

func TestViewerSessionsAreDeterministic(t *testing.T) {
	f := newFixture(600)

	var results []normalize.Dimensions
	for i := 0; i < 2; i++ {
		require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "box.stl", Color: "green"}))
		_, err := wait(t, f.viewer)
		require.NoError(t, err)
		dims, ok := f.viewer.Dimensions()
		require.True(t, ok)
		results = append(results, dims)
		f.viewer.Unmount()
	}

	assert.Equal(t, results[0], results[1])
}

func TestViewerDegenerateMesh(t *testing.T) {
	f := newFixture(600)
	f.loader.add("point.stl", func() *geometry.Mesh {
		p := geometry.NewVector3(1, 2, 3)
		return &geometry.Mesh{Positions: []geometry.Vector3{p, p, p}}
	})

	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "point.stl"}))
	state, err := wait(t, f.viewer)
	require.NoError(t, err)
	assert.Equal(t, viewer.StateReady, state)
	assert.Contains(t, f.logs.String(), "degenerate geometry")

	f.scheduler.Step()
	dims, _ := f.viewer.Dimensions()
	assert.Equal(t, normalize.Dimensions{}, dims)

	f.viewer.Unmount()
}

func TestViewerDeviceBusy(t *testing.T) {
	f := newFixture(600)
	other, err := f.device.Acquire(10, 10, 1)
	require.NoError(t, err)

	err = f.viewer.Mount(f.container, viewer.Props{URL: "box.stl"})
	assert.ErrorIs(t, err, render.ErrDeviceBusy)
	assert.Equal(t, viewer.StateFailed, f.viewer.State())
	assert.ErrorIs(t, f.viewer.Mount(f.container, viewer.Props{URL: "box.stl"}), viewer.ErrAlreadyMounted)

	f.viewer.Unmount()
	assert.Empty(t, f.container.Children())

	other.Dispose()
	require.NoError(t, f.viewer.Mount(f.container, viewer.Props{URL: "box.stl"}))
	_, err = wait(t, f.viewer)
	require.NoError(t, err)
	f.viewer.Unmount()
}

// faultyContainer fails every teardown step it is involved in
type faultyContainer struct {
	*headless.Container
}

type panickingObserver struct{}

func (panickingObserver) Disconnect() error {
	panic("observer exploded")
}

func (c *faultyContainer) ObserveResize(func()) (viewer.ResizeObserver, error) {
	return panickingObserver{}, nil
}

func (c *faultyContainer) Remove(*render.Surface) error {
	return errors.New("detached elsewhere")
}

func TestViewerTeardownGuarded(t *testing.T) {
	f := newFixture(600)
	container := &faultyContainer{Container: headless.NewContainer(600)}

	require.NoError(t, f.viewer.Mount(container, viewer.Props{URL: "box.stl"}))
	_, err := wait(t, f.viewer)
	require.NoError(t, err)

	assert.NotPanics(t, f.viewer.Unmount)
	assert.False(t, f.device.Busy(), "context is released after earlier steps fail")
	assert.Zero(t, f.scheduler.Pending())
	assert.Contains(t, f.logs.String(), "observer exploded")
	assert.Contains(t, f.logs.String(), "detached elsewhere")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", viewer.StateReady.String())
	assert.Equal(t, "tearing down", viewer.StateTearingDown.String())
	assert.Equal(t, "State(42)", viewer.State(42).String())
}
