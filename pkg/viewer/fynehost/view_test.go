package fynehost

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printfarm/meshview/pkg/render"
)

func TestViewResizeNotifiesObservers(t *testing.T) {
	test.NewTempApp(t)
	v := NewView(360, 30)
	t.Cleanup(v.Stop)

	calls := 0
	obs, err := v.ObserveResize(func() { calls++ })
	require.NoError(t, err)

	r := v.CreateRenderer()
	r.Layout(fyne.NewSize(640, 360))
	assert.Equal(t, 640, v.Width())
	assert.Equal(t, 1, calls)

	r.Layout(fyne.NewSize(640, 400))
	assert.Equal(t, 1, calls, "height changes do not resize the viewer")

	require.NoError(t, obs.Disconnect())
	r.Layout(fyne.NewSize(320, 360))
	assert.Equal(t, 1, calls)
	assert.Equal(t, float32(360), r.MinSize().Height)
}

func TestViewAppendRemove(t *testing.T) {
	test.NewTempApp(t)
	v := NewView(360, 30)
	t.Cleanup(v.Stop)

	s := render.NewSurface(10, 10, 1)
	require.NoError(t, v.Append(s))
	assert.ErrorIs(t, v.Remove(render.NewSurface(10, 10, 1)), ErrNotChild)
	require.NoError(t, v.Remove(s))
	assert.ErrorIs(t, v.Remove(s), ErrNotChild)
}

func TestViewForwardsPointerEvents(t *testing.T) {
	test.NewTempApp(t)
	v := NewView(360, 30)
	t.Cleanup(v.Stop)

	s := render.NewSurface(100, 100, 1)
	require.NoError(t, v.Append(s))

	var events []render.Event
	s.AddEventListener(func(e render.Event) { events = append(events, e) })

	v.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)}, Button: desktop.MouseButtonSecondary})
	v.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(20, 10)}})
	v.MouseUp(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(20, 10)}})
	v.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 10)}})
	v.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, 2)})

	require.Len(t, events, 4)
	assert.Equal(t, render.PointerDown, events[0].Kind)
	assert.Equal(t, render.ButtonSecondary, events[0].Button)
	assert.Equal(t, render.PointerMove, events[1].Kind)
	assert.Equal(t, 20.0, events[1].X)
	assert.Equal(t, render.PointerUp, events[2].Kind)
	assert.Equal(t, render.Wheel, events[3].Kind)
	assert.Equal(t, -2.0, events[3].DeltaY)
}
