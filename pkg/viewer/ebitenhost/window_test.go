package ebitenhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printfarm/meshview/pkg/render"
)

func TestWindowContainer(t *testing.T) {
	w := NewWindow(640, 360)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 1.0, w.PixelRatio())

	s := render.NewSurface(640, 360, 1)
	require.NoError(t, w.Append(s))
	assert.Same(t, s, w.current())
	assert.ErrorIs(t, w.Remove(render.NewSurface(1, 1, 1)), ErrNotChild)
	require.NoError(t, w.Remove(s))
	assert.Nil(t, w.current())
}

func TestWindowObservers(t *testing.T) {
	w := NewWindow(640, 360)

	obs, err := w.ObserveResize(func() {})
	require.NoError(t, err)
	assert.Len(t, w.observers, 1)
	require.NoError(t, obs.Disconnect())
	assert.Empty(t, w.observers)
}

func TestWindowSchedulesFrames(t *testing.T) {
	w := NewWindow(640, 360)

	ran := 0
	id := w.RequestFrame(func(time.Time) { ran++ })
	w.RequestFrame(func(time.Time) { ran += 10 })
	w.CancelFrame(id)

	assert.Equal(t, 1, w.FrameQueue.Run(time.Now()))
	assert.Equal(t, 10, ran)
}

func TestWindowClose(t *testing.T) {
	w := NewWindow(640, 360)
	w.SetCaption("10.0 x 5.0 x 2.0")
	w.Close()
	assert.Error(t, w.Update())
}
