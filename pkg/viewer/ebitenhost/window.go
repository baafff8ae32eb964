// Package ebitenhost hosts a viewer in an ebiten window. The window is the
// container and its game loop is the frame scheduler.
package ebitenhost

import (
	"errors"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/printfarm/meshview/pkg/render"
	"github.com/printfarm/meshview/pkg/viewer"
)

// ErrNotChild is returned when removing a surface the window does not show
var ErrNotChild = errors.New("surface is not shown by this window")

// Window is an ebiten.Game that implements viewer.Container and
// render.FrameScheduler
type Window struct {
	render.FrameQueue

	mu         sync.Mutex
	width      int
	height     int
	pixelRatio float64
	surface    *render.Surface
	observers  map[int]func()
	nextID     int
	caption    string

	img      *ebiten.Image
	pressed  bool
	lastX    int
	lastY    int
	closeErr error
}

var (
	_ ebiten.Game               = (*Window)(nil)
	_ viewer.Container          = (*Window)(nil)
	_ viewer.PixelRatioProvider = (*Window)(nil)
	_ render.FrameScheduler     = (*Window)(nil)
)

// NewWindow creates a window of the given logical size
func NewWindow(width, height int) *Window {
	return &Window{
		width:      width,
		height:     height,
		pixelRatio: 1,
		observers:  make(map[int]func()),
	}
}

// Open shows the window and blocks until it is closed
func (w *Window) Open(title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(w)
}

// SetCaption sets the text drawn in the top left corner
func (w *Window) SetCaption(caption string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.caption = caption
}

// Close ends the game loop on the next update
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeErr = ebiten.Termination
}

// Width implements viewer.Container
func (w *Window) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

// PixelRatio implements viewer.PixelRatioProvider
func (w *Window) PixelRatio() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pixelRatio
}

// Append implements viewer.Container
func (w *Window) Append(s *render.Surface) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.surface = s
	return nil
}

// Remove implements viewer.Container
func (w *Window) Remove(s *render.Surface) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.surface != s {
		return ErrNotChild
	}
	w.surface = nil
	return nil
}

// ObserveResize implements viewer.Container
func (w *Window) ObserveResize(fn func()) (viewer.ResizeObserver, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	w.observers[w.nextID] = fn
	return &observer{w: w, id: w.nextID}, nil
}

type observer struct {
	w  *Window
	id int
}

func (o *observer) Disconnect() error {
	o.w.mu.Lock()
	defer o.w.mu.Unlock()
	delete(o.w.observers, o.id)
	return nil
}

func (w *Window) current() *render.Surface {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.surface
}

// Update polls input, then runs the frame callbacks
func (w *Window) Update() error {
	w.mu.Lock()
	err := w.closeErr
	w.mu.Unlock()
	if err != nil {
		return err
	}

	if s := w.current(); s != nil {
		w.poll(s)
	}
	w.Run(time.Now())
	return nil
}

func (w *Window) poll(s *render.Surface) {
	x, y := ebiten.CursorPosition()

	for _, b := range []struct {
		mouse  ebiten.MouseButton
		button render.Button
	}{
		{ebiten.MouseButtonLeft, render.ButtonPrimary},
		{ebiten.MouseButtonRight, render.ButtonSecondary},
	} {
		if inpututil.IsMouseButtonJustPressed(b.mouse) {
			w.pressed = true
			w.lastX, w.lastY = x, y
			s.Dispatch(render.Event{Kind: render.PointerDown, X: float64(x), Y: float64(y), Button: b.button})
		}
		if inpututil.IsMouseButtonJustReleased(b.mouse) && w.pressed {
			w.pressed = false
			s.Dispatch(render.Event{Kind: render.PointerUp, X: float64(x), Y: float64(y)})
		}
	}

	if w.pressed && (x != w.lastX || y != w.lastY) {
		w.lastX, w.lastY = x, y
		s.Dispatch(render.Event{Kind: render.PointerMove, X: float64(x), Y: float64(y)})
	}

	// ebiten reports wheel up as positive, which zooms in
	if _, dy := ebiten.Wheel(); dy != 0 {
		s.Dispatch(render.Event{Kind: render.Wheel, X: float64(x), Y: float64(y), DeltaY: -dy})
	}
}

// Draw copies the surface to the screen
func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(render.DefaultBackground)

	s := w.current()
	if s == nil {
		return
	}

	snap := s.Snapshot()
	pw, ph := snap.Bounds().Dx(), snap.Bounds().Dy()
	if pw == 0 || ph == 0 {
		return
	}
	if w.img == nil || w.img.Bounds().Dx() != pw || w.img.Bounds().Dy() != ph {
		if w.img != nil {
			w.img.Deallocate()
		}
		w.img = ebiten.NewImage(pw, ph)
	}
	w.img.WritePixels(snap.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(1/s.PixelRatio(), 1/s.PixelRatio())
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(w.img, op)

	w.mu.Lock()
	caption := w.caption
	w.mu.Unlock()
	if caption != "" {
		ebitenutil.DebugPrint(screen, caption)
	}
}

// Layout keeps the screen at the outside size and notifies resize
// observers when the width changed
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	ratio := 1.0
	if m := ebiten.Monitor(); m != nil {
		ratio = m.DeviceScaleFactor()
	}

	w.mu.Lock()
	w.pixelRatio = ratio
	changed := outsideWidth != w.width
	w.width = outsideWidth
	w.height = outsideHeight
	var fns []func()
	if changed {
		for _, fn := range w.observers {
			fns = append(fns, fn)
		}
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return outsideWidth, outsideHeight
}
