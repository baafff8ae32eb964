// Package fynehost hosts a viewer inside a fyne window
package fynehost

import (
	"errors"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/printfarm/meshview/pkg/render"
	"github.com/printfarm/meshview/pkg/viewer"
)

// ErrNotChild is returned when removing a surface the view does not show
var ErrNotChild = errors.New("surface is not shown by this view")

// View is a fyne widget that implements viewer.Container and
// render.FrameScheduler. Frames run on a ticker and are presented on the
// fyne main goroutine.
type View struct {
	widget.BaseWidget

	ticker *render.TickerScheduler
	image  *canvas.Image

	mu        sync.Mutex
	width     int
	minHeight int
	surface   *render.Surface
	observers map[int]func()
	nextID    int

	pressed bool
}

var (
	_ viewer.Container          = (*View)(nil)
	_ viewer.PixelRatioProvider = (*View)(nil)
	_ render.FrameScheduler     = (*View)(nil)
	_ desktop.Mouseable         = (*View)(nil)
	_ desktop.Hoverable         = (*View)(nil)
	_ fyne.Draggable            = (*View)(nil)
	_ fyne.Scrollable           = (*View)(nil)
)

// NewView creates a view at least minHeight tall, refreshing fps times per
// second
func NewView(minHeight, fps int) *View {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleSmooth

	v := &View{
		ticker:    render.NewTickerScheduler(fps),
		image:     img,
		minHeight: minHeight,
		observers: make(map[int]func()),
	}
	v.ExtendBaseWidget(v)
	return v
}

// Stop halts the frame ticker
func (v *View) Stop() {
	v.ticker.Stop()
}

// RequestFrame implements render.FrameScheduler. The surface is presented
// after fn ran.
func (v *View) RequestFrame(fn func(time.Time)) render.FrameID {
	return v.ticker.RequestFrame(func(now time.Time) {
		fn(now)
		v.present()
	})
}

// CancelFrame implements render.FrameScheduler
func (v *View) CancelFrame(id render.FrameID) {
	v.ticker.CancelFrame(id)
}

func (v *View) present() {
	v.mu.Lock()
	s := v.surface
	v.mu.Unlock()
	if s == nil {
		return
	}

	// the backing buffer goes out at physical size and fyne scales it down
	snap := s.Snapshot()
	fyne.Do(func() {
		v.image.Image = snap
		v.image.Refresh()
	})
}

// Width implements viewer.Container
func (v *View) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width
}

// PixelRatio implements viewer.PixelRatioProvider
func (v *View) PixelRatio() float64 {
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(v); c != nil {
			return float64(c.Scale())
		}
	}
	return 1
}

// Append implements viewer.Container
func (v *View) Append(s *render.Surface) error {
	v.mu.Lock()
	v.surface = s
	v.mu.Unlock()

	v.present()
	return nil
}

// Remove implements viewer.Container
func (v *View) Remove(s *render.Surface) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface != s {
		return ErrNotChild
	}
	v.surface = nil
	return nil
}

// ObserveResize implements viewer.Container
func (v *View) ObserveResize(fn func()) (viewer.ResizeObserver, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	v.observers[v.nextID] = fn
	return &observer{v: v, id: v.nextID}, nil
}

type observer struct {
	v  *View
	id int
}

func (o *observer) Disconnect() error {
	o.v.mu.Lock()
	defer o.v.mu.Unlock()
	delete(o.v.observers, o.id)
	return nil
}

func (v *View) setWidth(width int) {
	v.mu.Lock()
	if width == v.width {
		v.mu.Unlock()
		return
	}
	v.width = width
	fns := make([]func(), 0, len(v.observers))
	for _, fn := range v.observers {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (v *View) dispatch(e render.Event) {
	v.mu.Lock()
	s := v.surface
	v.mu.Unlock()
	if s != nil {
		s.Dispatch(e)
	}
}

// MouseDown implements desktop.Mouseable
func (v *View) MouseDown(e *desktop.MouseEvent) {
	button := render.ButtonPrimary
	if e.Button == desktop.MouseButtonSecondary {
		button = render.ButtonSecondary
	}
	v.pressed = true
	v.dispatch(render.Event{
		Kind:   render.PointerDown,
		X:      float64(e.Position.X),
		Y:      float64(e.Position.Y),
		Button: button,
	})
}

// MouseUp implements desktop.Mouseable
func (v *View) MouseUp(e *desktop.MouseEvent) {
	v.release(e.Position)
}

func (v *View) release(pos fyne.Position) {
	if !v.pressed {
		return
	}
	v.pressed = false
	v.dispatch(render.Event{Kind: render.PointerUp, X: float64(pos.X), Y: float64(pos.Y)})
}

// MouseIn implements desktop.Hoverable
func (v *View) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable. Secondary button drags arrive
// here instead of Dragged.
func (v *View) MouseMoved(e *desktop.MouseEvent) {
	if v.pressed {
		v.move(e.Position)
	}
}

// MouseOut implements desktop.Hoverable
func (v *View) MouseOut() {}

// Dragged implements fyne.Draggable
func (v *View) Dragged(e *fyne.DragEvent) {
	v.move(e.Position)
}

// DragEnd implements fyne.Draggable
func (v *View) DragEnd() {
	v.release(fyne.Position{})
}

func (v *View) move(pos fyne.Position) {
	v.dispatch(render.Event{Kind: render.PointerMove, X: float64(pos.X), Y: float64(pos.Y)})
}

// Scrolled implements fyne.Scrollable
func (v *View) Scrolled(e *fyne.ScrollEvent) {
	// fyne reports scrolling up as positive, which zooms in
	v.dispatch(render.Event{
		Kind:   render.Wheel,
		X:      float64(e.Position.X),
		Y:      float64(e.Position.Y),
		DeltaY: -float64(e.Scrolled.DY),
	})
}

// CreateRenderer implements fyne.Widget
func (v *View) CreateRenderer() fyne.WidgetRenderer {
	return &viewRenderer{view: v}
}

type viewRenderer struct {
	view *View
}

func (r *viewRenderer) Layout(size fyne.Size) {
	r.view.image.Resize(size)
	r.view.setWidth(int(size.Width))
}

func (r *viewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, float32(r.view.minHeight))
}

func (r *viewRenderer) Refresh() {
	r.view.image.Refresh()
}

func (r *viewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.image}
}

func (r *viewRenderer) Destroy() {}
