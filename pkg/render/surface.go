package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
)

// EventKind identifies a pointer event delivered to a surface
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	Wheel
)

// Button identifies the pointer button of a drag
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Event is a pointer event in logical surface coordinates
type Event struct {
	Kind   EventKind
	X, Y   float64
	Button Button
	// DeltaY is the wheel delta; positive scrolls away from the user
	DeltaY float64
}

// ListenerID identifies a registered event listener
type ListenerID int

type listener struct {
	id ListenerID
	fn func(Event)
}

// Surface is a color and depth buffer plus the event target of the view.
// Its logical size is what hosts lay out; the backing buffer is scaled by
// the pixel ratio.
type Surface struct {
	mu         sync.RWMutex
	width      int
	height     int
	pixelRatio float64
	color      *image.RGBA
	depth      []float64

	listenersMu sync.Mutex
	listeners   []listener
	nextID      ListenerID
}

// NewSurface allocates a surface of the given logical size
func NewSurface(width, height int, pixelRatio float64) *Surface {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	s := &Surface{pixelRatio: pixelRatio}
	s.resize(width, height)
	return s
}

func (s *Surface) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.width = width
	s.height = height

	pw, ph := s.physical()
	s.color = image.NewRGBA(image.Rect(0, 0, pw, ph))
	s.depth = make([]float64, pw*ph)
}

func (s *Surface) physical() (int, int) {
	return int(math.Round(float64(s.width) * s.pixelRatio)), int(math.Round(float64(s.height) * s.pixelRatio))
}

// SetSize resizes the surface. The buffers are reallocated only when the
// size actually changes.
func (s *Surface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.width && height == s.height {
		return
	}
	s.resize(width, height)
}

// Size returns the logical size
func (s *Surface) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// PhysicalSize returns the size of the backing buffer
func (s *Surface) PhysicalSize() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.physical()
}

// PixelRatio returns the ratio between backing and logical pixels
func (s *Surface) PixelRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pixelRatio
}

// Clear fills the color buffer and resets depth
func (s *Surface) Clear(bg color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear(bg)
}

func (s *Surface) clear(bg color.RGBA) {
	draw.Draw(s.color, s.color.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if n := len(s.depth); n > 0 {
		s.depth[0] = math.MaxFloat64
		for i := 1; i < n; i *= 2 {
			copy(s.depth[i:], s.depth[:i])
		}
	}
}

// Snapshot copies the backing buffer at full resolution
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img := image.NewRGBA(s.color.Bounds())
	copy(img.Pix, s.color.Pix)
	return img
}

// Image returns a copy of the frame scaled to the logical size
func (s *Surface) Image() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	if s.pixelRatio == 1 {
		copy(dst.Pix, s.color.Pix)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), s.color, s.color.Bounds(), draw.Src, nil)
	return dst
}

// At returns the logical pixel at x, y
func (s *Surface) At(x, y int) color.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	px := int(float64(x) * s.pixelRatio)
	py := int(float64(y) * s.pixelRatio)
	return s.color.RGBAAt(px, py)
}

// Pixel returns the color at a physical pixel
func (s *Surface) Pixel(x, y int) color.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.color.RGBAAt(x, y)
}

// AddEventListener registers fn for every event dispatched to the surface
func (s *Surface) AddEventListener(fn func(Event)) ListenerID {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.nextID++
	s.listeners = append(s.listeners, listener{id: s.nextID, fn: fn})
	return s.nextID
}

// RemoveEventListener unregisters a listener; unknown ids are ignored
func (s *Surface) RemoveEventListener(id ListenerID) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners
func (s *Surface) ListenerCount() int {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return len(s.listeners)
}

// Dispatch delivers an event to every listener
func (s *Surface) Dispatch(e Event) {
	s.listenersMu.Lock()
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.listenersMu.Unlock()

	for _, l := range ls {
		l.fn(e)
	}
}
