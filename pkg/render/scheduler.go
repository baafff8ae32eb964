package render

import (
	"sync"
	"time"
)

// FrameID identifies a requested frame callback
type FrameID uint64

// FrameScheduler is the host's display refresh mechanism. A requested
// callback runs once, on the next frame, unless cancelled first.
type FrameScheduler interface {
	RequestFrame(fn func(time.Time)) FrameID
	CancelFrame(id FrameID)
}

// FrameQueue holds pending frame callbacks. Hosts embed it and call Run
// once per display refresh.
type FrameQueue struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func(time.Time)
	order   []FrameID
}

// RequestFrame queues fn for the next Run
func (q *FrameQueue) RequestFrame(fn func(time.Time)) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[FrameID]func(time.Time))
	}
	q.next++
	q.pending[q.next] = fn
	q.order = append(q.order, q.next)
	return q.next
}

// CancelFrame drops a queued callback; unknown ids are ignored
func (q *FrameQueue) CancelFrame(id FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
}

// Pending returns the number of queued callbacks
func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run invokes every callback queued before the call. Callbacks requested
// while running wait for the next Run. It returns how many callbacks ran.
func (q *FrameQueue) Run(now time.Time) int {
	q.mu.Lock()
	batch := q.order
	q.order = nil
	q.mu.Unlock()

	ran := 0
	for _, id := range batch {
		// a callback may cancel a later one of the same batch
		q.mu.Lock()
		fn, ok := q.pending[id]
		delete(q.pending, id)
		q.mu.Unlock()
		if !ok {
			continue
		}
		fn(now)
		ran++
	}
	return ran
}

// TickerScheduler runs frame callbacks from a ticker goroutine
type TickerScheduler struct {
	FrameQueue
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewTickerScheduler starts a scheduler ticking fps times per second
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	s := &TickerScheduler{
		ticker: time.NewTicker(time.Second / time.Duration(fps)),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *TickerScheduler) loop() {
	for {
		select {
		case now := <-s.ticker.C:
			s.Run(now)
		case <-s.done:
			return
		}
	}
}

// Stop halts the ticker. Pending callbacks never run.
func (s *TickerScheduler) Stop() {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}
