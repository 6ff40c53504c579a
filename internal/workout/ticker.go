package workout

import (
	"sync"
	"time"

	"github.com/claude/lightweight/internal/models"
)

// Ticker drives periodic recomputation of the elapsed-time display. It runs
// only while the session is active; fn must not call Stop.
type Ticker struct {
	interval time.Duration
	fn       func(now time.Time)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTicker returns a stopped ticker that calls fn every interval once started.
func NewTicker(interval time.Duration, fn func(now time.Time)) *Ticker {
	return &Ticker{interval: interval, fn: fn}
}

// Start begins ticking. It is a no-op if already running.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-tk.C:
				select {
				case <-stop:
					return
				default:
				}
				t.fn(now)
			}
		}
	}()
}

// Stop cancels ticking and waits for the tick goroutine to exit. Safe to call
// repeatedly.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Sync starts the ticker for an active session and stops it for any other status.
func (t *Ticker) Sync(status models.Status) {
	if status == models.StatusActive {
		t.Start()
		return
	}
	t.Stop()
}

// Running reports whether the ticker is started.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
