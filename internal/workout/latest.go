package workout

import (
	"context"
	"sync"
)

// Latest keeps the result of the most recently issued request. Starting a new
// request cancels the previous one, and results from superseded requests are
// discarded.
type Latest[T any] struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	val    T
	ok     bool
}

// Begin issues a new request. The returned context is cancelled when a newer
// request begins or Close is called.
func (l *Latest[T]) Begin(ctx context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.seq++
	return ctx, l.seq
}

// Apply stores v if seq is the most recently issued request and reports
// whether it did.
func (l *Latest[T]) Apply(seq uint64, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return false
	}
	l.val, l.ok = v, true
	return true
}

// Value returns the freshest applied result.
func (l *Latest[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.val, l.ok
}

// Close cancels the in-flight request, if any.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
