package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/claude/lightweight/internal/workout"
)

// watcher keeps the freshest view of the session in progress and redraws a
// one-line status. Between polls a local ticker advances the clock while the
// session is active.
type watcher struct {
	out    io.Writer
	fetch  func(ctx context.Context) (*workout.SessionView, error)
	latest workout.Latest[*workout.SessionView]
	ticker *workout.Ticker

	mu sync.Mutex
}

func newWatcher(out io.Writer, fetch func(ctx context.Context) (*workout.SessionView, error)) *watcher {
	w := &watcher{out: out, fetch: fetch}
	w.ticker = workout.NewTicker(time.Second, w.render)
	return w
}

// refresh fetches a new view. A fetch that is superseded by a newer refresh
// is dropped.
func (w *watcher) refresh(ctx context.Context) error {
	reqCtx, seq := w.latest.Begin(ctx)
	v, err := w.fetch(reqCtx)
	if err != nil {
		return err
	}
	if !w.latest.Apply(seq, v) {
		return nil
	}
	if v == nil {
		w.ticker.Stop()
	} else {
		w.ticker.Sync(v.Status)
	}
	w.render(time.Now())
	return nil
}

// line renders the status line for the current view at now.
func (w *watcher) line(now time.Time) string {
	v, ok := w.latest.Value()
	if !ok || v == nil {
		return "No session in progress."
	}
	elapsed := workout.SessionElapsed(v.Session, now)
	sets := 0
	for _, ev := range v.Exercises {
		sets += len(ev.Sets)
	}
	return fmt.Sprintf("%s  %s  %s  %d exercises, %d sets",
		sessionTitle(v.Session), v.Status, workout.FormatElapsed(elapsed), len(v.Exercises), sets)
}

func (w *watcher) render(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "\r\033[K%s", w.line(now))
}

func (w *watcher) close() {
	w.ticker.Stop()
	w.latest.Close()
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("lw watch", flag.ContinueOnError)
	poll := fs.Duration("poll", 5*time.Second, "how often to refresh from the server")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *poll <= 0 {
		return fmt.Errorf("-poll must be positive")
	}

	w := newWatcher(a.out, a.client.ActiveView)
	defer w.close()
	defer fmt.Fprintln(a.out)

	if err := w.refresh(ctx); err != nil {
		return err
	}
	t := time.NewTicker(*poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := w.refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.log.Warn("refresh failed", "error", err)
			}
		}
	}
}
