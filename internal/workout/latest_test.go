package workout

import (
	"context"
	"testing"
)

// TestLatestDropsStaleResults verifies a superseded request is cancelled and
// its late result is not applied over a fresher one.
func TestLatestDropsStaleResults(t *testing.T) {
	var l Latest[string]

	ctx1, seq1 := l.Begin(context.Background())
	ctx2, seq2 := l.Begin(context.Background())

	if ctx1.Err() == nil {
		t.Error("first request not cancelled by second")
	}
	if ctx2.Err() != nil {
		t.Error("second request cancelled")
	}

	if !l.Apply(seq2, "fresh") {
		t.Error("latest result rejected")
	}
	if l.Apply(seq1, "stale") {
		t.Error("stale result applied")
	}
	if v, ok := l.Value(); !ok || v != "fresh" {
		t.Errorf("Value = %q, %v, want fresh", v, ok)
	}

	l.Close()
	if ctx2.Err() == nil {
		t.Error("Close did not cancel the in-flight request")
	}
}

func TestLatestEmpty(t *testing.T) {
	var l Latest[int]
	if _, ok := l.Value(); ok {
		t.Error("empty Latest reported a value")
	}
	l.Close()
}
