package workout

import (
	"fmt"
	"time"

	"github.com/claude/lightweight/internal/models"
)

// ElapsedSeconds returns active seconds since startedAt, excluding closed
// pause intervals (pausedSeconds). A non-nil pausedAt means the session is
// paused right now; the clock is frozen at that instant so the result does
// not advance with now. The result is never negative.
func ElapsedSeconds(startedAt time.Time, pausedSeconds int64, pausedAt *time.Time, now time.Time) int64 {
	if pausedAt != nil {
		now = *pausedAt
	}
	raw := now.Sub(startedAt)
	if raw <= 0 {
		return 0
	}
	secs := int64(raw/time.Second) - pausedSeconds
	if secs < 0 {
		return 0
	}
	return secs
}

// SessionElapsed projects a session's active time at now. Finished sessions
// are measured up to their end time.
func SessionElapsed(s *models.Session, now time.Time) int64 {
	if s.Status.IsTerminal() && s.EndedAt != nil {
		now = *s.EndedAt
	}
	return ElapsedSeconds(s.StartedAt, s.PausedDuration, s.PausedAt, now)
}

// FormatElapsed renders seconds as H:MM:SS from one hour up, M:SS below.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// pauseInterval is the whole seconds between pausedAt and now, floored at zero.
func pauseInterval(pausedAt, now time.Time) int64 {
	d := now.Sub(pausedAt)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
