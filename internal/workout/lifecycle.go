package workout

import (
	"time"

	"github.com/claude/lightweight/internal/models"
)

// CanTransition reports whether a session in from may move to to.
// Same-status requests on an open session are allowed and are no-ops.
func CanTransition(from, to models.Status) bool {
	if _, ok := models.ParseStatus(string(to)); !ok {
		return false
	}
	return from.IsOpen()
}

// RequireOpen fails with a state conflict unless s is active or paused.
func RequireOpen(s *models.Session) error {
	if !s.Status.IsOpen() {
		return Conflictf("session %d is %s", s.ID, s.Status)
	}
	return nil
}

// Transition moves s to status to at time now and reports whether anything
// changed. Pausing records the pause start; resuming, completing, or
// abandoning a paused session folds the open interval into PausedDuration
// exactly once. Terminal transitions stamp EndedAt.
func Transition(s *models.Session, to models.Status, now time.Time) (bool, error) {
	if _, ok := models.ParseStatus(string(to)); !ok {
		return false, Validationf("invalid status %q", to)
	}
	if err := RequireOpen(s); err != nil {
		return false, err
	}
	if s.Status == to {
		return false, nil
	}

	switch to {
	case models.StatusPaused:
		t := now
		s.PausedAt = &t
	case models.StatusActive:
		closePause(s, now)
	case models.StatusCompleted, models.StatusAbandoned:
		closePause(s, now)
		t := now
		s.EndedAt = &t
	}
	s.Status = to
	return true, nil
}

func closePause(s *models.Session, now time.Time) {
	if s.PausedAt == nil {
		return
	}
	s.PausedDuration += pauseInterval(*s.PausedAt, now)
	s.PausedAt = nil
}
