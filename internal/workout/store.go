package workout

import (
	"context"

	"github.com/claude/lightweight/internal/models"
)

// Store is the persistence collaborator. Implementations must apply each call
// atomically and report failures using the error kinds in this package.
//
// Child mutations (session exercises and sets) must verify inside the same
// transaction that the owning session is open and return ErrStateConflict
// otherwise.
type Store interface {
	// GetOpenSession returns the active or paused session, or nil if none.
	GetOpenSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessions(ctx context.Context, p models.SessionListParams) ([]models.SessionSummary, error)
	// CreateSession inserts s with its exercises and sets. Creating an open
	// session while another is open fails with ErrStateConflict.
	CreateSession(ctx context.Context, s *models.Session) (*models.Session, error)
	// UpdateSession locks the session, passes its header (Exercises unset) to
	// mutate, and persists status, timing, name and notes if mutate succeeds.
	UpdateSession(ctx context.Context, id int64, mutate func(*models.Session) error) (*models.Session, error)
	DeleteSession(ctx context.Context, id int64) error
	// GetPreviousSession returns the latest completed session for the
	// template by start time, skipping excludeID, or nil.
	GetPreviousSession(ctx context.Context, templateID, excludeID int64) (*models.Session, error)

	AddSessionExercise(ctx context.Context, sessionID int64, in models.SessionExerciseInput) (*models.SessionExercise, error)
	UpdateSessionExercise(ctx context.Context, sessionID, sessionExerciseID int64, in models.SessionExerciseUpdate) (*models.SessionExercise, error)
	RemoveSessionExercise(ctx context.Context, sessionID, sessionExerciseID int64) error

	// AddSet appends a set numbered max(existing)+1.
	AddSet(ctx context.Context, sessionID, sessionExerciseID int64, in models.SetInput) (*models.WorkoutSet, error)
	UpdateSet(ctx context.Context, setID int64, in models.SetUpdate) (*models.WorkoutSet, error)
	DeleteSet(ctx context.Context, setID int64) error

	ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id int64) (*models.Exercise, error)
	CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error)
	UpdateExercise(ctx context.Context, id int64, in models.ExerciseUpdate) (*models.Exercise, error)
	ArchiveExercise(ctx context.Context, id int64) error
	ExerciseHistory(ctx context.Context, exerciseID int64, limit int) (*models.ExerciseHistory, error)

	ListTemplates(ctx context.Context, includeArchived bool) ([]models.Template, error)
	GetTemplate(ctx context.Context, id int64) (*models.Template, error)
	CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.Template, error)
	UpdateTemplate(ctx context.Context, id int64, in models.TemplateUpdate) (*models.Template, error)
	ArchiveTemplate(ctx context.Context, id int64) error
}
