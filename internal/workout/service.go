package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/claude/lightweight/internal/models"
)

// Service applies session lifecycle and composition rules on top of a Store.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a Service. A nil logger discards output.
func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the service clock reading in UTC.
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// OpenSession returns the active or paused session, or nil if there is none.
func (s *Service) OpenSession(ctx context.Context) (*models.Session, error) {
	return s.store.GetOpenSession(ctx)
}

// GetSession returns a session with its exercises and sets.
func (s *Service) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	return s.store.GetSession(ctx, id)
}

// ListSessions pages through sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, p models.SessionListParams) ([]models.SessionSummary, error) {
	switch {
	case p.Limit <= 0:
		p.Limit = 50
	case p.Limit > 200:
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return s.store.ListSessions(ctx, p)
}

// StartInput describes a new session.
type StartInput struct {
	TemplateID *int64  `json:"template_id"`
	Name       *string `json:"name"`
	Notes      *string `json:"notes"`
}

// StartSession creates an active session, seeded from a template when one is
// given. It fails with ErrStateConflict while another session is open.
func (s *Service) StartSession(ctx context.Context, in StartInput) (*models.Session, error) {
	open, err := s.store.GetOpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, Conflictf("session %d is already %s", open.ID, open.Status)
	}

	now := s.Now()
	name := trimmed(in.Name)
	var sess *models.Session
	if in.TemplateID != nil {
		tmpl, err := s.store.GetTemplate(ctx, *in.TemplateID)
		if err != nil {
			return nil, err
		}
		if tmpl.Archived {
			return nil, NotFoundf("template %d is archived", tmpl.ID)
		}
		sess = FromTemplate(tmpl, name, now)
	} else {
		sess = Freeform(name, now)
	}
	sess.Notes = in.Notes

	created, err := s.store.CreateSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.log.Info("session started", "session_id", created.ID, "template_id", created.TemplateID, "exercises", len(created.Exercises))
	return created, nil
}

// SetStatus moves a session to status. Moving an open session to its current
// status is a no-op.
func (s *Service) SetStatus(ctx context.Context, id int64, status models.Status) (*models.Session, error) {
	if _, ok := models.ParseStatus(string(status)); !ok {
		return nil, Validationf("invalid status %q", status)
	}
	var changed bool
	sess, err := s.store.UpdateSession(ctx, id, func(cur *models.Session) error {
		var err error
		changed, err = Transition(cur, status, s.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("session status changed", "session_id", id, "status", sess.Status, "paused_duration", sess.PausedDuration)
	}
	return sess, nil
}

// Pause pauses an active session.
func (s *Service) Pause(ctx context.Context, id int64) (*models.Session, error) {
	return s.SetStatus(ctx, id, models.StatusPaused)
}

// Resume resumes a paused session.
func (s *Service) Resume(ctx context.Context, id int64) (*models.Session, error) {
	return s.SetStatus(ctx, id, models.StatusActive)
}

// Complete ends a session.
func (s *Service) Complete(ctx context.Context, id int64) (*models.Session, error) {
	return s.SetStatus(ctx, id, models.StatusCompleted)
}

// Abandon ends a session without counting it as a comparison baseline.
func (s *Service) Abandon(ctx context.Context, id int64) (*models.Session, error) {
	return s.SetStatus(ctx, id, models.StatusAbandoned)
}

// SessionUpdate edits the descriptive fields of an open session. Status, when
// set, is applied after the other fields in the same store call.
type SessionUpdate struct {
	Name   *string `json:"name"`
	Notes  *string `json:"notes"`
	Status *string `json:"status"`
}

// UpdateSession applies a SessionUpdate.
func (s *Service) UpdateSession(ctx context.Context, id int64, in SessionUpdate) (*models.Session, error) {
	var to models.Status
	if in.Status != nil {
		st, ok := models.ParseStatus(*in.Status)
		if !ok {
			return nil, Validationf("invalid status %q", *in.Status)
		}
		to = st
	}
	return s.store.UpdateSession(ctx, id, func(cur *models.Session) error {
		if err := RequireOpen(cur); err != nil {
			return err
		}
		if in.Name != nil {
			cur.Name = trimmed(in.Name)
		}
		if in.Notes != nil {
			cur.Notes = in.Notes
		}
		if to != "" {
			if _, err := Transition(cur, to, s.Now()); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateNotes replaces the notes of an open session.
func (s *Service) UpdateNotes(ctx context.Context, id int64, notes *string) (*models.Session, error) {
	return s.UpdateSession(ctx, id, SessionUpdate{Notes: notes})
}

// DeleteSession removes a session in any state.
func (s *Service) DeleteSession(ctx context.Context, id int64) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// AddExercise appends an exercise to an open session.
func (s *Service) AddExercise(ctx context.Context, sessionID int64, in models.SessionExerciseInput) (*models.SessionExercise, error) {
	if in.ExerciseID <= 0 {
		return nil, Validationf("exercise_id is required")
	}
	ex, err := s.store.GetExercise(ctx, in.ExerciseID)
	if err != nil {
		return nil, err
	}
	if ex.Archived {
		return nil, NotFoundf("exercise %d is archived", ex.ID)
	}
	return s.store.AddSessionExercise(ctx, sessionID, in)
}

// UpdateSessionExercise changes the notes or position of a session exercise.
func (s *Service) UpdateSessionExercise(ctx context.Context, sessionID, sessionExerciseID int64, in models.SessionExerciseUpdate) (*models.SessionExercise, error) {
	if in.Position != nil && *in.Position < 1 {
		return nil, Validationf("position must be at least 1")
	}
	return s.store.UpdateSessionExercise(ctx, sessionID, sessionExerciseID, in)
}

// RemoveExercise removes an exercise and its sets from an open session.
// Surviving positions are left as they are.
func (s *Service) RemoveExercise(ctx context.Context, sessionID, sessionExerciseID int64) error {
	return s.store.RemoveSessionExercise(ctx, sessionID, sessionExerciseID)
}

// AddSet logs a set against a session exercise of an open session.
func (s *Service) AddSet(ctx context.Context, sessionID, sessionExerciseID int64, in models.SetInput) (*models.WorkoutSet, error) {
	if err := validateSet(in.WeightKg, &in.Reps, in.SetType); err != nil {
		return nil, err
	}
	if in.SetType == nil || strings.TrimSpace(*in.SetType) == "" {
		t := models.SetTypeNormal
		in.SetType = &t
	}
	return s.store.AddSet(ctx, sessionID, sessionExerciseID, in)
}

// UpdateSet edits a logged set of an open session.
func (s *Service) UpdateSet(ctx context.Context, setID int64, in models.SetUpdate) (*models.WorkoutSet, error) {
	if err := validateSet(in.WeightKg, in.Reps, in.SetType); err != nil {
		return nil, err
	}
	return s.store.UpdateSet(ctx, setID, in)
}

// DeleteSet removes a logged set from an open session.
func (s *Service) DeleteSet(ctx context.Context, setID int64) error {
	return s.store.DeleteSet(ctx, setID)
}

func validateSet(weight *float64, reps *int, setType *string) error {
	if reps != nil && *reps <= 0 {
		return Validationf("reps must be positive, got %d", *reps)
	}
	if weight != nil && *weight < 0 {
		return Validationf("weight_kg must not be negative")
	}
	if setType != nil && len(*setType) > 32 {
		return Validationf("set_type is too long")
	}
	return nil
}

// PreviousSession returns the most recent completed session for the template,
// excluding excludeID, or nil.
func (s *Service) PreviousSession(ctx context.Context, templateID, excludeID int64) (*models.Session, error) {
	return s.store.GetPreviousSession(ctx, templateID, excludeID)
}

// ActiveView composes the open session for display, or returns nil if no
// session is open.
func (s *Service) ActiveView(ctx context.Context) (*SessionView, error) {
	open, err := s.store.GetOpenSession(ctx)
	if err != nil || open == nil {
		return nil, err
	}
	return s.compose(ctx, open)
}

// View composes any session for display.
func (s *Service) View(ctx context.Context, id int64) (*SessionView, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, sess)
}

func (s *Service) compose(ctx context.Context, sess *models.Session) (*SessionView, error) {
	var tmpl *models.Template
	var prev *models.Session
	if sess.TemplateID != nil {
		t, err := s.store.GetTemplate(ctx, *sess.TemplateID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("loading template: %w", err)
		default:
			tmpl = t
		}
		prev, err = s.store.GetPreviousSession(ctx, *sess.TemplateID, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("loading previous session: %w", err)
		}
	}
	return ComposeView(sess, tmpl, prev, s.Now()), nil
}

// ListExercises returns the exercise catalog.
func (s *Service) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	return s.store.ListExercises(ctx, includeArchived)
}

// GetExercise returns one exercise.
func (s *Service) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

// CreateExercise adds an exercise to the catalog.
func (s *Service) CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Validationf("exercise name is required")
	}
	return s.store.CreateExercise(ctx, in)
}

// UpdateExercise edits an exercise. Past sessions keep the name they were
// logged with.
func (s *Service) UpdateExercise(ctx context.Context, id int64, in models.ExerciseUpdate) (*models.Exercise, error) {
	if in.Name != nil {
		if in.Name = trimmed(in.Name); in.Name == nil {
			return nil, Validationf("exercise name must not be empty")
		}
	}
	return s.store.UpdateExercise(ctx, id, in)
}

// ArchiveExercise hides an exercise from the catalog.
func (s *Service) ArchiveExercise(ctx context.Context, id int64) error {
	return s.store.ArchiveExercise(ctx, id)
}

// ExerciseHistory returns the exercise's sets from its most recent completed
// sessions.
func (s *Service) ExerciseHistory(ctx context.Context, exerciseID int64, limit int) (*models.ExerciseHistory, error) {
	switch {
	case limit <= 0:
		limit = 10
	case limit > 50:
		limit = 50
	}
	return s.store.ExerciseHistory(ctx, exerciseID, limit)
}

// ListTemplates returns templates with their exercises.
func (s *Service) ListTemplates(ctx context.Context, includeArchived bool) ([]models.Template, error) {
	return s.store.ListTemplates(ctx, includeArchived)
}

// GetTemplate returns one template.
func (s *Service) GetTemplate(ctx context.Context, id int64) (*models.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// CreateTemplate validates and saves a new template.
func (s *Service) CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.Template, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Validationf("template name is required")
	}
	exercises, err := NormalizeTemplateExercises(in.Exercises)
	if err != nil {
		return nil, err
	}
	in.Exercises = exercises
	return s.store.CreateTemplate(ctx, in)
}

// UpdateTemplate validates and applies a template change. Sessions already
// started from the template are unaffected.
func (s *Service) UpdateTemplate(ctx context.Context, id int64, in models.TemplateUpdate) (*models.Template, error) {
	if in.Name != nil {
		in.Name = trimmed(in.Name)
		if in.Name == nil {
			return nil, Validationf("template name is required")
		}
	}
	if in.Exercises != nil {
		exercises, err := NormalizeTemplateExercises(*in.Exercises)
		if err != nil {
			return nil, err
		}
		in.Exercises = &exercises
	}
	return s.store.UpdateTemplate(ctx, id, in)
}

// ArchiveTemplate hides a template. Archived templates cannot start sessions.
func (s *Service) ArchiveTemplate(ctx context.Context, id int64) error {
	return s.store.ArchiveTemplate(ctx, id)
}

// NormalizeTemplateExercises validates template entries and renumbers their
// positions 1..N, ordered by the given positions with ties kept in input order.
func NormalizeTemplateExercises(in []models.TemplateExerciseInput) ([]models.TemplateExerciseInput, error) {
	if len(in) == 0 {
		return nil, Validationf("template must have at least one exercise")
	}
	out := make([]models.TemplateExerciseInput, len(in))
	copy(out, in)
	for i, te := range out {
		if te.ExerciseID <= 0 {
			return nil, Validationf("exercise %d: exercise_id is required", i+1)
		}
		for field, v := range map[string]*int{
			"target_sets":     te.TargetSets,
			"target_reps_min": te.TargetRepsMin,
			"target_reps_max": te.TargetRepsMax,
			"rest_seconds":    te.RestSeconds,
		} {
			if v != nil && *v < 0 {
				return nil, Validationf("exercise %d: %s must not be negative", i+1, field)
			}
		}
		if te.TargetRepsMin != nil && te.TargetRepsMax != nil && *te.TargetRepsMax < *te.TargetRepsMin {
			return nil, Validationf("exercise %d: target_reps_max is below target_reps_min", i+1)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
