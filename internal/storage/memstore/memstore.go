// Package memstore is an in-memory backend for development and tests. It
// honours the same invariants and error kinds as the PostgreSQL store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// Store holds all data behind a single mutex. Every method copies values in
// and out so callers never share memory with the store.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	lastID int64

	exercises map[int64]*models.Exercise
	templates map[int64]*models.Template
	sessions  map[int64]*models.Session

	authHash  string
	authToken string
	logs      []models.ImportLog
}

var _ workout.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		exercises: make(map[int64]*models.Exercise),
		templates: make(map[int64]*models.Template),
		sessions:  make(map[int64]*models.Session),
	}
}

// SetClock overrides the clock used for created_at and completed_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

// GetOpenSession returns the active or paused session, or nil.
func (s *Store) GetOpenSession(_ context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open := s.openSession(); open != nil {
		return copySession(open), nil
	}
	return nil, nil
}

func (s *Store) openSession() *models.Session {
	var open *models.Session
	for _, sess := range s.sessions {
		if !sess.Status.IsOpen() {
			continue
		}
		if open == nil || sess.StartedAt.After(open.StartedAt) {
			open = sess
		}
	}
	return open
}

// GetSession returns a session with its exercises and sets.
func (s *Store) GetSession(_ context.Context, id int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, workout.NotFoundf("session %d not found", id)
	}
	return copySession(sess), nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(_ context.Context, p models.SessionListParams) ([]models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if p.TemplateID != nil && (sess.TemplateID == nil || *sess.TemplateID != *p.TemplateID) {
			continue
		}
		all = append(all, sess)
	}
	sortNewestFirst(all)

	out := []models.SessionSummary{}
	for i := p.Offset; i < len(all) && (p.Limit <= 0 || len(out) < p.Limit); i++ {
		sess := all[i]
		out = append(out, models.SessionSummary{
			ID:           sess.ID,
			TemplateID:   copyPtr(sess.TemplateID),
			TemplateName: copyPtr(sess.TemplateName),
			Name:         copyPtr(sess.Name),
			StartedAt:    sess.StartedAt,
			EndedAt:      copyPtr(sess.EndedAt),
			Status:       sess.Status,
		})
	}
	return out, nil
}

// CreateSession inserts a session with its exercises and sets.
func (s *Store) CreateSession(_ context.Context, in *models.Session) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Status.IsOpen() && s.openSession() != nil {
		return nil, workout.Conflictf("another session is already open")
	}
	if in.TemplateID != nil {
		if _, ok := s.templates[*in.TemplateID]; !ok {
			return nil, workout.NotFoundf("template %d not found", *in.TemplateID)
		}
	}
	for _, se := range in.Exercises {
		if _, ok := s.exercises[se.ExerciseID]; !ok {
			return nil, workout.NotFoundf("exercise %d not found", se.ExerciseID)
		}
	}

	sess := copySession(in)
	sess.ID = s.nextID()
	for i := range sess.Exercises {
		se := &sess.Exercises[i]
		se.ID = s.nextID()
		se.SessionID = sess.ID
		if se.ExerciseName == "" {
			se.ExerciseName = s.exercises[se.ExerciseID].Name
		}
		for j := range se.Sets {
			se.Sets[j].ID = s.nextID()
			se.Sets[j].SessionExerciseID = se.ID
		}
	}
	s.sessions[sess.ID] = sess
	return copySession(sess), nil
}

// UpdateSession applies mutate to a copy of the session header and stores
// the result only if mutate succeeds.
func (s *Store) UpdateSession(_ context.Context, id int64, mutate func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, workout.Conflictf("session %d does not exist", id)
	}
	hdr := copySession(sess)
	hdr.Exercises = nil
	if err := mutate(hdr); err != nil {
		return nil, err
	}
	if hdr.Status.IsOpen() && !sess.Status.IsOpen() {
		if open := s.openSession(); open != nil {
			return nil, workout.Conflictf("another session is already open")
		}
	}

	sess.Name = copyPtr(hdr.Name)
	sess.Notes = copyPtr(hdr.Notes)
	sess.Status = hdr.Status
	sess.EndedAt = copyPtr(hdr.EndedAt)
	sess.PausedAt = copyPtr(hdr.PausedAt)
	sess.PausedDuration = hdr.PausedDuration
	return copySession(sess), nil
}

// DeleteSession removes a session and everything logged in it.
func (s *Store) DeleteSession(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return workout.NotFoundf("session %d not found", id)
	}
	delete(s.sessions, id)
	return nil
}

// GetPreviousSession returns the latest completed session for the template.
func (s *Store) GetPreviousSession(_ context.Context, templateID, excludeID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *models.Session
	for _, sess := range s.sessions {
		if sess.ID == excludeID || sess.Status != models.StatusCompleted {
			continue
		}
		if sess.TemplateID == nil || *sess.TemplateID != templateID {
			continue
		}
		if prev == nil || newer(sess, prev) {
			prev = sess
		}
	}
	if prev == nil {
		return nil, nil
	}
	return copySession(prev), nil
}

// openSessionByID returns the session if it exists and is open.
func (s *Store) openSessionByID(id int64) (*models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, workout.Conflictf("session %d does not exist", id)
	}
	if err := workout.RequireOpen(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AddSessionExercise appends an exercise at max(position)+1.
func (s *Store) AddSessionExercise(_ context.Context, sessionID int64, in models.SessionExerciseInput) (*models.SessionExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.openSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	ex, ok := s.exercises[in.ExerciseID]
	if !ok {
		return nil, workout.NotFoundf("exercise %d not found", in.ExerciseID)
	}
	pos := 0
	for _, se := range sess.Exercises {
		pos = max(pos, se.Position)
	}
	sess.Exercises = append(sess.Exercises, models.SessionExercise{
		ID:           s.nextID(),
		SessionID:    sess.ID,
		ExerciseID:   ex.ID,
		ExerciseName: ex.Name,
		Position:     pos + 1,
		Notes:        copyPtr(in.Notes),
		Sets:         []models.WorkoutSet{},
	})
	out := copySessionExercise(sess.Exercises[len(sess.Exercises)-1])
	return &out, nil
}

// UpdateSessionExercise changes notes or position.
func (s *Store) UpdateSessionExercise(_ context.Context, sessionID, sessionExerciseID int64, in models.SessionExerciseUpdate) (*models.SessionExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.openSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	se := sess.Exercise(sessionExerciseID)
	if se == nil {
		return nil, workout.NotFoundf("session exercise %d not found", sessionExerciseID)
	}
	if in.Notes != nil {
		se.Notes = copyPtr(in.Notes)
	}
	if in.Position != nil {
		se.Position = *in.Position
	}
	sortExercises(sess.Exercises)
	out := copySessionExercise(*sess.Exercise(sessionExerciseID))
	return &out, nil
}

// RemoveSessionExercise deletes an exercise and its sets.
func (s *Store) RemoveSessionExercise(_ context.Context, sessionID, sessionExerciseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.openSessionByID(sessionID)
	if err != nil {
		return err
	}
	for i, se := range sess.Exercises {
		if se.ID == sessionExerciseID {
			sess.Exercises = append(sess.Exercises[:i], sess.Exercises[i+1:]...)
			return nil
		}
	}
	return workout.NotFoundf("session exercise %d not found", sessionExerciseID)
}

// AddSet appends a set numbered max(set_number)+1.
func (s *Store) AddSet(_ context.Context, sessionID, sessionExerciseID int64, in models.SetInput) (*models.WorkoutSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.openSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	se := sess.Exercise(sessionExerciseID)
	if se == nil {
		return nil, workout.NotFoundf("session exercise %d not found", sessionExerciseID)
	}
	n := 0
	for _, set := range se.Sets {
		n = max(n, set.SetNumber)
	}
	setType := models.SetTypeNormal
	if in.SetType != nil {
		setType = *in.SetType
	}
	set := models.WorkoutSet{
		ID:                s.nextID(),
		SessionExerciseID: se.ID,
		SetNumber:         n + 1,
		WeightKg:          copyPtr(in.WeightKg),
		Reps:              in.Reps,
		SetType:           setType,
		CompletedAt:       s.now().UTC(),
	}
	se.Sets = append(se.Sets, set)
	return &set, nil
}

// UpdateSet edits a set of an open session.
func (s *Store) UpdateSet(_ context.Context, setID int64, in models.SetUpdate) (*models.WorkoutSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, se, i := s.findSet(setID)
	if se == nil {
		return nil, workout.NotFoundf("set %d not found", setID)
	}
	if err := workout.RequireOpen(sess); err != nil {
		return nil, err
	}
	set := &se.Sets[i]
	if in.WeightKg != nil {
		set.WeightKg = copyPtr(in.WeightKg)
	}
	if in.Reps != nil {
		set.Reps = *in.Reps
	}
	if in.SetType != nil {
		set.SetType = *in.SetType
	}
	out := copySet(*set)
	return &out, nil
}

// DeleteSet removes a set of an open session.
func (s *Store) DeleteSet(_ context.Context, setID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, se, i := s.findSet(setID)
	if se == nil {
		return workout.NotFoundf("set %d not found", setID)
	}
	if err := workout.RequireOpen(sess); err != nil {
		return err
	}
	se.Sets = append(se.Sets[:i], se.Sets[i+1:]...)
	return nil
}

func (s *Store) findSet(setID int64) (*models.Session, *models.SessionExercise, int) {
	for _, sess := range s.sessions {
		for j := range sess.Exercises {
			se := &sess.Exercises[j]
			for i := range se.Sets {
				if se.Sets[i].ID == setID {
					return sess, se, i
				}
			}
		}
	}
	return nil, nil, -1
}

func newer(a, b *models.Session) bool {
	if !a.StartedAt.Equal(b.StartedAt) {
		return a.StartedAt.After(b.StartedAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(ss []*models.Session) {
	sort.Slice(ss, func(i, j int) bool { return newer(ss[i], ss[j]) })
}

func sortExercises(ses []models.SessionExercise) {
	sort.SliceStable(ses, func(i, j int) bool {
		if ses[i].Position != ses[j].Position {
			return ses[i].Position < ses[j].Position
		}
		return ses[i].ID < ses[j].ID
	})
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
