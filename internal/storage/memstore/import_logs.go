package memstore

import (
	"context"
	"sort"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// InsertImportLog stores a new import log and returns its ID.
func (s *Store) InsertImportLog(_ context.Context, l models.ImportLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID()
	l.CreatedAt = s.now().UTC()
	s.logs = append(s.logs, l)
	return l.ID, nil
}

// UpdateImportLog overwrites the outcome fields of an import log.
func (s *Store) UpdateImportLog(_ context.Context, id int64, l models.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].ID != id {
			continue
		}
		cur := &s.logs[i]
		cur.Status = l.Status
		cur.SessionsReceived = l.SessionsReceived
		cur.SessionsInserted = l.SessionsInserted
		cur.ExercisesCreated = l.ExercisesCreated
		cur.SetsInserted = l.SetsInserted
		cur.DurationMs = copyPtr(l.DurationMs)
		cur.ErrorMessage = copyPtr(l.ErrorMessage)
		cur.Metadata = copyPtr(l.Metadata)
		return nil
	}
	return workout.NotFoundf("import log %d not found", id)
}

// QueryImportLogs returns the most recent import logs.
func (s *Store) QueryImportLogs(_ context.Context, limit int) ([]models.ImportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]models.ImportLog, len(s.logs))
	copy(out, s.logs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
