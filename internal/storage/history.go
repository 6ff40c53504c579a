package storage

import (
	"context"
	"fmt"

	"github.com/claude/lightweight/internal/models"
)

// ExerciseHistory returns the exercise's sets from its latest completed
// sessions, newest first.
func (db *DB) ExerciseHistory(ctx context.Context, exerciseID int64, limit int) (*models.ExerciseHistory, error) {
	h := &models.ExerciseHistory{ExerciseID: exerciseID, Sessions: []models.ExerciseHistoryEntry{}}
	if err := db.Pool.QueryRow(ctx,
		`SELECT name FROM exercises WHERE id = $1`, exerciseID).Scan(&h.ExerciseName); err != nil {
		return nil, translate(err, fmt.Sprintf("exercise %d", exerciseID))
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.name, s.started_at
		 FROM sessions s
		 WHERE s.status = 'completed'
		   AND EXISTS (SELECT 1 FROM session_exercises se
		               WHERE se.session_id = s.id AND se.exercise_id = $1)
		 ORDER BY s.started_at DESC, s.id DESC
		 LIMIT $2`, exerciseID, limit)
	if err != nil {
		return nil, translate(err, "querying exercise history")
	}
	var ids []int64
	index := map[int64]int{}
	for rows.Next() {
		var e models.ExerciseHistoryEntry
		if err := rows.Scan(&e.SessionID, &e.SessionName, &e.Date); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning history session: %w", err)
		}
		e.Date = e.Date.UTC()
		e.Sets = []models.WorkoutSet{}
		index[e.SessionID] = len(h.Sessions)
		h.Sessions = append(h.Sessions, e)
		ids = append(ids, e.SessionID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translate(err, "querying exercise history")
	}
	if len(ids) == 0 {
		return h, nil
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT se.session_id, st.id, st.session_exercise_id, st.set_number, st.weight_kg,
		        st.reps, st.set_type, st.completed_at
		 FROM sets st
		 JOIN session_exercises se ON se.id = st.session_exercise_id
		 WHERE se.session_id = ANY($1) AND se.exercise_id = $2
		 ORDER BY se.position, st.set_number`, ids, exerciseID)
	if err != nil {
		return nil, translate(err, "querying exercise history sets")
	}
	defer setRows.Close()
	for setRows.Next() {
		var sessionID int64
		var s models.WorkoutSet
		if err := setRows.Scan(&sessionID, &s.ID, &s.SessionExerciseID, &s.SetNumber, &s.WeightKg,
			&s.Reps, &s.SetType, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning history set: %w", err)
		}
		s.CompletedAt = s.CompletedAt.UTC()
		entry := &h.Sessions[index[sessionID]]
		entry.Sets = append(entry.Sets, s)
	}
	return h, translate(setRows.Err(), "querying exercise history sets")
}
