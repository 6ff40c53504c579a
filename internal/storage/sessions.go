package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

const sessionCols = `id, template_id, template_name, name, started_at, ended_at,
	paused_duration, paused_at, notes, status`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	var status string
	if err := row.Scan(&s.ID, &s.TemplateID, &s.TemplateName, &s.Name, &s.StartedAt, &s.EndedAt,
		&s.PausedDuration, &s.PausedAt, &s.Notes, &status); err != nil {
		return nil, err
	}
	s.Status = models.Status(status)
	s.StartedAt = s.StartedAt.UTC()
	s.EndedAt = utcPtr(s.EndedAt)
	s.PausedAt = utcPtr(s.PausedAt)
	return &s, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// loadSession reads a session with its exercises and sets.
func loadSession(ctx context.Context, q querier, id int64) (*models.Session, error) {
	s, err := scanSession(q.QueryRow(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT id, session_id, exercise_id, exercise_name, position, notes
		 FROM session_exercises
		 WHERE session_id = $1
		 ORDER BY position, id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	s.Exercises = []models.SessionExercise{}
	index := map[int64]int{}
	for rows.Next() {
		var se models.SessionExercise
		if err := rows.Scan(&se.ID, &se.SessionID, &se.ExerciseID, &se.ExerciseName, &se.Position, &se.Notes); err != nil {
			return nil, fmt.Errorf("scanning session exercise: %w", err)
		}
		se.Sets = []models.WorkoutSet{}
		index[se.ID] = len(s.Exercises)
		s.Exercises = append(s.Exercises, se)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sets, err := querySets(ctx, q,
		`SELECT st.id, st.session_exercise_id, st.set_number, st.weight_kg, st.reps, st.set_type, st.completed_at
		 FROM sets st
		 JOIN session_exercises se ON se.id = st.session_exercise_id
		 WHERE se.session_id = $1
		 ORDER BY st.set_number`, id)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if i, ok := index[set.SessionExerciseID]; ok {
			s.Exercises[i].Sets = append(s.Exercises[i].Sets, set)
		}
	}
	return s, nil
}

// lockOpenSession row-locks a session for the rest of the transaction and
// fails unless it exists and is open.
func lockOpenSession(ctx context.Context, tx pgx.Tx, id int64) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.Conflictf("session %d does not exist", id)
	}
	if err != nil {
		return err
	}
	if !models.Status(status).IsOpen() {
		return workout.Conflictf("session %d is %s", id, status)
	}
	return nil
}

// GetOpenSession returns the active or paused session, or nil.
func (db *DB) GetOpenSession(ctx context.Context) (*models.Session, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM sessions
		 WHERE status IN ('active', 'paused')
		 ORDER BY started_at DESC
		 LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "querying open session")
	}
	s, err := loadSession(ctx, db.Pool, id)
	if err != nil {
		return nil, translate(err, "loading open session")
	}
	return s, nil
}

// GetSession returns a session with its exercises and sets.
func (db *DB) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	s, err := loadSession(ctx, db.Pool, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("session %d", id))
	}
	return s, nil
}

// ListSessions returns session summaries, newest first.
func (db *DB) ListSessions(ctx context.Context, p models.SessionListParams) ([]models.SessionSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, template_id, template_name, name, started_at, ended_at, status
		 FROM sessions
		 WHERE ($1::bigint IS NULL OR template_id = $1)
		 ORDER BY started_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		p.TemplateID, p.Limit, p.Offset)
	if err != nil {
		return nil, translate(err, "querying sessions")
	}
	defer rows.Close()

	result := []models.SessionSummary{}
	for rows.Next() {
		var s models.SessionSummary
		var status string
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.TemplateName, &s.Name, &s.StartedAt, &s.EndedAt, &status); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Status = models.Status(status)
		s.StartedAt = s.StartedAt.UTC()
		s.EndedAt = utcPtr(s.EndedAt)
		result = append(result, s)
	}
	return result, translate(rows.Err(), "querying sessions")
}

// CreateSession inserts a session with its exercises and sets in one
// transaction. The sessions_one_open index rejects a second open session.
func (db *DB) CreateSession(ctx context.Context, in *models.Session) (*models.Session, error) {
	var out *models.Session
	err := db.inTx(ctx, "creating session", func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO sessions (template_id, template_name, name, started_at, ended_at,
			 paused_duration, paused_at, notes, status)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 RETURNING id`,
			in.TemplateID, in.TemplateName, in.Name, in.StartedAt.UTC(), utcPtr(in.EndedAt),
			in.PausedDuration, utcPtr(in.PausedAt), in.Notes, string(in.Status),
		).Scan(&id)
		if err != nil {
			return err
		}

		for _, se := range in.Exercises {
			var seID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO session_exercises (session_id, exercise_id, exercise_name, position, notes)
				 VALUES ($1, $2, COALESCE(NULLIF($3, ''), (SELECT name FROM exercises WHERE id = $2)), $4, $5)
				 RETURNING id`,
				id, se.ExerciseID, se.ExerciseName, se.Position, se.Notes,
			).Scan(&seID)
			if err != nil {
				return err
			}
			for _, set := range se.Sets {
				completed := set.CompletedAt
				if completed.IsZero() {
					completed = in.StartedAt
				}
				setType := set.SetType
				if setType == "" {
					setType = models.SetTypeNormal
				}
				if _, err := tx.Exec(ctx,
					`INSERT INTO sets (session_exercise_id, set_number, weight_kg, reps, set_type, completed_at)
					 VALUES ($1,$2,$3,$4,$5,$6)`,
					seID, set.SetNumber, set.WeightKg, set.Reps, setType, completed.UTC()); err != nil {
					return err
				}
			}
		}

		out, err = loadSession(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSession locks the session row, lets mutate edit its header, and
// writes the header back in the same transaction.
func (db *DB) UpdateSession(ctx context.Context, id int64, mutate func(*models.Session) error) (*models.Session, error) {
	var out *models.Session
	err := db.inTx(ctx, fmt.Sprintf("updating session %d", id), func(tx pgx.Tx) error {
		s, err := scanSession(tx.QueryRow(ctx,
			`SELECT `+sessionCols+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return workout.Conflictf("session %d does not exist", id)
		}
		if err != nil {
			return err
		}
		if err := mutate(s); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE sessions SET name = $2, notes = $3, status = $4, ended_at = $5,
			 paused_at = $6, paused_duration = $7
			 WHERE id = $1`,
			id, s.Name, s.Notes, string(s.Status), utcPtr(s.EndedAt),
			utcPtr(s.PausedAt), s.PausedDuration); err != nil {
			return err
		}
		out, err = loadSession(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession removes a session; exercises and sets cascade.
func (db *DB) DeleteSession(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("deleting session %d", id))
	}
	if tag.RowsAffected() == 0 {
		return workout.NotFoundf("session %d not found", id)
	}
	return nil
}

// GetPreviousSession returns the latest completed session for the template.
func (db *DB) GetPreviousSession(ctx context.Context, templateID, excludeID int64) (*models.Session, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM sessions
		 WHERE template_id = $1 AND status = 'completed' AND id <> $2
		 ORDER BY started_at DESC, id DESC
		 LIMIT 1`,
		templateID, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "querying previous session")
	}
	s, err := loadSession(ctx, db.Pool, id)
	if err != nil {
		return nil, translate(err, "loading previous session")
	}
	return s, nil
}

// AddSessionExercise appends an exercise at max(position)+1.
func (db *DB) AddSessionExercise(ctx context.Context, sessionID int64, in models.SessionExerciseInput) (*models.SessionExercise, error) {
	se := models.SessionExercise{SessionID: sessionID, ExerciseID: in.ExerciseID, Notes: in.Notes, Sets: []models.WorkoutSet{}}
	err := db.inTx(ctx, "adding session exercise", func(tx pgx.Tx) error {
		if err := lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `SELECT name FROM exercises WHERE id = $1`, in.ExerciseID).Scan(&se.ExerciseName)
		if errors.Is(err, pgx.ErrNoRows) {
			return workout.NotFoundf("exercise %d not found", in.ExerciseID)
		}
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`INSERT INTO session_exercises (session_id, exercise_id, exercise_name, position, notes)
			 VALUES ($1, $2, $3,
			   COALESCE((SELECT MAX(position) FROM session_exercises WHERE session_id = $1), 0) + 1, $4)
			 RETURNING id, position`,
			sessionID, in.ExerciseID, se.ExerciseName, in.Notes,
		).Scan(&se.ID, &se.Position)
	})
	if err != nil {
		return nil, err
	}
	return &se, nil
}

// UpdateSessionExercise changes notes or position of a session exercise.
func (db *DB) UpdateSessionExercise(ctx context.Context, sessionID, sessionExerciseID int64, in models.SessionExerciseUpdate) (*models.SessionExercise, error) {
	var se models.SessionExercise
	err := db.inTx(ctx, "updating session exercise", func(tx pgx.Tx) error {
		if err := lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`UPDATE session_exercises
			 SET notes = COALESCE($3::text, notes), position = COALESCE($4::integer, position)
			 WHERE id = $1 AND session_id = $2
			 RETURNING id, session_id, exercise_id, exercise_name, position, notes`,
			sessionExerciseID, sessionID, in.Notes, in.Position,
		).Scan(&se.ID, &se.SessionID, &se.ExerciseID, &se.ExerciseName, &se.Position, &se.Notes)
		if errors.Is(err, pgx.ErrNoRows) {
			return workout.NotFoundf("session exercise %d not found", sessionExerciseID)
		}
		if err != nil {
			return err
		}
		se.Sets, err = querySets(ctx, tx,
			`SELECT id, session_exercise_id, set_number, weight_kg, reps, set_type, completed_at
			 FROM sets WHERE session_exercise_id = $1 ORDER BY set_number`, se.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &se, nil
}

// RemoveSessionExercise deletes a session exercise and its sets.
func (db *DB) RemoveSessionExercise(ctx context.Context, sessionID, sessionExerciseID int64) error {
	return db.inTx(ctx, "removing session exercise", func(tx pgx.Tx) error {
		if err := lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM session_exercises WHERE id = $1 AND session_id = $2`,
			sessionExerciseID, sessionID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return workout.NotFoundf("session exercise %d not found", sessionExerciseID)
		}
		return nil
	})
}
