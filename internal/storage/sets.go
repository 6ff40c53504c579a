package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// querySets runs a query selecting the sets columns in table order.
func querySets(ctx context.Context, q querier, sql string, args ...any) ([]models.WorkoutSet, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutSet{}
	for rows.Next() {
		var s models.WorkoutSet
		if err := rows.Scan(&s.ID, &s.SessionExerciseID, &s.SetNumber, &s.WeightKg, &s.Reps, &s.SetType, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		s.CompletedAt = s.CompletedAt.UTC()
		result = append(result, s)
	}
	return result, rows.Err()
}

// AddSet appends a set numbered max(set_number)+1. The session exercise row
// is locked so concurrent adds cannot pick the same number.
func (db *DB) AddSet(ctx context.Context, sessionID, sessionExerciseID int64, in models.SetInput) (*models.WorkoutSet, error) {
	setType := models.SetTypeNormal
	if in.SetType != nil {
		setType = *in.SetType
	}
	set := models.WorkoutSet{SessionExerciseID: sessionExerciseID, WeightKg: in.WeightKg, Reps: in.Reps, SetType: setType}

	err := db.inTx(ctx, "adding set", func(tx pgx.Tx) error {
		if err := lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		var one int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM session_exercises WHERE id = $1 AND session_id = $2 FOR UPDATE`,
			sessionExerciseID, sessionID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return workout.NotFoundf("session exercise %d not found", sessionExerciseID)
		}
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`INSERT INTO sets (session_exercise_id, set_number, weight_kg, reps, set_type)
			 VALUES ($1,
			   COALESCE((SELECT MAX(set_number) FROM sets WHERE session_exercise_id = $1), 0) + 1,
			   $2, $3, $4)
			 RETURNING id, set_number, completed_at`,
			sessionExerciseID, in.WeightKg, in.Reps, setType,
		).Scan(&set.ID, &set.SetNumber, &set.CompletedAt)
	})
	if err != nil {
		return nil, err
	}
	set.CompletedAt = set.CompletedAt.UTC()
	return &set, nil
}

// lockSetSession locks the session owning setID and fails unless it is open.
func lockSetSession(ctx context.Context, tx pgx.Tx, setID int64) error {
	var sessionID int64
	err := tx.QueryRow(ctx,
		`SELECT se.session_id
		 FROM sets st
		 JOIN session_exercises se ON se.id = st.session_exercise_id
		 WHERE st.id = $1`, setID).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.NotFoundf("set %d not found", setID)
	}
	if err != nil {
		return err
	}
	return lockOpenSession(ctx, tx, sessionID)
}

// UpdateSet edits a set of an open session. Nil fields are left untouched.
func (db *DB) UpdateSet(ctx context.Context, setID int64, in models.SetUpdate) (*models.WorkoutSet, error) {
	var out *models.WorkoutSet
	err := db.inTx(ctx, fmt.Sprintf("updating set %d", setID), func(tx pgx.Tx) error {
		if err := lockSetSession(ctx, tx, setID); err != nil {
			return err
		}
		sets, err := querySets(ctx, tx,
			`UPDATE sets SET
			   weight_kg = COALESCE($2::double precision, weight_kg),
			   reps = COALESCE($3::integer, reps),
			   set_type = COALESCE($4::text, set_type)
			 WHERE id = $1
			 RETURNING id, session_exercise_id, set_number, weight_kg, reps, set_type, completed_at`,
			setID, in.WeightKg, in.Reps, in.SetType)
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			return workout.NotFoundf("set %d not found", setID)
		}
		out = &sets[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSet removes a set of an open session.
func (db *DB) DeleteSet(ctx context.Context, setID int64) error {
	return db.inTx(ctx, fmt.Sprintf("deleting set %d", setID), func(tx pgx.Tx) error {
		if err := lockSetSession(ctx, tx, setID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM sets WHERE id = $1`, setID)
		return err
	})
}
