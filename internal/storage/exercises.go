package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

const exerciseCols = `id, name, muscle_group, equipment, notes, archived, created_at`

func scanExercise(row pgx.Row) (*models.Exercise, error) {
	var e models.Exercise
	if err := row.Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.Equipment, &e.Notes, &e.Archived, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// ListExercises returns exercises ordered by name.
func (db *DB) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseCols+` FROM exercises
		 WHERE $1 OR NOT archived
		 ORDER BY name`, includeArchived)
	if err != nil {
		return nil, translate(err, "querying exercises")
	}
	defer rows.Close()

	result := []models.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *e)
	}
	return result, translate(rows.Err(), "querying exercises")
}

// GetExercise returns one exercise, archived or not.
func (db *DB) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseCols+` FROM exercises WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("exercise %d", id))
	}
	return e, nil
}

// CreateExercise inserts an exercise. Names are unique ignoring case.
func (db *DB) CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (name, muscle_group, equipment, notes)
		 VALUES ($1,$2,$3,$4)
		 RETURNING `+exerciseCols,
		in.Name, in.MuscleGroup, in.Equipment, in.Notes))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("exercise %q", in.Name))
	}
	return e, nil
}

// UpdateExercise changes descriptive fields; nil fields are left untouched.
func (db *DB) UpdateExercise(ctx context.Context, id int64, in models.ExerciseUpdate) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`UPDATE exercises SET
		   name = COALESCE($2::text, name),
		   muscle_group = COALESCE($3::text, muscle_group),
		   equipment = COALESCE($4::text, equipment),
		   notes = COALESCE($5::text, notes)
		 WHERE id = $1
		 RETURNING `+exerciseCols,
		id, in.Name, in.MuscleGroup, in.Equipment, in.Notes))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("exercise %d", id))
	}
	return e, nil
}

// ArchiveExercise hides an exercise. Sessions and templates keep referencing it.
func (db *DB) ArchiveExercise(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE exercises SET archived = TRUE WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("archiving exercise %d", id))
	}
	if tag.RowsAffected() == 0 {
		return workout.NotFoundf("exercise %d not found", id)
	}
	return nil
}
