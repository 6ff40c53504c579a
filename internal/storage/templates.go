package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// templateExercises loads template entries keyed by template ID. Exercise
// names come from the live catalog.
func templateExercises(ctx context.Context, q querier, templateIDs []int64) (map[int64][]models.TemplateExercise, error) {
	rows, err := q.Query(ctx,
		`SELECT te.template_id, te.id, te.exercise_id, e.name, te.position,
		        te.target_sets, te.target_reps_min, te.target_reps_max, te.rest_seconds, te.notes
		 FROM template_exercises te
		 JOIN exercises e ON e.id = te.exercise_id
		 WHERE te.template_id = ANY($1)
		 ORDER BY te.template_id, te.position, te.id`, templateIDs)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]models.TemplateExercise)
	for rows.Next() {
		var tid int64
		var te models.TemplateExercise
		if err := rows.Scan(&tid, &te.ID, &te.ExerciseID, &te.ExerciseName, &te.Position,
			&te.TargetSets, &te.TargetRepsMin, &te.TargetRepsMax, &te.RestSeconds, &te.Notes); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		result[tid] = append(result[tid], te)
	}
	return result, rows.Err()
}

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var t models.Template
	if err := row.Scan(&t.ID, &t.Name, &t.Notes, &t.Archived, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.Exercises = []models.TemplateExercise{}
	return &t, nil
}

const templateCols = `id, name, notes, archived, created_at, updated_at`

func loadTemplate(ctx context.Context, q querier, id int64) (*models.Template, error) {
	t, err := scanTemplate(q.QueryRow(ctx, `SELECT `+templateCols+` FROM templates WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	byTemplate, err := templateExercises(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	if te := byTemplate[id]; te != nil {
		t.Exercises = te
	}
	return t, nil
}

// ListTemplates returns templates with their exercises, ordered by name.
func (db *DB) ListTemplates(ctx context.Context, includeArchived bool) ([]models.Template, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+templateCols+` FROM templates
		 WHERE $1 OR NOT archived
		 ORDER BY name`, includeArchived)
	if err != nil {
		return nil, translate(err, "querying templates")
	}
	result := []models.Template{}
	var ids []int64
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, *t)
		ids = append(ids, t.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translate(err, "querying templates")
	}
	if len(ids) == 0 {
		return result, nil
	}

	byTemplate, err := templateExercises(ctx, db.Pool, ids)
	if err != nil {
		return nil, translate(err, "querying templates")
	}
	for i := range result {
		if te := byTemplate[result[i].ID]; te != nil {
			result[i].Exercises = te
		}
	}
	return result, nil
}

// GetTemplate returns one template, archived or not.
func (db *DB) GetTemplate(ctx context.Context, id int64) (*models.Template, error) {
	t, err := loadTemplate(ctx, db.Pool, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("template %d", id))
	}
	return t, nil
}

func insertTemplateExercises(ctx context.Context, tx pgx.Tx, templateID int64, in []models.TemplateExerciseInput) error {
	for _, te := range in {
		if _, err := tx.Exec(ctx,
			`INSERT INTO template_exercises (template_id, exercise_id, position,
			 target_sets, target_reps_min, target_reps_max, rest_seconds, notes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			templateID, te.ExerciseID, te.Position,
			te.TargetSets, te.TargetRepsMin, te.TargetRepsMax, te.RestSeconds, te.Notes); err != nil {
			return err
		}
	}
	return nil
}

// CreateTemplate inserts a template and its exercises in one transaction.
func (db *DB) CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.Template, error) {
	var out *models.Template
	err := db.inTx(ctx, fmt.Sprintf("template %q", in.Name), func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO templates (name, notes) VALUES ($1, $2) RETURNING id`,
			in.Name, in.Notes).Scan(&id); err != nil {
			return err
		}
		if err := insertTemplateExercises(ctx, tx, id, in.Exercises); err != nil {
			return err
		}
		var err error
		out, err = loadTemplate(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTemplate edits a template. A non-nil exercise list replaces the old
// entries; sessions already started keep their own copies.
func (db *DB) UpdateTemplate(ctx context.Context, id int64, in models.TemplateUpdate) (*models.Template, error) {
	var out *models.Template
	err := db.inTx(ctx, fmt.Sprintf("template %d", id), func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx,
			`UPDATE templates SET
			   name = COALESCE($2::text, name),
			   notes = COALESCE($3::text, notes),
			   updated_at = now()
			 WHERE id = $1
			 RETURNING 1`, id, in.Name, in.Notes).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return workout.NotFoundf("template %d not found", id)
		}
		if err != nil {
			return err
		}
		if in.Exercises != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM template_exercises WHERE template_id = $1`, id); err != nil {
				return err
			}
			if err := insertTemplateExercises(ctx, tx, id, *in.Exercises); err != nil {
				return err
			}
		}
		out, err = loadTemplate(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ArchiveTemplate hides a template. Past sessions keep their template_id.
func (db *DB) ArchiveTemplate(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE templates SET archived = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("archiving template %d", id))
	}
	if tag.RowsAffected() == 0 {
		return workout.NotFoundf("template %d not found", id)
	}
	return nil
}
