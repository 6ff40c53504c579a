package models

import "time"

// Template is a reusable, named plan of exercises used to seed sessions.
type Template struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Notes     *string            `json:"notes"`
	Archived  bool               `json:"archived"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Exercises []TemplateExercise `json:"exercises"`
}

// TemplateExercise is one prescribed exercise within a template.
type TemplateExercise struct {
	ID            int64   `json:"id"`
	ExerciseID    int64   `json:"exercise_id"`
	ExerciseName  string  `json:"exercise_name"`
	Position      int     `json:"position"`
	TargetSets    *int    `json:"target_sets"`
	TargetRepsMin *int    `json:"target_reps_min"`
	TargetRepsMax *int    `json:"target_reps_max"`
	RestSeconds   *int    `json:"rest_seconds"`
	Notes         *string `json:"notes"`
}

// TemplateInput is the payload for creating a template.
type TemplateInput struct {
	Name      string                  `json:"name"`
	Notes     *string                 `json:"notes"`
	Exercises []TemplateExerciseInput `json:"exercises"`
}

// TemplateExerciseInput describes one exercise slot when saving a template.
type TemplateExerciseInput struct {
	ExerciseID    int64   `json:"exercise_id"`
	Position      int     `json:"position"`
	TargetSets    *int    `json:"target_sets"`
	TargetRepsMin *int    `json:"target_reps_min"`
	TargetRepsMax *int    `json:"target_reps_max"`
	RestSeconds   *int    `json:"rest_seconds"`
	Notes         *string `json:"notes"`
}

// TemplateUpdate changes a template. A non-nil Exercises replaces the whole list.
type TemplateUpdate struct {
	Name      *string                  `json:"name"`
	Notes     *string                  `json:"notes"`
	Exercises *[]TemplateExerciseInput `json:"exercises"`
}

// Exercise returns the first template entry for the given exercise, or nil.
func (t *Template) Exercise(exerciseID int64) *TemplateExercise {
	if t == nil {
		return nil
	}
	for i := range t.Exercises {
		if t.Exercises[i].ExerciseID == exerciseID {
			return &t.Exercises[i]
		}
	}
	return nil
}
