package models

import "time"

// Exercise is a movement that can be placed in templates and logged in sessions.
type Exercise struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	MuscleGroup *string   `json:"muscle_group"`
	Equipment   *string   `json:"equipment"`
	Notes       *string   `json:"notes"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExerciseInput is the payload for creating an exercise.
type ExerciseInput struct {
	Name        string  `json:"name"`
	MuscleGroup *string `json:"muscle_group"`
	Equipment   *string `json:"equipment"`
	Notes       *string `json:"notes"`
}

// ExerciseUpdate holds the descriptive fields that may change after creation.
// Nil fields are left untouched.
type ExerciseUpdate struct {
	Name        *string `json:"name"`
	MuscleGroup *string `json:"muscle_group"`
	Equipment   *string `json:"equipment"`
	Notes       *string `json:"notes"`
}

// ExerciseHistory lists the sets of one exercise across recent completed sessions.
type ExerciseHistory struct {
	ExerciseID   int64                  `json:"exercise_id"`
	ExerciseName string                 `json:"exercise_name"`
	Sessions     []ExerciseHistoryEntry `json:"sessions"`
}

// ExerciseHistoryEntry is one session's worth of sets for an exercise.
type ExerciseHistoryEntry struct {
	SessionID   int64        `json:"session_id"`
	SessionName *string      `json:"session_name"`
	Date        time.Time    `json:"date"`
	Sets        []WorkoutSet `json:"sets"`
}
