package models

import "time"

// Status is the lifecycle state of a workout session.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// SetTypeNormal is the default set type tag.
const SetTypeNormal = "normal"

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusActive, StatusPaused, StatusCompleted, StatusAbandoned:
		return st, true
	}
	return "", false
}

// IsOpen reports whether the session can still be mutated.
func (s Status) IsOpen() bool {
	return s == StatusActive || s == StatusPaused
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Session is one workout attempt. TemplateName and each exercise's
// ExerciseName are snapshots taken when the session was created.
type Session struct {
	ID             int64             `json:"id"`
	TemplateID     *int64            `json:"template_id"`
	TemplateName   *string           `json:"template_name"`
	Name           *string           `json:"name"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        *time.Time        `json:"ended_at"`
	PausedDuration int64             `json:"paused_duration"`
	PausedAt       *time.Time        `json:"paused_at"`
	Notes          *string           `json:"notes"`
	Status         Status            `json:"status"`
	Exercises      []SessionExercise `json:"exercises"`
}

// Exercise returns the session exercise with the given ID, or nil.
func (s *Session) Exercise(sessionExerciseID int64) *SessionExercise {
	for i := range s.Exercises {
		if s.Exercises[i].ID == sessionExerciseID {
			return &s.Exercises[i]
		}
	}
	return nil
}

// SessionSummary is the list view of a session.
type SessionSummary struct {
	ID           int64      `json:"id"`
	TemplateID   *int64     `json:"template_id"`
	TemplateName *string    `json:"template_name"`
	Name         *string    `json:"name"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	Status       Status     `json:"status"`
}

// SessionExercise is an exercise as performed within a session.
type SessionExercise struct {
	ID           int64        `json:"id"`
	SessionID    int64        `json:"session_id"`
	ExerciseID   int64        `json:"exercise_id"`
	ExerciseName string       `json:"exercise_name"`
	Position     int          `json:"position"`
	Notes        *string      `json:"notes"`
	Sets         []WorkoutSet `json:"sets"`
}

// WorkoutSet is one logged unit of work. A nil WeightKg means bodyweight.
type WorkoutSet struct {
	ID                int64     `json:"id"`
	SessionExerciseID int64     `json:"session_exercise_id"`
	SetNumber         int       `json:"set_number"`
	WeightKg          *float64  `json:"weight_kg"`
	Reps              int       `json:"reps"`
	SetType           string    `json:"set_type"`
	CompletedAt       time.Time `json:"completed_at"`
}

// SessionExerciseInput adds an exercise to an open session.
type SessionExerciseInput struct {
	ExerciseID int64   `json:"exercise_id"`
	Notes      *string `json:"notes"`
}

// SessionExerciseUpdate changes notes or position of a session exercise.
type SessionExerciseUpdate struct {
	Position *int    `json:"position"`
	Notes    *string `json:"notes"`
}

// SetInput is the payload for logging a set.
type SetInput struct {
	WeightKg *float64 `json:"weight_kg"`
	Reps     int      `json:"reps"`
	SetType  *string  `json:"set_type"`
}

// SetUpdate edits a logged set. Nil fields are left untouched.
type SetUpdate struct {
	WeightKg *float64 `json:"weight_kg"`
	Reps     *int     `json:"reps"`
	SetType  *string  `json:"set_type"`
}

// SessionListParams pages through sessions, newest first.
type SessionListParams struct {
	Limit      int
	Offset     int
	TemplateID *int64
}
