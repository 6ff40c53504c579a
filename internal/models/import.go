package models

import "time"

// ImportSession is one historical session in an import file.
type ImportSession struct {
	Template  *string          `json:"template"`
	Date      string           `json:"date"`
	Notes     *string          `json:"notes"`
	Exercises []ImportExercise `json:"exercises"`

	// StartedAt is Date parsed into UTC by the importer.
	StartedAt time.Time `json:"-"`
}

// ImportExercise is an exercise entry in an import file, matched by name.
type ImportExercise struct {
	Name  string      `json:"name"`
	Notes *string     `json:"notes"`
	Sets  []ImportSet `json:"sets"`
}

// ImportSet is a set in an import file.
type ImportSet struct {
	WeightKg *float64 `json:"weight_kg"`
	Reps     int      `json:"reps"`
	SetType  *string  `json:"set_type"`
}

// ImportResult reports what an import created.
type ImportResult struct {
	Sessions         []Session `json:"sessions"`
	ExercisesCreated []string  `json:"exercises_created"`
	Warnings         []string  `json:"warnings"`
}
