package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

func newSession(t *testing.T, s *Store, exerciseID int64) *models.Session {
	t.Helper()
	in := &models.Session{
		StartedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		Status:    models.StatusActive,
		Exercises: []models.SessionExercise{{ExerciseID: exerciseID, Position: 1}},
	}
	sess, err := s.CreateSession(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

// TestSingleOpenSession verifies a second open session is rejected until the
// first one is closed.
func TestSingleOpenSession(t *testing.T) {
	ctx := context.Background()
	s := New()
	ex, err := s.CreateExercise(ctx, models.ExerciseInput{Name: "Squat"})
	if err != nil {
		t.Fatal(err)
	}
	first := newSession(t, s, ex.ID)

	_, err = s.CreateSession(ctx, &models.Session{Status: models.StatusActive})
	if !errors.Is(err, workout.ErrStateConflict) {
		t.Fatalf("second open session err = %v, want state conflict", err)
	}

	if _, err := s.UpdateSession(ctx, first.ID, func(sess *models.Session) error {
		sess.Status = models.StatusCompleted
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if open, _ := s.GetOpenSession(ctx); open != nil {
		t.Errorf("open session = %d, want none", open.ID)
	}
	if _, err := s.CreateSession(ctx, &models.Session{Status: models.StatusActive}); err != nil {
		t.Errorf("start after complete: %v", err)
	}
}

// TestReturnedValuesAreCopies verifies mutating a returned session does not
// change what the store holds.
func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	ex, _ := s.CreateExercise(ctx, models.ExerciseInput{Name: "Row"})
	sess := newSession(t, s, ex.ID)
	if _, err := s.AddSet(ctx, sess.ID, sess.Exercises[0].ID, models.SetInput{Reps: 8}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.Status = models.StatusAbandoned
	got.Exercises[0].ExerciseName = "changed"
	got.Exercises[0].Sets[0].Reps = 99

	again, _ := s.GetSession(ctx, sess.ID)
	if again.Status != models.StatusActive {
		t.Errorf("status = %q, want %q", again.Status, models.StatusActive)
	}
	if again.Exercises[0].ExerciseName != "Row" {
		t.Errorf("exercise name = %q, want %q", again.Exercises[0].ExerciseName, "Row")
	}
	if again.Exercises[0].Sets[0].Reps != 8 {
		t.Errorf("reps = %d, want 8", again.Exercises[0].Sets[0].Reps)
	}
}

// TestSetNumbersAfterDelete verifies set numbers continue from the highest
// remaining number and are not renumbered.
func TestSetNumbersAfterDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	ex, _ := s.CreateExercise(ctx, models.ExerciseInput{Name: "Dip"})
	sess := newSession(t, s, ex.ID)
	seID := sess.Exercises[0].ID

	var ids []int64
	for range 3 {
		set, err := s.AddSet(ctx, sess.ID, seID, models.SetInput{Reps: 10})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, set.ID)
	}
	if err := s.DeleteSet(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}
	set, err := s.AddSet(ctx, sess.ID, seID, models.SetInput{Reps: 10})
	if err != nil {
		t.Fatal(err)
	}
	if set.SetNumber != 4 {
		t.Errorf("set number = %d, want 4", set.SetNumber)
	}

	got, _ := s.GetSession(ctx, sess.ID)
	var numbers []int
	for _, st := range got.Exercises[0].Sets {
		numbers = append(numbers, st.SetNumber)
	}
	if len(numbers) != 3 || numbers[0] != 1 || numbers[1] != 3 || numbers[2] != 4 {
		t.Errorf("set numbers = %v, want [1 3 4]", numbers)
	}
}

// TestMutatingMissingSession verifies writes to an unknown session are a
// state conflict while reads are not found.
func TestMutatingMissingSession(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.UpdateSession(ctx, 42, func(*models.Session) error { return nil })
	if !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("UpdateSession err = %v, want state conflict", err)
	}
	if _, err := s.GetSession(ctx, 42); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("GetSession err = %v, want not found", err)
	}
}
