//go:build integration

package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// openTestDB connects to LW_TEST_DSN, migrates, and empties all tables.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("LW_TEST_DSN")
	if dsn == "" {
		t.Skip("LW_TEST_DSN not set")
	}
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	ctx := context.Background()
	db, err := New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if _, err := db.Pool.Exec(ctx,
		`TRUNCATE sets, session_exercises, sessions, template_exercises, templates, exercises, auth, import_logs
		 RESTART IDENTITY CASCADE`); err != nil {
		t.Fatal(err)
	}
	return db
}

// TestSessionLifecycleIntegration runs a templated session through the
// PostgreSQL store, including the one-open-session index and the terminal
// state guard on set mutations.
func TestSessionLifecycleIntegration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := workout.NewService(db, nil)
	now := time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	squat, err := svc.CreateExercise(ctx, models.ExerciseInput{Name: "Squat"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateExercise(ctx, models.ExerciseInput{Name: "squat"}); !errors.Is(err, workout.ErrValidation) {
		t.Errorf("duplicate exercise: err = %v, want validation", err)
	}
	lo, hi := 5, 8
	tmpl, err := svc.CreateTemplate(ctx, models.TemplateInput{
		Name:      "Legs",
		Exercises: []models.TemplateExerciseInput{{ExerciseID: squat.ID, TargetRepsMin: &lo, TargetRepsMax: &hi}},
	})
	if err != nil {
		t.Fatal(err)
	}

	s, err := svc.StartSession(ctx, workout.StartInput{TemplateID: &tmpl.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Exercises) != 1 || s.Exercises[0].ExerciseName != "Squat" || s.Exercises[0].Position != 1 {
		t.Fatalf("session exercises = %+v", s.Exercises)
	}

	if _, err := db.CreateSession(ctx, workout.Freeform(nil, now)); !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("second open session: err = %v, want state conflict", err)
	}

	seID := s.Exercises[0].ID
	first, err := svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 4})
	if err != nil {
		t.Fatal(err)
	}
	if first.SetNumber != 1 || second.SetNumber != 2 || first.SetType != models.SetTypeNormal {
		t.Errorf("sets = %+v, %+v", first, second)
	}

	now = now.Add(10 * time.Minute)
	if _, err := svc.Pause(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	now = now.Add(5 * time.Minute)
	done, err := svc.Complete(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.PausedDuration != 300 || done.EndedAt == nil || done.PausedAt != nil {
		t.Errorf("completed session = %+v", done)
	}

	if _, err := svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5}); !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("add set after complete: err = %v, want state conflict", err)
	}
	if err := svc.DeleteSet(ctx, first.ID); !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("delete set after complete: err = %v, want state conflict", err)
	}

	prev, err := svc.PreviousSession(ctx, tmpl.ID, 0)
	if err != nil || prev == nil || prev.ID != s.ID {
		t.Fatalf("previous = %+v, err = %v", prev, err)
	}
	if len(prev.Exercises[0].Sets) != 2 {
		t.Errorf("previous sets = %d, want 2", len(prev.Exercises[0].Sets))
	}

	h, err := svc.ExerciseHistory(ctx, squat.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Sessions) != 1 || len(h.Sessions[0].Sets) != 2 {
		t.Errorf("history = %+v", h)
	}
}

func TestAuthIntegration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if hash, err := db.AuthHash(ctx); err != nil || hash != "" {
		t.Fatalf("hash before setup = %q, %v", hash, err)
	}
	ok, err := db.InitAuth(ctx, "h1", "t1")
	if err != nil || !ok {
		t.Fatalf("InitAuth = %v, %v", ok, err)
	}
	ok, err = db.InitAuth(ctx, "h2", "t2")
	if err != nil || ok {
		t.Fatalf("second InitAuth = %v, %v, want false", ok, err)
	}
	if err := db.SetAuthToken(ctx, "t3"); err != nil {
		t.Fatal(err)
	}
	if tok, _ := db.AuthToken(ctx); tok != "t3" {
		t.Errorf("token = %q, want t3", tok)
	}
}
