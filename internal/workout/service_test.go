package workout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/storage/memstore"
	"github.com/claude/lightweight/internal/workout"
)

type fixture struct {
	svc   *workout.Service
	store *memstore.Store
	now   time.Time
	ids   map[string]int64
	tmpl  *models.Template
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64 { return &v }

// newFixture returns a service over an in-memory store holding three
// exercises and a template that uses all of them.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store: memstore.New(),
		now:   time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC),
		ids:   map[string]int64{},
	}
	f.svc = workout.NewService(f.store, nil)
	f.svc.SetClock(func() time.Time { return f.now })
	f.store.SetClock(func() time.Time { return f.now })

	for _, name := range []string{"Squat", "Bench Press", "Row"} {
		ex, err := f.svc.CreateExercise(ctx, models.ExerciseInput{Name: name})
		if err != nil {
			t.Fatalf("CreateExercise(%s): %v", name, err)
		}
		f.ids[name] = ex.ID
	}
	tmpl, err := f.svc.CreateTemplate(ctx, models.TemplateInput{
		Name: "Full Body",
		Exercises: []models.TemplateExerciseInput{
			{ExerciseID: f.ids["Squat"], Position: 1, TargetRepsMin: intPtr(5), TargetRepsMax: intPtr(8)},
			{ExerciseID: f.ids["Bench Press"], Position: 2, TargetRepsMin: intPtr(8), TargetRepsMax: intPtr(12)},
			{ExerciseID: f.ids["Row"], Position: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	f.tmpl = tmpl
	return f
}

func (f *fixture) start(t *testing.T) *models.Session {
	t.Helper()
	s, err := f.svc.StartSession(context.Background(), workout.StartInput{TemplateID: int64Ptr(f.tmpl.ID)})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return s
}

// TestStartSessionFromTemplate verifies a three-exercise template yields
// three empty session exercises at the template's positions.
func TestStartSessionFromTemplate(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	if s.Status != models.StatusActive || s.PausedDuration != 0 || !s.StartedAt.Equal(f.now) {
		t.Errorf("session = %+v", s)
	}
	if len(s.Exercises) != 3 {
		t.Fatalf("exercises = %d, want 3", len(s.Exercises))
	}
	for i, se := range s.Exercises {
		if se.Position != f.tmpl.Exercises[i].Position {
			t.Errorf("exercise %d position = %d, want %d", i, se.Position, f.tmpl.Exercises[i].Position)
		}
		if len(se.Sets) != 0 {
			t.Errorf("exercise %d has %d sets", i, len(se.Sets))
		}
		if se.ID == 0 || se.SessionID != s.ID {
			t.Errorf("exercise %d ids = %d/%d", i, se.ID, se.SessionID)
		}
	}
}

// TestStartSessionWhileOpen verifies only one session can be open at a time
// and a new one can start once the previous is completed.
func TestStartSessionWhileOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)

	if _, err := f.svc.StartSession(ctx, workout.StartInput{}); !errors.Is(err, workout.ErrStateConflict) {
		t.Fatalf("start while active: err = %v, want state conflict", err)
	}
	if _, err := f.svc.Pause(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartSession(ctx, workout.StartInput{}); !errors.Is(err, workout.ErrStateConflict) {
		t.Fatalf("start while paused: err = %v, want state conflict", err)
	}
	if _, err := f.svc.Complete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartSession(ctx, workout.StartInput{}); err != nil {
		t.Fatalf("start after complete: %v", err)
	}
}

func TestStartSessionArchivedTemplate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.ArchiveTemplate(ctx, f.tmpl.ID); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.StartSession(ctx, workout.StartInput{TemplateID: int64Ptr(f.tmpl.ID)})
	if !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	if open, _ := f.svc.OpenSession(ctx); open != nil {
		t.Errorf("open session = %+v, want none", open)
	}
}

// TestAddSetNumbering verifies set numbers continue from the highest existing
// number, including after a deletion.
func TestAddSetNumbering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)
	seID := s.Exercises[0].ID

	first, err := f.svc.AddSet(ctx, s.ID, seID, models.SetInput{WeightKg: floatPtr(100), Reps: 5})
	if err != nil {
		t.Fatal(err)
	}
	if first.SetNumber != 1 || first.SetType != models.SetTypeNormal {
		t.Errorf("first set = %+v, want number 1 type normal", first)
	}
	second, _ := f.svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5})
	third, _ := f.svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5})
	if second.SetNumber != 2 || third.SetNumber != 3 {
		t.Errorf("set numbers = %d, %d, want 2, 3", second.SetNumber, third.SetNumber)
	}
	if second.WeightKg != nil {
		t.Errorf("bodyweight set weight = %v, want nil", *second.WeightKg)
	}

	if err := f.svc.DeleteSet(ctx, second.ID); err != nil {
		t.Fatal(err)
	}
	fourth, _ := f.svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5})
	if fourth.SetNumber != 4 {
		t.Errorf("set after delete = %d, want 4", fourth.SetNumber)
	}
}

func TestAddSetValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)
	seID := s.Exercises[0].ID

	for _, in := range []models.SetInput{
		{Reps: 0},
		{Reps: -3},
		{Reps: 5, WeightKg: floatPtr(-1)},
	} {
		if _, err := f.svc.AddSet(ctx, s.ID, seID, in); !errors.Is(err, workout.ErrValidation) {
			t.Errorf("AddSet(%+v) err = %v, want validation", in, err)
		}
	}
	got, _ := f.svc.GetSession(ctx, s.ID)
	if n := len(got.Exercises[0].Sets); n != 0 {
		t.Errorf("sets after rejected adds = %d, want 0", n)
	}
}

// TestMutationsOnFinishedSession verifies every mutation of a completed or
// abandoned session fails with a state conflict and leaves it unchanged.
func TestMutationsOnFinishedSession(t *testing.T) {
	for _, finish := range []models.Status{models.StatusCompleted, models.StatusAbandoned} {
		t.Run(string(finish), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			s := f.start(t)
			seID := s.Exercises[0].ID
			set, err := f.svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5})
			if err != nil {
				t.Fatal(err)
			}
			f.advance(time.Hour)
			if _, err := f.svc.SetStatus(ctx, s.ID, finish); err != nil {
				t.Fatal(err)
			}
			before, _ := f.svc.GetSession(ctx, s.ID)
			f.advance(time.Hour)

			checks := map[string]error{}
			_, checks["add set"] = f.svc.AddSet(ctx, s.ID, seID, models.SetInput{Reps: 5})
			_, checks["update set"] = f.svc.UpdateSet(ctx, set.ID, models.SetUpdate{Reps: intPtr(6)})
			checks["delete set"] = f.svc.DeleteSet(ctx, set.ID)
			_, checks["add exercise"] = f.svc.AddExercise(ctx, s.ID, models.SessionExerciseInput{ExerciseID: f.ids["Row"]})
			checks["remove exercise"] = f.svc.RemoveExercise(ctx, s.ID, seID)
			_, checks["notes"] = f.svc.UpdateNotes(ctx, s.ID, strPtr("late"))
			for _, st := range []models.Status{models.StatusActive, models.StatusPaused, models.StatusCompleted, models.StatusAbandoned} {
				_, checks["status "+string(st)] = f.svc.SetStatus(ctx, s.ID, st)
			}
			for name, err := range checks {
				if !errors.Is(err, workout.ErrStateConflict) {
					t.Errorf("%s: err = %v, want state conflict", name, err)
				}
			}

			after, _ := f.svc.GetSession(ctx, s.ID)
			if after.Status != before.Status || !after.EndedAt.Equal(*before.EndedAt) || after.Notes != nil {
				t.Errorf("session header changed: %+v", after)
			}
			if len(after.Exercises) != 3 || len(after.Exercises[0].Sets) != 1 || after.Exercises[0].Sets[0].Reps != 5 {
				t.Errorf("session contents changed: %+v", after.Exercises)
			}
		})
	}
}

func TestMutationsOnMissingSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Pause(ctx, 999); !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("pause: err = %v, want state conflict", err)
	}
	if _, err := f.svc.AddSet(ctx, 999, 1, models.SetInput{Reps: 1}); !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("add set: err = %v, want state conflict", err)
	}
	if _, err := f.svc.GetSession(ctx, 999); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("get: err = %v, want not found", err)
	}
}

// TestPauseIdempotent verifies a repeated pause does not double-count paused
// time.
func TestPauseIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)

	f.advance(10 * time.Minute)
	if _, err := f.svc.Pause(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	f.advance(2 * time.Minute)
	if _, err := f.svc.Pause(ctx, s.ID); err != nil {
		t.Fatalf("second pause: %v", err)
	}
	f.advance(3 * time.Minute)
	got, err := f.svc.Resume(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PausedDuration != 300 {
		t.Errorf("paused_duration = %d, want 300", got.PausedDuration)
	}
	f.advance(5 * time.Minute)
	v, err := f.svc.ActiveView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.ElapsedSeconds != 900 {
		t.Errorf("elapsed = %d, want 900", v.ElapsedSeconds)
	}
}

// TestPreviousSession verifies the comparison baseline is the latest
// completed session of the template and ignores abandoned ones.
func TestPreviousSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prev, err := f.svc.PreviousSession(ctx, f.tmpl.ID, 0)
	if err != nil || prev != nil {
		t.Fatalf("no history: prev = %v, err = %v", prev, err)
	}

	run := func(end models.Status, reps int) *models.Session {
		s := f.start(t)
		if _, err := f.svc.AddSet(ctx, s.ID, s.Exercises[1].ID, models.SetInput{Reps: reps}); err != nil {
			t.Fatal(err)
		}
		f.advance(time.Hour)
		if _, err := f.svc.SetStatus(ctx, s.ID, end); err != nil {
			t.Fatal(err)
		}
		f.advance(23 * time.Hour)
		return s
	}
	run(models.StatusCompleted, 8)
	second := run(models.StatusCompleted, 10)
	run(models.StatusAbandoned, 3)

	prev, err = f.svc.PreviousSession(ctx, f.tmpl.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if prev == nil || prev.ID != second.ID {
		t.Fatalf("prev = %+v, want session %d", prev, second.ID)
	}

	current := f.start(t)
	if _, err := f.svc.AddSet(ctx, current.ID, current.Exercises[1].ID, models.SetInput{Reps: 7}); err != nil {
		t.Fatal(err)
	}
	v, err := f.svc.ActiveView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.PreviousSessionID == nil || *v.PreviousSessionID != second.ID {
		t.Errorf("view previous = %v, want %d", v.PreviousSessionID, second.ID)
	}
	bench := v.Exercises[1]
	if len(bench.PreviousSets) != 1 || bench.PreviousSets[0].Reps != 10 {
		t.Errorf("bench previous sets = %+v", bench.PreviousSets)
	}
	if bench.SetStatuses[0] != workout.RepOneBelow {
		t.Errorf("bench status = %q, want one-below", bench.SetStatuses[0])
	}
}

// TestTemplateEditDoesNotRewriteSessions verifies sessions keep the names and
// exercises they were started with.
func TestTemplateEditDoesNotRewriteSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)

	if _, err := f.svc.UpdateTemplate(ctx, f.tmpl.ID, models.TemplateUpdate{
		Name:      strPtr("Upper"),
		Exercises: &[]models.TemplateExerciseInput{{ExerciseID: f.ids["Row"]}},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateExercise(ctx, f.ids["Squat"], models.ExerciseUpdate{Name: strPtr("Back Squat")}); err != nil {
		t.Fatal(err)
	}

	got, _ := f.svc.GetSession(ctx, s.ID)
	if *got.TemplateName != "Full Body" || len(got.Exercises) != 3 || got.Exercises[0].ExerciseName != "Squat" {
		t.Errorf("session rewritten: %+v", got)
	}
}

func TestRemoveExerciseKeepsPositions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)

	if err := f.svc.RemoveExercise(ctx, s.ID, s.Exercises[1].ID); err != nil {
		t.Fatal(err)
	}
	added, err := f.svc.AddExercise(ctx, s.ID, models.SessionExerciseInput{ExerciseID: f.ids["Bench Press"]})
	if err != nil {
		t.Fatal(err)
	}
	if added.Position != 4 {
		t.Errorf("appended position = %d, want 4", added.Position)
	}
	got, _ := f.svc.GetSession(ctx, s.ID)
	var positions []int
	for _, se := range got.Exercises {
		positions = append(positions, se.Position)
	}
	if len(positions) != 3 || positions[0] != 1 || positions[1] != 3 || positions[2] != 4 {
		t.Errorf("positions = %v, want [1 3 4]", positions)
	}
}

func TestTemplateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cases := map[string]models.TemplateInput{
		"missing name": {Exercises: []models.TemplateExerciseInput{{ExerciseID: f.ids["Row"]}}},
		"no exercises": {Name: "Empty"},
		"bad range":    {Name: "Bad", Exercises: []models.TemplateExerciseInput{{ExerciseID: f.ids["Row"], TargetRepsMin: intPtr(10), TargetRepsMax: intPtr(8)}}},
		"duplicate":    {Name: "full body", Exercises: []models.TemplateExerciseInput{{ExerciseID: f.ids["Row"]}}},
	}
	for name, in := range cases {
		if _, err := f.svc.CreateTemplate(ctx, in); !errors.Is(err, workout.ErrValidation) {
			t.Errorf("%s: err = %v, want validation", name, err)
		}
	}
	if _, err := f.svc.CreateTemplate(ctx, models.TemplateInput{Name: "Ghost", Exercises: []models.TemplateExerciseInput{{ExerciseID: 12345}}}); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("unknown exercise: err = %v, want not found", err)
	}
}

func TestNormalizeTemplateExercises(t *testing.T) {
	got, err := workout.NormalizeTemplateExercises([]models.TemplateExerciseInput{
		{ExerciseID: 1, Position: 5},
		{ExerciseID: 2, Position: 2},
		{ExerciseID: 3, Position: 5},
		{ExerciseID: 4, Position: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{4, 2, 1, 3}
	for i, te := range got {
		if te.ExerciseID != want[i] || te.Position != i+1 {
			t.Errorf("entry %d = exercise %d pos %d, want exercise %d pos %d", i, te.ExerciseID, te.Position, want[i], i+1)
		}
	}
}

func TestExerciseHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		s := f.start(t)
		if _, err := f.svc.AddSet(ctx, s.ID, s.Exercises[0].ID, models.SetInput{Reps: 5 + i}); err != nil {
			t.Fatal(err)
		}
		f.advance(time.Hour)
		if _, err := f.svc.Complete(ctx, s.ID); err != nil {
			t.Fatal(err)
		}
		f.advance(24 * time.Hour)
	}

	h, err := f.svc.ExerciseHistory(ctx, f.ids["Squat"], 2)
	if err != nil {
		t.Fatal(err)
	}
	if h.ExerciseName != "Squat" || len(h.Sessions) != 2 {
		t.Fatalf("history = %+v", h)
	}
	if h.Sessions[0].Sets[0].Reps != 7 || h.Sessions[1].Sets[0].Reps != 6 {
		t.Errorf("history order = %d, %d, want 7, 6", h.Sessions[0].Sets[0].Reps, h.Sessions[1].Sets[0].Reps)
	}
	if _, err := f.svc.ExerciseHistory(ctx, 9999, 5); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("unknown exercise: err = %v, want not found", err)
	}
}

func TestDeleteSessionAnyState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.start(t)
	if _, err := f.svc.Complete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("delete completed: %v", err)
	}
	if _, err := f.svc.GetSession(ctx, s.ID); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("get deleted: err = %v, want not found", err)
	}
}

func strPtr(s string) *string { return &s }
