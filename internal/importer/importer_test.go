package importer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/storage/memstore"
	"github.com/claude/lightweight/internal/workout"
)

const sampleJSON = `[
  {
    "template": "Push Day",
    "date": "2025-11-03 18:30:00",
    "notes": "felt strong",
    "exercises": [
      {"name": "Bench Press", "sets": [
        {"weight_kg": 80, "reps": 8},
        {"weight_kg": 80, "reps": 7, "set_type": "failure"}
      ]},
      {"name": "dips", "sets": [{"reps": 12}]}
    ]
  },
  {
    "template": "Mystery",
    "date": "2025-11-05",
    "exercises": [
      {"name": "Pull-up", "sets": [{"reps": 6}]}
    ]
  }
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-11-03", time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)},
		{"2025-11-03 18:30:00", time.Date(2025, 11, 3, 18, 30, 0, 0, time.UTC)},
		{"2025-11-03T18:30:00", time.Date(2025, 11, 3, 18, 30, 0, 0, time.UTC)},
		{"2025-11-03T18:30:00+02:00", time.Date(2025, 11, 3, 16, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseDate("03/11/2025"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

// TestParseRejectsBadFiles verifies malformed files fail validation as a
// whole rather than importing partially.
func TestParseRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"not json":    `{{`,
		"object":      `{"date": "2025-01-01"}`,
		"empty":       `[]`,
		"bad date":    `[{"date": "yesterday", "exercises": []}]`,
		"zero reps":   `[{"date": "2025-01-01", "exercises": [{"name": "Squat", "sets": [{"reps": 0}]}]}]`,
		"blank name":  `[{"date": "2025-01-01", "exercises": [{"name": " ", "sets": []}]}]`,
		"negative kg": `[{"date": "2025-01-01", "exercises": [{"name": "Squat", "sets": [{"reps": 5, "weight_kg": -5}]}]}]`,
	}
	for name, in := range cases {
		if _, err := Parse(strings.NewReader(in)); !errors.Is(err, workout.ErrValidation) {
			t.Errorf("%s: err = %v, want validation", name, err)
		}
	}
}

// TestImport verifies imported sessions are completed, exercises are created
// once, and unknown templates produce a warning.
func TestImport(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	bench, _ := store.CreateExercise(ctx, models.ExerciseInput{Name: "Bench Press"})
	tmpl, _ := store.CreateTemplate(ctx, models.TemplateInput{
		Name:      "Push Day",
		Exercises: []models.TemplateExerciseInput{{ExerciseID: bench.ID, Position: 1}},
	})

	sessions, err := Parse(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	imp := New(store, store, discardLogger(), false)
	res, err := imp.Import(ctx, "test", sessions)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(res.Sessions))
	}
	if got := strings.Join(res.ExercisesCreated, ","); got != "dips,Pull-up" {
		t.Errorf("exercises created = %q, want dips,Pull-up", got)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Mystery") {
		t.Errorf("warnings = %v", res.Warnings)
	}

	first := res.Sessions[0]
	if first.Status != models.StatusCompleted || first.TemplateID == nil || *first.TemplateID != tmpl.ID {
		t.Errorf("first session = %+v", first)
	}
	if first.Exercises[0].ExerciseID != bench.ID {
		t.Errorf("bench matched exercise %d, want %d", first.Exercises[0].ExerciseID, bench.ID)
	}
	sets := first.Exercises[0].Sets
	if len(sets) != 2 || sets[0].SetNumber != 1 || sets[1].SetNumber != 2 {
		t.Errorf("bench sets = %+v", sets)
	}
	if sets[0].SetType != models.SetTypeNormal || sets[1].SetType != "failure" {
		t.Errorf("set types = %q, %q", sets[0].SetType, sets[1].SetType)
	}

	second := res.Sessions[1]
	if second.TemplateID != nil || second.Name == nil || *second.Name != "Mystery" {
		t.Errorf("second session = %+v", second)
	}

	prev, err := store.GetPreviousSession(ctx, tmpl.ID, 0)
	if err != nil || prev == nil || prev.ID != first.ID {
		t.Errorf("previous = %+v, %v, want imported session", prev, err)
	}

	logs, _ := store.QueryImportLogs(ctx, 10)
	if len(logs) != 1 || logs[0].Status != models.ImportSuccess || logs[0].SessionsInserted != 2 || logs[0].SetsInserted != 4 {
		t.Errorf("import log = %+v", logs)
	}
}

func TestImportDryRun(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sessions, err := Parse(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	res, err := New(store, store, discardLogger(), true).Import(ctx, "test", sessions)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sessions) != 2 || len(res.ExercisesCreated) != 3 {
		t.Errorf("dry run result = %d sessions, %v", len(res.Sessions), res.ExercisesCreated)
	}
	exercises, _ := store.ListExercises(ctx, true)
	list, _ := store.ListSessions(ctx, models.SessionListParams{})
	logs, _ := store.QueryImportLogs(ctx, 10)
	if len(exercises) != 0 || len(list) != 0 || len(logs) != 0 {
		t.Errorf("dry run wrote data: %d exercises, %d sessions, %d logs", len(exercises), len(list), len(logs))
	}
}

func TestImportDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(sampleJSON), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.json"), []byte(`not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0644); err != nil {
		t.Fatal(err)
	}

	store := memstore.New()
	stats, err := New(store, nil, discardLogger(), false).ImportDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 1 || stats.FilesErrored != 1 {
		t.Errorf("files processed/errored = %d/%d, want 1/1", stats.FilesProcessed, stats.FilesErrored)
	}
	if stats.SessionsInserted != 2 || stats.SetsInserted != 4 {
		t.Errorf("sessions/sets = %d/%d, want 2/4", stats.SessionsInserted, stats.SetsInserted)
	}
}
