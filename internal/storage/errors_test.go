package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/claude/lightweight/internal/workout"
)

// TestTranslate verifies driver errors map onto the workout error kinds that
// the HTTP layer turns into status codes.
func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, workout.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), workout.ErrNotFound},
		{"second open session", &pgconn.PgError{Code: "23505", ConstraintName: "sessions_one_open"}, workout.ErrStateConflict},
		{"duplicate name", &pgconn.PgError{Code: "23505", ConstraintName: "exercises_name_key"}, workout.ErrValidation},
		{"missing reference", &pgconn.PgError{Code: "23503"}, workout.ErrNotFound},
		{"check constraint", &pgconn.PgError{Code: "23514", Message: "reps"}, workout.ErrValidation},
		{"deadline", context.DeadlineExceeded, workout.ErrTransient},
		{"already classified", workout.Conflictf("session 1 is completed"), workout.ErrStateConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err, "op")
			if !errors.Is(got, tt.want) {
				t.Errorf("translate(%v) = %v, want kind %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTranslatePassThrough(t *testing.T) {
	if translate(nil, "op") != nil {
		t.Error("translate(nil) should be nil")
	}
	base := errors.New("boom")
	got := translate(base, "op")
	if !errors.Is(got, base) {
		t.Errorf("translate lost the cause: %v", got)
	}
	for _, kind := range []error{workout.ErrValidation, workout.ErrNotFound, workout.ErrStateConflict, workout.ErrTransient} {
		if errors.Is(got, kind) {
			t.Errorf("unclassified error matched %v", kind)
		}
	}
}

// TestEmbeddedMigrations verifies every up migration ships with a down
// migration and the one-open-session index is part of the schema.
func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}

	schema, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(schema), "sessions_one_open") {
		t.Error("schema lacks the sessions_one_open index")
	}
}
