package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/server"
	"github.com/claude/lightweight/internal/storage/memstore"
	"github.com/claude/lightweight/internal/workout"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestListSessionsParams verifies the paging and filter parameters are sent
// and the bearer token is attached.
func TestListSessionsParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			if got := q.Get("offset"); got != "10" {
				t.Errorf("offset=%q, want 10", got)
			}
			if got := q.Get("template_id"); got != "3" {
				t.Errorf("template_id=%q, want 3", got)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization=%q, want Bearer tok", got)
			}
			writeTestJSON(t, w, http.StatusOK, []models.SessionSummary{{ID: 9, Status: models.StatusCompleted}})
		},
	})
	defer ts.Close()

	tid := int64(3)
	c := New(ts.URL+"/", "tok")
	sessions, err := c.ListSessions(context.Background(), models.SessionListParams{Limit: 5, Offset: 10, TemplateID: &tid})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != 9 {
		t.Errorf("sessions = %+v, want one with id 9", sessions)
	}
}

// TestAPIKeyHeader verifies an API key replaces the bearer token.
func TestAPIKeyHeader(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/auth/check": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("X-API-Key=%q, want k", got)
			}
			if got := r.Header.Get("Authorization"); got != "" {
				t.Errorf("Authorization=%q, want empty", got)
			}
			writeTestJSON(t, w, http.StatusOK, map[string]bool{"ok": true})
		},
	})
	defer ts.Close()

	c := New(ts.URL, "tok")
	c.SetAPIKey("k")
	if err := c.CheckAuth(context.Background()); err != nil {
		t.Fatal(err)
	}
}

// TestStatusErrors verifies error responses map back onto workout error kinds.
func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, workout.ErrValidation},
		{http.StatusNotFound, workout.ErrNotFound},
		{http.StatusConflict, workout.ErrStateConflict},
		{http.StatusUnauthorized, ErrUnauthorized},
	}
	for _, tt := range tests {
		ts := newTestServer(t, map[string]http.HandlerFunc{
			"/api/v1/sessions/1": func(w http.ResponseWriter, r *http.Request) {
				writeTestJSON(t, w, tt.status, map[string]string{"error": "boom"})
			},
		})
		_, err := New(ts.URL, "").GetSession(context.Background(), 1)
		ts.Close()

		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		if err != nil && !strings.Contains(err.Error(), "boom") {
			t.Errorf("status %d: err = %q, want server message", tt.status, err)
		}
	}
}

// TestRetryOnUnavailable verifies GETs are retried after a 503.
func TestRetryOnUnavailable(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				writeTestJSON(t, w, http.StatusServiceUnavailable, map[string]string{"error": "db down"})
				return
			}
			writeTestJSON(t, w, http.StatusOK, []models.Exercise{{ID: 1, Name: "Squat"}})
		},
	})
	defer ts.Close()

	c := New(ts.URL, "")
	c.backoff = time.Millisecond
	exercises, err := c.ListExercises(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(exercises) != 1 {
		t.Errorf("exercises = %d, want 1", len(exercises))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

// TestNoRetryOnPost verifies writes are sent once even when the server fails.
func TestNoRetryOnPost(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeTestJSON(t, w, http.StatusServiceUnavailable, map[string]string{"error": "db down"})
		},
	})
	defer ts.Close()

	c := New(ts.URL, "")
	c.backoff = time.Millisecond
	_, err := c.StartSession(context.Background(), workout.StartInput{})
	if !errors.Is(err, workout.ErrTransient) {
		t.Errorf("err = %v, want transient", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

// TestAgainstServer runs the client against the real HTTP server over an
// in-memory store: setup, log a set, and read the active view.
func TestAgainstServer(t *testing.T) {
	srv := server.New(memstore.New(), "", nil)
	srv.Auth().SetCost(bcrypt.MinCost)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx := context.Background()
	c := New(ts.URL, "")

	configured, err := c.Health(ctx)
	if err != nil || configured {
		t.Fatalf("Health = %v, %v; want false, nil", configured, err)
	}
	if _, err := c.Setup(ctx, "pw"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	ex, err := c.CreateExercise(ctx, models.ExerciseInput{Name: "Pull Up"})
	if err != nil {
		t.Fatal(err)
	}
	if view, err := c.ActiveView(ctx); err != nil || view != nil {
		t.Fatalf("ActiveView before start = %v, %v; want nil, nil", view, err)
	}

	sess, err := c.StartSession(ctx, workout.StartInput{})
	if err != nil {
		t.Fatal(err)
	}
	se, err := c.AddExercise(ctx, sess.ID, models.SessionExerciseInput{ExerciseID: ex.ID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddSet(ctx, sess.ID, se.ID, models.SetInput{Reps: 8}); err != nil {
		t.Fatal(err)
	}

	view, err := c.ActiveView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if view == nil || view.Session == nil || view.ID != sess.ID {
		t.Fatalf("view = %+v, want session %d", view, sess.ID)
	}
	if len(view.Exercises) != 1 || len(view.Exercises[0].Sets) != 1 {
		t.Fatalf("view exercises = %+v, want one exercise with one set", view.Exercises)
	}

	if _, err := c.Transition(ctx, sess.ID, "complete"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddSet(ctx, sess.ID, se.ID, models.SetInput{Reps: 8}); !errors.Is(err, workout.ErrStateConflict) {
		t.Errorf("AddSet after complete: err = %v, want state conflict", err)
	}
	if _, err := c.Transition(ctx, sess.ID, "explode"); !errors.Is(err, workout.ErrValidation) {
		t.Errorf("Transition(explode): err = %v, want validation", err)
	}
}
