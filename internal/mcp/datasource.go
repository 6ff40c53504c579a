package mcp

import (
	"context"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// DataSource abstracts the data layer for MCP tools. Both *workout.Service
// (in-process) and *client.Client (remote via REST API) satisfy this
// interface.
type DataSource interface {
	ActiveView(ctx context.Context) (*workout.SessionView, error)
	View(ctx context.Context, id int64) (*workout.SessionView, error)
	PreviousSession(ctx context.Context, templateID, excludeID int64) (*models.Session, error)
	ExerciseHistory(ctx context.Context, exerciseID int64, limit int) (*models.ExerciseHistory, error)
	ListSessions(ctx context.Context, p models.SessionListParams) ([]models.SessionSummary, error)
	ListTemplates(ctx context.Context, includeArchived bool) ([]models.Template, error)
	ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error)
}

// Compile-time check: *workout.Service satisfies DataSource.
var _ DataSource = (*workout.Service)(nil)
