package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// --- Tool definitions ---

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Get the session in progress with elapsed time, template targets, the sets logged last time, and a rep status (in-range, one-below, under, over) for every logged set. Returns a message when no session is open."),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one session by ID, composed the same way as the active session."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolGetPreviousSession = mcp.NewTool("get_previous_session",
	mcp.WithDescription("Get the most recent completed session started from a template. Abandoned sessions are never returned."),
	mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template ID")),
	mcp.WithNumber("exclude_session_id", mcp.Description("Session to skip, usually the one in progress")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Sets logged for one exercise across its most recent completed sessions, newest first."),
	mcp.WithNumber("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithNumber("limit", mcp.Description("Number of sessions. Defaults to 10, at most 50.")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List sessions newest first with status and timing."),
	mcp.WithNumber("limit", mcp.Description("Page size. Defaults to 50, at most 200.")),
	mcp.WithNumber("offset", mcp.Description("Sessions to skip")),
	mcp.WithNumber("template_id", mcp.Description("Only sessions started from this template")),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List workout templates with their exercises and rep targets."),
	mcp.WithBoolean("include_archived", mcp.Description("Include archived templates")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog."),
	mcp.WithBoolean("include_archived", mcp.Description("Include archived exercises")),
)

var toolClassifyReps = mcp.NewTool("classify_reps",
	mcp.WithDescription("Classify a rep count against a target range: in-range, one-below (exactly one short of the minimum), under, or over."),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Reps performed")),
	mcp.WithNumber("target_min", mcp.Required(), mcp.Description("Target minimum reps")),
	mcp.WithNumber("target_max", mcp.Description("Target maximum reps. Omit for a single-value target.")),
)

// --- Tool handlers ---

func (h *handlers) getActiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.ds.ActiveView(ctx)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if view == nil {
		return mcp.NewToolResultText("No session in progress."), nil
	}
	return jsonResult(view)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := h.ds.View(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session", "id", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view)
}

func (h *handlers) getPreviousSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(req, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exclude := int64(req.GetInt("exclude_session_id", 0))

	prev, err := h.ds.PreviousSession(ctx, templateID, exclude)
	if err != nil {
		h.log.Error("mcp get_previous_session", "template_id", templateID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if prev == nil {
		return mcp.NewToolResultText("No completed session for this template yet."), nil
	}
	return jsonResult(prev)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := requireID(req, "exercise_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hist, err := h.ds.ExerciseHistory(ctx, exerciseID, req.GetInt("limit", 0))
	if err != nil {
		h.log.Error("mcp get_exercise_history", "exercise_id", exerciseID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(hist)
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := models.SessionListParams{
		Limit:  req.GetInt("limit", 0),
		Offset: req.GetInt("offset", 0),
	}
	if tid := int64(req.GetInt("template_id", 0)); tid > 0 {
		p.TemplateID = &tid
	}
	sessions, err := h.ds.ListSessions(ctx, p)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sessions == nil {
		sessions = []models.SessionSummary{}
	}
	return jsonResult(sessions)
}

func (h *handlers) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.ListTemplates(ctx, req.GetBool("include_archived", false))
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(templates)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx, req.GetBool("include_archived", false))
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(exercises)
}

func (h *handlers) classifyReps(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	lo, err := req.RequireInt("target_min")
	if err != nil {
		return mcp.NewToolResultError("target_min parameter is required"), nil
	}
	target := &workout.RepTarget{Min: lo}
	if hi := req.GetInt("target_max", 0); hi > 0 {
		target.Max = &hi
	}
	return jsonResult(map[string]any{
		"reps":   reps,
		"target": target,
		"status": workout.Classify(reps, target),
	})
}

func requireID(req mcp.CallToolRequest, name string) (int64, error) {
	id, err := req.RequireInt(name)
	if err != nil || id <= 0 {
		return 0, workout.Validationf("%s parameter is required", name)
	}
	return int64(id), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
