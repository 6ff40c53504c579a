// Package client talks to the Lightweight REST API. It backs the lw CLI and
// the stdio MCP server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// ErrUnauthorized is returned when the server rejects the credentials.
var ErrUnauthorized = errors.New("not logged in or token expired")

// Client calls the Lightweight server over HTTP.
type Client struct {
	baseURL    string
	token      string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// New creates a client for the server at baseURL. token may be empty for
// the public endpoints.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: time.Second,
	}
}

// SetAPIKey sends X-API-Key instead of relying on a login token.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// SetToken replaces the bearer token, e.g. after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type apiError struct {
	Error string `json:"error"`
}

// statusError turns a non-2xx response into an error of the matching
// workout kind, so callers can use errors.Is on both sides of the wire.
func statusError(status int, body []byte) error {
	var e apiError
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	switch status {
	case http.StatusBadRequest:
		return workout.Validationf("%s", msg)
	case http.StatusNotFound:
		return workout.NotFoundf("%s", msg)
	case http.StatusConflict:
		return workout.Conflictf("%s", msg)
	case http.StatusServiceUnavailable:
		return workout.Transient(errors.New(msg), "server unavailable")
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}
	return fmt.Errorf("server returned %d: %s", status, msg)
}

// do sends one request and decodes a JSON response into out when out is
// non-nil. GET requests are retried up to 3 times with exponential backoff on
// transport errors and 503s.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	var data []byte
	if body != nil {
		if r, ok := body.(io.Reader); ok {
			b, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("reading request body: %w", err)
			}
			data = b
		} else {
			b, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshaling request: %w", err)
			}
			data = b
		}
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = 3
	}

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		lastErr = c.send(ctx, method, u, data, out)
		if lastErr == nil {
			return nil
		}
		var netErr *transportError
		if !errors.As(lastErr, &netErr) && !errors.Is(lastErr, workout.ErrTransient) {
			return lastErr
		}
	}
	if attempts > 1 {
		return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return lastErr
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *Client) send(ctx context.Context, method, u string, data []byte, out any) error {
	var rd io.Reader
	if data != nil {
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	} else if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: fmt.Errorf("%s %s: %w", method, req.URL.Path, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func idPath(format string, ids ...int64) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}

// Health reports whether the server is up and has a password set.
func (c *Client) Health(ctx context.Context) (configured bool, err error) {
	var out struct {
		AuthConfigured bool `json:"auth_configured"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil, &out); err != nil {
		return false, err
	}
	return out.AuthConfigured, nil
}

// Setup sets the server password and returns the first token.
func (c *Client) Setup(ctx context.Context, password string) (string, error) {
	return c.password(ctx, "/api/v1/auth/setup", password)
}

// Login exchanges the password for a fresh token.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	return c.password(ctx, "/api/v1/auth/login", password)
}

func (c *Client) password(ctx context.Context, path, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"password": password}, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// CheckAuth verifies the current credentials.
func (c *Client) CheckAuth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/auth/check", nil, nil, nil)
}

func archivedParams(includeArchived bool) url.Values {
	if !includeArchived {
		return nil
	}
	return url.Values{"include_archived": {"true"}}
}

// ListExercises returns the exercise catalog.
func (c *Client) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	var out []models.Exercise
	err := c.do(ctx, http.MethodGet, "/api/v1/exercises", archivedParams(includeArchived), nil, &out)
	return out, err
}

// CreateExercise adds an exercise to the catalog.
func (c *Client) CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	var out models.Exercise
	if err := c.do(ctx, http.MethodPost, "/api/v1/exercises", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExerciseHistory returns the exercise's sets from recent completed sessions.
func (c *Client) ExerciseHistory(ctx context.Context, exerciseID int64, limit int) (*models.ExerciseHistory, error) {
	var params url.Values
	if limit > 0 {
		params = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out models.ExerciseHistory
	if err := c.do(ctx, http.MethodGet, idPath("/api/v1/exercises/%d/history", exerciseID), params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTemplates returns templates with their exercises.
func (c *Client) ListTemplates(ctx context.Context, includeArchived bool) ([]models.Template, error) {
	var out []models.Template
	err := c.do(ctx, http.MethodGet, "/api/v1/templates", archivedParams(includeArchived), nil, &out)
	return out, err
}

// GetTemplate returns one template.
func (c *Client) GetTemplate(ctx context.Context, id int64) (*models.Template, error) {
	var out models.Template
	if err := c.do(ctx, http.MethodGet, idPath("/api/v1/templates/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviousSession returns the latest completed session for the template, or nil.
func (c *Client) PreviousSession(ctx context.Context, templateID, excludeID int64) (*models.Session, error) {
	var params url.Values
	if excludeID > 0 {
		params = url.Values{"exclude": {strconv.FormatInt(excludeID, 10)}}
	}
	var out *models.Session
	err := c.do(ctx, http.MethodGet, idPath("/api/v1/templates/%d/previous", templateID), params, nil, &out)
	return out, err
}

// OpenSession returns the active or paused session, or nil.
func (c *Client) OpenSession(ctx context.Context) (*models.Session, error) {
	var out *models.Session
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/active", nil, nil, &out)
	return out, err
}

// ActiveView returns the composed open session, or nil.
func (c *Client) ActiveView(ctx context.Context) (*workout.SessionView, error) {
	var out *workout.SessionView
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/active/view", nil, nil, &out)
	return out, err
}

// View returns any session composed for display.
func (c *Client) View(ctx context.Context, id int64) (*workout.SessionView, error) {
	var out workout.SessionView
	if err := c.do(ctx, http.MethodGet, idPath("/api/v1/sessions/%d/view", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	var out models.Session
	if err := c.do(ctx, http.MethodGet, idPath("/api/v1/sessions/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions pages through sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, p models.SessionListParams) ([]models.SessionSummary, error) {
	params := url.Values{}
	if p.Limit > 0 {
		params.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		params.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.TemplateID != nil {
		params.Set("template_id", strconv.FormatInt(*p.TemplateID, 10))
	}
	var out []models.SessionSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions", params, nil, &out)
	return out, err
}

// StartSession opens a new session.
func (c *Client) StartSession(ctx context.Context, in workout.StartInput) (*models.Session, error) {
	var out models.Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transition moves a session to pause, resume, complete or abandon.
func (c *Client) Transition(ctx context.Context, id int64, action string) (*models.Session, error) {
	switch action {
	case "pause", "resume", "complete", "abandon":
	default:
		return nil, workout.Validationf("unknown session action %q", action)
	}
	var out models.Session
	if err := c.do(ctx, http.MethodPost, idPath("/api/v1/sessions/%d/", id)+action, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddExercise appends an exercise to an open session.
func (c *Client) AddExercise(ctx context.Context, sessionID int64, in models.SessionExerciseInput) (*models.SessionExercise, error) {
	var out models.SessionExercise
	if err := c.do(ctx, http.MethodPost, idPath("/api/v1/sessions/%d/exercises", sessionID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddSet logs a set.
func (c *Client) AddSet(ctx context.Context, sessionID, sessionExerciseID int64, in models.SetInput) (*models.WorkoutSet, error) {
	var out models.WorkoutSet
	path := idPath("/api/v1/sessions/%d/exercises/%d/sets", sessionID, sessionExerciseID)
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSet removes a logged set.
func (c *Client) DeleteSet(ctx context.Context, setID int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/v1/sets/%d", setID), nil, nil, nil)
}

// Import uploads a JSON array of historical sessions.
func (c *Client) Import(ctx context.Context, r io.Reader, source string, dryRun bool) (*models.ImportResult, error) {
	params := url.Values{"source": {source}}
	if dryRun {
		params.Set("dry_run", "true")
	}
	var out models.ImportResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/import", params, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
