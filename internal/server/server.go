package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/claude/lightweight/internal/auth"
	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// ImportLogStore records and lists bulk import runs.
type ImportLogStore interface {
	InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log models.ImportLog) error
	QueryImportLogs(ctx context.Context, limit int) ([]models.ImportLog, error)
}

// Backend is everything the HTTP layer persists through. Both *storage.DB
// and *memstore.Store satisfy it.
type Backend interface {
	workout.Store
	auth.Store
	ImportLogStore
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *workout.Service
	auth   *auth.Service
	logs   ImportLogStore
	whois  WhoIser
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. apiKey may be empty,
// in which case only bearer tokens are accepted.
func New(backend Backend, apiKey string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		svc:    workout.NewService(backend, log),
		auth:   auth.New(backend, log),
		logs:   backend,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// Service exposes the workout service, e.g. to share it with the MCP server.
func (s *Server) Service() *workout.Service {
	return s.svc
}

// Auth exposes the token service.
func (s *Server) Auth() *auth.Service {
	return s.auth
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/setup", s.handleSetup)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.auth, s.apiKey))

			r.Get("/auth/check", s.handleAuthCheck)
			r.Get("/me", s.handleMe)

			r.Get("/exercises", s.handleListExercises)
			r.Post("/exercises", s.handleCreateExercise)
			r.Get("/exercises/{id}", s.handleGetExercise)
			r.Put("/exercises/{id}", s.handleUpdateExercise)
			r.Delete("/exercises/{id}", s.handleArchiveExercise)
			r.Get("/exercises/{id}/history", s.handleExerciseHistory)

			r.Get("/templates", s.handleListTemplates)
			r.Post("/templates", s.handleCreateTemplate)
			r.Get("/templates/{id}", s.handleGetTemplate)
			r.Put("/templates/{id}", s.handleUpdateTemplate)
			r.Delete("/templates/{id}", s.handleArchiveTemplate)
			r.Get("/templates/{id}/previous", s.handlePreviousSession)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleStartSession)
			r.Post("/sessions/import", s.handleImport)
			r.Get("/sessions/active", s.handleActiveSession)
			r.Get("/sessions/active/view", s.handleActiveView)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Get("/sessions/{id}/view", s.handleSessionView)
			r.Put("/sessions/{id}", s.handleUpdateSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Post("/sessions/{id}/pause", s.handleTransition(models.StatusPaused))
			r.Post("/sessions/{id}/resume", s.handleTransition(models.StatusActive))
			r.Post("/sessions/{id}/complete", s.handleTransition(models.StatusCompleted))
			r.Post("/sessions/{id}/abandon", s.handleTransition(models.StatusAbandoned))

			r.Post("/sessions/{id}/exercises", s.handleAddExercise)
			r.Put("/sessions/{id}/exercises/{seid}", s.handleUpdateSessionExercise)
			r.Delete("/sessions/{id}/exercises/{seid}", s.handleRemoveExercise)
			r.Post("/sessions/{id}/exercises/{seid}/sets", s.handleAddSet)
			r.Put("/sets/{id}", s.handleUpdateSet)
			r.Delete("/sets/{id}", s.handleDeleteSet)

			r.Get("/imports", s.handleImportLogs)
		})
	})
}

// SetMCP mounts an MCP streamable HTTP handler at /mcp behind the same
// credentials as the REST API.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(Authenticate(s.auth, s.apiKey)).Handle("/mcp", h)
}

// SetTailscale enables tailnet identity lookup for incoming requests.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.log)(next).ServeHTTP(w, r)
	})
}

// SetFrontend mounts the SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
