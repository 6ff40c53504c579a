package server

import (
	"net/http"
	"strconv"

	"github.com/claude/lightweight/internal/importer"
	"github.com/claude/lightweight/internal/models"
)

// handleImport loads a JSON array of historical sessions. ?dry_run=true
// validates and reports without writing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, importBodyBytes)
	sessions, err := importer.Parse(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "api"
	}

	imp := importer.New(s.svc.Store(), s.logs, s.log, dryRun)
	result, err := imp.Import(r.Context(), source, sessions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.logs.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []models.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
