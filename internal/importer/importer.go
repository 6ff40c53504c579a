// Package importer loads historical sessions from JSON files.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/lightweight/internal/models"
)

// Store is the subset of workout.Store the importer writes through.
type Store interface {
	ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error)
	ListTemplates(ctx context.Context, includeArchived bool) ([]models.Template, error)
	CreateSession(ctx context.Context, s *models.Session) (*models.Session, error)
}

// LogStore records import runs.
type LogStore interface {
	InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log models.ImportLog) error
}

// Stats tracks import progress across files.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	SessionsInserted int
	SetsInserted     int
	ExercisesCreated []string
	Warnings         []string
}

// Importer creates completed sessions from parsed import data, creating
// exercises that do not exist yet.
type Importer struct {
	store  Store
	logs   LogStore
	log    *slog.Logger
	dryRun bool
}

// New creates a new Importer. logs may be nil.
func New(store Store, logs LogStore, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, logs: logs, log: log, dryRun: dryRun}
}

// Import writes sessions, which must have passed Validate. Each session is
// stored atomically; sessions before a failing one stay imported.
func (imp *Importer) Import(ctx context.Context, source string, sessions []models.ImportSession) (*models.ImportResult, error) {
	start := time.Now()
	entry := models.ImportLog{
		BatchID:          uuid.NewString(),
		Source:           source,
		Status:           models.ImportRunning,
		SessionsReceived: len(sessions),
	}
	var logID int64
	if imp.logs != nil && !imp.dryRun {
		id, err := imp.logs.InsertImportLog(ctx, entry)
		if err != nil {
			imp.log.Warn("failed to create import log", "error", err)
		}
		logID = id
	}

	result, err := imp.run(ctx, sessions, &entry)

	if logID != 0 {
		ms := int(time.Since(start).Milliseconds())
		entry.DurationMs = &ms
		entry.Status = models.ImportSuccess
		if err != nil {
			msg := err.Error()
			entry.Status = models.ImportError
			entry.ErrorMessage = &msg
		}
		if len(result.Warnings) > 0 {
			if meta, merr := json.Marshal(map[string]any{"warnings": result.Warnings}); merr == nil {
				raw := json.RawMessage(meta)
				entry.Metadata = &raw
			}
		}
		if uerr := imp.logs.UpdateImportLog(ctx, logID, entry); uerr != nil {
			imp.log.Warn("failed to update import log", "id", logID, "error", uerr)
		}
	}

	imp.log.Info("import finished",
		"source", source,
		"batch", entry.BatchID,
		"sessions", entry.SessionsInserted,
		"exercises_created", entry.ExercisesCreated,
		"sets", entry.SetsInserted,
		"dry_run", imp.dryRun,
	)
	return result, err
}

func (imp *Importer) run(ctx context.Context, sessions []models.ImportSession, entry *models.ImportLog) (*models.ImportResult, error) {
	result := &models.ImportResult{
		Sessions:         []models.Session{},
		ExercisesCreated: []string{},
		Warnings:         []string{},
	}

	exercises, err := imp.store.ListExercises(ctx, true)
	if err != nil {
		return result, fmt.Errorf("listing exercises: %w", err)
	}
	byName := make(map[string]models.Exercise, len(exercises))
	for _, ex := range exercises {
		byName[key(ex.Name)] = ex
	}
	templates, err := imp.store.ListTemplates(ctx, true)
	if err != nil {
		return result, fmt.Errorf("listing templates: %w", err)
	}
	tmplByName := make(map[string]models.Template, len(templates))
	for _, t := range templates {
		tmplByName[key(t.Name)] = t
	}

	for i, in := range sessions {
		s := &models.Session{
			StartedAt: in.StartedAt,
			Status:    models.StatusCompleted,
			Notes:     in.Notes,
			Exercises: []models.SessionExercise{},
		}
		ended := in.StartedAt
		s.EndedAt = &ended

		if in.Template != nil && strings.TrimSpace(*in.Template) != "" {
			name := strings.TrimSpace(*in.Template)
			if t, ok := tmplByName[key(name)]; ok {
				id, tname := t.ID, t.Name
				s.TemplateID, s.TemplateName = &id, &tname
			} else {
				s.Name = &name
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("session %d: template %q not found, imported without template", i+1, name))
			}
		}

		for j, ie := range in.Exercises {
			name := strings.TrimSpace(ie.Name)
			ex, ok := byName[key(name)]
			if !ok {
				ex = models.Exercise{Name: name}
				if !imp.dryRun {
					created, err := imp.store.CreateExercise(ctx, models.ExerciseInput{Name: name})
					if err != nil {
						return result, fmt.Errorf("creating exercise %q: %w", name, err)
					}
					ex = *created
				}
				byName[key(name)] = ex
				result.ExercisesCreated = append(result.ExercisesCreated, name)
				entry.ExercisesCreated++
			}

			if len(ie.Sets) == 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("session %d: exercise %q has no sets", i+1, name))
			}
			se := models.SessionExercise{
				ExerciseID:   ex.ID,
				ExerciseName: ex.Name,
				Position:     j + 1,
				Notes:        ie.Notes,
				Sets:         make([]models.WorkoutSet, 0, len(ie.Sets)),
			}
			for k, set := range ie.Sets {
				setType := models.SetTypeNormal
				if set.SetType != nil && strings.TrimSpace(*set.SetType) != "" {
					setType = strings.TrimSpace(*set.SetType)
				}
				se.Sets = append(se.Sets, models.WorkoutSet{
					SetNumber:   k + 1,
					WeightKg:    set.WeightKg,
					Reps:        set.Reps,
					SetType:     setType,
					CompletedAt: in.StartedAt,
				})
			}
			s.Exercises = append(s.Exercises, se)
		}

		if len(s.Exercises) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("session %d: no exercises", i+1))
		}

		if !imp.dryRun {
			created, err := imp.store.CreateSession(ctx, s)
			if err != nil {
				return result, fmt.Errorf("session %d (%s): %w", i+1, in.Date, err)
			}
			s = created
		}
		result.Sessions = append(result.Sessions, *s)
		entry.SessionsInserted++
		for _, se := range s.Exercises {
			entry.SetsInserted += len(se.Sets)
		}
	}
	return result, nil
}

// ImportFile parses and imports one JSON file.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*models.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sessions, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return imp.Import(ctx, filepath.Base(path), sessions)
}

// ImportDir imports every .json file in dir in name order. A file that fails
// is logged and counted; the rest still run.
func (imp *Importer) ImportDir(ctx context.Context, dir string) (*Stats, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	stats := &Stats{}
	for _, f := range files {
		res, err := imp.ImportFile(ctx, f)
		if err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
			stats.FilesErrored++
			if res == nil {
				continue
			}
		} else {
			stats.FilesProcessed++
		}
		stats.Add(res)
	}
	return stats, nil
}

// Add folds one file's result into the totals.
func (st *Stats) Add(res *models.ImportResult) {
	st.SessionsInserted += len(res.Sessions)
	for _, s := range res.Sessions {
		for _, se := range s.Exercises {
			st.SetsInserted += len(se.Sets)
		}
	}
	st.ExercisesCreated = append(st.ExercisesCreated, res.ExercisesCreated...)
	st.Warnings = append(st.Warnings, res.Warnings...)
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
