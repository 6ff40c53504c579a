package memstore

import (
	"context"
	"sort"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// ListExercises returns exercises sorted by name.
func (s *Store) ListExercises(_ context.Context, includeArchived bool) ([]models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Exercise{}
	for _, ex := range s.exercises {
		if ex.Archived && !includeArchived {
			continue
		}
		out = append(out, copyExercise(*ex))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetExercise returns one exercise, archived or not.
func (s *Store) GetExercise(_ context.Context, id int64) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, ok := s.exercises[id]
	if !ok {
		return nil, workout.NotFoundf("exercise %d not found", id)
	}
	out := copyExercise(*ex)
	return &out, nil
}

// CreateExercise inserts an exercise. Names are unique ignoring case.
func (s *Store) CreateExercise(_ context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExerciseName(0, in.Name); err != nil {
		return nil, err
	}
	ex := &models.Exercise{
		ID:          s.nextID(),
		Name:        in.Name,
		MuscleGroup: copyPtr(in.MuscleGroup),
		Equipment:   copyPtr(in.Equipment),
		Notes:       copyPtr(in.Notes),
		CreatedAt:   s.now().UTC(),
	}
	s.exercises[ex.ID] = ex
	out := copyExercise(*ex)
	return &out, nil
}

// UpdateExercise changes an exercise's descriptive fields.
func (s *Store) UpdateExercise(_ context.Context, id int64, in models.ExerciseUpdate) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.exercises[id]
	if !ok {
		return nil, workout.NotFoundf("exercise %d not found", id)
	}
	if in.Name != nil {
		if err := s.checkExerciseName(id, *in.Name); err != nil {
			return nil, err
		}
		ex.Name = *in.Name
	}
	if in.MuscleGroup != nil {
		ex.MuscleGroup = copyPtr(in.MuscleGroup)
	}
	if in.Equipment != nil {
		ex.Equipment = copyPtr(in.Equipment)
	}
	if in.Notes != nil {
		ex.Notes = copyPtr(in.Notes)
	}
	out := copyExercise(*ex)
	return &out, nil
}

// ArchiveExercise marks an exercise archived.
func (s *Store) ArchiveExercise(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, ok := s.exercises[id]
	if !ok {
		return workout.NotFoundf("exercise %d not found", id)
	}
	ex.Archived = true
	return nil
}

func (s *Store) checkExerciseName(id int64, name string) error {
	for _, ex := range s.exercises {
		if ex.ID != id && sameName(ex.Name, name) {
			return workout.Validationf("exercise %q already exists", name)
		}
	}
	return nil
}

// ExerciseHistory returns the exercise's sets from its latest completed sessions.
func (s *Store) ExerciseHistory(_ context.Context, exerciseID int64, limit int) (*models.ExerciseHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.exercises[exerciseID]
	if !ok {
		return nil, workout.NotFoundf("exercise %d not found", exerciseID)
	}

	var matched []*models.Session
	for _, sess := range s.sessions {
		if sess.Status != models.StatusCompleted {
			continue
		}
		for _, se := range sess.Exercises {
			if se.ExerciseID == exerciseID {
				matched = append(matched, sess)
				break
			}
		}
	}
	sortNewestFirst(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	h := &models.ExerciseHistory{
		ExerciseID:   ex.ID,
		ExerciseName: ex.Name,
		Sessions:     []models.ExerciseHistoryEntry{},
	}
	for _, sess := range matched {
		entry := models.ExerciseHistoryEntry{
			SessionID:   sess.ID,
			SessionName: copyPtr(sess.Name),
			Date:        sess.StartedAt,
			Sets:        []models.WorkoutSet{},
		}
		for _, se := range sess.Exercises {
			if se.ExerciseID != exerciseID {
				continue
			}
			for _, set := range se.Sets {
				entry.Sets = append(entry.Sets, copySet(set))
			}
		}
		h.Sessions = append(h.Sessions, entry)
	}
	return h, nil
}

// ListTemplates returns templates sorted by name.
func (s *Store) ListTemplates(_ context.Context, includeArchived bool) ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Template{}
	for _, t := range s.templates {
		if t.Archived && !includeArchived {
			continue
		}
		out = append(out, *s.template(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetTemplate returns one template, archived or not.
func (s *Store) GetTemplate(_ context.Context, id int64) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, workout.NotFoundf("template %d not found", id)
	}
	return s.template(t), nil
}

// CreateTemplate inserts a template and its exercises.
func (s *Store) CreateTemplate(_ context.Context, in models.TemplateInput) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTemplateName(0, in.Name); err != nil {
		return nil, err
	}
	exercises, err := s.templateExercises(in.Exercises)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &models.Template{
		ID:        s.nextID(),
		Name:      in.Name,
		Notes:     copyPtr(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
		Exercises: exercises,
	}
	s.templates[t.ID] = t
	return s.template(t), nil
}

// UpdateTemplate changes a template. A non-nil exercise list replaces the old one.
func (s *Store) UpdateTemplate(_ context.Context, id int64, in models.TemplateUpdate) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, workout.NotFoundf("template %d not found", id)
	}
	if in.Name != nil {
		if err := s.checkTemplateName(id, *in.Name); err != nil {
			return nil, err
		}
	}
	var exercises []models.TemplateExercise
	if in.Exercises != nil {
		var err error
		if exercises, err = s.templateExercises(*in.Exercises); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Notes != nil {
		t.Notes = copyPtr(in.Notes)
	}
	if in.Exercises != nil {
		t.Exercises = exercises
	}
	t.UpdatedAt = s.now().UTC()
	return s.template(t), nil
}

// ArchiveTemplate marks a template archived.
func (s *Store) ArchiveTemplate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return workout.NotFoundf("template %d not found", id)
	}
	t.Archived = true
	t.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) checkTemplateName(id int64, name string) error {
	for _, t := range s.templates {
		if t.ID != id && sameName(t.Name, name) {
			return workout.Validationf("template %q already exists", name)
		}
	}
	return nil
}

func (s *Store) templateExercises(in []models.TemplateExerciseInput) ([]models.TemplateExercise, error) {
	out := make([]models.TemplateExercise, 0, len(in))
	for _, te := range in {
		ex, ok := s.exercises[te.ExerciseID]
		if !ok {
			return nil, workout.NotFoundf("exercise %d not found", te.ExerciseID)
		}
		out = append(out, models.TemplateExercise{
			ID:            s.nextID(),
			ExerciseID:    ex.ID,
			ExerciseName:  ex.Name,
			Position:      te.Position,
			TargetSets:    copyPtr(te.TargetSets),
			TargetRepsMin: copyPtr(te.TargetRepsMin),
			TargetRepsMax: copyPtr(te.TargetRepsMax),
			RestSeconds:   copyPtr(te.RestSeconds),
			Notes:         copyPtr(te.Notes),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// template copies t with exercise names read from the live catalog. Sessions
// keep the names they were created with; templates follow renames.
func (s *Store) template(t *models.Template) *models.Template {
	out := copyTemplate(t)
	for i := range out.Exercises {
		if ex, ok := s.exercises[out.Exercises[i].ExerciseID]; ok {
			out.Exercises[i].ExerciseName = ex.Name
		}
	}
	return out
}
