package memstore

import "github.com/claude/lightweight/internal/models"

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyExercise(ex models.Exercise) models.Exercise {
	ex.MuscleGroup = copyPtr(ex.MuscleGroup)
	ex.Equipment = copyPtr(ex.Equipment)
	ex.Notes = copyPtr(ex.Notes)
	return ex
}

func copyTemplate(t *models.Template) *models.Template {
	out := *t
	out.Notes = copyPtr(t.Notes)
	out.Exercises = make([]models.TemplateExercise, len(t.Exercises))
	for i, te := range t.Exercises {
		te.TargetSets = copyPtr(te.TargetSets)
		te.TargetRepsMin = copyPtr(te.TargetRepsMin)
		te.TargetRepsMax = copyPtr(te.TargetRepsMax)
		te.RestSeconds = copyPtr(te.RestSeconds)
		te.Notes = copyPtr(te.Notes)
		out.Exercises[i] = te
	}
	return &out
}

func copySession(s *models.Session) *models.Session {
	out := *s
	out.TemplateID = copyPtr(s.TemplateID)
	out.TemplateName = copyPtr(s.TemplateName)
	out.Name = copyPtr(s.Name)
	out.EndedAt = copyPtr(s.EndedAt)
	out.PausedAt = copyPtr(s.PausedAt)
	out.Notes = copyPtr(s.Notes)
	out.Exercises = make([]models.SessionExercise, len(s.Exercises))
	for i, se := range s.Exercises {
		out.Exercises[i] = copySessionExercise(se)
	}
	return &out
}

func copySessionExercise(se models.SessionExercise) models.SessionExercise {
	se.Notes = copyPtr(se.Notes)
	sets := make([]models.WorkoutSet, len(se.Sets))
	for i, set := range se.Sets {
		sets[i] = copySet(set)
	}
	se.Sets = sets
	return se
}

func copySet(set models.WorkoutSet) models.WorkoutSet {
	set.WeightKg = copyPtr(set.WeightKg)
	return set
}
