package workout

import (
	"time"

	"github.com/claude/lightweight/internal/models"
)

// FromTemplate builds an unsaved, active session seeded with one empty
// exercise per template entry. Targets stay on the template so later template
// edits never rewrite past sessions.
func FromTemplate(t *models.Template, name *string, now time.Time) *models.Session {
	s := Freeform(name, now)
	id := t.ID
	tname := t.Name
	s.TemplateID = &id
	s.TemplateName = &tname
	s.Exercises = make([]models.SessionExercise, 0, len(t.Exercises))
	for _, te := range t.Exercises {
		s.Exercises = append(s.Exercises, models.SessionExercise{
			ExerciseID:   te.ExerciseID,
			ExerciseName: te.ExerciseName,
			Position:     te.Position,
			Notes:        te.Notes,
			Sets:         []models.WorkoutSet{},
		})
	}
	return s
}

// Freeform builds an unsaved, active session with no exercises.
func Freeform(name *string, now time.Time) *models.Session {
	return &models.Session{
		Name:      name,
		StartedAt: now,
		Status:    models.StatusActive,
		Exercises: []models.SessionExercise{},
	}
}

// PreviousSets indexes the sets of prev by exercise ID. When an exercise
// appears more than once, the lowest position wins.
func PreviousSets(prev *models.Session) map[int64][]models.WorkoutSet {
	out := make(map[int64][]models.WorkoutSet)
	if prev == nil {
		return out
	}
	for _, se := range prev.Exercises {
		if _, seen := out[se.ExerciseID]; seen {
			continue
		}
		out[se.ExerciseID] = se.Sets
	}
	return out
}

// SessionView is a session with its derived display state.
type SessionView struct {
	*models.Session
	ElapsedSeconds    int64          `json:"elapsed_seconds"`
	Elapsed           string         `json:"elapsed"`
	PreviousSessionID *int64         `json:"previous_session_id,omitempty"`
	Exercises         []ExerciseView `json:"exercises"`
}

// ExerciseView pairs a session exercise with its template target, the sets
// from the previous comparable session, and a rep status per logged set.
type ExerciseView struct {
	models.SessionExercise
	Target       *models.TemplateExercise `json:"target,omitempty"`
	RepTarget    *RepTarget               `json:"rep_target,omitempty"`
	PreviousSets []models.WorkoutSet      `json:"previous_sets"`
	SetStatuses  []RepStatus              `json:"set_statuses"`
}

// ComposeView derives the display state of s at now. tmpl and prev may be nil.
func ComposeView(s *models.Session, tmpl *models.Template, prev *models.Session, now time.Time) *SessionView {
	elapsed := SessionElapsed(s, now)
	v := &SessionView{
		Session:        s,
		ElapsedSeconds: elapsed,
		Elapsed:        FormatElapsed(elapsed),
		Exercises:      make([]ExerciseView, 0, len(s.Exercises)),
	}
	if prev != nil {
		id := prev.ID
		v.PreviousSessionID = &id
	}

	previous := PreviousSets(prev)
	for _, se := range s.Exercises {
		ev := ExerciseView{
			SessionExercise: se,
			Target:          tmpl.Exercise(se.ExerciseID),
			PreviousSets:    previous[se.ExerciseID],
			SetStatuses:     make([]RepStatus, 0, len(se.Sets)),
		}
		if ev.PreviousSets == nil {
			ev.PreviousSets = []models.WorkoutSet{}
		}
		ev.RepTarget = TargetFor(ev.Target)
		for _, set := range se.Sets {
			ev.SetStatuses = append(ev.SetStatuses, Classify(set.Reps, ev.RepTarget))
		}
		v.Exercises = append(v.Exercises, ev)
	}
	return v
}
