package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sessionTitle(s *models.Session) string {
	switch {
	case s.Name != nil:
		return *s.Name
	case s.TemplateName != nil:
		return *s.TemplateName
	}
	return "Freeform session"
}

// sessionNow is the instant elapsed time is measured at: the end of a closed
// session, otherwise the current time.
func sessionNow(s *models.Session) time.Time {
	if s.EndedAt != nil {
		return *s.EndedAt
	}
	return time.Now()
}

func formatWeight(kg *float64) string {
	if kg == nil {
		return "BW"
	}
	return strconv.FormatFloat(*kg, 'f', -1, 64) + " kg"
}

func formatSet(s models.WorkoutSet) string {
	out := fmt.Sprintf("%s x %d", formatWeight(s.WeightKg), s.Reps)
	if s.SetType != "" && s.SetType != models.SetTypeNormal {
		out += " (" + s.SetType + ")"
	}
	return out
}

func formatTarget(te *models.TemplateExercise) string {
	var parts []string
	if te.TargetSets != nil {
		parts = append(parts, fmt.Sprintf("%d sets", *te.TargetSets))
	}
	if t := workout.TargetFor(te); t != nil {
		parts = append(parts, formatRepTarget(t))
	}
	if te.RestSeconds != nil {
		parts = append(parts, fmt.Sprintf("rest %ds", *te.RestSeconds))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  (" + strings.Join(parts, ", ") + ")"
}

func formatRepTarget(t *workout.RepTarget) string {
	if t.Max != nil && *t.Max > t.Min {
		return fmt.Sprintf("%d-%d reps", t.Min, *t.Max)
	}
	return fmt.Sprintf("%d reps", t.Min)
}

// printView writes a session view: header, then each exercise with its
// logged sets, their rep status, and what was done last time.
func printView(w io.Writer, v *workout.SessionView) {
	fmt.Fprintf(w, "Session %d: %s  [%s]  %s\n", v.ID, sessionTitle(v.Session), v.Status, v.Elapsed)
	if v.Notes != nil {
		fmt.Fprintf(w, "  %s\n", *v.Notes)
	}
	if len(v.Exercises) == 0 {
		fmt.Fprintln(w, "  No exercises yet.")
		return
	}
	for _, ev := range v.Exercises {
		fmt.Fprintf(w, "\n%d. %s", ev.Position, ev.ExerciseName)
		if ev.RepTarget != nil {
			fmt.Fprintf(w, "  target %s", formatRepTarget(ev.RepTarget))
		}
		fmt.Fprintln(w)
		for i, s := range ev.Sets {
			status := workout.RepInRange
			if i < len(ev.SetStatuses) {
				status = ev.SetStatuses[i]
			}
			fmt.Fprintf(w, "   %d. %-16s %s\n", s.SetNumber, formatSet(s), status)
		}
		if len(ev.PreviousSets) > 0 {
			prev := make([]string, len(ev.PreviousSets))
			for i, s := range ev.PreviousSets {
				prev[i] = formatSet(s)
			}
			fmt.Fprintf(w, "   last time: %s\n", strings.Join(prev, ", "))
		}
	}
}
