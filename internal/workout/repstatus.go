package workout

import "github.com/claude/lightweight/internal/models"

// RepStatus is the feedback class of a logged rep count against a target.
type RepStatus string

const (
	RepInRange  RepStatus = "in-range"
	RepOneBelow RepStatus = "one-below"
	RepUnder    RepStatus = "under"
	RepOver     RepStatus = "over"
)

// RepTarget is a prescribed rep range. A nil Max means a single-value target.
type RepTarget struct {
	Min int  `json:"min"`
	Max *int `json:"max,omitempty"`
}

// Classify compares reps against target. It never rejects a set; a missing
// target (or one without a minimum) is always in range.
func Classify(reps int, target *RepTarget) RepStatus {
	if target == nil || target.Min <= 0 {
		return RepInRange
	}
	lo := target.Min
	hi := lo
	if target.Max != nil && *target.Max >= lo {
		hi = *target.Max
	}
	switch {
	case reps >= lo && reps <= hi:
		return RepInRange
	case reps == lo-1:
		return RepOneBelow
	case reps < lo-1:
		return RepUnder
	default:
		return RepOver
	}
}

// TargetFor extracts the rep target from a template entry, or nil if it has none.
func TargetFor(te *models.TemplateExercise) *RepTarget {
	if te == nil || te.TargetRepsMin == nil || *te.TargetRepsMin <= 0 {
		return nil
	}
	t := &RepTarget{Min: *te.TargetRepsMin}
	if te.TargetRepsMax != nil {
		hi := *te.TargetRepsMax
		t.Max = &hi
	}
	return t
}
