package workout

import (
	"testing"

	"github.com/claude/lightweight/internal/models"
)

func intPtr(v int) *int { return &v }

// TestClassify verifies rep feedback against an 8-12 range and the edge cases
// around missing or malformed targets.
func TestClassify(t *testing.T) {
	eightToTwelve := &RepTarget{Min: 8, Max: intPtr(12)}
	tests := []struct {
		name   string
		reps   int
		target *RepTarget
		want   RepStatus
	}{
		{"inside range", 10, eightToTwelve, RepInRange},
		{"one below min", 7, eightToTwelve, RepOneBelow},
		{"well below min", 5, eightToTwelve, RepUnder},
		{"above max", 13, eightToTwelve, RepOver},
		{"at max", 12, eightToTwelve, RepInRange},
		{"at min", 8, eightToTwelve, RepInRange},
		{"no target", 1, nil, RepInRange},
		{"no target high reps", 100, nil, RepInRange},
		{"min only exact", 5, &RepTarget{Min: 5}, RepInRange},
		{"min only above", 6, &RepTarget{Min: 5}, RepOver},
		{"min only one below", 4, &RepTarget{Min: 5}, RepOneBelow},
		{"zero min", 3, &RepTarget{Min: 0, Max: intPtr(10)}, RepInRange},
		{"max below min", 9, &RepTarget{Min: 8, Max: intPtr(6)}, RepOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.reps, tt.target); got != tt.want {
				t.Errorf("Classify(%d) = %q, want %q", tt.reps, got, tt.want)
			}
		})
	}
}

func TestTargetFor(t *testing.T) {
	if got := TargetFor(nil); got != nil {
		t.Errorf("TargetFor(nil) = %+v, want nil", got)
	}
	if got := TargetFor(&models.TemplateExercise{TargetSets: intPtr(3)}); got != nil {
		t.Errorf("TargetFor(no reps) = %+v, want nil", got)
	}

	got := TargetFor(&models.TemplateExercise{TargetRepsMin: intPtr(6), TargetRepsMax: intPtr(10)})
	if got == nil || got.Min != 6 || got.Max == nil || *got.Max != 10 {
		t.Fatalf("TargetFor = %+v, want 6-10", got)
	}
}
