package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/claude/lightweight/internal/models"
	"github.com/claude/lightweight/internal/workout"
)

// Accepted date layouts. Values without a zone are taken as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses an import date into UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Parse decodes a JSON array of sessions and validates every entry, so a bad
// file is rejected before anything is written.
func Parse(r io.Reader) ([]models.ImportSession, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, workout.Validationf("invalid JSON: %v", err)
	}
	if trimmed := strings.TrimSpace(string(raw)); !strings.HasPrefix(trimmed, "[") {
		return nil, workout.Validationf("expected JSON array of sessions")
	}
	var sessions []models.ImportSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, workout.Validationf("invalid session data: %v", err)
	}
	if err := Validate(sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Validate checks every session and fills in StartedAt from Date.
func Validate(sessions []models.ImportSession) error {
	if len(sessions) == 0 {
		return workout.Validationf("no sessions to import")
	}
	for i := range sessions {
		s := &sessions[i]
		at, err := ParseDate(s.Date)
		if err != nil {
			return workout.Validationf("session %d: %v", i+1, err)
		}
		s.StartedAt = at
		for j, ex := range s.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				return workout.Validationf("session %d exercise %d: name is required", i+1, j+1)
			}
			for k, set := range ex.Sets {
				if set.Reps <= 0 {
					return workout.Validationf("session %d %s set %d: reps must be positive", i+1, ex.Name, k+1)
				}
				if set.WeightKg != nil && *set.WeightKg < 0 {
					return workout.Validationf("session %d %s set %d: weight_kg must not be negative", i+1, ex.Name, k+1)
				}
			}
		}
	}
	return nil
}
