package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse loads a recipe from its JSON document. Step statuses are
// normalized: a missing status means pending, unknown status text rejects
// the document.
func Parse(raw string) (*Recipe, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty recipe document")
	}
	var rec Recipe
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}
	for _, step := range rec.Steps {
		if step.Status == "" {
			step.Status = StepPending
			continue
		}
		status, err := ParseStepStatus(string(step.Status))
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}
		step.Status = status
	}
	return &rec, nil
}

// Encode serialises the recipe to JSON.
func (r *Recipe) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
