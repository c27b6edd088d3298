package pipeline

import (
	"context"
	"fmt"

	"reelsmith/internal/services"
)

// Step is one schedulable unit of work. Dependencies name other step IDs
// that must complete first.
type Step interface {
	ID() string
	Dependencies() []string
	Run(ctx context.Context, run *Run) error
}

// Three-color DFS markers.
const (
	unvisited = iota
	visiting
	visited
)

// Order returns the steps in dependency order via depth-first topological
// sort. The order is deterministic: ties break by the input ordering. A
// dependency cycle fails with an error naming a step on the cycle, and a
// dependency on an unknown step is rejected.
func Order(steps []Step) ([]Step, error) {
	byID := make(map[string]Step, len(steps))
	for _, step := range steps {
		if _, dup := byID[step.ID()]; dup {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "order",
				fmt.Sprintf("duplicate step %q", step.ID()), nil)
		}
		byID[step.ID()] = step
	}

	colors := make(map[string]int, len(steps))
	ordered := make([]Step, 0, len(steps))

	var visit func(step Step) error
	visit = func(step Step) error {
		switch colors[step.ID()] {
		case visited:
			return nil
		case visiting:
			return services.Wrap(services.ErrValidation, "pipeline", "order",
				fmt.Sprintf("dependency cycle involving step %q", step.ID()), nil)
		}
		colors[step.ID()] = visiting
		for _, dep := range step.Dependencies() {
			target, ok := byID[dep]
			if !ok {
				return services.Wrap(services.ErrValidation, "pipeline", "order",
					fmt.Sprintf("step %q depends on unknown step %q", step.ID(), dep), nil)
			}
			if err := visit(target); err != nil {
				return err
			}
		}
		colors[step.ID()] = visited
		ordered = append(ordered, step)
		return nil
	}

	for _, step := range steps {
		if err := visit(step); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
