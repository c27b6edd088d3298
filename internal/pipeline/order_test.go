package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
)

type fakeStep struct {
	id   string
	deps []string
	run  func(ctx context.Context, run *Run) error
}

func (f *fakeStep) ID() string             { return f.id }
func (f *fakeStep) Dependencies() []string { return f.deps }

func (f *fakeStep) Run(ctx context.Context, run *Run) error {
	if f.run == nil {
		return nil
	}
	return f.run(ctx, run)
}

// standardSteps mirrors the production graph shape with inert bodies.
func standardSteps() []Step {
	var steps []Step
	for _, seed := range recipe.DefaultSteps() {
		steps = append(steps, &fakeStep{id: seed.ID, deps: seed.DependsOn})
	}
	return steps
}

func indexOf(ordered []Step, id string) int {
	for i, step := range ordered {
		if step.ID() == id {
			return i
		}
	}
	return -1
}

func TestOrderLinearizesStandardGraph(t *testing.T) {
	ordered, err := Order(standardSteps())
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if len(ordered) != 8 {
		t.Fatalf("order has %d steps, want 8", len(ordered))
	}
	if ordered[0].ID() != recipe.StepValidateInputs {
		t.Fatalf("first step = %s, want %s", ordered[0].ID(), recipe.StepValidateInputs)
	}
	if ordered[len(ordered)-1].ID() != recipe.StepExportOutputs {
		t.Fatalf("last step = %s, want %s", ordered[len(ordered)-1].ID(), recipe.StepExportOutputs)
	}

	quality := indexOf(ordered, recipe.StepQualityCheck)
	if quality < indexOf(ordered, recipe.StepComposeTimeline) ||
		quality < indexOf(ordered, recipe.StepGenerateThumbnail) {
		t.Fatalf("quality-check scheduled too early: %v", ids(ordered))
	}

	// Every step appears after all of its dependencies.
	for i, step := range ordered {
		for _, dep := range step.Dependencies() {
			if indexOf(ordered, dep) >= i {
				t.Fatalf("step %s scheduled before dependency %s: %v", step.ID(), dep, ids(ordered))
			}
		}
	}
}

func ids(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, step.ID())
	}
	return out
}

func TestOrderIsDeterministic(t *testing.T) {
	first, err := Order(standardSteps())
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	second, err := Order(standardSteps())
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	for i := range first {
		if first[i].ID() != second[i].ID() {
			t.Fatalf("order not deterministic: %v vs %v", ids(first), ids(second))
		}
	}

	// Independent steps keep their input ordering.
	independent, err := Order([]Step{
		&fakeStep{id: "zeta"},
		&fakeStep{id: "alpha"},
	})
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if independent[0].ID() != "zeta" || independent[1].ID() != "alpha" {
		t.Fatalf("independent order = %v, want input order", ids(independent))
	}
}

func TestOrderDetectsCycle(t *testing.T) {
	_, err := Order([]Step{
		&fakeStep{id: "a", deps: []string{"c"}},
		&fakeStep{id: "b", deps: []string{"a"}},
		&fakeStep{id: "c", deps: []string{"b"}},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Order error = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("error should mention the cycle: %v", err)
	}
	named := false
	for _, id := range []string{`"a"`, `"b"`, `"c"`} {
		if strings.Contains(err.Error(), id) {
			named = true
		}
	}
	if !named {
		t.Fatalf("error should name a step on the cycle: %v", err)
	}
}

func TestOrderRejectsUnknownDependency(t *testing.T) {
	_, err := Order([]Step{&fakeStep{id: "a", deps: []string{"ghost"}}})
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("Order error = %v, want unknown-dependency error", err)
	}
}

func TestOrderRejectsDuplicateIDs(t *testing.T) {
	_, err := Order([]Step{&fakeStep{id: "a"}, &fakeStep{id: "a"}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Order error = %v, want validation error", err)
	}
}
