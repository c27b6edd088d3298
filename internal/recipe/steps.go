package recipe

// Step IDs of the standard production graph.
const (
	StepValidateInputs    = "validate-inputs"
	StepGenerateSubtitles = "generate-subtitles"
	StepGenerateNarration = "generate-narration"
	StepPrepareMedia      = "prepare-media"
	StepComposeTimeline   = "compose-timeline"
	StepGenerateThumbnail = "generate-thumbnail"
	StepQualityCheck      = "quality-check"
	StepExportOutputs     = "export-outputs"
)

// DefaultSteps seeds the standard eight-step graph in pending state. The
// graph shape is data: callers may prune or extend it before scheduling.
func DefaultSteps() []*Step {
	seed := []struct {
		id        string
		name      string
		dependsOn []string
	}{
		{StepValidateInputs, "Validate inputs", nil},
		{StepGenerateSubtitles, "Generate subtitles", []string{StepValidateInputs}},
		{StepGenerateNarration, "Generate narration", []string{StepGenerateSubtitles}},
		{StepPrepareMedia, "Prepare media", []string{StepValidateInputs}},
		{StepComposeTimeline, "Compose timeline", []string{StepGenerateNarration, StepPrepareMedia}},
		{StepGenerateThumbnail, "Generate thumbnail", []string{StepComposeTimeline}},
		{StepQualityCheck, "Quality check", []string{StepComposeTimeline, StepGenerateThumbnail}},
		{StepExportOutputs, "Export outputs", []string{StepQualityCheck}},
	}

	steps := make([]*Step, 0, len(seed))
	for _, s := range seed {
		steps = append(steps, &Step{
			ID:        s.id,
			Name:      s.name,
			Status:    StepPending,
			DependsOn: append([]string(nil), s.dependsOn...),
		})
	}
	return steps
}
