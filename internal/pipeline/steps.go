package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reelsmith/internal/assets"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/recipe"
	"reelsmith/internal/render"
	"reelsmith/internal/services"
	"reelsmith/internal/speech"
	"reelsmith/internal/subtitle"
)

// Deps bundles the collaborators the production steps share. Narrator and
// Renderer are required for a full production; Registry is optional and
// retains render jobs for later inspection. OutputDir, when set, receives a
// copy of every product the export registers.
type Deps struct {
	Narrator  *narration.Engine
	Voice     speech.VoiceOptions
	Resolver  assets.Resolver
	Renderer  *render.Renderer
	Registry  *render.Registry
	OutputDir string
	LineWidth float64
	Logger    *slog.Logger
}

// ProductionSteps builds the standard eight-step graph bound to deps. The
// result plugs straight into Executor.Run; the dependency edges come from
// the recipe's seed graph.
func ProductionSteps(deps Deps) []Step {
	if deps.LineWidth <= 0 {
		deps.LineWidth = 13
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	formatter := subtitle.NewFormatter(deps.LineWidth)
	return []Step{
		&validateInputsStep{stepBase: base(recipe.StepValidateInputs)},
		&generateSubtitlesStep{stepBase: base(recipe.StepGenerateSubtitles), formatter: formatter},
		&generateNarrationStep{
			stepBase:  base(recipe.StepGenerateNarration),
			engine:    deps.Narrator,
			voice:     deps.Voice,
			formatter: formatter,
			logger:    logger,
		},
		&prepareMediaStep{stepBase: base(recipe.StepPrepareMedia), resolver: deps.Resolver},
		&composeTimelineStep{stepBase: base(recipe.StepComposeTimeline)},
		&generateThumbnailStep{stepBase: base(recipe.StepGenerateThumbnail), renderer: deps.Renderer},
		&qualityCheckStep{stepBase: base(recipe.StepQualityCheck), logger: logger},
		&exportOutputsStep{
			stepBase:  base(recipe.StepExportOutputs),
			renderer:  deps.Renderer,
			registry:  deps.Registry,
			outputDir: deps.OutputDir,
		},
	}
}

// stepBase carries a step's identity. Dependency edges come from
// recipe.DefaultSteps so the scheduler and the recipe records agree on the
// graph shape.
type stepBase struct {
	id   string
	deps []string
}

func base(id string) stepBase {
	for _, seed := range recipe.DefaultSteps() {
		if seed.ID == id {
			return stepBase{id: id, deps: seed.DependsOn}
		}
	}
	return stepBase{id: id}
}

func (s stepBase) ID() string             { return s.id }
func (s stepBase) Dependencies() []string { return s.deps }

// validateInputsStep rejects unproducible recipes before any work starts
// and prepares the run workspace.
type validateInputsStep struct {
	stepBase
}

func (s *validateInputsStep) Run(_ context.Context, run *Run) error {
	if err := run.Recipe.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(run.WorkDir) == "" {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate_inputs",
			"run workspace directory is not set", nil)
	}
	if err := os.MkdirAll(run.WorkDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate_inputs",
			"creating run workspace failed", err)
	}
	return nil
}

// generateSubtitlesStep plans the narration segments. Authored cue text
// wins: it is parsed and rewrapped, and its timing later drives synthesis.
// A bare script is segmented; those segments receive their timing from the
// narration step.
type generateSubtitlesStep struct {
	stepBase
	formatter subtitle.Formatter
}

func (s *generateSubtitlesStep) Run(_ context.Context, run *Run) error {
	rec := run.Recipe
	if text := strings.TrimSpace(rec.SubtitleText); text != "" {
		entries, err := subtitle.Parse(text)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return services.Wrap(services.ErrValidation, "pipeline", "generate_subtitles",
				"subtitle text contains no cues", nil)
		}
		entries = subtitle.Reflow(entries, s.formatter)
		run.SetSubtitles(entries, subtitle.Marshal(entries))
		segments := make([]string, 0, len(entries))
		for _, entry := range entries {
			segments = append(segments, strings.ReplaceAll(entry.Text, "\n", " "))
		}
		run.SetSegments(segments)
		return nil
	}

	segments := narration.Split(rec.Script)
	if len(segments) == 0 {
		return services.Wrap(services.ErrValidation, "pipeline", "generate_subtitles",
			"script yields no narration segments", nil)
	}
	run.SetSegments(segments)
	return nil
}

// generateNarrationStep synthesizes the narration track. Authored cues keep
// their timing exactly; segmented scripts are laid out sequentially. Either
// way the timed, rewrapped cue track lands on the run for burn-in and
// export.
type generateNarrationStep struct {
	stepBase
	engine    *narration.Engine
	voice     speech.VoiceOptions
	formatter subtitle.Formatter
	logger    *slog.Logger
}

func (s *generateNarrationStep) Run(ctx context.Context, run *Run) error {
	if s.engine == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "generate_narration",
			"narration engine is not configured", nil)
	}

	var (
		result *narration.Result
		err    error
	)
	if entries := run.Subtitles(); len(entries) > 0 {
		result, err = s.engine.GenerateFromEntries(ctx, entries, s.voice)
	} else {
		result, err = s.engine.Generate(ctx, run.Recipe.Script, s.voice)
	}
	if err != nil {
		return err
	}
	run.SetNarration(result)

	if len(run.Subtitles()) == 0 {
		cues := subtitle.Reflow(result.SubtitleEntries(), s.formatter)
		run.SetSubtitles(cues, subtitle.Marshal(cues))
	}
	// The recipe document carries the final cue track so a later render
	// reuses this run's timing instead of re-deriving it.
	run.Recipe.SubtitleText = run.SubtitleDoc()

	if failed := result.FailedSegments(); len(failed) > 0 {
		s.logger.Warn("segments without audio render silent",
			logging.String(logging.FieldRecipeID, run.Recipe.ID),
			logging.Int("segments", len(failed)))
	}
	s.logger.Info("narration laid out",
		logging.String(logging.FieldRecipeID, run.Recipe.ID),
		logging.Int("segments", len(result.Segments)),
		logging.Float64("seconds", result.Duration))
	return nil
}

// prepareMediaStep resolves every referenced material to an on-disk asset.
// The background asset is resolved even when the materials list omits it.
type prepareMediaStep struct {
	stepBase
	resolver assets.Resolver
}

func (s *prepareMediaStep) Run(ctx context.Context, run *Run) error {
	rec := run.Recipe
	ids := make([]string, 0, len(rec.Materials)+1)
	seen := make(map[string]struct{}, len(rec.Materials)+1)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range rec.Materials {
		add(id)
	}
	switch rec.Video.Background.Kind {
	case recipe.BackgroundImage, recipe.BackgroundVideo:
		add(rec.Video.Background.AssetID)
	}

	if len(ids) == 0 {
		return nil
	}
	if s.resolver == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "prepare_media",
			"no material resolver configured", nil)
	}
	for i, id := range ids {
		asset, err := s.resolver.Resolve(ctx, id)
		if err != nil {
			return err
		}
		run.SetAsset(id, asset)
		run.Progress(ctx, (i+1)*100/len(ids), fmt.Sprintf("resolved %s", id))
	}
	return nil
}

// composeTimelineStep builds the visual timeline from the recipe, the
// narration layout, and the resolved materials.
type composeTimelineStep struct {
	stepBase
}

func (s *composeTimelineStep) Run(_ context.Context, run *Run) error {
	timeline, err := render.Build(run.Recipe, run.Narration(), run.Assets())
	if err != nil {
		return err
	}
	run.SetTimeline(timeline)
	return nil
}

// generateThumbnailStep rasterizes the timeline's first frame as the recipe
// preview. The quality gate inspects it before the export renders.
type generateThumbnailStep struct {
	stepBase
	renderer *render.Renderer
}

func (s *generateThumbnailStep) Run(ctx context.Context, run *Run) error {
	if s.renderer == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "generate_thumbnail",
			"renderer is not configured", nil)
	}
	timeline := run.Timeline()
	if timeline == nil {
		return services.Wrap(services.ErrValidation, "pipeline", "generate_thumbnail",
			"timeline has not been composed", nil)
	}
	path := filepath.Join(run.WorkDir, "preview.png")
	spec := render.Spec{
		Recipe:    run.Recipe,
		Narration: run.Narration(),
		Materials: run.Assets(),
		Timeline:  timeline,
	}
	if err := s.renderer.Preview(ctx, spec, path); err != nil {
		return err
	}
	run.SetThumbnail(path)
	return nil
}

// qualityCheckStep probes everything the export is about to depend on: the
// composed timeline, the preview image, the resolved materials, and the
// synthesized narration clips. Findings that make the export unsafe fail
// the run; advisory findings stay in the report.
type qualityCheckStep struct {
	stepBase
	logger *slog.Logger
}

func (s *qualityCheckStep) Run(_ context.Context, run *Run) error {
	report := &QualityReport{Passed: true}
	var firstFailing string
	flag := func(format string, args ...any) {
		report.Passed = false
		msg := fmt.Sprintf(format, args...)
		if firstFailing == "" {
			firstFailing = msg
		}
		report.Notes = append(report.Notes, msg)
	}
	note := func(format string, args ...any) {
		report.Notes = append(report.Notes, fmt.Sprintf(format, args...))
	}

	timeline := run.Timeline()
	if timeline == nil {
		flag("timeline has not been composed")
	} else if err := timeline.Validate(); err != nil {
		flag("timeline rejected: %v", err)
	}

	if thumb := run.Thumbnail(); thumb == "" {
		flag("preview thumbnail has not been generated")
	} else if cfg, err := probePNG(thumb); err != nil {
		flag("preview thumbnail unreadable: %v", err)
	} else if timeline != nil && (cfg.Width != timeline.Width || cfg.Height != timeline.Height) {
		flag("preview thumbnail is %dx%d, canvas is %dx%d",
			cfg.Width, cfg.Height, timeline.Width, timeline.Height)
	}

	materials := run.Assets()
	ids := make([]string, 0, len(materials))
	for id := range materials {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		info, err := os.Stat(materials[id].Path)
		switch {
		case err != nil:
			flag("material %s missing from %s", id, materials[id].Path)
		case info.Size() == 0:
			flag("material %s is empty", id)
		}
	}

	result := run.Narration()
	if result == nil {
		flag("narration has not been generated")
	} else {
		if !result.Success && result.ErrorMessage != "" {
			note(result.ErrorMessage)
		}
		silent := 0
		for _, segment := range result.Segments {
			if !segment.Synthesized() {
				silent++
				continue
			}
			if info, err := os.Stat(segment.AudioPath); err != nil || info.Size() == 0 {
				flag("narration clip for %s is missing or empty", segment.ID)
			}
		}
		if silent > 0 {
			note("%d segment(s) have no audio and render silent", silent)
		}
	}

	run.SetQuality(report)
	if !report.Passed {
		return services.Wrap(services.ErrValidation, "pipeline", "quality_check",
			firstFailing, nil)
	}
	s.logger.Info("quality check passed",
		logging.String(logging.FieldRecipeID, run.Recipe.ID),
		logging.Int("notes", len(report.Notes)))
	return nil
}

func probePNG(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	return png.DecodeConfig(f)
}

// exportOutputsStep runs the full render, publishes the products into the
// output directory, and registers them on the run and on its own step
// record.
type exportOutputsStep struct {
	stepBase
	renderer  *render.Renderer
	registry  *render.Registry
	outputDir string
}

func (s *exportOutputsStep) Run(ctx context.Context, run *Run) error {
	if s.renderer == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "export_outputs",
			"renderer is not configured", nil)
	}
	record := run.Recipe.StepByID(s.id)
	job, mode, err := s.obtainJob(record, run)
	if err != nil {
		return err
	}
	spec := render.Spec{
		Recipe:    run.Recipe,
		Narration: run.Narration(),
		Materials: run.Assets(),
		Timeline:  run.Timeline(),
		Subtitles: run.Subtitles(),
		Progress: func(percent int, stage render.Checkpoint) {
			run.Progress(ctx, percent, string(stage))
		},
	}
	if err := s.renderer.Render(ctx, job, spec, mode); err != nil {
		return err
	}
	outputs := job.Outputs()
	if s.outputDir != "" {
		published, err := publishOutputs(outputs, filepath.Join(s.outputDir, publishDirName(run.Recipe)))
		if err != nil {
			return err
		}
		outputs = published
		if s.registry != nil {
			// The published copies are canonical now. Dropping the job
			// releases the workdir originals and frees its registry slot.
			_ = s.registry.Remove(job.ID)
		}
	}
	run.AddOutputs(outputs...)
	if record != nil {
		ids := make([]string, 0, len(outputs))
		for _, output := range outputs {
			ids = append(ids, output.ID)
		}
		record.OutputIDs = ids
	}
	return nil
}

// obtainJob finds the render job for this export. When an earlier attempt in
// this process left its job registered, the render resumes after that job's
// last checkpoint instead of starting over. The job ID rides on the step
// record, which persists with the recipe between attempts.
func (s *exportOutputsStep) obtainJob(record *recipe.Step, run *Run) (*render.Job, render.Mode, error) {
	if s.registry != nil && record != nil && record.RenderJob != "" {
		if prev, ok := s.registry.Get(record.RenderJob); ok && prev.RecipeID == run.Recipe.ID {
			return prev, render.ModeResume, nil
		}
	}
	job := render.NewJob(run.Recipe.ID, run.WorkDir)
	if s.registry != nil {
		if err := s.registry.Add(job); err != nil {
			return nil, "", err
		}
	}
	if record != nil {
		record.RenderJob = job.ID
	}
	return job, render.ModeFull, nil
}
