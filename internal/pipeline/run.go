package pipeline

import (
	"context"
	"sync"

	"reelsmith/internal/assets"
	"reelsmith/internal/narration"
	"reelsmith/internal/recipe"
	"reelsmith/internal/render"
	"reelsmith/internal/services"
	"reelsmith/internal/subtitle"
)

// QualityReport is the quality-check step's product.
type QualityReport struct {
	Passed bool
	Notes  []string
}

// Run carries the shared state of one recipe execution: the recipe, a
// working directory for artifacts, and what the steps have produced so far.
// Accessors are safe for concurrent steps.
type Run struct {
	Recipe  *recipe.Recipe
	WorkDir string

	mu        sync.Mutex
	report    func(stepID string, percent int, message string)
	segments  []string
	entries   []subtitle.Entry
	doc       string
	assets    map[string]assets.Asset
	timeline  *render.Timeline
	thumbnail string
	outputs   []render.Output
	quality   *QualityReport
}

// NewRun prepares run state for a recipe. WorkDir is where steps place
// intermediate and final artifacts.
func NewRun(rec *recipe.Recipe, workDir string) *Run {
	return &Run{
		Recipe:  rec,
		WorkDir: workDir,
		assets:  make(map[string]assets.Asset),
	}
}

// Progress reports step progress. The step ID is taken from the context the
// executor handed to the step; calls outside a step are dropped.
func (r *Run) Progress(ctx context.Context, percent int, message string) {
	stepID, ok := services.StepFromContext(ctx)
	if !ok {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	r.mu.Lock()
	report := r.report
	r.mu.Unlock()
	if report != nil {
		report(stepID, percent, message)
	}
}

func (r *Run) setReporter(report func(stepID string, percent int, message string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = report
}

// SetSegments stores the planned narration segment texts.
func (r *Run) SetSegments(segments []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append([]string(nil), segments...)
}

// Segments returns the planned narration segment texts.
func (r *Run) Segments() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.segments...)
}

// SetSubtitles stores the timed subtitle cues and their serialized document.
func (r *Run) SetSubtitles(entries []subtitle.Entry, doc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]subtitle.Entry(nil), entries...)
	r.doc = doc
}

// Subtitles returns the timed subtitle cues, nil when not produced yet.
func (r *Run) Subtitles() []subtitle.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		return nil
	}
	return append([]subtitle.Entry(nil), r.entries...)
}

// SubtitleDoc returns the serialized subtitle document.
func (r *Run) SubtitleDoc() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

// SetNarration stores the narration result on the recipe.
func (r *Run) SetNarration(result *narration.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Recipe.Narration = result
}

// Narration returns the recipe's narration result, nil before the narration
// step ran.
func (r *Run) Narration() *narration.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Recipe.Narration
}

// SetAsset records a resolved material.
func (r *Run) SetAsset(id string, asset assets.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[id] = asset
}

// Asset looks up a resolved material.
func (r *Run) Asset(id string) (assets.Asset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	return asset, ok
}

// Assets returns all resolved materials keyed by ID.
func (r *Run) Assets() map[string]assets.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]assets.Asset, len(r.assets))
	for id, asset := range r.assets {
		out[id] = asset
	}
	return out
}

// SetTimeline stores the composed timeline.
func (r *Run) SetTimeline(timeline *render.Timeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeline = timeline
}

// Timeline returns the composed timeline, nil before composition.
func (r *Run) Timeline() *render.Timeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeline
}

// SetThumbnail records the rendered thumbnail path.
func (r *Run) SetThumbnail(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thumbnail = path
}

// Thumbnail returns the rendered thumbnail path.
func (r *Run) Thumbnail() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.thumbnail
}

// AddOutputs appends produced outputs. Outputs are append-only.
func (r *Run) AddOutputs(outputs ...render.Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, outputs...)
}

// Outputs returns every produced output so far.
func (r *Run) Outputs() []render.Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]render.Output(nil), r.outputs...)
}

// SetQuality stores the quality-check report.
func (r *Run) SetQuality(report *QualityReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quality = report
}

// Quality returns the quality-check report, nil before the check ran.
func (r *Run) Quality() *QualityReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quality
}
