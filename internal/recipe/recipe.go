// Package recipe defines the production recipe: what to say, how the video
// looks, and the step graph a scheduler walks to produce it.
package recipe

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/config"
	"reelsmith/internal/narration"
	"reelsmith/internal/services"
	"reelsmith/internal/textutil"
)

// StepStatus is the lifecycle state of a single step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// ParseStepStatus converts stored text to a StepStatus.
func ParseStepStatus(raw string) (StepStatus, error) {
	switch status := StepStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case StepPending, StepRunning, StepCompleted, StepError:
		return status, nil
	default:
		return "", fmt.Errorf("unknown step status %q", raw)
	}
}

// Step is one node of the production graph, carrying its execution record.
type Step struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       StepStatus `json:"status"`
	Progress     int        `json:"progress"`
	Duration     *float64   `json:"duration,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	DependsOn    []string   `json:"depends_on,omitempty"`
	OutputIDs    []string   `json:"output_ids,omitempty"`
	RenderJob    string     `json:"render_job,omitempty"`
}

// BackgroundKind selects how the canvas behind the text is painted.
type BackgroundKind string

const (
	BackgroundSolid    BackgroundKind = "solid"
	BackgroundGradient BackgroundKind = "gradient"
	BackgroundImage    BackgroundKind = "image"
	BackgroundVideo    BackgroundKind = "video"
)

// BackgroundSpec describes the background layer. AssetID is required for
// image and video kinds.
type BackgroundSpec struct {
	Kind        BackgroundKind `json:"kind"`
	Color       string         `json:"color,omitempty"`
	ColorTop    string         `json:"color_top,omitempty"`
	ColorBottom string         `json:"color_bottom,omitempty"`
	AssetID     string         `json:"asset_id,omitempty"`
}

// Anchor places the text block vertically on the canvas.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorMiddle Anchor = "middle"
	AnchorBottom Anchor = "bottom"
)

// TextStyle describes how subtitle text is drawn onto frames.
type TextStyle struct {
	FontPath     string  `json:"font_path,omitempty"`
	Size         float64 `json:"size"`
	Color        string  `json:"color"`
	StrokeColor  string  `json:"stroke_color,omitempty"`
	StrokeWidth  float64 `json:"stroke_width,omitempty"`
	PlateColor   string  `json:"plate_color,omitempty"`
	PlateEnabled bool    `json:"plate_enabled"`
	Anchor       Anchor  `json:"anchor"`
}

// VideoConfig carries the canvas geometry and styling for one recipe.
type VideoConfig struct {
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	FrameRate  int            `json:"frame_rate"`
	Template   string         `json:"template,omitempty"`
	Background BackgroundSpec `json:"background"`
	Text       TextStyle      `json:"text"`
}

// VideoConfigFrom maps the application configuration onto a recipe's video
// settings.
func VideoConfigFrom(cfg *config.Config) VideoConfig {
	return VideoConfig{
		Width:     cfg.Video.Width,
		Height:    cfg.Video.Height,
		FrameRate: cfg.Video.FrameRate,
		Template:  cfg.Video.Template,
		Background: BackgroundSpec{
			Kind:        BackgroundKind(cfg.Video.BackgroundKind),
			Color:       cfg.Video.BackgroundColor,
			ColorTop:    cfg.Video.GradientTop,
			ColorBottom: cfg.Video.GradientBottom,
			AssetID:     cfg.Video.BackgroundAsset,
		},
		Text: TextStyle{
			FontPath:     cfg.Subtitles.FontPath,
			Size:         cfg.Subtitles.FontSize,
			Color:        cfg.Subtitles.TextColor,
			StrokeColor:  cfg.Subtitles.StrokeColor,
			StrokeWidth:  cfg.Subtitles.StrokeWidth,
			PlateColor:   cfg.Subtitles.PlateColor,
			PlateEnabled: cfg.Subtitles.PlateEnabled,
			Anchor:       Anchor(cfg.Subtitles.Anchor),
		},
	}
}

// Recipe is one video production order. Steps hold per-step execution state;
// Narration is filled by the narration step and consumed downstream.
type Recipe struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Materials    []string          `json:"materials,omitempty"`
	Script       string            `json:"script"`
	SubtitleText string            `json:"subtitle_text,omitempty"`
	Narration    *narration.Result `json:"narration,omitempty"`
	Video        VideoConfig       `json:"video"`
	Steps        []*Step           `json:"steps"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// New builds a recipe with a fresh ID and the standard step graph seeded in
// pending state. The script is stored canonically: LF line endings, no
// trailing whitespace, blank-line runs squeezed.
func New(title, script string, video VideoConfig) *Recipe {
	now := time.Now().UTC()
	return &Recipe{
		ID:        uuid.NewString(),
		Title:     title,
		Script:    textutil.CollapseBlankLines(script),
		Video:     video,
		Steps:     DefaultSteps(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StepByID finds a step, or nil.
func (r *Recipe) StepByID(id string) *Step {
	for _, step := range r.Steps {
		if step.ID == id {
			return step
		}
	}
	return nil
}

// ResetSteps returns every step to pending with no progress, error, or
// timing, keeping the graph shape.
func (r *Recipe) ResetSteps() {
	for _, step := range r.Steps {
		step.Status = StepPending
		step.Progress = 0
		step.Duration = nil
		step.ErrorMessage = ""
		step.OutputIDs = nil
	}
	r.Touch()
}

// Touch bumps UpdatedAt.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// Validate checks the recipe is runnable. All failures wrap
// services.ErrValidation.
func (r *Recipe) Validate() error {
	fail := func(msg string) error {
		return services.Wrap(services.ErrValidation, "recipe", "validate", msg, nil)
	}

	if strings.TrimSpace(r.Title) == "" {
		return fail("title is required")
	}
	if strings.TrimSpace(r.Script) == "" && strings.TrimSpace(r.SubtitleText) == "" {
		return fail("a script or subtitle text is required")
	}
	if r.Video.Width <= 0 || r.Video.Height <= 0 {
		return fail(fmt.Sprintf("invalid canvas %dx%d", r.Video.Width, r.Video.Height))
	}
	if r.Video.Width%2 != 0 || r.Video.Height%2 != 0 {
		return fail("canvas dimensions must be even for encoding")
	}
	if r.Video.FrameRate < 1 {
		return fail(fmt.Sprintf("invalid frame rate %d", r.Video.FrameRate))
	}

	switch r.Video.Background.Kind {
	case BackgroundSolid, BackgroundGradient:
	case BackgroundImage, BackgroundVideo:
		if strings.TrimSpace(r.Video.Background.AssetID) == "" {
			return fail(fmt.Sprintf("background kind %q requires an asset", r.Video.Background.Kind))
		}
	default:
		return fail(fmt.Sprintf("unknown background kind %q", r.Video.Background.Kind))
	}

	switch r.Video.Text.Anchor {
	case AnchorTop, AnchorMiddle, AnchorBottom:
	default:
		return fail(fmt.Sprintf("unknown text anchor %q", r.Video.Text.Anchor))
	}

	seen := make(map[string]struct{}, len(r.Steps))
	for _, step := range r.Steps {
		if _, dup := seen[step.ID]; dup {
			return fail(fmt.Sprintf("duplicate step %q", step.ID))
		}
		seen[step.ID] = struct{}{}
	}
	for _, step := range r.Steps {
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fail(fmt.Sprintf("step %q depends on unknown step %q", step.ID, dep))
			}
		}
	}
	return nil
}
