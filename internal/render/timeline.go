package render

import (
	"fmt"
	"math"
	"sort"

	"reelsmith/internal/assets"
	"reelsmith/internal/narration"
	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
)

// BackgroundLayer is the single full-frame layer at the bottom of the
// stack. The kind decides which of the remaining fields matter.
type BackgroundLayer struct {
	Kind        recipe.BackgroundKind
	Color       string
	ColorTop    string
	ColorBottom string
	AssetPath   string
}

// TextWindow shows one narration segment's text during [Start, End).
type TextWindow struct {
	Text  string
	Start float64
	End   float64
}

// OverlayWindow shows an image asset during [Start, End).
type OverlayWindow struct {
	AssetPath string
	Start     float64
	End       float64
}

// Timeline declares the composed video: canvas geometry, one background,
// text windows timed to the narration, and asset overlays. The frame at
// any timestamp is fully determined by the timeline.
type Timeline struct {
	Width      int
	Height     int
	FrameRate  int
	Duration   float64
	Background BackgroundLayer
	Texts      []TextWindow
	Overlays   []OverlayWindow
	Style      recipe.TextStyle
}

// Build composes the timeline for a recipe from its narration result and
// resolved materials. Image and video backgrounds take their path from
// materials; image materials other than the background become full-length
// overlays.
func Build(rec *recipe.Recipe, result *narration.Result, materials map[string]assets.Asset) (*Timeline, error) {
	fail := func(message string) (*Timeline, error) {
		return nil, services.Wrap(services.ErrValidation, "render", "compose", message, nil)
	}
	if rec == nil {
		return fail("recipe is required")
	}
	if result == nil || len(result.Segments) == 0 {
		return fail("narration result with segments is required")
	}

	duration := result.Duration
	if last := result.Segments[len(result.Segments)-1]; last.End > duration {
		duration = last.End
	}
	if duration <= 0 {
		return fail("narration duration must be positive")
	}

	tl := &Timeline{
		Width:     rec.Video.Width,
		Height:    rec.Video.Height,
		FrameRate: rec.Video.FrameRate,
		Duration:  duration,
		Style:     rec.Video.Text,
	}

	bg := rec.Video.Background
	tl.Background = BackgroundLayer{
		Kind:        bg.Kind,
		Color:       bg.Color,
		ColorTop:    bg.ColorTop,
		ColorBottom: bg.ColorBottom,
	}
	switch bg.Kind {
	case recipe.BackgroundSolid, recipe.BackgroundGradient:
	case recipe.BackgroundImage, recipe.BackgroundVideo:
		asset, ok := materials[bg.AssetID]
		if !ok {
			return fail(fmt.Sprintf("background asset %q is not resolved", bg.AssetID))
		}
		tl.Background.AssetPath = asset.Path
	default:
		return fail(fmt.Sprintf("unknown background kind %q", bg.Kind))
	}

	for _, segment := range result.Segments {
		if segment.Text == "" {
			continue
		}
		tl.Texts = append(tl.Texts, TextWindow{
			Text:  segment.Text,
			Start: segment.Start,
			End:   segment.End,
		})
	}

	for _, id := range rec.Materials {
		if id == bg.AssetID {
			continue
		}
		asset, ok := materials[id]
		if !ok || asset.Kind != assets.KindImage {
			continue
		}
		tl.Overlays = append(tl.Overlays, OverlayWindow{
			AssetPath: asset.Path,
			Start:     0,
			End:       duration,
		})
	}

	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

// Validate checks the timeline invariants: a positive even canvas, a known
// background, a positive duration, and non-overlapping text windows.
func (t *Timeline) Validate() error {
	fail := func(message string) error {
		return services.Wrap(services.ErrValidation, "render", "timeline", message, nil)
	}
	if t == nil {
		return fail("timeline is required")
	}
	if t.Width <= 0 || t.Height <= 0 {
		return fail("canvas dimensions must be positive")
	}
	if t.Width%2 != 0 || t.Height%2 != 0 {
		return fail("canvas dimensions must be even")
	}
	if t.FrameRate < 1 {
		return fail("frame rate must be at least 1")
	}
	if t.Duration <= 0 {
		return fail("duration must be positive")
	}
	switch t.Background.Kind {
	case recipe.BackgroundSolid, recipe.BackgroundGradient:
	case recipe.BackgroundImage, recipe.BackgroundVideo:
		if t.Background.AssetPath == "" {
			return fail(fmt.Sprintf("background kind %q requires an asset path", t.Background.Kind))
		}
	default:
		return fail(fmt.Sprintf("unknown background kind %q", t.Background.Kind))
	}

	windows := append([]TextWindow(nil), t.Texts...)
	sort.Slice(windows, func(i, k int) bool { return windows[i].Start < windows[k].Start })
	for i, window := range windows {
		if window.End <= window.Start {
			return fail(fmt.Sprintf("text window %d has a non-positive duration", i+1))
		}
		if i > 0 && window.Start < windows[i-1].End {
			return fail(fmt.Sprintf("text windows %d and %d overlap", i, i+1))
		}
	}
	for i, overlay := range t.Overlays {
		if overlay.End <= overlay.Start {
			return fail(fmt.Sprintf("overlay window %d has a non-positive duration", i+1))
		}
		if overlay.AssetPath == "" {
			return fail(fmt.Sprintf("overlay window %d has no asset path", i+1))
		}
	}
	return nil
}

// FrameCount is the number of frames the run rasterizes.
func (t *Timeline) FrameCount() int {
	return int(math.Ceil(t.Duration * float64(t.FrameRate)))
}

// ActiveText returns the text window covering timestamp ts. Windows do not
// overlap, so at most one matches.
func (t *Timeline) ActiveText(ts float64) (TextWindow, bool) {
	for _, window := range t.Texts {
		if ts >= window.Start && ts < window.End {
			return window, true
		}
	}
	return TextWindow{}, false
}

// ActiveOverlays returns the overlay windows covering timestamp ts, in
// declaration order.
func (t *Timeline) ActiveOverlays(ts float64) []OverlayWindow {
	var active []OverlayWindow
	for _, overlay := range t.Overlays {
		if ts >= overlay.Start && ts < overlay.End {
			active = append(active, overlay)
		}
	}
	return active
}
