package render

import (
	"image"
	"image/color"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
	"reelsmith/internal/subtitle"
)

// TextRenderer draws styled, line-wrapped text onto surfaces. One renderer
// serves every frame of a job.
type TextRenderer struct {
	face       font.Face
	style      recipe.TextStyle
	formatter  subtitle.Formatter
	lineHeight int
	ascent     int
}

// NewTextRenderer loads the style's font and prepares a renderer wrapping
// lines at maxLineWidth full-width units. An empty font path falls back to
// the embedded face; a configured path that cannot be read is an error.
func NewTextRenderer(style recipe.TextStyle, maxLineWidth float64) (*TextRenderer, error) {
	data := goregular.TTF
	if style.FontPath != "" {
		loaded, err := os.ReadFile(style.FontPath)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "render", "load_font",
				"reading font file failed", err)
		}
		data = loaded
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "load_font",
			"parsing font failed", err)
	}
	size := style.Size
	if size <= 0 {
		size = 48
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "load_font",
			"building font face failed", err)
	}
	metrics := face.Metrics()
	return &TextRenderer{
		face:       face,
		style:      style,
		formatter:  subtitle.NewFormatter(maxLineWidth),
		lineHeight: metrics.Height.Ceil(),
		ascent:     metrics.Ascent.Ceil(),
	}, nil
}

// Close releases the font face.
func (r *TextRenderer) Close() error {
	return r.face.Close()
}

// Wrap returns the text split into display lines.
func (r *TextRenderer) Wrap(text string) []string {
	return r.formatter.Format(text)
}

// Draw wraps text and paints it onto the surface at the style's anchor,
// horizontally centered, with the optional plate and stroke.
func (r *TextRenderer) Draw(s *Surface, text string) {
	lines := r.Wrap(text)
	if len(lines) == 0 {
		return
	}
	blockHeight := r.lineHeight * len(lines)
	margin := s.Height() / 12

	var top int
	switch r.style.Anchor {
	case recipe.AnchorTop:
		top = margin
	case recipe.AnchorMiddle:
		top = (s.Height() - blockHeight) / 2
	default:
		top = s.Height() - blockHeight - margin
	}

	widths := make([]int, len(lines))
	maxWidth := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(r.face, line).Ceil()
		if widths[i] > maxWidth {
			maxWidth = widths[i]
		}
	}

	if r.style.PlateEnabled {
		pad := r.lineHeight / 3
		plate := image.Rect(
			(s.Width()-maxWidth)/2-pad,
			top-pad,
			(s.Width()+maxWidth)/2+pad,
			top+blockHeight+pad,
		)
		s.FillRect(plate, parseHexColor(r.style.PlateColor, color.NRGBA{A: 0xAA}))
	}

	textColor := parseHexColor(r.style.Color, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	strokeColor := parseHexColor(r.style.StrokeColor, color.NRGBA{A: 0xFF})
	strokeRadius := int(r.style.StrokeWidth + 0.5)

	for i, line := range lines {
		x := (s.Width() - widths[i]) / 2
		y := top + i*r.lineHeight + r.ascent
		if strokeRadius > 0 && !r.style.PlateEnabled {
			r.drawStroke(s, line, x, y, strokeRadius, strokeColor)
		}
		r.drawLine(s, line, x, y, textColor)
	}
}

// drawStroke approximates an outline by repainting the line at every
// offset within the stroke radius.
func (r *TextRenderer) drawStroke(s *Surface, line string, x, y, radius int, c color.NRGBA) {
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			r.drawLine(s, line, x+dx, y+dy, c)
		}
	}
}

func (r *TextRenderer) drawLine(s *Surface, line string, x, y int, c color.NRGBA) {
	drawer := font.Drawer{
		Dst:  s.RGBA(),
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(line)
}
