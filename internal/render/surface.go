package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"reelsmith/internal/services"
)

// Surface is a reusable RGBA canvas sized to the output geometry. One
// surface belongs to one job; it is redrawn for every frame.
type Surface struct {
	img *image.RGBA
}

// NewSurface allocates a canvas.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, services.Wrap(services.ErrValidation, "render", "surface",
			fmt.Sprintf("surface dimensions %dx%d must be positive", width, height), nil)
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

func (s *Surface) Width() int  { return s.img.Rect.Dx() }
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// RGBA exposes the backing image for drawing.
func (s *Surface) RGBA() *image.RGBA { return s.img }

// Pix exposes the packed RGBA bytes of the current frame, suitable for
// streaming into the raw video capture.
func (s *Surface) Pix() []byte { return s.img.Pix }

// CopyFrom overwrites this surface with the pixels of src. Both surfaces
// must share dimensions.
func (s *Surface) CopyFrom(src *Surface) {
	copy(s.img.Pix, src.img.Pix)
}

// Clone allocates an independent copy of the surface.
func (s *Surface) Clone() *Surface {
	clone := image.NewRGBA(s.img.Rect)
	copy(clone.Pix, s.img.Pix)
	return &Surface{img: clone}
}

// FillSolid paints the whole canvas in one color.
func (s *Surface) FillSolid(hex string) {
	c := parseHexColor(hex, color.NRGBA{A: 0xFF})
	draw.Draw(s.img, s.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// FillVerticalGradient paints a linear top-to-bottom gradient.
func (s *Surface) FillVerticalGradient(topHex, bottomHex string) {
	top := parseHexColor(topHex, color.NRGBA{A: 0xFF})
	bottom := parseHexColor(bottomHex, color.NRGBA{A: 0xFF})
	height := s.Height()
	for y := 0; y < height; y++ {
		t := 0.0
		if height > 1 {
			t = float64(y) / float64(height-1)
		}
		row := image.Rect(0, y, s.Width(), y+1)
		draw.Draw(s.img, row, image.NewUniform(lerpColor(top, bottom, t)), image.Point{}, draw.Src)
	}
}

// DrawCover scales src to cover the whole canvas, cropping the overflow
// around the center.
func (s *Surface) DrawCover(src image.Image) {
	bounds := src.Bounds()
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())
	if srcW <= 0 || srcH <= 0 {
		return
	}
	dstW, dstH := float64(s.Width()), float64(s.Height())
	scale := max(dstW/srcW, dstH/srcH)
	scaledW := int(srcW*scale + 0.5)
	scaledH := int(srcH*scale + 0.5)
	offsetX := (s.Width() - scaledW) / 2
	offsetY := (s.Height() - scaledH) / 2
	target := image.Rect(offsetX, offsetY, offsetX+scaledW, offsetY+scaledH)
	xdraw.BiLinear.Scale(s.img, target, src, bounds, xdraw.Src, nil)
}

// DrawInset scales src to at most widthFrac of the canvas width, keeping
// aspect, and centers it at (centerXFrac, centerYFrac) of the canvas.
func (s *Surface) DrawInset(src image.Image, widthFrac, centerXFrac, centerYFrac float64) {
	bounds := src.Bounds()
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())
	if srcW <= 0 || srcH <= 0 || widthFrac <= 0 {
		return
	}
	targetW := float64(s.Width()) * widthFrac
	scale := targetW / srcW
	scaledW := int(srcW*scale + 0.5)
	scaledH := int(srcH*scale + 0.5)
	centerX := int(float64(s.Width()) * centerXFrac)
	centerY := int(float64(s.Height()) * centerYFrac)
	target := image.Rect(centerX-scaledW/2, centerY-scaledH/2, centerX-scaledW/2+scaledW, centerY-scaledH/2+scaledH)
	xdraw.BiLinear.Scale(s.img, target, src, bounds, xdraw.Over, nil)
}

// FillRect paints a rectangle, compositing alpha over the canvas.
func (s *Surface) FillRect(rect image.Rectangle, c color.Color) {
	draw.Draw(s.img, rect.Intersect(s.img.Rect), image.NewUniform(c), image.Point{}, draw.Over)
}

// WritePNG saves the current frame.
func (s *Surface) WritePNG(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "write_png",
			"creating image file failed", err)
	}
	defer file.Close()
	if err := png.Encode(file, s.img); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "write_png",
			"encoding image failed", err)
	}
	return nil
}

// loadImage decodes a PNG, JPEG, or GIF file.
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "render", "load_image",
			fmt.Sprintf("opening image %s failed", path), err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "render", "load_image",
			fmt.Sprintf("decoding image %s failed", path), err)
	}
	return img, nil
}

// parseHexColor reads #RGB, #RRGGBB, or #RRGGBBAA notation. Unparseable
// values yield the fallback.
func parseHexColor(hex string, fallback color.NRGBA) color.NRGBA {
	value := hex
	if len(value) > 0 && value[0] == '#' {
		value = value[1:]
	}
	switch len(value) {
	case 3:
		var r, g, b uint8
		if _, err := fmt.Sscanf(value, "%1x%1x%1x", &r, &g, &b); err != nil {
			return fallback
		}
		return color.NRGBA{R: r * 0x11, G: g * 0x11, B: b * 0x11, A: 0xFF}
	case 6:
		var r, g, b uint8
		if _, err := fmt.Sscanf(value, "%02x%02x%02x", &r, &g, &b); err != nil {
			return fallback
		}
		return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
	case 8:
		var r, g, b, a uint8
		if _, err := fmt.Sscanf(value, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return fallback
		}
		return color.NRGBA{R: r, G: g, B: b, A: a}
	default:
		return fallback
	}
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}
