package render

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/services"
)

func newTestSurface(t *testing.T, width, height int) *Surface {
	t.Helper()
	s, err := NewSurface(width, height)
	if err != nil {
		t.Fatalf("NewSurface(%d, %d) error = %v", width, height, err)
	}
	return s
}

func TestNewSurfaceRejectsBadGeometry(t *testing.T) {
	if _, err := NewSurface(0, 10); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("NewSurface(0, 10) error = %v, want validation error", err)
	}
	if _, err := NewSurface(10, -1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("NewSurface(10, -1) error = %v, want validation error", err)
	}
}

func TestFillSolid(t *testing.T) {
	s := newTestSurface(t, 4, 4)
	s.FillSolid("#FF0000")

	want := color.RGBA{R: 0xFF, A: 0xFF}
	if got := s.RGBA().RGBAAt(0, 0); got != want {
		t.Fatalf("corner = %v, want %v", got, want)
	}
	if got := s.RGBA().RGBAAt(3, 3); got != want {
		t.Fatalf("opposite corner = %v, want %v", got, want)
	}
	if got, wantLen := len(s.Pix()), 4*4*4; got != wantLen {
		t.Fatalf("Pix() length = %d, want %d", got, wantLen)
	}
}

func TestFillVerticalGradient(t *testing.T) {
	s := newTestSurface(t, 2, 10)
	s.FillVerticalGradient("#000000", "#FFFFFF")

	top := s.RGBA().RGBAAt(0, 0)
	bottom := s.RGBA().RGBAAt(0, 9)
	if top.R != 0 || top.G != 0 || top.B != 0 {
		t.Fatalf("top row = %v, want black", top)
	}
	if bottom.R != 0xFF || bottom.G != 0xFF || bottom.B != 0xFF {
		t.Fatalf("bottom row = %v, want white", bottom)
	}
	middle := s.RGBA().RGBAAt(0, 5)
	if middle.R <= top.R || middle.R >= bottom.R {
		t.Fatalf("middle row = %v, want between the endpoints", middle)
	}
}

func TestCopyFromAndClone(t *testing.T) {
	base := newTestSurface(t, 3, 3)
	base.FillSolid("#00FF00")
	work := newTestSurface(t, 3, 3)
	work.CopyFrom(base)
	if got := work.RGBA().RGBAAt(1, 1); got.G != 0xFF {
		t.Fatalf("CopyFrom pixel = %v, want green", got)
	}

	clone := base.Clone()
	base.FillSolid("#0000FF")
	if got := clone.RGBA().RGBAAt(1, 1); got.G != 0xFF || got.B != 0 {
		t.Fatalf("clone pixel followed the source: %v", got)
	}
}

func TestDrawCoverFillsCanvas(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 5))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	s := newTestSurface(t, 4, 8)
	s.FillSolid("#000000")
	s.DrawCover(src)

	for _, p := range []image.Point{{0, 0}, {3, 0}, {0, 7}, {3, 7}, {2, 4}} {
		if got := s.RGBA().RGBAAt(p.X, p.Y); got.R != 0xFF {
			t.Fatalf("pixel %v = %v, want covered", p, got)
		}
	}
}

func TestDrawInsetCentersImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	s := newTestSurface(t, 10, 10)
	s.FillSolid("#000000")
	s.DrawInset(src, 0.4, 0.5, 0.5)

	if got := s.RGBA().RGBAAt(5, 5); got.R != 0xFF {
		t.Fatalf("center = %v, want the inset image", got)
	}
	if got := s.RGBA().RGBAAt(0, 0); got.R != 0 {
		t.Fatalf("corner = %v, want untouched background", got)
	}
}

func TestFillRectClipsToCanvas(t *testing.T) {
	s := newTestSurface(t, 4, 4)
	s.FillSolid("#000000")
	s.FillRect(image.Rect(2, 2, 100, 100), color.NRGBA{R: 0xFF, A: 0xFF})

	if got := s.RGBA().RGBAAt(3, 3); got.R != 0xFF {
		t.Fatalf("inside pixel = %v, want filled", got)
	}
	if got := s.RGBA().RGBAAt(0, 0); got.R != 0 {
		t.Fatalf("outside pixel = %v, want untouched", got)
	}
}

func TestParseHexColor(t *testing.T) {
	fallback := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	cases := []struct {
		name string
		hex  string
		want color.NRGBA
	}{
		{"short form", "#F00", color.NRGBA{R: 0xFF, A: 0xFF}},
		{"full form", "#00ff00", color.NRGBA{G: 0xFF, A: 0xFF}},
		{"with alpha", "#11223344", color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{"no hash", "0000FF", color.NRGBA{B: 0xFF, A: 0xFF}},
		{"garbage", "#nothex", fallback},
		{"empty", "", fallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseHexColor(tc.hex, fallback); got != tc.want {
				t.Fatalf("parseHexColor(%q) = %v, want %v", tc.hex, got, tc.want)
			}
		})
	}
}

func TestWritePNGRoundTrip(t *testing.T) {
	s := newTestSurface(t, 4, 4)
	s.FillSolid("#ABCDEF")
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := s.WritePNG(path); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	img, err := loadImage(path)
	if err != nil {
		t.Fatalf("loadImage() error = %v", err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 4 || bounds.Dy() != 4 {
		t.Fatalf("decoded bounds = %v", bounds)
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	_, err := loadImage(filepath.Join(t.TempDir(), "absent.png"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("loadImage(absent) error = %v, want not found", err)
	}
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := loadImage(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("loadImage(junk) error = %v, want validation error", err)
	}
}
