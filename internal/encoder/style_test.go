package encoder

import (
	"testing"

	"reelsmith/internal/recipe"
)

func TestForceStyleStroke(t *testing.T) {
	style := recipe.TextStyle{
		FontPath:    "/fonts/NotoSansCJKjp-Bold.otf",
		Size:        48,
		Color:       "#FFFFFF",
		StrokeColor: "#000000",
		StrokeWidth: 2,
		Anchor:      recipe.AnchorBottom,
	}
	got := ForceStyle(style)
	want := "FontName=NotoSansCJKjp Bold,FontSize=48,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,BorderStyle=1,Outline=2,Alignment=2"
	if got != want {
		t.Fatalf("ForceStyle() = %q, want %q", got, want)
	}
}

func TestForceStylePlate(t *testing.T) {
	style := recipe.TextStyle{
		Size:         36,
		Color:        "#FFCC00",
		PlateEnabled: true,
		PlateColor:   "#00000080",
		Anchor:       recipe.AnchorTop,
	}
	got := ForceStyle(style)
	want := "FontSize=36,PrimaryColour=&H00CCFF,OutlineColour=&H7F000000,BorderStyle=3,Outline=3,Alignment=8"
	if got != want {
		t.Fatalf("ForceStyle() = %q, want %q", got, want)
	}
}

func TestSubtitleFilter(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		style string
		want  string
	}{
		{"plain", "/tmp/out.srt", "", "subtitles='/tmp/out.srt'"},
		{"styled", "/tmp/out.srt", "FontSize=32", "subtitles='/tmp/out.srt':force_style='FontSize=32'"},
		{"escaped colon", "/tmp/a:b.srt", "", `subtitles='/tmp/a\:b.srt'`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SubtitleFilter(tc.path, tc.style); got != tc.want {
				t.Fatalf("SubtitleFilter(%q, %q) = %q, want %q", tc.path, tc.style, got, tc.want)
			}
		})
	}
}

func TestASSColor(t *testing.T) {
	cases := []struct {
		hex  string
		want string
	}{
		{"#FF0000", "&H0000FF"},
		{"#00FF00", "&H00FF00"},
		{"#0000FF", "&HFF0000"},
		{"ffffff", "&HFFFFFF"},
		{"#00000080", "&H7F000000"},
		{"#abc", "&HFFFFFF"},
		{"", "&HFFFFFF"},
		{"#GGGGGG", "&HFFFFFF"},
	}
	for _, tc := range cases {
		if got := assColor(tc.hex); got != tc.want {
			t.Fatalf("assColor(%q) = %q, want %q", tc.hex, got, tc.want)
		}
	}
}

func TestAlignment(t *testing.T) {
	cases := []struct {
		anchor recipe.Anchor
		want   int
	}{
		{recipe.AnchorTop, 8},
		{recipe.AnchorMiddle, 5},
		{recipe.AnchorBottom, 2},
		{recipe.Anchor(""), 2},
	}
	for _, tc := range cases {
		if got := alignment(tc.anchor); got != tc.want {
			t.Fatalf("alignment(%q) = %d, want %d", tc.anchor, got, tc.want)
		}
	}
}

func TestFontFamily(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/fonts/Noto_Sans-Bold.ttf", "Noto Sans Bold"},
		{"simple.otf", "simple"},
	}
	for _, tc := range cases {
		if got := fontFamily(tc.path); got != tc.want {
			t.Fatalf("fontFamily(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
