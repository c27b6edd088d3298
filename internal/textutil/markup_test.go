package textutil

import "testing"

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "header marker removed",
			input: "# イントロ\n本編です。",
			want:  "イントロ\n本編です。",
		},
		{
			name:  "deep header marker removed",
			input: "### まとめ",
			want:  "まとめ",
		},
		{
			name:  "strong emphasis unwrapped",
			input: "これは**重要**です。",
			want:  "これは重要です。",
		},
		{
			name:  "single emphasis unwrapped",
			input: "a *quick* note and _another_ one",
			want:  "a quick note and another one",
		},
		{
			name:  "mixed markers",
			input: "## 見出し\n**太字**と*斜体*。",
			want:  "見出し\n太字と斜体。",
		},
		{
			name:  "plain text untouched",
			input: "そのままの文章。",
			want:  "そのままの文章。",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.input); got != tt.want {
				t.Fatalf("StripMarkup(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollapseBlankLines(t *testing.T) {
	input := "one\n\n\n\ntwo\t\n\nthree"
	want := "one\n\ntwo\n\nthree"
	if got := CollapseBlankLines(input); got != want {
		t.Fatalf("CollapseBlankLines = %q, want %q", got, want)
	}

	crlf := "one\r\n\r\n\r\ntwo\r\n"
	want = "one\n\ntwo\n"
	if got := CollapseBlankLines(crlf); got != want {
		t.Fatalf("CollapseBlankLines(crlf) = %q, want %q", got, want)
	}
}
