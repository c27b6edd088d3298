package narration

import (
	"math"
	"testing"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestEstimate(t *testing.T) {
	cases := []struct {
		name string
		text string
		rate float64
		want float64
	}{
		{name: "native chars", text: "こんにちは", rate: 1, want: 1.0},
		{name: "latin words", text: "Hello world", rate: 1, want: 1.2},
		{name: "mixed script", text: "AIが世界を変える", rate: 1, want: 2.0},
		{name: "digits count as word", text: "2026", rate: 1, want: 0.6},
		{name: "punctuation ignored floors", text: "。。。", rate: 1, want: 0.5},
		{name: "empty floors", text: "", rate: 1, want: 0.5},
		{name: "short text floors", text: "あ", rate: 1, want: 0.5},
		{name: "rate divides", text: "こんにちは", rate: 2, want: 0.5},
		{name: "slow rate stretches", text: "こんにちは", rate: 0.5, want: 2.0},
		{name: "zero rate treated as one", text: "こんにちは", rate: 0, want: 1.0},
		{name: "trailing punctuation keeps word", text: "Hello, world.", rate: 1, want: 1.2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Estimate(tc.text, tc.rate); !approx(got, tc.want) {
				t.Fatalf("Estimate(%q, %v) = %v, want %v", tc.text, tc.rate, got, tc.want)
			}
		})
	}
}

func TestEstimateMonotonicInLength(t *testing.T) {
	texts := []string{"こ", "これ", "これは", "これはテスト", "これはテストです"}
	previous := 0.0
	for _, text := range texts {
		got := Estimate(text, 1)
		if got < previous {
			t.Fatalf("Estimate(%q) = %v dropped below %v", text, got, previous)
		}
		previous = got
	}
}

func TestEstimateScalesWithRate(t *testing.T) {
	text := "長めのナレーション原稿をここに用意しました"
	base := Estimate(text, 1)
	if base <= minSegmentSeconds {
		t.Fatalf("test text too short to observe scaling: %v", base)
	}
	if doubled := Estimate(text, 2); !approx(doubled, base/2) {
		t.Fatalf("Estimate at rate 2 = %v, want %v", doubled, base/2)
	}
	if halved := Estimate(text, 0.5); !approx(halved, base*2) {
		t.Fatalf("Estimate at rate 0.5 = %v, want %v", halved, base*2)
	}
}
