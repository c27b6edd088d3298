package logging

import "testing"

func TestProgressSamplerDefaults(t *testing.T) {
	for _, width := range []float64{0, -1} {
		if s := NewProgressSampler(width); s.bucketSize != 5 {
			t.Fatalf("bucket width %v should fall back to 5, got %v", width, s.bucketSize)
		}
	}
	if s := NewProgressSampler(10); s.bucketSize != 10 {
		t.Fatalf("expected explicit bucket width to stick, got %v", s.bucketSize)
	}

	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(50, "stage") {
		t.Fatal("nil sampler should always emit")
	}
	nilSampler.Reset()
}

func TestProgressSamplerStageChanges(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "frame-render") {
		t.Fatal("first stage should emit")
	}
	if s.ShouldLog(0, "frame-render") {
		t.Fatal("same stage and bucket should not emit")
	}
	if !s.ShouldLog(0, "encode") {
		t.Fatal("stage change should emit")
	}
	if s.ShouldLog(0, "  encode  ") {
		t.Fatal("stage comparison should ignore surrounding whitespace")
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(0, "encode")

	if s.ShouldLog(3, "encode") {
		t.Fatal("3% stays in the first bucket")
	}
	if !s.ShouldLog(5, "encode") {
		t.Fatal("5% crosses into a new bucket")
	}
	if s.ShouldLog(7, "encode") {
		t.Fatal("7% stays in the second bucket")
	}
	if !s.ShouldLog(10, "encode") {
		t.Fatal("10% crosses again")
	}

	s.ShouldLog(95, "encode")
	if !s.ShouldLog(100, "encode") {
		t.Fatal("100% should emit")
	}
	if s.ShouldLog(105, "encode") {
		t.Fatal("overshoot past 100% should not emit twice")
	}
}

func TestProgressSamplerUnknownPercent(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(-1, "probe") {
		t.Fatal("unknown percent with a new stage should emit")
	}
	if s.ShouldLog(-1, "probe") {
		t.Fatal("unknown percent with the same stage should not emit")
	}
}

func TestProgressSamplerStageChangeResetsBuckets(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "frame-render")

	s.ShouldLog(0, "encode")
	if !s.ShouldLog(10, "encode") {
		t.Fatal("bucket history should reset on stage change")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "frame-render")

	s.Reset()
	if !s.ShouldLog(50, "frame-render") {
		t.Fatal("reset sampler should treat the stage as new")
	}
}
