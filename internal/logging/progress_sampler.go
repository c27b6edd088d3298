package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs, emitting only when
// the stage changes or the percentage crosses a bucket boundary.
type ProgressSampler struct {
	bucketSize float64
	stage      string
	bucket     int
}

// NewProgressSampler returns a sampler with the given bucket width in
// percent. Widths at or below zero fall back to 5.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, bucket: -1}
}

// ShouldLog reports whether this progress event adds signal. A negative
// percent means unknown; then only stage changes emit.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	emit := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.stage {
		s.stage = stage
		s.bucket = -1
		emit = true
	}
	if percent >= 0 {
		bucket := int(min(percent, 100) / s.bucketSize)
		if bucket > s.bucket {
			s.bucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears state when a new job starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.stage = ""
	s.bucket = -1
}
