// Package speech synthesizes narration audio through an external
// text-to-speech command and describes the voices available to it.
package speech

import "context"

// VoiceOptions carries the per-utterance synthesis parameters.
type VoiceOptions struct {
	Voice    string
	Language string
	Rate     float64
	Pitch    float64
	Volume   float64
}

// Clip is a synthesized audio file with its measured duration in seconds.
type Clip struct {
	AudioPath string
	Duration  float64
}

// Synthesizer turns text into an audio clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts VoiceOptions) (Clip, error)
}
