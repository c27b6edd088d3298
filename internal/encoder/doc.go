// Package encoder drives ffmpeg for the render pipeline's media passes:
// raw-frame capture into an intermediate container, narration audio
// concatenation and muxing, the delivery encode with subtitle burn-in,
// and first-frame thumbnail extraction.
package encoder
