// Package render composes recipes into finished videos. A declarative
// timeline describes the frame at every timestamp; a reusable surface
// rasterizes frames which are streamed into an intermediate container,
// muxed with the narration track, and re-encoded into the delivery
// container with subtitles burned in. Jobs track stage checkpoints so
// interrupted runs can resume, and a registry owns live jobs and their
// backing resources.
package render
