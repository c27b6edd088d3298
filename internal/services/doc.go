// Package services defines shared utilities consumed by the pipeline steps
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp queue job IDs, step and stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent retry decisions (transient vs deterministic).
//
// Use these helpers when wiring new step logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
