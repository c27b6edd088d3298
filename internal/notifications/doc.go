// Package notifications delivers production events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. Each
// event category honors its config toggle so users can silence completions
// while keeping failures, or the other way around.
//
// Extend this package if you need alternative transports; the worker and CLI
// depend only on the Service interface.
package notifications
