// Package main hosts the reelsmith CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot productions, render re-runs,
// queue maintenance, the long-running worker, voice catalog queries, subtitle
// tooling, and configuration scaffolding. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
