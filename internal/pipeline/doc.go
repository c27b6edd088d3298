// Package pipeline schedules and executes a recipe's step graph.
//
// Steps declare dependencies by ID; Order computes a deterministic
// topological order and rejects cycles. Executor walks that order,
// persisting pending/running/completed/error transitions onto the recipe's
// step records and fanning typed events out to observers. The default
// executor is strictly sequential; raising Parallelism dispatches steps
// whose dependencies have completed concurrently, bounded by that limit.
//
// The package also ships the standard production steps (steps.go), each a
// thin adapter over one domain module. The executor itself is generic and
// runs any Step implementation.
package pipeline
