// Package worker drains the production queue. A worker claims its workspace
// with a file lock, polls for ready jobs, and drives each one through the
// full pipeline while mirroring progress onto the queue row. Heartbeats let
// a later worker reclaim jobs abandoned by a crash.
package worker
