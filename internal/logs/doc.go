// Package logs provides bounded-memory tailing of worker log files.
//
// Negative offsets select the last N lines, non-negative offsets resume an
// earlier read, and follow mode polls for new lines until the caller's
// context is cancelled. The `reelsmith logs --follow` command is the main
// consumer.
package logs
