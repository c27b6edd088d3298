// Package preflight provides readiness checks for the directories and
// external tools reelsmith depends on.
//
// The `reelsmith doctor` command renders RunAll and CheckSystemDeps so a
// broken installation is diagnosed before any job is queued. Directory
// checks fail until the first worker or produce run creates the tree.
package preflight
