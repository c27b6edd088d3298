package preflight

import (
	"reelsmith/internal/config"
)

// Result reports the outcome of a single readiness check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the readiness checks every pipeline run relies on.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Workspace", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Materials", cfg.Paths.MaterialsDir),
		CheckDirectoryAccess("Output", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Logs", cfg.Paths.LogDir),
		CheckVoice(cfg),
	}
}
