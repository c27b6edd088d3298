package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary reelsmith shells out to.
type Requirement struct {
	Name     string
	Command  string
	Optional bool
}

// Status reports the availability of one requirement. Command holds the
// resolved path when the binary was found.
type Status struct {
	Name      string
	Command   string
	Optional  bool
	Available bool
	Detail    string
}

// CheckBinaries resolves each requirement and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		statuses = append(statuses, checkBinary(req))
	}
	return statuses
}

func checkBinary(req Requirement) Status {
	status := Status{
		Name:     req.Name,
		Command:  strings.TrimSpace(req.Command),
		Optional: req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}
