package preflight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/speech"
)

// CheckDirectoryAccess verifies that path exists and is a readable,
// writable directory.
func CheckDirectoryAccess(name, path string) Result {
	result := Result{Name: name}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Detail = fmt.Sprintf("%s does not exist", path)
		return result
	case err != nil:
		result.Detail = fmt.Sprintf("%s: %v", path, err)
		return result
	case !info.IsDir():
		result.Detail = fmt.Sprintf("%s is not a directory", path)
		return result
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		result.Detail = fmt.Sprintf("%s: insufficient permissions: %v", path, err)
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%s (read/write ok)", path)
	return result
}

// CheckVoice resolves the configured narration voice against the stock
// catalog. The check only binds when an espeak template is in use; custom
// synthesizers carry their own voice inventories.
func CheckVoice(cfg *config.Config) Result {
	result := Result{Name: "Voice", Passed: true}
	id := strings.TrimSpace(cfg.Speech.Voice)
	if id == "" {
		result.Detail = "speech.voice not set; the synthesizer default applies"
		return result
	}
	if !strings.Contains(cfg.Speech.Command, "espeak") {
		result.Detail = fmt.Sprintf("%s (custom synthesizer, not checked)", id)
		return result
	}
	catalog := speech.DefaultVoices()
	voice, ok := catalog.Lookup(id)
	if !ok {
		result.Passed = false
		result.Detail = fmt.Sprintf("unknown voice %q; reelsmith voices lists the %d known", id, catalog.Len())
		return result
	}
	result.Detail = fmt.Sprintf("%s (%s)", voice.Name, voice.Language)
	return result
}

// CheckSystemDeps reports availability of the external tools reelsmith
// shells out to. The speech synthesizer is optional; narration timing
// falls back to estimates when it is absent.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}

	speechBinary := ""
	if fields := strings.Fields(cfg.Speech.Command); len(fields) > 0 {
		speechBinary = fields[0]
	}

	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary()},
		{Name: "FFprobe", Command: cfg.FFprobeBinary()},
		{Name: "Speech synthesizer", Command: speechBinary, Optional: true},
	})
	if speechBinary == "" {
		for i := range statuses {
			if statuses[i].Name == "Speech synthesizer" {
				statuses[i].Detail = "speech.command not set; narration timing is estimated"
			}
		}
	}
	return statuses
}
