package render

import (
	"fmt"

	"reelsmith/internal/services"
)

// Checkpoint identifies one render stage. A job records the last completed
// checkpoint so interrupted runs can resume.
type Checkpoint string

const (
	CheckpointNone        Checkpoint = ""
	CheckpointSurface     Checkpoint = "surface-setup"
	CheckpointAudioReady  Checkpoint = "audio-ready"
	CheckpointFrameRender Checkpoint = "frame-render"
	CheckpointCapture     Checkpoint = "capture"
	CheckpointAudioMux    Checkpoint = "audio-mux"
	CheckpointEncode      Checkpoint = "encode"
	CheckpointFinalize    Checkpoint = "finalize"
)

// stageOrder is the strict execution order of the composition stages.
var stageOrder = []Checkpoint{
	CheckpointSurface,
	CheckpointAudioReady,
	CheckpointFrameRender,
	CheckpointCapture,
	CheckpointAudioMux,
	CheckpointEncode,
	CheckpointFinalize,
}

// stageShares apportions the job's 0-100 progress across stages. The
// values sum to 100.
var stageShares = map[Checkpoint]int{
	CheckpointSurface:     5,
	CheckpointAudioReady:  5,
	CheckpointFrameRender: 35,
	CheckpointCapture:     15,
	CheckpointAudioMux:    10,
	CheckpointEncode:      20,
	CheckpointFinalize:    10,
}

// Stages returns the composition stages in execution order.
func Stages() []Checkpoint {
	return append([]Checkpoint(nil), stageOrder...)
}

func stageIndex(c Checkpoint) int {
	for i, stage := range stageOrder {
		if stage == c {
			return i
		}
	}
	return -1
}

// progressBase is the cumulative share of every stage before c.
func progressBase(c Checkpoint) int {
	base := 0
	for _, stage := range stageOrder {
		if stage == c {
			break
		}
		base += stageShares[stage]
	}
	return base
}

// StageProgress maps a stage-local fraction in [0, 1] to overall job
// progress.
func StageProgress(c Checkpoint, fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	share, ok := stageShares[c]
	if !ok {
		return 0
	}
	return progressBase(c) + int(float64(share)*fraction+0.5)
}

// Mode selects how much of a previous run a re-render repeats.
type Mode string

const (
	// ModeFull repeats every stage.
	ModeFull Mode = "full"
	// ModeEffects restarts from frame composition, keeping input checks.
	ModeEffects Mode = "effects"
	// ModeResume continues after the last completed checkpoint. The encode
	// stage always restarts because a partial encode cannot be continued.
	ModeResume Mode = "resume"
)

// ParseMode validates a re-run mode name.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeFull, ModeEffects, ModeResume:
		return Mode(value), nil
	case "":
		return ModeFull, nil
	default:
		return "", services.Wrap(services.ErrValidation, "render", "parse_mode",
			fmt.Sprintf("unknown render mode %q", value), nil)
	}
}

// StartStage resolves the first stage to run for a mode, given the last
// checkpoint the job recorded. ok is false when nothing remains to do.
func StartStage(mode Mode, last Checkpoint) (Checkpoint, bool) {
	switch mode {
	case ModeEffects:
		return CheckpointFrameRender, true
	case ModeResume:
		switch last {
		case CheckpointNone:
			return stageOrder[0], true
		case CheckpointEncode:
			return CheckpointEncode, true
		case CheckpointFinalize:
			return CheckpointNone, false
		}
		idx := stageIndex(last)
		if idx < 0 || idx+1 >= len(stageOrder) {
			return stageOrder[0], true
		}
		return stageOrder[idx+1], true
	default:
		return stageOrder[0], true
	}
}
