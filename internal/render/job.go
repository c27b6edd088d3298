package render

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a render job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// OutputType classifies a produced artifact.
type OutputType string

const (
	OutputVideo     OutputType = "video"
	OutputAudio     OutputType = "audio"
	OutputSubtitle  OutputType = "subtitle"
	OutputScript    OutputType = "script"
	OutputThumbnail OutputType = "thumbnail"
	OutputManifest  OutputType = "manifest"
)

// Output is one artifact a render job produced.
type Output struct {
	ID       string
	Type     OutputType
	Filename string
	MIME     string
	Size     int64
	Path     string
}

type resourceHook struct {
	release      func() error
	intermediate bool
	done         bool
}

// Job tracks one render execution: status, overall progress, the stage in
// flight, the last completed checkpoint, produced outputs, and the backing
// resources to release when the job is deleted. All methods are safe for
// concurrent use.
type Job struct {
	ID       string
	RecipeID string
	WorkDir  string

	mu        sync.Mutex
	status    JobStatus
	progress  int
	current   Checkpoint
	last      Checkpoint
	outputs   []Output
	errMsg    string
	resources []*resourceHook

	state *runState
}

// NewJob prepares a pending job for a recipe. workDir is where the run
// places intermediate and final artifacts.
func NewJob(recipeID, workDir string) *Job {
	return &Job{
		ID:       uuid.NewString(),
		RecipeID: recipeID,
		WorkDir:  workDir,
		status:   JobPending,
	}
}

// Status returns the job lifecycle state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress returns overall progress in [0, 100].
func (j *Job) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Stage returns the stage currently in flight, or the last completed
// checkpoint once the job stops.
func (j *Job) Stage() Checkpoint {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != CheckpointNone {
		return j.current
	}
	return j.last
}

// LastCheckpoint returns the most recent completed stage.
func (j *Job) LastCheckpoint() Checkpoint {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Outputs returns the artifacts produced so far.
func (j *Job) Outputs() []Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Output(nil), j.outputs...)
}

// Err returns the failure message, empty while the job is healthy.
func (j *Job) Err() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

func (j *Job) begin() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobRunning
	j.errMsg = ""
}

// reset forgets checkpoints and outputs before a full re-run.
func (j *Job) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = CheckpointNone
	j.current = CheckpointNone
	j.progress = 0
	j.outputs = nil
	j.errMsg = ""
	j.state = nil
}

func (j *Job) startStage(c Checkpoint) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.current = c
	j.progress = progressBase(c)
}

func (j *Job) completeStage(c Checkpoint) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = c
	j.current = CheckpointNone
	j.progress = progressBase(c) + stageShares[c]
}

func (j *Job) setStageProgress(c Checkpoint, fraction float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = StageProgress(c, fraction)
}

func (j *Job) complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobCompleted
	j.current = CheckpointNone
	j.progress = 100
}

func (j *Job) fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobError
	j.current = CheckpointNone
	j.errMsg = message
}

func (j *Job) addOutput(out Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	// Re-runs refresh an artifact in place instead of duplicating it.
	for i, existing := range j.outputs {
		if existing.Type == out.Type && existing.Filename == out.Filename {
			j.outputs[i] = out
			return
		}
	}
	j.outputs = append(j.outputs, out)
}

// AddIntermediate registers a release hook for a temporary resource. The
// hook runs at most once, either during failure cleanup or when the job is
// released.
func (j *Job) AddIntermediate(release func() error) {
	j.addHook(release, true)
}

// AddProduct registers a release hook for a final artifact. Products
// survive failure cleanup and are released only when the job is deleted.
func (j *Job) AddProduct(release func() error) {
	j.addHook(release, false)
}

func (j *Job) addHook(release func() error, intermediate bool) {
	if release == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.resources = append(j.resources, &resourceHook{release: release, intermediate: intermediate})
}

// cleanupIntermediates runs the pending intermediate hooks. Called on
// stage failure so partial temp files do not accumulate.
func (j *Job) cleanupIntermediates() error {
	return j.release(true)
}

// Release runs every pending resource hook. Each hook runs exactly once;
// calling Release again is a no-op.
func (j *Job) Release() error {
	return j.release(false)
}

func (j *Job) release(intermediatesOnly bool) error {
	j.mu.Lock()
	pending := make([]*resourceHook, 0, len(j.resources))
	for _, hook := range j.resources {
		if hook.done {
			continue
		}
		if intermediatesOnly && !hook.intermediate {
			continue
		}
		hook.done = true
		pending = append(pending, hook)
	}
	j.mu.Unlock()

	var errs []error
	for _, hook := range pending {
		if err := hook.release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
