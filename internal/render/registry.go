package render

import (
	"fmt"
	"sort"
	"sync"

	"reelsmith/internal/services"
)

// Registry owns the live render jobs. Removing a job releases every
// backing resource it holds exactly once.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Add registers a job. Job IDs must be unique.
func (r *Registry) Add(job *Job) error {
	if job == nil || job.ID == "" {
		return services.Wrap(services.ErrValidation, "render", "registry_add",
			"job with an ID is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return services.Wrap(services.ErrValidation, "render", "registry_add",
			fmt.Sprintf("job %s already registered", job.ID), nil)
	}
	r.jobs[job.ID] = job
	return nil
}

// Get looks up a job by ID.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	return job, ok
}

// Jobs returns the registered jobs ordered by ID.
func (r *Registry) Jobs() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Remove deletes a job and releases its resources. Unknown IDs return a
// not-found error.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if ok {
		delete(r.jobs, id)
	}
	r.mu.Unlock()
	if !ok {
		return services.Wrap(services.ErrNotFound, "render", "registry_remove",
			fmt.Sprintf("job %s is not registered", id), nil)
	}
	return job.Release()
}
