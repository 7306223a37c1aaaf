// Package registry tracks running jobs in-process so the API can refuse
// duplicate starts and route cancellations to live runs.
package registry

import (
	"context"
	"sync"
)

// Handle is what the registry keeps for one running job.
type Handle struct {
	JobID  string
	Cancel context.CancelFunc
}

// Registry maps job IDs to their run handles. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Handle
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{jobs: make(map[string]*Handle)}
}

// Register records a running job. Returns false if the job is already
// registered, in which case the caller must not start a second run.
func (r *Registry) Register(jobID string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[jobID]; exists {
		return false
	}

	r.jobs[jobID] = &Handle{JobID: jobID, Cancel: cancel}

	return true
}

// Lookup returns the handle for a running job, if any.
func (r *Registry) Lookup(jobID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.jobs[jobID]
	return h, ok
}

// Deregister removes a finished job. Idempotent.
func (r *Registry) Deregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, jobID)
}

// Running returns the IDs of all registered jobs.
func (r *Registry) Running() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}

	return ids
}
