// Package registry tracks the status of download jobs for the lifetime of
// the process.
package registry

import (
	"sync"

	"vidcatalog/workers/downloader/internal/domain"
)

// Registry maps job ids to their current status. It is safe for
// concurrent use; nothing is persisted.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]domain.JobStatus
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		jobs: make(map[string]domain.JobStatus),
	}
}

// Set overwrites the status of a job
func (r *Registry) Set(id string, status domain.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = status
}

// Get returns the status of a job, or NotFound for unknown ids
func (r *Registry) Get(id string) domain.JobStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.jobs[id]
	if !ok {
		return domain.NotFound()
	}
	return status
}

// Claim marks a job as Starting unless one is already active for id.
// It reports whether the caller now owns the job.
func (r *Registry) Claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status, ok := r.jobs[id]; ok && status.IsActive() {
		return false
	}

	r.jobs[id] = domain.Starting()
	return true
}

// Len returns the number of tracked jobs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Snapshot returns a copy of every tracked status
func (r *Registry) Snapshot() map[string]domain.JobStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.JobStatus, len(r.jobs))
	for id, status := range r.jobs {
		out[id] = status
	}
	return out
}

// CountByState returns how many jobs are in each state
func (r *Registry) CountByState() map[domain.JobState]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.JobState]int)
	for _, status := range r.jobs {
		counts[status.State]++
	}
	return counts
}
