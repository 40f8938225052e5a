package scheduler

import (
	"errors"

	"jobwatch/pkg/api"
)

// ErrLocksUnavailable marks a failed lock fetch. Views built without locks
// are degraded, not failed.
var ErrLocksUnavailable = errors.New("lock table unavailable")

// NoLock is the lock_duration sentinel for jobs that never take a lock.
const NoLock = "no_lock"

// Status is the derived runtime status of a job.
type Status string

const (
	StatusRunning  Status = "running"
	StatusIdle     Status = "idle"
	StatusDisabled Status = "disabled"
)

// RunStatus is a derived status plus whether it is authoritative. Approximate
// statuses come from the degraded heuristic used when no lock snapshot exists.
type RunStatus struct {
	Status      Status
	Approximate bool
}

// Running reports whether the status counts as running for the active view.
func (r RunStatus) Running() bool {
	return r.Status == StatusRunning
}

// LockKey returns the lock-table key of a job.
func LockKey(indexName, jobID string) string {
	return indexName + "-" + jobID
}

// IsRunning reports whether a job holds an unreleased lock. Disabled jobs are
// never running, whatever the lock table says.
func IsRunning(job api.Job, locks map[string]api.LockRecord) bool {
	if !job.Enabled {
		return false
	}
	if locks == nil {
		return false
	}
	lock, ok := locks[LockKey(job.IndexName, job.JobID)]
	return ok && !lock.Released
}

// MaybeRunning is the degraded heuristic: an enabled job that takes locks may
// be running.
func MaybeRunning(job api.Job) bool {
	if !job.Enabled || job.LockDuration.IsAbsent() {
		return false
	}
	return job.LockDuration.Raw != NoLock
}

// LockSnapshot is the lock table of one fetch. Available is false when the
// locks endpoint failed, which switches status derivation to MaybeRunning.
type LockSnapshot struct {
	Locks     map[string]api.LockRecord
	Available bool
}

// Locks wraps a fetched lock table.
func Locks(locks map[string]api.LockRecord) LockSnapshot {
	return LockSnapshot{Locks: locks, Available: true}
}

// NoLocks is the snapshot used when the lock table could not be fetched.
func NoLocks() LockSnapshot {
	return LockSnapshot{}
}

// Status derives the runtime status of a job against the snapshot.
func (s LockSnapshot) Status(job api.Job) RunStatus {
	if !job.Enabled {
		return RunStatus{Status: StatusDisabled}
	}
	if !s.Available {
		if MaybeRunning(job) {
			return RunStatus{Status: StatusRunning, Approximate: true}
		}
		return RunStatus{Status: StatusIdle, Approximate: true}
	}
	if IsRunning(job, s.Locks) {
		return RunStatus{Status: StatusRunning}
	}
	return RunStatus{Status: StatusIdle}
}
