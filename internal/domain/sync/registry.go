package sync

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunState describes where a sync run is in its lifecycle.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
)

// RunStatus is a snapshot of the latest sync run for one institution.
type RunStatus struct {
	RunID         string     `json:"runId"`
	InstitutionID int64      `json:"institutionId"`
	State         RunState   `json:"state"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// RunRegistry tracks in-flight and most-recent sync runs per institution.
// It is the guard against a timer trigger and a manual trigger reconciling
// the same institution concurrently.
type RunRegistry struct {
	mu   sync.Mutex
	runs map[int64]*RunStatus
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[int64]*RunStatus)}
}

// Begin records the start of a run for an institution. It returns false when
// a run for that institution is already in flight; the caller must skip.
func (r *RunRegistry) Begin(institutionID int64) (runID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, exists := r.runs[institutionID]; exists && cur.State == RunStateRunning {
		return "", false
	}

	id := uuid.New().String()
	r.runs[institutionID] = &RunStatus{
		RunID:         id,
		InstitutionID: institutionID,
		State:         RunStateRunning,
		StartedAt:     time.Now(),
	}
	return id, true
}

// End marks an institution's in-flight run finished.
func (r *RunRegistry) End(institutionID int64, runErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, exists := r.runs[institutionID]
	if !exists || status.State != RunStateRunning {
		return
	}

	now := time.Now()
	status.FinishedAt = &now
	if runErr != nil {
		status.State = RunStateFailed
		status.Error = runErr.Error()
	} else {
		status.State = RunStateSucceeded
	}
}

// Snapshot returns a copy of every institution's latest run status.
func (r *RunRegistry) Snapshot() []RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RunStatus, 0, len(r.runs))
	for _, status := range r.runs {
		out = append(out, *status)
	}
	return out
}
