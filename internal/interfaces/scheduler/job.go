package scheduler

import "context"

// Job represents a unit of work that can be executed by the worker pool.
// Different job types can be implemented (sync jobs, cleanup jobs, etc.).
type Job interface {
	// Execute runs the job with the given context.
	// Context should be respected for cancellation and timeouts.
	Execute(ctx context.Context) error

	// InstitutionID returns the institution this job operates on.
	// Used for logging and tracking which connection is being processed.
	InstitutionID() string

	// Description returns a human-readable description of the job.
	Description() string
}
