package scanning

import "fmt"

// JobStatus represents the aggregate state of a scan job across all of its
// units. The scan engine itself never mutates job status; it is owned by the
// orchestration layer.
type JobStatus string

const (
	// JobStatusPending indicates a job is created but not yet enumerated.
	JobStatusPending JobStatus = "pending"

	// JobStatusRunning indicates work items have been enqueued and units are
	// being processed.
	JobStatusRunning JobStatus = "running"

	// JobStatusCompleted indicates all units reached a terminal status.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed indicates the job could not be enumerated or enqueued.
	JobStatusFailed JobStatus = "failed"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string { return string(s) }

// ParseJobStatus converts a string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return JobStatus(s), nil
	default:
		return "", fmt.Errorf("unknown job status: %q", s)
	}
}
