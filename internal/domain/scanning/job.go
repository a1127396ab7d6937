package scanning

import (
	"time"

	"github.com/google/uuid"
)

// Job represents one scan request against a bucket, optionally narrowed by a
// key prefix. It carries aggregate counters maintained as its units complete.
type Job struct {
	jobID     uuid.UUID
	name      string
	bucket    string
	prefix    string
	status    JobStatus
	createdAt time.Time
	updatedAt time.Time

	totalObjects     int
	completedObjects int
	failedObjects    int
	totalFindings    int

	completedAt time.Time
}

// NewJob creates a new pending Job for the given source location.
func NewJob(name, bucket, prefix string) *Job {
	now := time.Now().UTC()
	return &Job{
		jobID:     uuid.New(),
		name:      name,
		bucket:    bucket,
		prefix:    prefix,
		status:    JobStatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructJob creates a Job from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from the
// DB.
func ReconstructJob(
	jobID uuid.UUID,
	name, bucket, prefix string,
	status JobStatus,
	totalObjects, completedObjects, failedObjects, totalFindings int,
	createdAt, updatedAt, completedAt time.Time,
) *Job {
	return &Job{
		jobID:            jobID,
		name:             name,
		bucket:           bucket,
		prefix:           prefix,
		status:           status,
		totalObjects:     totalObjects,
		completedObjects: completedObjects,
		failedObjects:    failedObjects,
		totalFindings:    totalFindings,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		completedAt:      completedAt,
	}
}

// JobID returns the unique identifier for this scan job.
func (j *Job) JobID() uuid.UUID { return j.jobID }

// Name returns the operator-supplied job name.
func (j *Job) Name() string { return j.name }

// Bucket returns the source bucket for this job.
func (j *Job) Bucket() string { return j.bucket }

// Prefix returns the optional key prefix filter.
func (j *Job) Prefix() string { return j.prefix }

// Status returns the current aggregate status of the job.
func (j *Job) Status() JobStatus { return j.status }

// TotalObjects returns the number of units enumerated for this job.
func (j *Job) TotalObjects() int { return j.totalObjects }

// CompletedObjects returns the number of units scanned successfully.
func (j *Job) CompletedObjects() int { return j.completedObjects }

// FailedObjects returns the number of units that failed or were skipped.
func (j *Job) FailedObjects() int { return j.failedObjects }

// TotalFindings returns the number of findings recorded across all units.
func (j *Job) TotalFindings() int { return j.totalFindings }

// CreatedAt returns when the job was created.
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// UpdatedAt returns when the job row was last modified.
func (j *Job) UpdatedAt() time.Time { return j.updatedAt }

// CompletedAt returns when the job reached a terminal status, or the zero
// time if it has not.
func (j *Job) CompletedAt() time.Time { return j.completedAt }

// MarkRunning records that units have been enumerated and enqueued.
func (j *Job) MarkRunning(totalObjects int) {
	j.status = JobStatusRunning
	j.totalObjects = totalObjects
	j.updatedAt = time.Now().UTC()
}

// MarkFailed records that enumeration or enqueueing failed.
func (j *Job) MarkFailed() {
	j.status = JobStatusFailed
	now := time.Now().UTC()
	j.updatedAt = now
	j.completedAt = now
}
