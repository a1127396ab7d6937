// Package scanning defines the domain model for scanning objects in an
// object store for sensitive data: jobs, the per-object scan units they own,
// and the findings recorded against each unit. The package also declares the
// ports the scan engine depends on so the core never binds to a specific
// storage engine, object store, or queue client.
package scanning

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrUnitNotFound is returned when no ScanUnit exists for a (job, key) pair.
var ErrUnitNotFound = errors.New("scan unit not found")

// ErrJobNotFound is returned when no Job exists for the given id.
var ErrJobNotFound = errors.New("job not found")

// UnitRepository provides persistent storage for scan units. Status updates
// and finding inserts for one unit commit as a single transaction.
type UnitRepository interface {
	// CreateUnits bulk-inserts pending units during job enumeration.
	// Duplicate (job, key) pairs are ignored.
	CreateUnits(ctx context.Context, units []*ScanUnit) error

	// GetByJobAndKey resolves the unit for a work item. Returns
	// ErrUnitNotFound if no unit exists for the pair.
	GetByJobAndKey(ctx context.Context, jobID uuid.UUID, objectKey string) (*ScanUnit, error)

	// UpdateStatus persists the unit's status, attempts, error message and
	// scanned-at timestamp.
	UpdateStatus(ctx context.Context, unit *ScanUnit) error

	// CompleteWithFindings atomically persists the completed status together
	// with the unit's findings. Finding inserts are conflict-ignoring so
	// redelivery of the same unit never duplicates rows.
	CompleteWithFindings(ctx context.Context, unit *ScanUnit, findings []Finding) error
}

// FindingFilter narrows a findings listing. A zero BeforeID means "from the
// newest finding"; otherwise only findings with smaller ids are returned.
type FindingFilter struct {
	JobID       *uuid.UUID
	FindingType *FindingType
	Limit       int
	BeforeID    int64
}

// FindingRepository provides read access to persisted findings for the query
// boundary. Listing is ordered by finding id descending.
type FindingRepository interface {
	List(ctx context.Context, filter FindingFilter) ([]Finding, error)
}

// UnitCounts aggregates a job's units by status.
type UnitCounts struct {
	Pending   int
	Scanning  int
	Completed int
	Failed    int
	Skipped   int
	Findings  int
}

// JobRepository provides persistent storage for jobs.
type JobRepository interface {
	CreateJob(ctx context.Context, job *Job) error

	// GetJob returns ErrJobNotFound if no job exists for the id.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)

	UpdateJob(ctx context.Context, job *Job) error

	// GetUnitCounts aggregates the job's units by status along with the
	// total findings recorded.
	GetUnitCounts(ctx context.Context, jobID uuid.UUID) (UnitCounts, error)
}

// ObjectInfo describes an object in the store.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore is the boundary to the object storage service holding the
// files under scan.
type ObjectStore interface {
	// Stat fetches object metadata without reading content.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// ReadRange fetches up to length bytes starting at offset.
	ReadRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error)

	// Stream opens the full object content for sequential reading. The
	// caller owns the returned reader and must close it.
	Stream(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// List enumerates objects under the given prefix.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

// WorkQueue is the boundary to the shared queue distributing scan units to
// workers. Received items stay invisible to other consumers for the queue's
// visibility timeout; Acknowledge removes an item permanently.
type WorkQueue interface {
	// Receive long-polls for a batch of work items. Malformed payloads are
	// acknowledged and dropped at this boundary; only valid items are
	// returned.
	Receive(ctx context.Context) ([]WorkItem, error)

	// Acknowledge removes the delivered message from the queue.
	Acknowledge(ctx context.Context, receiptHandle string) error

	// Enqueue publishes a work item for processing.
	Enqueue(ctx context.Context, item WorkItem) error
}
