package scanning

import (
	"time"

	"github.com/google/uuid"
)

// ScanUnit represents one file within one job, tracked through the scanning
// lifecycle. Exactly one ScanUnit exists per (job, object key) pair.
type ScanUnit struct {
	unitID    int64
	jobID     uuid.UUID
	objectKey string
	sizeBytes int64

	status        UnitStatus
	findingsCount int
	errorMessage  string
	attempts      int

	createdAt time.Time
	scannedAt time.Time
}

// NewScanUnit creates a pending ScanUnit for the given job and object key.
// The unit id is assigned by the persistence layer on insert.
func NewScanUnit(jobID uuid.UUID, objectKey string, sizeBytes int64) *ScanUnit {
	return &ScanUnit{
		jobID:     jobID,
		objectKey: objectKey,
		sizeBytes: sizeBytes,
		status:    UnitStatusPending,
		createdAt: time.Now().UTC(),
	}
}

// ReconstructScanUnit creates a ScanUnit from stored fields, bypassing
// creation invariants. This should only be used by repositories when loading
// from the DB.
func ReconstructScanUnit(
	unitID int64,
	jobID uuid.UUID,
	objectKey string,
	sizeBytes int64,
	status UnitStatus,
	findingsCount int,
	errorMessage string,
	attempts int,
	createdAt, scannedAt time.Time,
) *ScanUnit {
	return &ScanUnit{
		unitID:        unitID,
		jobID:         jobID,
		objectKey:     objectKey,
		sizeBytes:     sizeBytes,
		status:        status,
		findingsCount: findingsCount,
		errorMessage:  errorMessage,
		attempts:      attempts,
		createdAt:     createdAt,
		scannedAt:     scannedAt,
	}
}

// UnitID returns the persistence-assigned identifier for this unit.
func (u *ScanUnit) UnitID() int64 { return u.unitID }

// JobID returns the identifier of the owning job.
func (u *ScanUnit) JobID() uuid.UUID { return u.jobID }

// ObjectKey returns the object key within the job's bucket.
func (u *ScanUnit) ObjectKey() string { return u.objectKey }

// SizeBytes returns the object size recorded at enumeration time.
func (u *ScanUnit) SizeBytes() int64 { return u.sizeBytes }

// Status returns the current lifecycle status.
func (u *ScanUnit) Status() UnitStatus { return u.status }

// FindingsCount returns the number of findings persisted for this unit.
func (u *ScanUnit) FindingsCount() int { return u.findingsCount }

// ErrorMessage returns the recorded failure reason, if any.
func (u *ScanUnit) ErrorMessage() string { return u.errorMessage }

// Attempts returns the number of scan attempts made against this unit.
func (u *ScanUnit) Attempts() int { return u.attempts }

// CreatedAt returns when the unit was enumerated.
func (u *ScanUnit) CreatedAt() time.Time { return u.createdAt }

// ScannedAt returns when the unit reached a terminal status, or the zero
// time if it has not.
func (u *ScanUnit) ScannedAt() time.Time { return u.scannedAt }

// MarkScanning transitions the unit to scanning before any byte is read.
func (u *ScanUnit) MarkScanning() error {
	if err := u.status.validateTransition(UnitStatusScanning); err != nil {
		return err
	}
	u.status = UnitStatusScanning
	return nil
}

// MarkCompleted transitions the unit to completed with the number of
// findings recorded.
func (u *ScanUnit) MarkCompleted(findingsCount int) error {
	if err := u.status.validateTransition(UnitStatusCompleted); err != nil {
		return err
	}
	u.status = UnitStatusCompleted
	u.findingsCount = findingsCount
	u.attempts++
	u.scannedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions the unit to failed with the given reason. The
// failure is terminal; redelivery will not retry it.
func (u *ScanUnit) MarkFailed(reason string) error {
	if err := u.status.validateTransition(UnitStatusFailed); err != nil {
		return err
	}
	u.status = UnitStatusFailed
	u.errorMessage = reason
	u.attempts++
	u.scannedAt = time.Now().UTC()
	return nil
}

// MarkSkipped transitions the unit to skipped with the given reason. Used
// for recognized non-text content; no error is implied.
func (u *ScanUnit) MarkSkipped(reason string) error {
	if err := u.status.validateTransition(UnitStatusSkipped); err != nil {
		return err
	}
	u.status = UnitStatusSkipped
	u.errorMessage = reason
	u.attempts++
	u.scannedAt = time.Now().UTC()
	return nil
}
