package scanning

import "fmt"

// UnitStatus represents the lifecycle state of a single object under scan.
// It enables tracking each file from dispatch through its terminal outcome.
type UnitStatus string

const (
	// UnitStatusPending indicates a unit is enumerated but not yet dispatched.
	UnitStatusPending UnitStatus = "pending"

	// UnitStatusScanning indicates a worker is actively reading the object.
	UnitStatusScanning UnitStatus = "scanning"

	// UnitStatusCompleted indicates the scan finished without fatal error.
	UnitStatusCompleted UnitStatus = "completed"

	// UnitStatusFailed indicates the scan aborted; terminal and never
	// auto-retried by the worker.
	UnitStatusFailed UnitStatus = "failed"

	// UnitStatusSkipped indicates recognized non-text content. A policy
	// variant of failed with a reason instead of an error.
	UnitStatusSkipped UnitStatus = "skipped"
)

// String returns the string representation of the UnitStatus.
func (s UnitStatus) String() string { return string(s) }

// ParseUnitStatus converts a string to a UnitStatus.
func ParseUnitStatus(s string) (UnitStatus, error) {
	switch UnitStatus(s) {
	case UnitStatusPending, UnitStatusScanning, UnitStatusCompleted, UnitStatusFailed, UnitStatusSkipped:
		return UnitStatus(s), nil
	default:
		return "", fmt.Errorf("unknown unit status: %q", s)
	}
}

// validateTransition returns an error if moving from the current status to
// the target status is not allowed. Completed, failed and skipped are
// terminal; re-scans re-enter scanning from pending via an external reset.
func (s UnitStatus) validateTransition(target UnitStatus) error {
	valid := map[UnitStatus][]UnitStatus{
		UnitStatusPending:  {UnitStatusScanning},
		UnitStatusScanning: {UnitStatusCompleted, UnitStatusFailed, UnitStatusSkipped},
	}

	for _, t := range valid[s] {
		if t == target {
			return nil
		}
	}
	return fmt.Errorf("invalid unit status transition: %s -> %s", s, target)
}
