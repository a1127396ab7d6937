package scanning

import (
	"fmt"

	"github.com/google/uuid"
)

// FindingType identifies the kind of sensitive data a detector matched.
type FindingType string

const (
	FindingTypeSSN          FindingType = "ssn"
	FindingTypeCreditCard   FindingType = "credit_card"
	FindingTypeAWSAccessKey FindingType = "aws_access_key"
	FindingTypeAWSSecretKey FindingType = "aws_secret_key"
	FindingTypeEmail        FindingType = "email"
	FindingTypePhoneUS      FindingType = "phone_us"
)

// String returns the string representation of the FindingType.
func (t FindingType) String() string { return string(t) }

// ParseFindingType converts a string to a FindingType.
func ParseFindingType(s string) (FindingType, error) {
	switch FindingType(s) {
	case FindingTypeSSN, FindingTypeCreditCard, FindingTypeAWSAccessKey,
		FindingTypeAWSSecretKey, FindingTypeEmail, FindingTypePhoneUS:
		return FindingType(s), nil
	default:
		return "", fmt.Errorf("unknown finding type: %q", s)
	}
}

// Confidence expresses how likely a match is a true positive.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// String returns the string representation of the Confidence.
func (c Confidence) String() string { return string(c) }

// Finding represents one detected occurrence of sensitive data within a
// scanned object. The raw matched value is never stored; only a one-way
// digest of its normalized form. Findings are immutable once persisted.
type Finding struct {
	findingID   int64
	unitID      int64
	jobID       uuid.UUID
	findingType FindingType
	valueHash   string
	lineNumber  int
	columnStart int
	columnEnd   int
	context     string
	confidence  Confidence
}

// NewFinding attaches ownership identifiers to a detected match.
func NewFinding(
	unitID int64,
	jobID uuid.UUID,
	findingType FindingType,
	valueHash string,
	lineNumber, columnStart, columnEnd int,
	context string,
	confidence Confidence,
) Finding {
	return Finding{
		unitID:      unitID,
		jobID:       jobID,
		findingType: findingType,
		valueHash:   valueHash,
		lineNumber:  lineNumber,
		columnStart: columnStart,
		columnEnd:   columnEnd,
		context:     context,
		confidence:  confidence,
	}
}

// ReconstructFinding creates a Finding from stored fields. This should only
// be used by repositories when loading from the DB.
func ReconstructFinding(
	findingID, unitID int64,
	jobID uuid.UUID,
	findingType FindingType,
	valueHash string,
	lineNumber, columnStart, columnEnd int,
	context string,
	confidence Confidence,
) Finding {
	f := NewFinding(unitID, jobID, findingType, valueHash, lineNumber, columnStart, columnEnd, context, confidence)
	f.findingID = findingID
	return f
}

// FindingID returns the persistence-assigned identifier. Identifiers are
// monotonically increasing in insertion order so descending-id pagination is
// stable.
func (f Finding) FindingID() int64 { return f.findingID }

// UnitID returns the identifier of the owning scan unit.
func (f Finding) UnitID() int64 { return f.unitID }

// JobID returns the identifier of the owning job.
func (f Finding) JobID() uuid.UUID { return f.jobID }

// Type returns the kind of sensitive data matched.
func (f Finding) Type() FindingType { return f.findingType }

// ValueHash returns the hex digest of the normalized matched value.
func (f Finding) ValueHash() string { return f.valueHash }

// LineNumber returns the 1-based line the match occurred on.
func (f Finding) LineNumber() int { return f.lineNumber }

// ColumnStart returns the 0-based character offset where the match begins.
func (f Finding) ColumnStart() int { return f.columnStart }

// ColumnEnd returns the 0-based character offset where the match ends.
func (f Finding) ColumnEnd() int { return f.columnEnd }

// Context returns the bounded surrounding text including the match.
func (f Finding) Context() string { return f.context }

// Confidence returns the detector's confidence in the match.
func (f Finding) Confidence() Confidence { return f.confidence }
