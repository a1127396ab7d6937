package scanner

// OutcomeKind classifies how a scan ended.
type OutcomeKind string

const (
	// OutcomeCompleted means the whole object was read and scanned.
	OutcomeCompleted OutcomeKind = "completed"
	// OutcomeSkipped means the object was recognized as non-text and not read.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed means the scan aborted; Reason carries the cause.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the terminal result of scanning one object. Findings produced
// before a failure are not trustworthy and must be discarded by the caller.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Completed returns a successful outcome.
func Completed() Outcome { return Outcome{Kind: OutcomeCompleted} }

// Skipped returns a non-text outcome with the given reason.
func Skipped(reason string) Outcome { return Outcome{Kind: OutcomeSkipped, Reason: reason} }

// Failed returns an aborted outcome with the given reason.
func Failed(reason string) Outcome { return Outcome{Kind: OutcomeFailed, Reason: reason} }
