package scanning

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMalformedWorkItem indicates a queue payload that cannot be processed
// and must be acknowledged immediately to prevent a poison-message loop.
var ErrMalformedWorkItem = errors.New("malformed work item")

// WorkItem references one unit of work pulled from the shared queue: a
// single object within a job, plus the delivery metadata needed to
// acknowledge or redeliver the message.
type WorkItem struct {
	JobID     uuid.UUID
	Bucket    string
	ObjectKey string
	Attempt   int

	// MessageID and ReceiptHandle identify the queue delivery. The receipt
	// handle is required to acknowledge the message.
	MessageID     string
	ReceiptHandle string
}

// workItemPayload is the wire shape of a queue message body.
type workItemPayload struct {
	JobID     string `json:"job_id"`
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`
	Attempt   int    `json:"attempt,omitempty"`
}

// ParseWorkItem decodes and validates a queue message body. Missing required
// fields or an unparseable encoding yield ErrMalformedWorkItem.
func ParseWorkItem(body []byte) (WorkItem, error) {
	var p workItemPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WorkItem{}, fmt.Errorf("%w: %v", ErrMalformedWorkItem, err)
	}

	if p.JobID == "" || p.Bucket == "" || p.ObjectKey == "" {
		return WorkItem{}, fmt.Errorf("%w: missing required fields", ErrMalformedWorkItem)
	}

	jobID, err := uuid.Parse(p.JobID)
	if err != nil {
		return WorkItem{}, fmt.Errorf("%w: invalid job id: %v", ErrMalformedWorkItem, err)
	}

	return WorkItem{
		JobID:     jobID,
		Bucket:    p.Bucket,
		ObjectKey: p.ObjectKey,
		Attempt:   p.Attempt,
	}, nil
}

// EncodeWorkItem produces the queue message body for a work item.
func EncodeWorkItem(item WorkItem) ([]byte, error) {
	return json.Marshal(workItemPayload{
		JobID:     item.JobID.String(),
		Bucket:    item.Bucket,
		ObjectKey: item.ObjectKey,
		Attempt:   item.Attempt,
	})
}

// Disposition tells the dispatch loop what to do with the queue message
// after an item has been handled.
type Disposition int

const (
	// DispositionAck removes the message from the queue.
	DispositionAck Disposition = iota

	// DispositionRetry leaves the message in flight so the queue redelivers
	// it after the visibility timeout expires.
	DispositionRetry
)

// String returns the string representation of the Disposition.
func (d Disposition) String() string {
	if d == DispositionAck {
		return "ack"
	}
	return "retry"
}
