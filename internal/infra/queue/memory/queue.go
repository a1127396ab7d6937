// Package memory provides an in-process scanning.WorkQueue used by tests and
// local development. Delivery mimics the visibility-timeout contract: a
// received item is held in-flight until acknowledged or explicitly redelivered.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/datasentry/internal/domain/scanning"
)

var _ scanning.WorkQueue = (*Queue)(nil)

// Queue is an in-memory work queue. Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	pending  []scanning.WorkItem
	inflight map[string]scanning.WorkItem
	maxBatch int
	seq      int
}

// New creates an empty queue delivering at most maxBatch items per receive.
func New(maxBatch int) *Queue {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	return &Queue{inflight: make(map[string]scanning.WorkItem), maxBatch: maxBatch}
}

// Receive returns up to maxBatch pending items, marking them in-flight. An
// empty queue returns immediately with no items.
func (q *Queue) Receive(ctx context.Context) ([]scanning.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	if n > q.maxBatch {
		n = q.maxBatch
	}

	items := make([]scanning.WorkItem, 0, n)
	for _, item := range q.pending[:n] {
		q.seq++
		item.Attempt++
		item.ReceiptHandle = fmt.Sprintf("receipt-%d", q.seq)
		item.MessageID = fmt.Sprintf("msg-%d", q.seq)
		q.inflight[item.ReceiptHandle] = item
		items = append(items, item)
	}
	q.pending = q.pending[n:]
	return items, nil
}

// Acknowledge removes an in-flight item permanently.
func (q *Queue) Acknowledge(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.inflight[receiptHandle]; !ok {
		return fmt.Errorf("unknown receipt handle: %s", receiptHandle)
	}
	delete(q.inflight, receiptHandle)
	return nil
}

// Enqueue appends a work item to the pending queue.
func (q *Queue) Enqueue(_ context.Context, item scanning.WorkItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item.ReceiptHandle = ""
	item.MessageID = ""
	q.pending = append(q.pending, item)
	return nil
}

// Redeliver simulates visibility-timeout expiry: all in-flight items return
// to the pending queue.
func (q *Queue) Redeliver() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for handle, item := range q.inflight {
		item.ReceiptHandle = ""
		item.MessageID = ""
		q.pending = append(q.pending, item)
		delete(q.inflight, handle)
	}
}

// Pending reports how many items await delivery.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Inflight reports how many delivered items are unacknowledged.
func (q *Queue) Inflight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}
