package scanning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/internal/infra/queue/memory"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// recordingProcessor returns a fixed disposition and records every item.
type recordingProcessor struct {
	mu          sync.Mutex
	disposition scanning.Disposition
	items       []scanning.WorkItem
}

func (p *recordingProcessor) Process(_ context.Context, item scanning.WorkItem) scanning.Disposition {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
	return p.disposition
}

func (p *recordingProcessor) processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func runWorker(t *testing.T, queue scanning.WorkQueue, processor ItemProcessor) (context.CancelFunc, chan error) {
	t.Helper()

	cfg := DefaultWorkerConfig()
	cfg.PollBackoff = 10 * time.Millisecond
	cfg.ReceiveRPS = 500
	worker := NewWorker(queue, processor, cfg, logger.Noop(), NoopWorkerMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()
	return cancel, done
}

func TestWorker_ProcessesAndAcknowledges(t *testing.T) {
	t.Parallel()

	queue := memory.New(10)
	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Enqueue(context.Background(), scanning.WorkItem{
			JobID: uuid.New(), Bucket: "b", ObjectKey: "k" + string(rune('a'+i)),
		}))
	}

	processor := &recordingProcessor{disposition: scanning.DispositionAck}
	cancel, done := runWorker(t, queue, processor)
	defer cancel()

	require.Eventually(t, func() bool { return processor.processed() == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return queue.Inflight() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, queue.Pending())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorker_RetryLeavesMessageForRedelivery(t *testing.T) {
	t.Parallel()

	queue := memory.New(1)
	require.NoError(t, queue.Enqueue(context.Background(), scanning.WorkItem{
		JobID: uuid.New(), Bucket: "b", ObjectKey: "flaky.txt",
	}))

	processor := &recordingProcessor{disposition: scanning.DispositionRetry}
	cancel, done := runWorker(t, queue, processor)
	defer cancel()

	require.Eventually(t, func() bool { return processor.processed() == 1 }, 2*time.Second, 5*time.Millisecond)

	// The message must still be in flight, not acknowledged.
	assert.Equal(t, 1, queue.Inflight())

	// Visibility expiry redelivers it with an incremented attempt count.
	queue.Redeliver()
	require.Eventually(t, func() bool { return processor.processed() >= 2 }, 2*time.Second, 5*time.Millisecond)

	processor.mu.Lock()
	defer processor.mu.Unlock()
	assert.Equal(t, 1, processor.items[0].Attempt)
	assert.Equal(t, 2, processor.items[1].Attempt)

	cancel()
	<-done
}

// failingQueue always errors on Receive.
type failingQueue struct {
	mu    sync.Mutex
	polls int
}

func (q *failingQueue) Receive(context.Context) ([]scanning.WorkItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.polls++
	return nil, errors.New("queue unavailable")
}

func (q *failingQueue) Acknowledge(context.Context, string) error        { return nil }
func (q *failingQueue) Enqueue(context.Context, scanning.WorkItem) error { return nil }

func (q *failingQueue) pollCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.polls
}

func TestWorker_BacksOffOnPollFailure(t *testing.T) {
	t.Parallel()

	queue := &failingQueue{}
	processor := &recordingProcessor{disposition: scanning.DispositionAck}
	cancel, done := runWorker(t, queue, processor)

	require.Eventually(t, func() bool { return queue.pollCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, processor.processed())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorker_ShutdownStopsNewBatches(t *testing.T) {
	t.Parallel()

	queue := memory.New(1)
	processor := &recordingProcessor{disposition: scanning.DispositionAck}
	cancel, done := runWorker(t, queue, processor)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// Work enqueued after shutdown is never picked up.
	require.NoError(t, queue.Enqueue(context.Background(), scanning.WorkItem{
		JobID: uuid.New(), Bucket: "b", ObjectKey: "late.txt",
	}))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, processor.processed())
	assert.Equal(t, 1, queue.Pending())
}
