package scanning

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// ItemProcessor handles one work item and decides its queue disposition.
type ItemProcessor interface {
	Process(ctx context.Context, item scanning.WorkItem) scanning.Disposition
}

// WorkerConfig tunes the dispatch loop.
type WorkerConfig struct {
	// PollBackoff is the fixed wait after a failed queue poll.
	PollBackoff time.Duration
	// ReceiveRPS caps how often the loop polls the queue. Zero disables
	// pacing.
	ReceiveRPS float64
}

// DefaultWorkerConfig returns the dispatch loop defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{PollBackoff: 5 * time.Second}
}

// Worker runs the dispatch loop: it repeatedly long-polls the queue for work
// items and feeds them to the processor sequentially. Horizontal scale-out
// happens by running more worker processes; the queue's visibility timeout is
// the only mutual exclusion between them.
type Worker struct {
	queue     scanning.WorkQueue
	processor ItemProcessor
	cfg       WorkerConfig
	limiter   *common.RateLimiter
	log       *logger.Logger
	metrics   WorkerMetrics
}

// NewWorker creates a Worker.
func NewWorker(
	queue scanning.WorkQueue,
	processor ItemProcessor,
	cfg WorkerConfig,
	log *logger.Logger,
	metrics WorkerMetrics,
) *Worker {
	var limiter *common.RateLimiter
	if cfg.ReceiveRPS > 0 {
		limiter = common.NewRateLimiter(cfg.ReceiveRPS, 1)
	}
	return &Worker{
		queue:     queue,
		processor: processor,
		cfg:       cfg,
		limiter:   limiter,
		log:       log,
		metrics:   metrics,
	}
}

// Run executes the dispatch loop until ctx is canceled. Shutdown is observed
// at the top of the loop; an in-flight item is always finished first.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info(ctx, "worker started")

	pollBackoff := backoff.NewConstantBackOff(w.cfg.PollBackoff)

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "worker shutting down")
			return ctx.Err()
		default:
		}

		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		items, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info(ctx, "worker shutting down")
				return ctx.Err()
			}
			w.metrics.IncPollErrors(ctx)
			w.log.Error(ctx, "queue poll failed, backing off", "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollBackoff.NextBackOff()):
			}
			continue
		}

		for _, item := range items {
			disposition := w.processor.Process(ctx, item)
			w.metrics.IncItemsProcessed(ctx, disposition.String())

			if disposition == scanning.DispositionAck {
				if err := w.queue.Acknowledge(ctx, item.ReceiptHandle); err != nil {
					// The item will be redelivered; processing it again is
					// safe because persistence is idempotent.
					w.log.Error(ctx, "failed to acknowledge message",
						"message_id", item.MessageID, "err", err)
				}
			}
		}
	}
}
