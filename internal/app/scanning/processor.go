// Package scanning coordinates the scan workflow: enumerating jobs into
// units, dispatching units from the work queue, and driving each unit through
// its state machine.
package scanning

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/datasentry/internal/detector"
	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/internal/scanner"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// ObjectScanner streams one object and reports its matches and outcome.
type ObjectScanner interface {
	Scan(ctx context.Context, bucket, key string) ([]detector.Match, scanner.Outcome)
}

// Processor drives one work item through the unit state machine and decides
// the queue-message disposition. Transient faults return DispositionRetry so
// the message stays on the queue for redelivery; terminal results and
// anomalies return DispositionAck.
type Processor struct {
	units   scanning.UnitRepository
	scanner ObjectScanner
	log     *logger.Logger
	tracer  trace.Tracer
	metrics WorkerMetrics
}

// NewProcessor creates a Processor.
func NewProcessor(
	units scanning.UnitRepository,
	objScanner ObjectScanner,
	log *logger.Logger,
	tracer trace.Tracer,
	metrics WorkerMetrics,
) *Processor {
	return &Processor{units: units, scanner: objScanner, log: log, tracer: tracer, metrics: metrics}
}

// Process handles one work item end to end and returns how the queue message
// should be disposed.
func (p *Processor) Process(ctx context.Context, item scanning.WorkItem) scanning.Disposition {
	ctx, span := p.tracer.Start(ctx, "processor.process_item",
		trace.WithAttributes(
			attribute.String("job_id", item.JobID.String()),
			attribute.String("object_key", item.ObjectKey),
			attribute.Int("attempt", item.Attempt),
		))
	defer span.End()

	unit, err := p.units.GetByJobAndKey(ctx, item.JobID, item.ObjectKey)
	if err != nil {
		if errors.Is(err, scanning.ErrUnitNotFound) {
			// A work item without a unit is a non-retryable anomaly; the unit
			// is never created implicitly.
			p.log.Error(ctx, "work item references unknown unit",
				"job_id", item.JobID, "object_key", item.ObjectKey)
			return scanning.DispositionAck
		}
		p.metrics.IncItemErrors(ctx)
		p.log.Error(ctx, "failed to resolve scan unit", "err", err)
		return scanning.DispositionRetry
	}

	switch unit.Status() {
	case scanning.UnitStatusPending:
		if err := unit.MarkScanning(); err != nil {
			p.log.Error(ctx, "invalid transition to scanning", "err", err)
			return scanning.DispositionAck
		}
		if err := p.units.UpdateStatus(ctx, unit); err != nil {
			p.metrics.IncItemErrors(ctx)
			p.log.Error(ctx, "failed to mark unit scanning", "err", err)
			return scanning.DispositionRetry
		}
	case scanning.UnitStatusScanning:
		// Redelivery after a mid-scan crash; resume the attempt.
		p.log.Warn(ctx, "unit already scanning, resuming after redelivery",
			"object_key", item.ObjectKey, "attempt", item.Attempt)
	default:
		// Terminal status: a previous attempt committed but the ack was lost.
		p.log.Info(ctx, "unit already terminal, acknowledging redelivery",
			"object_key", item.ObjectKey, "status", unit.Status())
		return scanning.DispositionAck
	}

	start := time.Now()
	matches, outcome := p.scanner.Scan(ctx, item.Bucket, item.ObjectKey)
	p.metrics.ObserveScanDuration(ctx, time.Since(start))

	switch outcome.Kind {
	case scanner.OutcomeCompleted:
		return p.completeUnit(ctx, unit, item, matches)
	case scanner.OutcomeSkipped, scanner.OutcomeFailed:
		// Skipped content is recorded as a failed unit with its reason; both
		// classes are terminal and never retried.
		return p.failUnit(ctx, unit, outcome.Reason)
	default:
		p.log.Error(ctx, "unknown scan outcome", "kind", string(outcome.Kind))
		return scanning.DispositionRetry
	}
}

func (p *Processor) completeUnit(
	ctx context.Context,
	unit *scanning.ScanUnit,
	item scanning.WorkItem,
	matches []detector.Match,
) scanning.Disposition {
	findings := make([]scanning.Finding, 0, len(matches))
	for _, m := range matches {
		findings = append(findings, scanning.NewFinding(
			unit.UnitID(),
			item.JobID,
			m.Type,
			m.ValueHash,
			m.LineNumber,
			m.ColumnStart,
			m.ColumnEnd,
			m.Context,
			m.Confidence,
		))
	}

	if err := unit.MarkCompleted(len(findings)); err != nil {
		p.log.Error(ctx, "invalid transition to completed", "err", err)
		return scanning.DispositionAck
	}
	if err := p.units.CompleteWithFindings(ctx, unit, findings); err != nil {
		p.metrics.IncItemErrors(ctx)
		p.log.Error(ctx, "failed to persist completed unit", "err", err)
		return scanning.DispositionRetry
	}

	p.metrics.ObserveFindings(ctx, len(findings))
	p.log.Info(ctx, "unit completed",
		"object_key", unit.ObjectKey(), "findings", len(findings))
	return scanning.DispositionAck
}

func (p *Processor) failUnit(ctx context.Context, unit *scanning.ScanUnit, reason string) scanning.Disposition {
	if err := unit.MarkFailed(reason); err != nil {
		p.log.Error(ctx, "invalid transition to failed", "err", err)
		return scanning.DispositionAck
	}
	if err := p.units.UpdateStatus(ctx, unit); err != nil {
		p.metrics.IncItemErrors(ctx)
		p.log.Error(ctx, "failed to persist failed unit", "err", err)
		return scanning.DispositionRetry
	}

	p.log.Warn(ctx, "unit failed", "object_key", unit.ObjectKey(), "reason", reason)
	return scanning.DispositionAck
}
