package scanning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// Coordinator starts scan jobs: it enumerates the source bucket into scan
// units, persists them, and enqueues one work item per unit.
type Coordinator struct {
	jobs   scanning.JobRepository
	units  scanning.UnitRepository
	store  scanning.ObjectStore
	queue  scanning.WorkQueue
	log    *logger.Logger
	tracer trace.Tracer
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	jobs scanning.JobRepository,
	units scanning.UnitRepository,
	store scanning.ObjectStore,
	queue scanning.WorkQueue,
	log *logger.Logger,
	tracer trace.Tracer,
) *Coordinator {
	return &Coordinator{jobs: jobs, units: units, store: store, queue: queue, log: log, tracer: tracer}
}

// StartScan creates a job, enumerates the bucket under the optional prefix,
// and enqueues every object for scanning. The returned job is in running
// status with its total object count set.
func (c *Coordinator) StartScan(ctx context.Context, name, bucket, prefix string) (*scanning.Job, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.start_scan",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("prefix", prefix),
		))
	defer span.End()

	job := scanning.NewJob(name, bucket, prefix)
	if err := c.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	infos, err := c.store.List(ctx, bucket, prefix)
	if err != nil {
		c.abortJob(ctx, job)
		return nil, fmt.Errorf("enumerate bucket %s: %w", bucket, err)
	}

	units := make([]*scanning.ScanUnit, 0, len(infos))
	for _, info := range infos {
		units = append(units, scanning.NewScanUnit(job.JobID(), info.Key, info.Size))
	}
	if err := c.units.CreateUnits(ctx, units); err != nil {
		c.abortJob(ctx, job)
		return nil, fmt.Errorf("create scan units: %w", err)
	}

	for _, unit := range units {
		item := scanning.WorkItem{
			JobID:     job.JobID(),
			Bucket:    bucket,
			ObjectKey: unit.ObjectKey(),
		}
		if err := c.queue.Enqueue(ctx, item); err != nil {
			c.abortJob(ctx, job)
			return nil, fmt.Errorf("enqueue unit %s: %w", unit.ObjectKey(), err)
		}
	}

	job.MarkRunning(len(units))
	if err := c.jobs.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("mark job running: %w", err)
	}

	span.SetAttributes(attribute.Int("total_objects", len(units)))
	c.log.Info(ctx, "scan started",
		"job_id", job.JobID(), "bucket", bucket, "total_objects", len(units))
	return job, nil
}

func (c *Coordinator) abortJob(ctx context.Context, job *scanning.Job) {
	job.MarkFailed()
	if err := c.jobs.UpdateJob(ctx, job); err != nil {
		c.log.Error(ctx, "failed to mark job failed", "job_id", job.JobID(), "err", err)
	}
}

// JobProgress pairs a job with the live per-status counts of its units.
type JobProgress struct {
	Job    *scanning.Job
	Counts scanning.UnitCounts
}

// JobStatus returns the job together with its unit counts aggregated from
// the persistence layer.
func (c *Coordinator) JobStatus(ctx context.Context, jobID uuid.UUID) (JobProgress, error) {
	job, err := c.jobs.GetJob(ctx, jobID)
	if err != nil {
		return JobProgress{}, err
	}

	counts, err := c.jobs.GetUnitCounts(ctx, jobID)
	if err != nil {
		return JobProgress{}, fmt.Errorf("aggregate unit counts: %w", err)
	}

	return JobProgress{Job: job, Counts: counts}, nil
}
