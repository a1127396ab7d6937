// Package postgres provides PostgreSQL-backed implementations of the
// scanning domain repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/datasentry/internal/db"
	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/internal/infra/storage"
)

// defaultDBAttributes defines standard OpenTelemetry attributes for database operations.
var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgTimestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

var _ scanning.JobRepository = (*jobStore)(nil)

// jobStore implements scanning.JobRepository using PostgreSQL as the backing
// store.
type jobStore struct {
	q      *db.Queries
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewJobStore creates a PostgreSQL-backed job repository with tracing.
func NewJobStore(pool *pgxpool.Pool, tracer trace.Tracer) *jobStore {
	return &jobStore{q: db.New(pool), db: pool, tracer: tracer}
}

// CreateJob persists a new scan job.
func (r *jobStore) CreateJob(ctx context.Context, job *scanning.Job) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", job.JobID().String()),
		attribute.String("bucket", job.Bucket()),
		attribute.String("status", string(job.Status())),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.create_job", dbAttrs, func(ctx context.Context) error {
		err := r.q.CreateJob(ctx, db.CreateJobParams{
			JobID:  pgUUID(job.JobID()),
			Name:   job.Name(),
			Bucket: job.Bucket(),
			Prefix: job.Prefix(),
			Status: db.ScanJobStatus(job.Status()),
		})
		if err != nil {
			return fmt.Errorf("CreateJob insert error: %w", err)
		}
		return nil
	})
}

// GetJob retrieves a scan job and reconstructs the domain model.
func (r *jobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*scanning.Job, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", jobID.String()),
	)

	var job *scanning.Job
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.get_job", dbAttrs, func(ctx context.Context) error {
		row, err := r.q.GetJob(ctx, pgUUID(jobID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return scanning.ErrJobNotFound
			}
			return fmt.Errorf("GetJob query error: %w", err)
		}

		job = scanning.ReconstructJob(
			row.JobID.Bytes,
			row.Name,
			row.Bucket,
			row.Prefix,
			scanning.JobStatus(row.Status),
			int(row.TotalObjects),
			int(row.CompletedObjects),
			int(row.FailedObjects),
			int(row.TotalFindings),
			row.CreatedAt.Time,
			row.UpdatedAt.Time,
			row.CompletedAt.Time,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return job, nil
}

// UpdateJob modifies an existing job's state in the database.
func (r *jobStore) UpdateJob(ctx context.Context, job *scanning.Job) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", job.JobID().String()),
		attribute.String("status", string(job.Status())),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.update_job", dbAttrs, func(ctx context.Context) error {
		rowsAffected, err := r.q.UpdateJob(ctx, db.UpdateJobParams{
			JobID:            pgUUID(job.JobID()),
			Status:           db.ScanJobStatus(job.Status()),
			TotalObjects:     int32(job.TotalObjects()),
			CompletedObjects: int32(job.CompletedObjects()),
			FailedObjects:    int32(job.FailedObjects()),
			TotalFindings:    int32(job.TotalFindings()),
			CompletedAt:      pgTimestamp(job.CompletedAt()),
		})
		if err != nil {
			return fmt.Errorf("UpdateJob query error: %w", err)
		}
		if rowsAffected == 0 {
			return scanning.ErrJobNotFound
		}
		return nil
	})
}

// GetUnitCounts aggregates the job's units by status along with the total
// findings recorded.
func (r *jobStore) GetUnitCounts(ctx context.Context, jobID uuid.UUID) (scanning.UnitCounts, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", jobID.String()),
	)

	var counts scanning.UnitCounts
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.get_unit_counts", dbAttrs, func(ctx context.Context) error {
		rows, err := r.q.GetJobUnitCounts(ctx, pgUUID(jobID))
		if err != nil {
			return fmt.Errorf("GetJobUnitCounts query error: %w", err)
		}

		for _, row := range rows {
			counts.Findings += int(row.FindingCount)
			switch scanning.UnitStatus(row.Status) {
			case scanning.UnitStatusPending:
				counts.Pending = int(row.UnitCount)
			case scanning.UnitStatusScanning:
				counts.Scanning = int(row.UnitCount)
			case scanning.UnitStatusCompleted:
				counts.Completed = int(row.UnitCount)
			case scanning.UnitStatusFailed:
				counts.Failed = int(row.UnitCount)
			case scanning.UnitStatusSkipped:
				counts.Skipped = int(row.UnitCount)
			}
		}
		return nil
	})
	if err != nil {
		return scanning.UnitCounts{}, err
	}

	return counts, nil
}
