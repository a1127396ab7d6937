package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// maxUnitBatchSize bounds how many unit rows go into a single INSERT.
const maxUnitBatchSize = 500

var _ scanning.UnitRepository = (*unitStore)(nil)

// unitStore implements scanning.UnitRepository using PostgreSQL as the
// backing store. Completion commits the unit's terminal status together with
// its findings in one transaction.
type unitStore struct {
	q      *db.Queries
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewUnitStore creates a PostgreSQL-backed scan unit repository with tracing.
func NewUnitStore(pool *pgxpool.Pool, tracer trace.Tracer) *unitStore {
	return &unitStore{q: db.New(pool), db: pool, tracer: tracer}
}

// CreateUnits bulk-inserts pending units. Conflicting (job, key) pairs are
// ignored so re-enumeration of the same job never duplicates units.
func (r *unitStore) CreateUnits(ctx context.Context, units []*scanning.ScanUnit) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.Int("num_units", len(units)),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.create_units", dbAttrs, func(ctx context.Context) error {
		for start := 0; start < len(units); start += maxUnitBatchSize {
			end := start + maxUnitBatchSize
			if end > len(units) {
				end = len(units)
			}
			if err := r.insertUnitBatch(ctx, units[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *unitStore) insertUnitBatch(ctx context.Context, units []*scanning.ScanUnit) error {
	if len(units) == 0 {
		return nil
	}

	// Each row is job_id + object_key + size_bytes + status + created_at.
	values := make([]string, 0, len(units))
	args := make([]any, 0, len(units)*5)
	i := 1

	for _, unit := range units {
		values = append(values, fmt.Sprintf("($%d::uuid, $%d::text, $%d::bigint, $%d::scan_unit_status, $%d::timestamptz)",
			i, i+1, i+2, i+3, i+4))
		args = append(args,
			unit.JobID(),
			unit.ObjectKey(),
			unit.SizeBytes(),
			string(unit.Status()),
			unit.CreatedAt(),
		)
		i += 5
	}

	query := fmt.Sprintf(`
			INSERT INTO scan_units (job_id, object_key, size_bytes, status, created_at)
			VALUES %s
			ON CONFLICT (job_id, object_key) DO NOTHING
	`, strings.Join(values, ","))

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk insert scan units error: %w", err)
	}
	return nil
}

// GetByJobAndKey resolves the unit for a work item.
func (r *unitStore) GetByJobAndKey(ctx context.Context, jobID uuid.UUID, objectKey string) (*scanning.ScanUnit, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", jobID.String()),
		attribute.String("object_key", objectKey),
	)

	var unit *scanning.ScanUnit
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.get_unit_by_job_and_key", dbAttrs, func(ctx context.Context) error {
		row, err := r.q.GetScanUnitByJobAndKey(ctx, db.GetScanUnitByJobAndKeyParams{
			JobID:     pgUUID(jobID),
			ObjectKey: objectKey,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return scanning.ErrUnitNotFound
			}
			return fmt.Errorf("GetScanUnitByJobAndKey query error: %w", err)
		}

		unit = reconstructUnit(row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return unit, nil
}

// UpdateStatus persists the unit's status, attempts, error message and
// scanned-at timestamp.
func (r *unitStore) UpdateStatus(ctx context.Context, unit *scanning.ScanUnit) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.Int64("unit_id", unit.UnitID()),
		attribute.String("status", string(unit.Status())),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.update_unit_status", dbAttrs, func(ctx context.Context) error {
		rowsAffected, err := r.q.UpdateScanUnitStatus(ctx, updateStatusParams(unit))
		if err != nil {
			return fmt.Errorf("UpdateScanUnitStatus query error: %w", err)
		}
		if rowsAffected == 0 {
			return scanning.ErrUnitNotFound
		}
		return nil
	})
}

// CompleteWithFindings atomically persists the completed status together with
// the unit's findings. Finding inserts are conflict-ignoring so redelivery of
// the same unit never duplicates rows.
func (r *unitStore) CompleteWithFindings(ctx context.Context, unit *scanning.ScanUnit, findings []scanning.Finding) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.Int64("unit_id", unit.UnitID()),
		attribute.Int("num_findings", len(findings)),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.complete_unit_with_findings", dbAttrs, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction error: %w", err)
		}
		defer tx.Rollback(ctx)

		qtx := r.q.WithTx(tx)

		rowsAffected, err := qtx.UpdateScanUnitStatus(ctx, updateStatusParams(unit))
		if err != nil {
			return fmt.Errorf("UpdateScanUnitStatus query error: %w", err)
		}
		if rowsAffected == 0 {
			return scanning.ErrUnitNotFound
		}

		for _, f := range findings {
			_, err := qtx.CreateFinding(ctx, db.CreateFindingParams{
				UnitID:      f.UnitID(),
				JobID:       pgUUID(f.JobID()),
				FindingType: db.FindingType(f.Type()),
				ValueHash:   f.ValueHash(),
				LineNumber:  int32(f.LineNumber()),
				ColumnStart: int32(f.ColumnStart()),
				ColumnEnd:   int32(f.ColumnEnd()),
				Context:     f.Context(),
				Confidence:  db.FindingConfidence(f.Confidence()),
			})
			if err != nil {
				return fmt.Errorf("CreateFinding insert error: %w", err)
			}
		}

		return tx.Commit(ctx)
	})
}

func updateStatusParams(unit *scanning.ScanUnit) db.UpdateScanUnitStatusParams {
	return db.UpdateScanUnitStatusParams{
		UnitID:        unit.UnitID(),
		Status:        db.ScanUnitStatus(unit.Status()),
		FindingsCount: int32(unit.FindingsCount()),
		ErrorMessage:  pgtype.Text{String: unit.ErrorMessage(), Valid: unit.ErrorMessage() != ""},
		Attempts:      int32(unit.Attempts()),
		ScannedAt:     pgTimestamp(unit.ScannedAt()),
	}
}

func reconstructUnit(row db.ScanUnit) *scanning.ScanUnit {
	return scanning.ReconstructScanUnit(
		row.UnitID,
		row.JobID.Bytes,
		row.ObjectKey,
		row.SizeBytes,
		scanning.UnitStatus(row.Status),
		int(row.FindingsCount),
		row.ErrorMessage.String,
		int(row.Attempts),
		row.CreatedAt.Time,
		row.ScannedAt.Time,
	)
}
