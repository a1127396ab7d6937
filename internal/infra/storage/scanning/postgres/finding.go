package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/datasentry/internal/db"
	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/internal/infra/storage"
)

var _ scanning.FindingRepository = (*findingStore)(nil)

// findingStore implements scanning.FindingRepository for the query boundary.
type findingStore struct {
	q      *db.Queries
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewFindingStore creates a PostgreSQL-backed finding repository with tracing.
func NewFindingStore(pool *pgxpool.Pool, tracer trace.Tracer) *findingStore {
	return &findingStore{q: db.New(pool), db: pool, tracer: tracer}
}

// List returns findings matching the filter, ordered by finding id
// descending so callers can paginate newest first.
func (r *findingStore) List(ctx context.Context, filter scanning.FindingFilter) ([]scanning.Finding, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.Int("limit", filter.Limit),
		attribute.Int64("before_id", filter.BeforeID),
	)

	params := db.ListFindingsParams{
		BeforeID: filter.BeforeID,
		RowLimit: int32(filter.Limit),
	}
	if filter.JobID != nil {
		params.JobID = pgUUID(*filter.JobID)
	} else {
		params.JobID = pgtype.UUID{}
	}
	if filter.FindingType != nil {
		params.FindingType = db.NullFindingType{FindingType: db.FindingType(*filter.FindingType), Valid: true}
	}

	var findings []scanning.Finding
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.list_findings", dbAttrs, func(ctx context.Context) error {
		rows, err := r.q.ListFindings(ctx, params)
		if err != nil {
			return fmt.Errorf("ListFindings query error: %w", err)
		}

		findings = make([]scanning.Finding, 0, len(rows))
		for _, row := range rows {
			findings = append(findings, scanning.ReconstructFinding(
				row.FindingID,
				row.UnitID,
				row.JobID.Bytes,
				scanning.FindingType(row.FindingType),
				row.ValueHash,
				int(row.LineNumber),
				int(row.ColumnStart),
				int(row.ColumnEnd),
				row.Context,
				scanning.Confidence(row.Confidence),
			))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return findings, nil
}
