package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appscanning "github.com/ahrav/datasentry/internal/app/scanning"
	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

var validate = validator.New()

// ScanService is the application boundary the HTTP layer drives: starting
// scan jobs and reporting their progress.
type ScanService interface {
	StartScan(ctx context.Context, name, bucket, prefix string) (*scanning.Job, error)
	JobStatus(ctx context.Context, jobID uuid.UUID) (appscanning.JobProgress, error)
}

// Router exposes the scan control and findings query endpoints.
type Router struct {
	scans    ScanService
	findings scanning.FindingRepository
	log      *logger.Logger
}

// NewRouter builds the HTTP handler with all routes bound. corsOrigins
// configures the allowed origins; an empty slice disables CORS handling.
func NewRouter(scans ScanService, findings scanning.FindingRepository, log *logger.Logger, corsOrigins []string) http.Handler {
	r := &Router{scans: scans, findings: findings, log: log}
	mux := chi.NewRouter()

	if len(corsOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/v1/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Post("/v1/scans", r.wrap(r.handleStartScan))
	mux.Get("/v1/jobs/{job_id}", r.wrap(r.handleGetJob))
	mux.Get("/v1/findings", r.wrap(r.handleListFindings))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// statusError carries an HTTP status for client-facing failures.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &statusError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var se *statusError
		switch {
		case errors.As(err, &se):
			writeJSON(w, se.code, map[string]string{"error": se.msg})
		case errors.Is(err, scanning.ErrJobNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		default:
			r.log.Error(req.Context(), "request failed",
				"method", req.Method, "path", req.URL.Path, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

type startScanRequest struct {
	Name   string `json:"name" validate:"required"`
	Bucket string `json:"bucket" validate:"required"`
	Prefix string `json:"prefix"`
}

type jobResponse struct {
	JobID            string         `json:"job_id"`
	JobName          string         `json:"job_name"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Prefix         string         `json:"s3_prefix"`
	Status           string         `json:"status"`
	TotalObjects     int            `json:"total_objects"`
	ObjectsByStatus  map[string]int `json:"objects_by_status,omitempty"`
	CompletedObjects int            `json:"completed_objects"`
	FailedObjects    int            `json:"failed_objects"`
	TotalFindings    int            `json:"total_findings"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CompletedAt      *time.Time     `json:"completed_at"`
}

func newJobResponse(job *scanning.Job) jobResponse {
	resp := jobResponse{
		JobID:            job.JobID().String(),
		JobName:          job.Name(),
		S3Bucket:         job.Bucket(),
		S3Prefix:         job.Prefix(),
		Status:           job.Status().String(),
		TotalObjects:     job.TotalObjects(),
		CompletedObjects: job.CompletedObjects(),
		FailedObjects:    job.FailedObjects(),
		TotalFindings:    job.TotalFindings(),
		CreatedAt:        job.CreatedAt(),
		UpdatedAt:        job.UpdatedAt(),
	}
	if completed := job.CompletedAt(); !completed.IsZero() {
		resp.CompletedAt = &completed
	}
	return resp
}

// handleStartScan kicks off a new scan job over a bucket prefix.
// POST /v1/scans
func (r *Router) handleStartScan(w http.ResponseWriter, req *http.Request) error {
	var body startScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := validate.Struct(body); err != nil {
		return badRequest("invalid request: %v", err)
	}

	job, err := r.scans.StartScan(req.Context(), body.Name, body.Bucket, body.Prefix)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusAccepted, newJobResponse(job))
	return nil
}

// handleGetJob reports a job's status with live per-unit counts.
// GET /v1/jobs/{job_id}
func (r *Router) handleGetJob(w http.ResponseWriter, req *http.Request) error {
	jobID, err := uuid.Parse(chi.URLParam(req, "job_id"))
	if err != nil {
		return badRequest("Invalid job_id format")
	}

	progress, err := r.scans.JobStatus(req.Context(), jobID)
	if err != nil {
		return err
	}

	resp := newJobResponse(progress.Job)
	resp.ObjectsByStatus = map[string]int{
		scanning.UnitStatusPending.String():   progress.Counts.Pending,
		scanning.UnitStatusScanning.String():  progress.Counts.Scanning,
		scanning.UnitStatusCompleted.String(): progress.Counts.Completed,
		scanning.UnitStatusFailed.String():    progress.Counts.Failed,
	}
	resp.CompletedObjects = progress.Counts.Completed
	resp.FailedObjects = progress.Counts.Failed
	resp.TotalFindings = progress.Counts.Findings

	writeJSON(w, http.StatusOK, resp)
	return nil
}

type findingResponse struct {
	FindingID   int64  `json:"finding_id"`
	UnitID      int64  `json:"unit_id"`
	JobID       string `json:"job_id"`
	FindingType string `json:"finding_type"`
	ValueHash   string `json:"value_hash"`
	LineNumber  int    `json:"line_number"`
	ColumnStart int    `json:"column_start"`
	ColumnEnd   int    `json:"column_end"`
	Context     string `json:"context"`
	Confidence  string `json:"confidence"`
}

type findingsPageResponse struct {
	Findings   []findingResponse `json:"findings"`
	Count      int               `json:"count"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// handleListFindings returns a page of findings ordered newest first.
// Pagination is keyset based on finding id, carried in an opaque cursor.
// GET /v1/findings?job_id=&finding_type=&limit=&cursor=
func (r *Router) handleListFindings(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	filter := scanning.FindingFilter{Limit: defaultPageSize}

	if raw := query.Get("job_id"); raw != "" {
		jobID, err := uuid.Parse(raw)
		if err != nil {
			return badRequest("Invalid job_id format")
		}
		filter.JobID = &jobID
	}

	if raw := query.Get("finding_type"); raw != "" {
		findingType, err := scanning.ParseFindingType(raw)
		if err != nil {
			return badRequest("Invalid finding_type: %s", raw)
		}
		filter.FindingType = &findingType
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return badRequest("Invalid limit. Must be between 1 and %d", maxPageSize)
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
		filter.Limit = limit
	}

	if raw := query.Get("cursor"); raw != "" {
		beforeID, err := decodeCursor(raw)
		if err != nil {
			return badRequest("Invalid cursor")
		}
		filter.BeforeID = beforeID
	}

	// Fetch one extra row to detect whether another page exists.
	pageSize := filter.Limit
	filter.Limit = pageSize + 1

	findings, err := r.findings.List(req.Context(), filter)
	if err != nil {
		return fmt.Errorf("list findings: %w", err)
	}

	hasMore := len(findings) > pageSize
	if hasMore {
		findings = findings[:pageSize]
	}

	resp := findingsPageResponse{
		Findings: make([]findingResponse, 0, len(findings)),
		HasMore:  hasMore,
	}
	for _, f := range findings {
		resp.Findings = append(resp.Findings, findingResponse{
			FindingID:   f.FindingID(),
			UnitID:      f.UnitID(),
			JobID:       f.JobID().String(),
			FindingType: f.Type().String(),
			ValueHash:   f.ValueHash(),
			LineNumber:  f.LineNumber(),
			ColumnStart: f.ColumnStart(),
			ColumnEnd:   f.ColumnEnd(),
			Context:     f.Context(),
			Confidence:  f.Confidence().String(),
		})
	}
	resp.Count = len(resp.Findings)
	if hasMore && len(findings) > 0 {
		resp.NextCursor = encodeCursor(findings[len(findings)-1].FindingID())
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}
