package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appscanning "github.com/ahrav/datasentry/internal/app/scanning"
	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// fakeScanService returns canned jobs and records call arguments.
type fakeScanService struct {
	job      *scanning.Job
	progress appscanning.JobProgress
	startErr error
	jobErr   error

	startedName   string
	startedBucket string
	startedPrefix string
}

func (f *fakeScanService) StartScan(_ context.Context, name, bucket, prefix string) (*scanning.Job, error) {
	f.startedName, f.startedBucket, f.startedPrefix = name, bucket, prefix
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.job, nil
}

func (f *fakeScanService) JobStatus(_ context.Context, _ uuid.UUID) (appscanning.JobProgress, error) {
	if f.jobErr != nil {
		return appscanning.JobProgress{}, f.jobErr
	}
	return f.progress, nil
}

// fakeFindingRepo serves a descending-id slice honoring the filter, which
// lets the cursor round-trip through real pagination.
type fakeFindingRepo struct {
	findings []scanning.Finding
	listErr  error

	lastFilter scanning.FindingFilter
}

func (f *fakeFindingRepo) List(_ context.Context, filter scanning.FindingFilter) ([]scanning.Finding, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []scanning.Finding
	for _, finding := range f.findings {
		if filter.BeforeID > 0 && finding.FindingID() >= filter.BeforeID {
			continue
		}
		if filter.FindingType != nil && finding.Type() != *filter.FindingType {
			continue
		}
		if filter.JobID != nil && finding.JobID() != *filter.JobID {
			continue
		}
		out = append(out, finding)
		if len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func seedFindings(jobID uuid.UUID, n int) []scanning.Finding {
	findings := make([]scanning.Finding, 0, n)
	for id := n; id >= 1; id-- {
		findingType := scanning.FindingTypeEmail
		if id%2 == 0 {
			findingType = scanning.FindingTypeSSN
		}
		findings = append(findings, scanning.ReconstructFinding(
			int64(id), 7, jobID, findingType, fmt.Sprintf("hash-%d", id),
			id, 0, 10, "ctx", scanning.ConfidenceHigh,
		))
	}
	return findings
}

func newTestRouter(scans ScanService, findings scanning.FindingRepository) http.Handler {
	return NewRouter(scans, findings, logger.Noop(), nil)
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestRouter(&fakeScanService{}, &fakeFindingRepo{}), http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestRouter_StartScan(t *testing.T) {
	t.Parallel()

	svc := &fakeScanService{job: scanning.NewJob("pii-audit", "scan-bucket", "exports/")}
	svc.job.MarkRunning(12)

	rec := doRequest(t, newTestRouter(svc, &fakeFindingRepo{}), http.MethodPost, "/v1/scans", map[string]string{
		"name": "pii-audit", "bucket": "scan-bucket", "prefix": "exports/",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "pii-audit", svc.startedName)
	assert.Equal(t, "scan-bucket", svc.startedBucket)
	assert.Equal(t, "exports/", svc.startedPrefix)

	body := decodeBody[jobResponse](t, rec)
	assert.Equal(t, svc.job.JobID().String(), body.JobID)
	assert.Equal(t, "running", body.Status)
	assert.Equal(t, 12, body.TotalObjects)
	assert.Nil(t, body.CompletedAt)
}

func TestRouter_StartScanValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
	}{
		{name: "missing bucket", body: map[string]string{"name": "x"}},
		{name: "missing name", body: map[string]string{"bucket": "b"}},
		{name: "malformed json", body: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeScanService{}
			router := newTestRouter(svc, &fakeFindingRepo{})

			var rec *httptest.ResponseRecorder
			if tt.body == nil {
				req := httptest.NewRequest(http.MethodPost, "/v1/scans", bytes.NewReader([]byte("{not json")))
				rec = httptest.NewRecorder()
				router.ServeHTTP(rec, req)
			} else {
				rec = doRequest(t, router, http.MethodPost, "/v1/scans", tt.body)
			}

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.startedBucket)
		})
	}
}

func TestRouter_GetJob(t *testing.T) {
	t.Parallel()

	job := scanning.NewJob("audit", "bkt", "")
	job.MarkRunning(10)
	svc := &fakeScanService{progress: appscanning.JobProgress{
		Job:    job,
		Counts: scanning.UnitCounts{Pending: 2, Scanning: 1, Completed: 6, Failed: 1, Findings: 33},
	}}

	rec := doRequest(t, newTestRouter(svc, &fakeFindingRepo{}), http.MethodGet, "/v1/jobs/"+job.JobID().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[jobResponse](t, rec)
	assert.Equal(t, 10, body.TotalObjects)
	assert.Equal(t, 6, body.CompletedObjects)
	assert.Equal(t, 1, body.FailedObjects)
	assert.Equal(t, 33, body.TotalFindings)
	assert.Equal(t, map[string]int{"pending": 2, "scanning": 1, "completed": 6, "failed": 1}, body.ObjectsByStatus)
}

func TestRouter_GetJobErrors(t *testing.T) {
	t.Parallel()

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()
		rec := doRequest(t, newTestRouter(&fakeScanService{}, &fakeFindingRepo{}), http.MethodGet, "/v1/jobs/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()
		svc := &fakeScanService{jobErr: scanning.ErrJobNotFound}
		rec := doRequest(t, newTestRouter(svc, &fakeFindingRepo{}), http.MethodGet, "/v1/jobs/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("repo failure", func(t *testing.T) {
		t.Parallel()
		svc := &fakeScanService{jobErr: errors.New("connection refused")}
		rec := doRequest(t, newTestRouter(svc, &fakeFindingRepo{}), http.MethodGet, "/v1/jobs/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRouter_ListFindingsPaginates(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	repo := &fakeFindingRepo{findings: seedFindings(jobID, 5)}
	router := newTestRouter(&fakeScanService{}, repo)

	rec := doRequest(t, router, http.MethodGet, "/v1/findings?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page := decodeBody[findingsPageResponse](t, rec)
	require.Len(t, page.Findings, 2)
	assert.Equal(t, 2, page.Count)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(5), page.Findings[0].FindingID)
	assert.Equal(t, int64(4), page.Findings[1].FindingID)
	require.NotEmpty(t, page.NextCursor)

	rec = doRequest(t, router, http.MethodGet, "/v1/findings?limit=2&cursor="+page.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[findingsPageResponse](t, rec)
	require.Len(t, page.Findings, 2)
	assert.Equal(t, int64(3), page.Findings[0].FindingID)
	assert.True(t, page.HasMore)

	rec = doRequest(t, router, http.MethodGet, "/v1/findings?limit=2&cursor="+page.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[findingsPageResponse](t, rec)
	require.Len(t, page.Findings, 1)
	assert.Equal(t, int64(1), page.Findings[0].FindingID)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}

func TestRouter_ListFindingsFilters(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	repo := &fakeFindingRepo{findings: seedFindings(jobID, 6)}
	router := newTestRouter(&fakeScanService{}, repo)

	rec := doRequest(t, router, http.MethodGet, "/v1/findings?finding_type=ssn&job_id="+jobID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page := decodeBody[findingsPageResponse](t, rec)
	require.Len(t, page.Findings, 3)
	for _, f := range page.Findings {
		assert.Equal(t, "ssn", f.FindingType)
		assert.Equal(t, jobID.String(), f.JobID)
	}
	require.NotNil(t, repo.lastFilter.FindingType)
	assert.Equal(t, scanning.FindingTypeSSN, *repo.lastFilter.FindingType)
}

func TestRouter_ListFindingsDefaultsAndClamps(t *testing.T) {
	t.Parallel()

	repo := &fakeFindingRepo{}
	router := newTestRouter(&fakeScanService{}, repo)

	rec := doRequest(t, router, http.MethodGet, "/v1/findings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	// One extra row beyond the page size probes for another page.
	assert.Equal(t, defaultPageSize+1, repo.lastFilter.Limit)

	rec = doRequest(t, router, http.MethodGet, "/v1/findings?limit=99999", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxPageSize+1, repo.lastFilter.Limit)
}

func TestRouter_ListFindingsBadParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
	}{
		{name: "bad job id", target: "/v1/findings?job_id=nope"},
		{name: "bad finding type", target: "/v1/findings?finding_type=passport"},
		{name: "zero limit", target: "/v1/findings?limit=0"},
		{name: "negative limit", target: "/v1/findings?limit=-4"},
		{name: "non numeric limit", target: "/v1/findings?limit=ten"},
		{name: "bad cursor", target: "/v1/findings?cursor=@@@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, newTestRouter(&fakeScanService{}, &fakeFindingRepo{}), http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}
