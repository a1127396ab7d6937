package scanning

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/internal/infra/queue/memory"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// fakeJobRepo is an in-memory scanning.JobRepository.
type fakeJobRepo struct {
	jobs   map[uuid.UUID]*scanning.Job
	counts scanning.UnitCounts
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*scanning.Job)}
}

func (f *fakeJobRepo) CreateJob(_ context.Context, job *scanning.Job) error {
	f.jobs[job.JobID()] = job
	return nil
}

func (f *fakeJobRepo) GetJob(_ context.Context, jobID uuid.UUID) (*scanning.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, scanning.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) UpdateJob(_ context.Context, job *scanning.Job) error {
	if _, ok := f.jobs[job.JobID()]; !ok {
		return scanning.ErrJobNotFound
	}
	f.jobs[job.JobID()] = job
	return nil
}

func (f *fakeJobRepo) GetUnitCounts(_ context.Context, _ uuid.UUID) (scanning.UnitCounts, error) {
	return f.counts, nil
}

// listOnlyStore serves a fixed listing; content methods are never used by
// the coordinator.
type listOnlyStore struct {
	infos   []scanning.ObjectInfo
	listErr error
}

func (s *listOnlyStore) Stat(context.Context, string, string) (scanning.ObjectInfo, error) {
	return scanning.ObjectInfo{}, errors.New("not implemented")
}

func (s *listOnlyStore) ReadRange(context.Context, string, string, int64, int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *listOnlyStore) Stream(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *listOnlyStore) List(context.Context, string, string) ([]scanning.ObjectInfo, error) {
	return s.infos, s.listErr
}

func newTestCoordinator(jobs *fakeJobRepo, units *fakeUnitRepo, store *listOnlyStore, queue scanning.WorkQueue) *Coordinator {
	return NewCoordinator(jobs, units, store, queue, logger.Noop(), noop.NewTracerProvider().Tracer("test"))
}

func TestCoordinator_StartScanEnumeratesAndEnqueues(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobRepo()
	units := newFakeUnitRepo()
	store := &listOnlyStore{infos: []scanning.ObjectInfo{
		{Key: "exports/a.csv", Size: 100},
		{Key: "exports/b.csv", Size: 200},
		{Key: "exports/c.log", Size: 300},
	}}
	queue := memory.New(10)

	job, err := newTestCoordinator(jobs, units, store, queue).StartScan(
		context.Background(), "pii-audit", "scan-bucket", "exports/")
	require.NoError(t, err)

	assert.Equal(t, scanning.JobStatusRunning, job.Status())
	assert.Equal(t, 3, job.TotalObjects())
	assert.Len(t, units.units, 3)
	assert.Equal(t, 3, queue.Pending())

	items, err := queue.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, job.JobID(), item.JobID)
		assert.Equal(t, "scan-bucket", item.Bucket)
	}
}

func TestCoordinator_StartScanEmptyBucket(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobRepo()
	units := newFakeUnitRepo()
	queue := memory.New(10)

	job, err := newTestCoordinator(jobs, units, &listOnlyStore{}, queue).StartScan(
		context.Background(), "empty", "scan-bucket", "")
	require.NoError(t, err)

	assert.Equal(t, scanning.JobStatusRunning, job.Status())
	assert.Zero(t, job.TotalObjects())
	assert.Zero(t, queue.Pending())
}

func TestCoordinator_StartScanEnumerationFailureFailsJob(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobRepo()
	units := newFakeUnitRepo()
	store := &listOnlyStore{listErr: errors.New("access denied")}
	queue := memory.New(10)

	_, err := newTestCoordinator(jobs, units, store, queue).StartScan(
		context.Background(), "doomed", "locked-bucket", "")
	require.Error(t, err)

	require.Len(t, jobs.jobs, 1)
	for _, job := range jobs.jobs {
		assert.Equal(t, scanning.JobStatusFailed, job.Status())
		assert.False(t, job.CompletedAt().IsZero())
	}
}

func TestCoordinator_JobStatus(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobRepo()
	jobs.counts = scanning.UnitCounts{Pending: 1, Completed: 2, Failed: 1, Findings: 9}
	units := newFakeUnitRepo()
	queue := memory.New(10)
	coordinator := newTestCoordinator(jobs, units, &listOnlyStore{}, queue)

	job, err := coordinator.StartScan(context.Background(), "status", "b", "")
	require.NoError(t, err)

	progress, err := coordinator.JobStatus(context.Background(), job.JobID())
	require.NoError(t, err)
	assert.Equal(t, job.JobID(), progress.Job.JobID())
	assert.Equal(t, 2, progress.Counts.Completed)
	assert.Equal(t, 9, progress.Counts.Findings)

	_, err = coordinator.JobStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, scanning.ErrJobNotFound)
}
