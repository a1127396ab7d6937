package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/datasentry/internal/domain/scanning"
)

// seedFindings completes one unit with n findings of alternating types and
// returns the owning job.
func seedFindings(t *testing.T, ctx context.Context, jobStore *jobStore, unitStore *unitStore, n int) *scanning.Job {
	t.Helper()

	job := createTestJob(t, ctx, jobStore)
	require.NoError(t, unitStore.CreateUnits(ctx, []*scanning.ScanUnit{
		scanning.NewScanUnit(job.JobID(), "seed.txt", 1024),
	}))

	unit, err := unitStore.GetByJobAndKey(ctx, job.JobID(), "seed.txt")
	require.NoError(t, err)
	require.NoError(t, unit.MarkScanning())
	require.NoError(t, unit.MarkCompleted(n))

	findings := make([]scanning.Finding, 0, n)
	for i := 0; i < n; i++ {
		findingType := scanning.FindingTypeSSN
		if i%2 == 1 {
			findingType = scanning.FindingTypeEmail
		}
		findings = append(findings, scanning.NewFinding(
			unit.UnitID(), job.JobID(), findingType,
			fmt.Sprintf("hash-%d", i), i+1, 0, 10, "ctx", scanning.ConfidenceHigh,
		))
	}
	require.NoError(t, unitStore.CompleteWithFindings(ctx, unit, findings))
	return job
}

func TestFindingStore_ListDescendingWithCursor(t *testing.T) {
	t.Parallel()
	ctx, _, jobStore, unitStore, findingStore, cleanup := setupScanningTest(t)
	defer cleanup()

	job := seedFindings(t, ctx, jobStore, unitStore, 5)
	jobID := job.JobID()

	firstPage, err := findingStore.List(ctx, scanning.FindingFilter{JobID: &jobID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	assert.Greater(t, firstPage[0].FindingID(), firstPage[1].FindingID())

	secondPage, err := findingStore.List(ctx, scanning.FindingFilter{
		JobID:    &jobID,
		Limit:    2,
		BeforeID: firstPage[1].FindingID(),
	})
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	assert.Less(t, secondPage[0].FindingID(), firstPage[1].FindingID())

	thirdPage, err := findingStore.List(ctx, scanning.FindingFilter{
		JobID:    &jobID,
		Limit:    2,
		BeforeID: secondPage[1].FindingID(),
	})
	require.NoError(t, err)
	assert.Len(t, thirdPage, 1)
}

func TestFindingStore_FilterByType(t *testing.T) {
	t.Parallel()
	ctx, _, jobStore, unitStore, findingStore, cleanup := setupScanningTest(t)
	defer cleanup()

	job := seedFindings(t, ctx, jobStore, unitStore, 6)
	jobID := job.JobID()
	emailType := scanning.FindingTypeEmail

	listed, err := findingStore.List(ctx, scanning.FindingFilter{
		JobID:       &jobID,
		FindingType: &emailType,
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for _, f := range listed {
		assert.Equal(t, scanning.FindingTypeEmail, f.Type())
	}
}

func TestFindingStore_RoundTripFields(t *testing.T) {
	t.Parallel()
	ctx, _, jobStore, unitStore, findingStore, cleanup := setupScanningTest(t)
	defer cleanup()

	job := createTestJob(t, ctx, jobStore)
	require.NoError(t, unitStore.CreateUnits(ctx, []*scanning.ScanUnit{
		scanning.NewScanUnit(job.JobID(), "one.txt", 64),
	}))
	unit, err := unitStore.GetByJobAndKey(ctx, job.JobID(), "one.txt")
	require.NoError(t, err)
	require.NoError(t, unit.MarkScanning())
	require.NoError(t, unit.MarkCompleted(1))

	finding := scanning.NewFinding(
		unit.UnitID(), job.JobID(), scanning.FindingTypeAWSSecretKey,
		"abc123", 42, 7, 47, "secret = wJalr...", scanning.ConfidenceMedium,
	)
	require.NoError(t, unitStore.CompleteWithFindings(ctx, unit, []scanning.Finding{finding}))

	jobID := job.JobID()
	listed, err := findingStore.List(ctx, scanning.FindingFilter{JobID: &jobID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	got := listed[0]
	assert.Positive(t, got.FindingID())
	assert.Equal(t, unit.UnitID(), got.UnitID())
	assert.Equal(t, job.JobID(), got.JobID())
	assert.Equal(t, scanning.FindingTypeAWSSecretKey, got.Type())
	assert.Equal(t, "abc123", got.ValueHash())
	assert.Equal(t, 42, got.LineNumber())
	assert.Equal(t, 7, got.ColumnStart())
	assert.Equal(t, 47, got.ColumnEnd())
	assert.Equal(t, "secret = wJalr...", got.Context())
	assert.Equal(t, scanning.ConfidenceMedium, got.Confidence())
}
