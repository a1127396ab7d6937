package scanning

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkItem(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	body := []byte(`{"job_id":"` + jobID.String() + `","bucket":"scan-bucket","object_key":"docs/report.csv","attempt":2}`)

	item, err := ParseWorkItem(body)
	require.NoError(t, err)
	assert.Equal(t, jobID, item.JobID)
	assert.Equal(t, "scan-bucket", item.Bucket)
	assert.Equal(t, "docs/report.csv", item.ObjectKey)
	assert.Equal(t, 2, item.Attempt)
}

func TestParseWorkItem_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"job_id": `},
		{name: "missing job id", body: `{"bucket":"b","object_key":"k"}`},
		{name: "missing bucket", body: `{"job_id":"` + uuid.NewString() + `","object_key":"k"}`},
		{name: "missing object key", body: `{"job_id":"` + uuid.NewString() + `","bucket":"b"}`},
		{name: "bad uuid", body: `{"job_id":"not-a-uuid","bucket":"b","object_key":"k"}`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseWorkItem([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedWorkItem)
		})
	}
}

func TestEncodeWorkItemRoundTrip(t *testing.T) {
	t.Parallel()

	item := WorkItem{JobID: uuid.New(), Bucket: "b", ObjectKey: "path/to/file.txt", Attempt: 1}
	body, err := EncodeWorkItem(item)
	require.NoError(t, err)

	parsed, err := ParseWorkItem(body)
	require.NoError(t, err)
	assert.Equal(t, item.JobID, parsed.JobID)
	assert.Equal(t, item.ObjectKey, parsed.ObjectKey)
	assert.Equal(t, item.Attempt, parsed.Attempt)
}
