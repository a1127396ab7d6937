package api

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	token := encodeCursor(4217)
	id, err := decodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(4217), id)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "%%%not-base64%%%"},
		{name: "base64 but not json", cursor: base64.StdEncoding.EncodeToString([]byte("hello"))},
		{name: "json without finding_id", cursor: base64.StdEncoding.EncodeToString([]byte(`{"page":2}`))},
		{name: "negative finding_id", cursor: base64.StdEncoding.EncodeToString([]byte(`{"finding_id":-5}`))},
		{name: "empty", cursor: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}
