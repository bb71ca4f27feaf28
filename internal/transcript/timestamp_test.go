package transcript

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampAcceptsZonelessISO(t *testing.T) {
	var conv Conversation
	err := json.Unmarshal([]byte(`{"id":"c","created_at":"2025-03-04T05:06:07.123456","messages":[]}`), &conv)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 123456000, time.UTC), conv.CreatedAt.Time)
}

func TestTimestampRoundTripsRFC3339(t *testing.T) {
	ts, err := ParseTimestamp("2025-03-04T05:06:07Z")
	require.NoError(t, err)
	buf, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-04T05:06:07Z"`, string(buf))
}

func TestTimestampEmptyValues(t *testing.T) {
	var s Summary
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c","created_at":null}`), &s))
	assert.True(t, s.CreatedAt.IsZero())
	assert.Equal(t, "--:--:--", s.CreatedAt.Short())

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}
