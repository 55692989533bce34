package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.True(t, ParseTimeDefault("", def).Equal(def))
	assert.True(t, ParseTimeDefault("yesterday", def).Equal(def))
}

func TestTimeWindow(t *testing.T) {
	now := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)

	from, to, err := TimeWindow("", "", now, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 9, 10, 10, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 10, 10, 10, 10, 0, 0, time.UTC), to)

	from, to, err = TimeWindow("2024-10-01T00:00:30Z", "2024-10-02T00:00:00Z", now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), to)
}

func TestTimeWindow_Invalid(t *testing.T) {
	now := time.Now()
	_, _, err := TimeWindow("soon", "", now, time.Hour)
	assert.Error(t, err)
	_, _, err = TimeWindow("", "later", now, time.Hour)
	assert.Error(t, err)
	_, _, err = TimeWindow("2024-10-02T00:00:00Z", "2024-10-01T00:00:00Z", now, time.Hour)
	assert.Error(t, err)
}
