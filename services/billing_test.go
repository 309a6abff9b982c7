package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCost(t *testing.T) {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)

	cost, err := ComputeCost(entry, exit, 50.0)
	require.NoError(t, err)
	assert.InDelta(t, 125.0, cost, 1e-9) // 2.5 小時 × 50

	// 不滿一小時也按比例計費，不進位
	cost, err = ComputeCost(entry, entry.Add(15*time.Minute), 40.0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, cost, 1e-9)
}

func TestComputeCostZeroDuration(t *testing.T) {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cost, err := ComputeCost(entry, entry, 50.0)
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestComputeCostRejectsNegativeDuration(t *testing.T) {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(-time.Minute)

	_, err := ComputeCost(entry, exit, 50.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeCostRejectsNegativeRate(t *testing.T) {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := ComputeCost(entry, entry.Add(time.Hour), -1.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	// T 分隔
	got, err := ParseTimestamp("2024-01-01T10:30:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "got %v", got)

	// 空格分隔
	got, err = ParseTimestamp("2024-01-01 10:30:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "got %v", got)

	// RFC 3339
	got, err = ParseTimestamp("2024-01-01T10:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "got %v", got)

	// 前後空白可容忍
	got, err = ParseTimestamp("  2024-01-01T10:30:00  ")
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "got %v", got)
}

func TestParseTimestampRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "not-a-time", "2024/01/01 10:30:00", "2024-01-01"} {
		_, err := ParseTimestamp(input)
		require.Error(t, err, "input %q", input)
		assert.ErrorIs(t, err, ErrParse, "input %q", input)
	}
}
