package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, Day("2024-03-01"), d)

	_, err = ParseDay("01/03/2024")
	assert.Error(t, err)
	_, err = ParseDay("2024-02-30")
	assert.Error(t, err)
}

func TestDayPrev(t *testing.T) {
	assert.Equal(t, Day("2024-02-29"), Day("2024-03-01").Prev())
	assert.Equal(t, Day("2023-12-31"), Day("2024-01-01").Prev())
	assert.Equal(t, Day("garbage"), Day("garbage").Prev())
}

func TestDayScan(t *testing.T) {
	var d Day
	require.NoError(t, d.Scan(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Day("2024-05-06"), d)

	require.NoError(t, d.Scan("2024-05-07T00:00:00Z"))
	assert.Equal(t, Day("2024-05-07"), d)

	require.NoError(t, d.Scan([]byte("2024-05-08")))
	assert.Equal(t, Day("2024-05-08"), d)

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, Day(""), d)

	assert.Error(t, d.Scan(42))
}

func TestSnapshotKind(t *testing.T) {
	assert.Equal(t, "opening_stock", SnapshotOpening.Table())
	assert.Equal(t, "closing_stock", SnapshotClosing.Table())
	assert.Equal(t, "restocking", SnapshotRestocking.Table())
	assert.False(t, SnapshotKind("weekly").Valid())
}
