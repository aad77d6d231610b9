package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCSV(t *testing.T, dir, pair, interval, content string) {
	t.Helper()
	pairDir := filepath.Join(dir, pair)
	require.NoError(t, os.MkdirAll(pairDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pairDir, "_"+interval+".csv"), []byte(content), 0o644))
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTCUSDT", "1h",
		"date,open,high,low,close,volume\n"+
			"2023-01-01 00:00:00,100,105,99,104,1000\n"+
			"2023-01-01 01:00:00,104,106,103,105,1100\n"+
			"2023-01-01 02:00:00,105,107,104,106,1200\n")

	l := NewLoader(dir, zap.NewNop().Sugar())
	candles, err := l.LoadCSV("BTCUSDT", "1h", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, "BTCUSDT", candles[0].Symbol)
	assert.InDelta(t, 100, candles[0].Open, 1e-9)
	assert.InDelta(t, 106, candles[2].Close, 1e-9)
	assert.Equal(t, time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC), candles[1].OpenTime)
}

func TestLoadCSVDateWindow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTCUSDT", "1h",
		"2023-01-01 00:00:00,100,105,99,104,1000\n"+
			"2023-01-01 01:00:00,104,106,103,105,1100\n"+
			"2023-01-01 02:00:00,105,107,104,106,1200\n")

	l := NewLoader(dir, zap.NewNop().Sugar())
	start := time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 2, 0, 0, 0, time.UTC)
	candles, err := l.LoadCSV("BTCUSDT", "1h", start, end)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.InDelta(t, 105, candles[0].Close, 1e-9)
}

func TestLoadCSVMillisecondTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "ETHUSDT", "15m",
		"1672531200000,1200,1210,1190,1205,500\n")

	l := NewLoader(dir, zap.NewNop().Sugar())
	candles, err := l.LoadCSV("ETHUSDT", "15m", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1672531200000), candles[0].OpenTime.UnixMilli())
}

func TestLoadCSVMissingFile(t *testing.T) {
	l := NewLoader(t.TempDir(), zap.NewNop().Sugar())
	_, err := l.LoadCSV("BTCUSDT", "1h", time.Time{}, time.Time{})
	assert.Error(t, err)
}
