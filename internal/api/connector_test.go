package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKlineEventDecoding(t *testing.T) {
	payload := `{
		"e": "kline", "E": 1672531260000, "s": "BTCUSDT",
		"k": {
			"t": 1672531200000, "T": 1672531259999, "s": "BTCUSDT", "i": "1m",
			"o": "16500.10", "c": "16510.50", "h": "16512.00", "l": "16499.00",
			"v": "12.345", "x": true
		}
	}`

	var event klineEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &event))

	assert.Equal(t, "kline", event.EventType)
	assert.Equal(t, "BTCUSDT", event.Symbol)
	assert.True(t, event.Kline.Final)
	assert.Equal(t, int64(1672531200000), event.Kline.StartTime)
	assert.InDelta(t, 16510.50, mustFloat(event.Kline.Close), 1e-9)
	assert.InDelta(t, 12.345, mustFloat(event.Kline.Volume), 1e-9)
}

func TestMustFloatToleratesGarbage(t *testing.T) {
	assert.Zero(t, mustFloat("not-a-number"))
}

// Run 返回后通道必须已关闭，调用方排干通道即可安全读取最终状态
func TestRunClosesCandleChannel(t *testing.T) {
	c := NewKlineConnector("ws://127.0.0.1:1", "BTCUSDT", "1m", zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Run(ctx))

	select {
	case _, ok := <-c.Candles():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("candle channel still open after Run returned")
	}
}
