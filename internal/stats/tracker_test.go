package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"neat-trading-bot/internal/model"
)

func TestStreaksRollIntoWatermarks(t *testing.T) {
	tr := NewTracker(1000)

	tr.RecordPnL(10)
	tr.RecordPnL(20)
	tr.RecordPnL(5)
	assert.Equal(t, 3, tr.CurrentWinStreak)
	assert.InDelta(t, 35, tr.CurrentRunProfit, 1e-9)
	assert.Equal(t, 0, tr.MaxWinStreak)

	// 亏损中断连胜，live 值滚入水位线
	tr.RecordPnL(-8)
	assert.Equal(t, 3, tr.MaxWinStreak)
	assert.InDelta(t, 35, tr.MaxRunProfit, 1e-9)
	assert.Equal(t, 0, tr.CurrentWinStreak)
	assert.Equal(t, 1, tr.CurrentLossStreak)
	assert.InDelta(t, 8, tr.CurrentRunLoss, 1e-9)

	tr.RecordPnL(-12)
	tr.RecordPnL(3)
	assert.Equal(t, 2, tr.MaxLossStreak)
	assert.InDelta(t, 20, tr.MaxRunLoss, 1e-9)

	// 零盈亏不影响任何一侧
	tr.RecordPnL(0)
	assert.Equal(t, 1, tr.CurrentWinStreak)
	assert.Equal(t, 0, tr.CurrentLossStreak)
}

func TestDrawdownWatermarks(t *testing.T) {
	tr := NewTracker(1000)

	tr.UpdateDrawdown(1200)
	assert.InDelta(t, 1200, tr.MaxBalance, 1e-9)
	assert.InDelta(t, 1, tr.MaxAbsoluteDrawdown, 1e-9)
	assert.InDelta(t, 0, tr.MaxRelativeDrawdown, 1e-9)

	tr.UpdateDrawdown(900)
	assert.InDelta(t, 900.0/1200, tr.MaxAbsoluteDrawdown, 1e-9)
	assert.InDelta(t, (900.0-1200)/1200, tr.MaxRelativeDrawdown, 1e-9)

	// 回升不会改善水位线
	tr.UpdateDrawdown(1100)
	assert.InDelta(t, 900.0/1200, tr.MaxAbsoluteDrawdown, 1e-9)
	assert.InDelta(t, (900.0-1200)/1200, tr.MaxRelativeDrawdown, 1e-9)
}

func TestMaxProfitAndLossPerTrade(t *testing.T) {
	tr := NewTracker(1000)

	tr.RecordPnL(15)
	tr.RecordPnL(40)
	tr.RecordPnL(-7)
	tr.RecordPnL(-25)

	assert.InDelta(t, 40, tr.MaxProfit, 1e-9)
	assert.InDelta(t, 25, tr.MaxLoss, 1e-9)
	assert.InDelta(t, 55, tr.TotalProfit, 1e-9)
	assert.InDelta(t, -32, tr.TotalLoss, 1e-9)
}

func TestWinRateIsNaNWithNoClosedTrades(t *testing.T) {
	tr := NewTracker(1000)
	assert.True(t, math.IsNaN(tr.WinRate()))
}

func TestTradeCounters(t *testing.T) {
	tr := NewTracker(1000)

	tr.TradeOpened(model.PositionLong)
	tr.TradeOpened(model.PositionShort)
	tr.TradeClosed(model.PositionLong, true)
	tr.TradeClosed(model.PositionShort, false)

	assert.Equal(t, 2, tr.TotalTrades)
	assert.Equal(t, 1, tr.TotalLongTrades)
	assert.Equal(t, 1, tr.TotalShortTrades)
	assert.Equal(t, 1, tr.WinningTrades())
	assert.Equal(t, 1, tr.LostTrades())
	assert.InDelta(t, 0.5, tr.WinRate(), 1e-9)
}
