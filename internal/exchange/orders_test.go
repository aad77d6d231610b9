package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neat-trading-bot/internal/model"
)

func candle(open, high, low, close float64) model.Candle {
	return model.Candle{Symbol: "BTCUSDT", Open: open, High: high, Low: low, Close: close}
}

func TestLimitOrderFillsInsideRange(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	sim.PlaceLimit(model.SideBuy, model.PositionLong, 120, 1)
	sim.CheckPendingOrders(candle(118, 125, 115, 122))

	p := sim.Position()
	assert.InDelta(t, 1, p.Size, 1e-9)
	assert.InDelta(t, 120, p.EntryPrice, 1e-9)
	assert.False(t, sim.HasOpenOrders())
}

func TestLimitOrderNeedsStrictStraddle(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	sim.PlaceLimit(model.SideBuy, model.PositionLong, 120, 1)
	// low == 121 > 120，价格没有穿过挂单价
	sim.CheckPendingOrders(candle(122, 130, 121, 125))

	assert.Zero(t, sim.Position().Size)
	assert.True(t, sim.HasOpenOrders())

	// 边界相等也不成交
	sim.CheckPendingOrders(candle(122, 130, 120, 125))
	assert.Zero(t, sim.Position().Size)
	assert.True(t, sim.HasOpenOrders())
}

func TestClosingFillCancelsRemainingOrders(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	require.NoError(t, sim.OrderMarket(100, 1, model.SideBuy))
	// 止盈和止损同时挂着
	sim.PlaceLimit(model.SideSell, model.PositionShort, 110, 1)
	sim.PlaceLimit(model.SideSell, model.PositionShort, 90, 1)
	require.Len(t, sim.OpenOrders(), 2)

	// 止盈先触发，剩下的止损必须跟着失效
	sim.CheckPendingOrders(candle(108, 112, 107, 111))

	assert.Zero(t, sim.Position().Size)
	assert.False(t, sim.HasOpenOrders())
}

func TestSellScanPrefersHigherPrice(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	require.NoError(t, sim.OrderMarket(100, 2, model.SideBuy))
	sim.PlaceLimit(model.SideSell, model.PositionShort, 105, 1)
	sim.PlaceLimit(model.SideSell, model.PositionShort, 110, 1)

	// 两个价位都在区间里，先吃更高的那个，同一根 K 线只成交一次
	sim.CheckPendingOrders(candle(104, 115, 103, 112))

	p := sim.Position()
	assert.InDelta(t, 1, p.Size, 1e-9)
	require.Len(t, sim.OpenOrders(), 1)
	assert.InDelta(t, 105, sim.OpenOrders()[0].Price, 1e-9)
}

func TestTrailingStopLifecycle(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	require.NoError(t, sim.OrderMarket(100, 1, model.SideBuy))
	// 激活价 110，回撤 1%
	o := sim.PlaceTrailingStop(model.SideSell, model.PositionShort, 110, 1, 0.01)
	assert.Equal(t, model.TrailingPending, o.TrailingStatus)

	// 没碰到激活价，保持 PENDING
	sim.CheckPendingOrders(candle(102, 105, 101, 104))
	assert.Equal(t, model.TrailingPending, o.TrailingStatus)
	assert.InDelta(t, 1, sim.Position().Size, 1e-9)

	// 最高价触及激活价但回撤不足，只激活不成交
	sim.CheckPendingOrders(candle(109, 110.5, 108.9, 110))
	assert.Equal(t, model.TrailingActive, o.TrailingStatus)
	assert.InDelta(t, 1, sim.Position().Size, 1e-9)

	// 开盘 112，跌破 112*(1-0.01)=110.88，按止损价成交
	sim.CheckPendingOrders(candle(112, 113, 110, 110.5))
	assert.Zero(t, sim.Position().Size)
	assert.False(t, sim.HasOpenOrders())
}

func TestTrailingStopShortSide(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	require.NoError(t, sim.OrderMarket(100, 1, model.SideSell))
	o := sim.PlaceTrailingStop(model.SideBuy, model.PositionLong, 90, 1, 0.01)

	// 最低价触及激活价，但反弹没到回撤线
	sim.CheckPendingOrders(candle(94, 94.5, 90, 92))
	assert.Equal(t, model.TrailingActive, o.TrailingStatus)

	// 开盘 91，反弹到 91*1.01=91.91 之上触发买回
	sim.CheckPendingOrders(candle(91, 93, 90.5, 92.5))
	assert.Zero(t, sim.Position().Size)
	assert.False(t, sim.HasOpenOrders())
}

func TestCancelOpenOrders(t *testing.T) {
	sim, _ := newTestSimulator(t, 10000, 1)

	sim.PlaceLimit(model.SideBuy, model.PositionLong, 90, 1)
	sim.PlaceTrailingStop(model.SideSell, model.PositionShort, 120, 1, 0.02)
	require.True(t, sim.HasOpenOrders())

	sim.CancelOpenOrders()
	assert.False(t, sim.HasOpenOrders())
}
