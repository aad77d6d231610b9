package strategy

import (
	"github.com/markcheno/go-talib"

	"neat-trading-bot/internal/model"
)

// Trend 市场方向
type Trend int

const (
	TrendNeutral Trend = iota
	TrendUp
	TrendDown
)

// TrendFilter 双均线趋势过滤：快线在慢线上方只允许做多，
// 下方只允许做空。禁用时对两个方向都放行
type TrendFilter struct {
	FastPeriod int
	SlowPeriod int
	Enabled    bool
}

// Detect 用收盘价序列判断当前趋势。数据不足时返回中性
func (f TrendFilter) Detect(candles []model.Candle) Trend {
	if !f.Enabled {
		return TrendNeutral
	}
	if len(candles) <= f.SlowPeriod {
		return TrendNeutral
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	fast := talib.Ema(closes, f.FastPeriod)
	slow := talib.Ema(closes, f.SlowPeriod)

	last := len(closes) - 1
	switch {
	case fast[last] > slow[last]:
		return TrendUp
	case fast[last] < slow[last]:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// Series 一次性算出整段 K 线上每根的趋势，回测循环里按下标取
func (f TrendFilter) Series(candles []model.Candle) []Trend {
	out := make([]Trend, len(candles))
	if !f.Enabled || len(candles) <= f.SlowPeriod {
		return out
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	fast := talib.Ema(closes, f.FastPeriod)
	slow := talib.Ema(closes, f.SlowPeriod)

	for i := f.SlowPeriod; i < len(closes); i++ {
		switch {
		case fast[i] > slow[i]:
			out[i] = TrendUp
		case fast[i] < slow[i]:
			out[i] = TrendDown
		}
	}
	return out
}

// AllowLong 当前趋势下是否允许开多
func (f TrendFilter) AllowLong(t Trend) bool {
	return !f.Enabled || t != TrendDown
}

// AllowShort 当前趋势下是否允许开空
func (f TrendFilter) AllowShort(t Trend) bool {
	return !f.Enabled || t != TrendUp
}
