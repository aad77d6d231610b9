// Package stats 累计一次回测运行期间的全部交易统计。
// Tracker 只被执行引擎 (成交时) 和每根 K 线的回撤更新改写，
// 运行结束后通过 Report 一次性读出。
package stats

import (
	"math"

	"neat-trading-bot/internal/model"
)

// Tracker 聚合交易计数、盈亏累计值和水位线。
// 字段导出以便快照序列化，外部调用方不应直接修改。
type Tracker struct {
	InitialCapital float64 `json:"initialCapital"`

	// 交易计数
	TotalTrades        int `json:"totalTrades"`
	TotalLongTrades    int `json:"totalLongTrades"`
	TotalShortTrades   int `json:"totalShortTrades"`
	LongWinningTrades  int `json:"longWinningTrades"`
	LongLostTrades     int `json:"longLostTrades"`
	ShortWinningTrades int `json:"shortWinningTrades"`
	ShortLostTrades    int `json:"shortLostTrades"`

	// 累计金额
	TotalProfit float64 `json:"totalProfit"`
	TotalLoss   float64 `json:"totalLoss"` // 以负数累计
	TotalFees   float64 `json:"totalFees"`

	// 单笔极值
	MaxProfit float64 `json:"maxProfit"`
	MaxLoss   float64 `json:"maxLoss"` // 以正数记录亏损的绝对值

	// 回撤水位线
	MaxBalance          float64 `json:"maxBalance"`
	MaxAbsoluteDrawdown float64 `json:"maxAbsoluteDrawdown"` // balance/maxBalance 的最小值，初始为 1
	MaxRelativeDrawdown float64 `json:"maxRelativeDrawdown"` // (balance-maxBalance)/maxBalance 的最小值，初始为 0

	// 连续盈亏：live 值 + 历史水位线
	CurrentWinStreak  int     `json:"currentWinStreak"`
	CurrentLossStreak int     `json:"currentLossStreak"`
	CurrentRunProfit  float64 `json:"currentRunProfit"`
	CurrentRunLoss    float64 `json:"currentRunLoss"`
	MaxWinStreak      int     `json:"maxWinStreak"`
	MaxLossStreak     int     `json:"maxLossStreak"`
	MaxRunProfit      float64 `json:"maxRunProfit"`
	MaxRunLoss        float64 `json:"maxRunLoss"`
}

// NewTracker 创建统计器，水位线以初始资金为基准
func NewTracker(initialCapital float64) *Tracker {
	return &Tracker{
		InitialCapital:      initialCapital,
		MaxBalance:          initialCapital,
		MaxAbsoluteDrawdown: 1,
		MaxRelativeDrawdown: 0,
	}
}

// AddFee 累计手续费 (市价/限价/追踪/强平的每次成交都会产生)
func (t *Tracker) AddFee(fee float64) {
	t.TotalFees += fee
}

// TradeOpened 记录一次新开仓 (从空仓进入持仓，或反手产生的新仓)
func (t *Tracker) TradeOpened(side model.PositionSide) {
	t.TotalTrades++
	if side == model.PositionLong {
		t.TotalLongTrades++
	} else {
		t.TotalShortTrades++
	}
}

// TradeClosed 记录平仓的胜负归属。胜负由成交前的开仓均价和成交价比较而来
func (t *Tracker) TradeClosed(side model.PositionSide, win bool) {
	switch {
	case side == model.PositionLong && win:
		t.LongWinningTrades++
	case side == model.PositionLong:
		t.LongLostTrades++
	case win:
		t.ShortWinningTrades++
	default:
		t.ShortLostTrades++
	}
}

// RecordPnL 记录一次已实现盈亏并维护连续盈亏计数。
// pnl == 0 不影响任何一侧的连续计数。
func (t *Tracker) RecordPnL(pnl float64) {
	if pnl > 0 {
		t.TotalProfit += pnl
		t.CurrentWinStreak++
		t.CurrentRunProfit += pnl

		// 盈利中断了亏损连串：把 live 值滚入水位线再清零
		if t.CurrentLossStreak > t.MaxLossStreak {
			t.MaxLossStreak = t.CurrentLossStreak
		}
		if t.CurrentRunLoss > t.MaxRunLoss {
			t.MaxRunLoss = t.CurrentRunLoss
		}
		t.CurrentLossStreak = 0
		t.CurrentRunLoss = 0

		if pnl > t.MaxProfit {
			t.MaxProfit = pnl
		}
	}

	if pnl < 0 {
		t.TotalLoss += pnl
		t.CurrentLossStreak++
		t.CurrentRunLoss += math.Abs(pnl)

		if t.CurrentWinStreak > t.MaxWinStreak {
			t.MaxWinStreak = t.CurrentWinStreak
		}
		if t.CurrentRunProfit > t.MaxRunProfit {
			t.MaxRunProfit = t.CurrentRunProfit
		}
		t.CurrentWinStreak = 0
		t.CurrentRunProfit = 0

		if math.Abs(pnl) > t.MaxLoss {
			t.MaxLoss = math.Abs(pnl)
		}
	}
}

// UpdateDrawdown 每根 K 线用钱包权益更新回撤水位线。
// 两个水位线只会变差，不会因后续回升而改善。
func (t *Tracker) UpdateDrawdown(balance float64) {
	if balance > t.MaxBalance {
		t.MaxBalance = balance
	}

	absoluteDrawdown := balance / t.MaxBalance
	if absoluteDrawdown < t.MaxAbsoluteDrawdown {
		t.MaxAbsoluteDrawdown = absoluteDrawdown
	}

	relativeDrawdown := (balance - t.MaxBalance) / t.MaxBalance
	if relativeDrawdown < t.MaxRelativeDrawdown {
		t.MaxRelativeDrawdown = relativeDrawdown
	}
}

// WinningTrades 总盈利笔数
func (t *Tracker) WinningTrades() int {
	return t.LongWinningTrades + t.ShortWinningTrades
}

// LostTrades 总亏损笔数
func (t *Tracker) LostTrades() int {
	return t.LongLostTrades + t.ShortLostTrades
}

// WinRate 实时胜率。没有任何交易时返回 NaN，调用方把非有限值视为目标未达成
func (t *Tracker) WinRate() float64 {
	return float64(t.WinningTrades()) / float64(t.TotalTrades)
}

// ProfitRatio 实时盈亏比 totalProfit / (|totalLoss| + totalFees)
func (t *Tracker) ProfitRatio() float64 {
	return t.TotalProfit / (math.Abs(t.TotalLoss) + t.TotalFees)
}
