package stats

import (
	"fmt"
	"math"
	"time"

	"neat-trading-bot/internal/service"
)

// Report 回测结束时派生的最终报告。
// 非有限值 (NaN) 原样保留，表示该统计量在本次运行中不可计算。
type Report struct {
	TestPeriod     string  `json:"testPeriod"`
	TotalBars      int     `json:"totalBars"`
	InitialCapital float64 `json:"initialCapital"`
	FinalCapital   float64 `json:"finalCapital"`

	TotalNetProfit float64 `json:"totalNetProfit"`
	TotalProfit    float64 `json:"totalProfit"`
	TotalLoss      float64 `json:"totalLoss"`
	TotalFees      float64 `json:"totalFees"`
	ProfitFactor   float64 `json:"profitFactor"`

	MaxAbsoluteDrawdown float64 `json:"maxAbsoluteDrawdown"` // 百分比，负数
	MaxRelativeDrawdown float64 `json:"maxRelativeDrawdown"` // 百分比，负数

	TotalTrades       int     `json:"totalTrades"`
	TotalLongTrades   int     `json:"totalLongTrades"`
	TotalShortTrades  int     `json:"totalShortTrades"`
	TotalWinRate      float64 `json:"totalWinRate"`
	LongWinRate       float64 `json:"longWinRate"`
	ShortWinRate      float64 `json:"shortWinRate"`
	LongWinningTrade  int     `json:"longWinningTrade"`
	ShortWinningTrade int     `json:"shortWinningTrade"`

	MaxProfit float64 `json:"maxProfit"`
	MaxLoss   float64 `json:"maxLoss"`
	AvgProfit float64 `json:"avgProfit"`
	AvgLoss   float64 `json:"avgLoss"`

	MaxConsecutiveProfit      float64 `json:"maxConsecutiveProfit"`
	MaxConsecutiveLoss        float64 `json:"maxConsecutiveLoss"`
	MaxConsecutiveWinsCount   int     `json:"maxConsecutiveWinsCount"`
	MaxConsecutiveLossesCount int     `json:"maxConsecutiveLossesCount"`
}

// floorSafe 向下舍入，但让 NaN/Inf 原样通过 (decimal 无法表达非有限值)
func floorSafe(x float64, precision int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return service.DecimalFloor(x, precision)
}

func ceilSafe(x float64, precision int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return service.DecimalCeil(x, precision)
}

// Report 从当前统计状态派生最终报告。finalBalance 取钱包的 totalWalletBalance。
// live 的连续盈亏计数在读取时与水位线取最大值，本身不被改写。
func (t *Tracker) Report(start, end time.Time, totalBars int, finalBalance float64) Report {
	maxWinStreak := t.MaxWinStreak
	if t.CurrentWinStreak > maxWinStreak {
		maxWinStreak = t.CurrentWinStreak
	}
	maxLossStreak := t.MaxLossStreak
	if t.CurrentLossStreak > maxLossStreak {
		maxLossStreak = t.CurrentLossStreak
	}
	maxRunProfit := t.MaxRunProfit
	if t.CurrentRunProfit > maxRunProfit {
		maxRunProfit = t.CurrentRunProfit
	}
	maxRunLoss := t.MaxRunLoss
	if t.CurrentRunLoss > maxRunLoss {
		maxRunLoss = t.CurrentRunLoss
	}

	return Report{
		TestPeriod: fmt.Sprintf("%s to %s",
			start.Format("2006-01-02 15:04:05"), end.Format("2006-01-02 15:04:05")),
		TotalBars:      totalBars,
		InitialCapital: t.InitialCapital,
		FinalCapital:   floorSafe(finalBalance, 2),

		TotalNetProfit: floorSafe(finalBalance-t.InitialCapital, 2),
		TotalProfit:    floorSafe(t.TotalProfit, 2),
		TotalLoss:      floorSafe(t.TotalLoss, 2),
		TotalFees:      -floorSafe(t.TotalFees, 2),
		ProfitFactor:   floorSafe(t.ProfitRatio(), 2),

		MaxAbsoluteDrawdown: -floorSafe((1-t.MaxAbsoluteDrawdown)*100, 2),
		MaxRelativeDrawdown: ceilSafe(t.MaxRelativeDrawdown*100, 2),

		TotalTrades:       t.TotalTrades,
		TotalLongTrades:   t.TotalLongTrades,
		TotalShortTrades:  t.TotalShortTrades,
		TotalWinRate:      floorSafe(float64(t.WinningTrades())/float64(t.TotalTrades)*100, 2),
		LongWinRate:       floorSafe(float64(t.LongWinningTrades)/float64(t.TotalLongTrades)*100, 2),
		ShortWinRate:      floorSafe(float64(t.ShortWinningTrades)/float64(t.TotalShortTrades)*100, 2),
		LongWinningTrade:  t.LongWinningTrades,
		ShortWinningTrade: t.ShortWinningTrades,

		MaxProfit: floorSafe(t.MaxProfit, 2),
		MaxLoss:   -floorSafe(t.MaxLoss, 2),
		AvgProfit: floorSafe(t.TotalProfit/float64(t.WinningTrades()), 2),
		AvgLoss:   floorSafe(t.TotalLoss/float64(t.LostTrades()), 2),

		MaxConsecutiveProfit:      floorSafe(maxRunProfit, 2),
		MaxConsecutiveLoss:        -floorSafe(maxRunLoss, 2),
		MaxConsecutiveWinsCount:   maxWinStreak,
		MaxConsecutiveLossesCount: maxLossStreak,
	}
}

// String 以原版报告的排版渲染
func (r Report) String() string {
	return fmt.Sprintf(`
========================= STRATEGY REPORT =========================

    Period: %s
    Total bars: %d
    ----------------------------------------------------------
    Initial capital: %.2f
    Final capital: %.2f
    Total net profit: %.2f
    Total profit: %.2f
    Total loss: %.2f
    Total fees: %.2f
    Profit factor: %.2f
    Max absolute drawdown: %.2f%%
    Max relative drawdown: %.2f%%
    ----------------------------------------------------------
    Total trades: %d
    Total win rate: %.2f%%
    Long trades won: %.2f%% (%d/%d)
    Short trades won: %.2f%% (%d/%d)
    Max profit: %.2f
    Max loss: %.2f
    Average profit: %.2f
    Average loss: %.2f
    Max consecutive profit: %.2f
    Max consecutive loss: %.2f
    Max consecutive wins (count): %d
    Max consecutive losses (count): %d
`,
		r.TestPeriod, r.TotalBars,
		r.InitialCapital, r.FinalCapital, r.TotalNetProfit,
		r.TotalProfit, r.TotalLoss, r.TotalFees, r.ProfitFactor,
		r.MaxAbsoluteDrawdown, r.MaxRelativeDrawdown,
		r.TotalTrades, r.TotalWinRate,
		r.LongWinRate, r.LongWinningTrade, r.TotalLongTrades,
		r.ShortWinRate, r.ShortWinningTrade, r.TotalShortTrades,
		r.MaxProfit, r.MaxLoss, r.AvgProfit, r.AvgLoss,
		r.MaxConsecutiveProfit, r.MaxConsecutiveLoss,
		r.MaxConsecutiveWinsCount, r.MaxConsecutiveLossesCount)
}
