package strategy

import (
	"github.com/markcheno/go-talib"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
)

// BasicExit 固定比例出场：止盈和止损都是入场价的固定百分比偏移。
// 比例为 0 的腿不生成价位
func BasicExit(profitTarget, lossTolerance float64) ExitStrategy {
	return func(price float64, candles []model.Candle, pricePrecision int, side model.PositionSide) ExitPlan {
		var plan ExitPlan
		if side == model.PositionLong {
			if profitTarget > 0 {
				plan.TakeProfit = service.DecimalFloor(price*(1+profitTarget), pricePrecision)
			}
			if lossTolerance > 0 {
				plan.StopLoss = service.DecimalFloor(price*(1-lossTolerance), pricePrecision)
			}
		} else {
			if profitTarget > 0 {
				plan.TakeProfit = service.DecimalFloor(price*(1-profitTarget), pricePrecision)
			}
			if lossTolerance > 0 {
				plan.StopLoss = service.DecimalFloor(price*(1+lossTolerance), pricePrecision)
			}
		}
		return plan
	}
}

// ATRExit 波动率出场：止盈止损距离为 ATR 的倍数，随市场波动伸缩
func ATRExit(period int, takeProfitMult, stopLossMult float64) ExitStrategy {
	return func(price float64, candles []model.Candle, pricePrecision int, side model.PositionSide) ExitPlan {
		if len(candles) <= period {
			return ExitPlan{}
		}

		highs := make([]float64, len(candles))
		lows := make([]float64, len(candles))
		closes := make([]float64, len(candles))
		for i, c := range candles {
			highs[i] = c.High
			lows[i] = c.Low
			closes[i] = c.Close
		}
		atr := talib.Atr(highs, lows, closes, period)
		a := atr[len(atr)-1]
		if a <= 0 {
			return ExitPlan{}
		}

		var plan ExitPlan
		if side == model.PositionLong {
			if takeProfitMult > 0 {
				plan.TakeProfit = service.DecimalFloor(price+a*takeProfitMult, pricePrecision)
			}
			if stopLossMult > 0 {
				plan.StopLoss = service.DecimalFloor(price-a*stopLossMult, pricePrecision)
			}
		} else {
			if takeProfitMult > 0 {
				plan.TakeProfit = service.DecimalFloor(price-a*takeProfitMult, pricePrecision)
			}
			if stopLossMult > 0 {
				plan.StopLoss = service.DecimalFloor(price+a*stopLossMult, pricePrecision)
			}
		}
		return plan
	}
}
