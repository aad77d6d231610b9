package strategy

import (
	"math"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
)

// PositionSizeByPercent 固定比例仓位：用余额的 risk 比例换成数量，
// 向上取整到交易对的数量精度，不低于最小下单量。止损价不参与计算
func PositionSizeByPercent(risk float64) RiskManagement {
	return func(availableBalance, price, _ float64, info model.PairInfo) float64 {
		if price <= 0 || availableBalance <= 0 {
			return 0
		}
		qty := (availableBalance * risk) / price
		qty = service.DecimalCeil(qty, info.QuantityPrecision)
		if qty < info.MinQuantity {
			qty = info.MinQuantity
		}
		return qty
	}
}

// PositionSizeByRisk 按单笔风险计算仓位：亏到止损价时恰好损失余额的
// risk 比例。没有止损价时退回固定比例算法
func PositionSizeByRisk(risk float64, leverage int) RiskManagement {
	byPercent := PositionSizeByPercent(risk)
	return func(availableBalance, price, stopLoss float64, info model.PairInfo) float64 {
		if stopLoss <= 0 || stopLoss == price {
			return byPercent(availableBalance, price, stopLoss, info)
		}
		if price <= 0 || availableBalance <= 0 {
			return 0
		}
		qty := (availableBalance * risk) / math.Abs(price-stopLoss)
		// 不超过杠杆允许的最大名义仓位
		maxQty := (availableBalance * float64(leverage)) / price
		qty = math.Min(qty, maxQty)
		qty = service.DecimalCeil(qty, info.QuantityPrecision)
		if qty < info.MinQuantity {
			qty = info.MinQuantity
		}
		return qty
	}
}
