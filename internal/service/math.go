package service

import (
	"github.com/shopspring/decimal"
)

// 精度处理集中在这里：引擎核心不做任何舍入，只有风控/离场端口
// 把价格和数量对齐到交易所精度时才调用这些函数。

// DecimalFloor 向下舍入到指定的小数位数
func DecimalFloor(x float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(x).RoundFloor(int32(precision)).Float64()
	return f
}

// DecimalCeil 向上舍入到指定的小数位数
func DecimalCeil(x float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(x).RoundCeil(int32(precision)).Float64()
	return f
}

// DecimalRound 四舍五入到指定的小数位数
func DecimalRound(x float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(x).Round(int32(precision)).Float64()
	return f
}

// Normalize 把 [min, max] 区间的值线性映射到 [newMin, newMax]，越界时截断
func Normalize(x, min, max, newMin, newMax float64) float64 {
	if max == min {
		return newMin
	}
	if x < min {
		x = min
	}
	if x > max {
		x = max
	}
	return newMin + (x-min)*(newMax-newMin)/(max-min)
}
