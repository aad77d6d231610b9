// Package strategy 聚合交易决策相关的组件：决策闸门、交易时段、
// 持仓时长计数器、趋势过滤、仓位计算和出场策略。
package strategy

import "neat-trading-bot/internal/model"

// Brain 决策网络。输入是一帧归一化的观测向量，
// 输出固定为三个 [0,1] 的置信度：{买入, 卖出, 平仓}
type Brain interface {
	FeedForward(inputs []float64) []float64
}

// ExitPlan 出场计划。0 表示该腿不挂单
type ExitPlan struct {
	TakeProfit float64
	StopLoss   float64
}

// ExitStrategy 根据入场价和历史 K 线给出止盈止损价位
type ExitStrategy func(price float64, candles []model.Candle, pricePrecision int, side model.PositionSide) ExitPlan

// RiskManagement 根据账户余额、入场价和可选的止损价计算下单数量。
// stopLoss 为 0 表示本次开仓没有止损价位
type RiskManagement func(availableBalance, price, stopLoss float64, info model.PairInfo) float64
