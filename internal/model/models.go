package model

import "time"

// Candle 代表一根已完成的 K 线
type Candle struct {
	Symbol    string  `json:"symbol"`
	Interval  string  `json:"interval"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	OpenTime  time.Time `json:"openTime"`
	CloseTime time.Time `json:"closeTime"`
}

// OrderSide 订单方向
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// PositionSide 持仓方向
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// Opposite 返回相反的持仓方向
func (s PositionSide) Opposite() PositionSide {
	if s == PositionLong {
		return PositionShort
	}
	return PositionLong
}

// Position 单交易对的持仓 (不支持双向对冲模式)
// Size 带符号：正数为多头，负数为空头，0 为空仓
type Position struct {
	Pair             string       `json:"pair"`
	Size             float64      `json:"size"`
	Margin           float64      `json:"margin"` // 锁定的保证金 (计价货币)
	EntryPrice       float64      `json:"entryPrice"`
	PositionSide     PositionSide `json:"positionSide"` // 仅在 Size != 0 时有意义
	Leverage         int          `json:"leverage"`
	UnrealizedProfit float64      `json:"unrealizedProfit"`
}

// FuturesWallet 模拟的合约账户钱包
// TotalWalletBalance 只在成交时变动 (手续费 + 已实现盈亏)；
// AvailableBalance 随保证金的锁定/释放和手续费扣减变动。
type FuturesWallet struct {
	AvailableBalance      float64  `json:"availableBalance"`
	TotalWalletBalance    float64  `json:"totalWalletBalance"`
	TotalUnrealizedProfit float64  `json:"totalUnrealizedProfit"`
	Position              Position `json:"position"`
}

// PairInfo 交易对的精度元数据 (只被风控/离场端口使用，引擎核心不读)
type PairInfo struct {
	Pair              string
	PricePrecision    int
	QuantityPrecision int
	MinQuantity       float64
}

// TradeRecord 一次平仓 (或反手中被平掉的部分) 的成交记录
type TradeRecord struct {
	Pair        string       `json:"pair"`
	PosSide     PositionSide `json:"posSide"`
	EntryPrice  float64      `json:"entryPrice"`
	ExitPrice   float64      `json:"exitPrice"`
	Size        float64      `json:"size"` // 被平掉的数量 (正数)
	RealizedPnL float64      `json:"realizedPnl"`
	Fee         float64      `json:"fee"`
}
