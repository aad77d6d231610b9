package model

import "github.com/google/uuid"

// OrderType 挂单类型
type OrderType string

const (
	OrderLimit        OrderType = "LIMIT"
	OrderTrailingStop OrderType = "TRAILING_STOP"
)

// TrailingStatus 追踪止损单的子状态
type TrailingStatus string

const (
	TrailingPending TrailingStatus = "PENDING" // 尚未到达激活价
	TrailingActive  TrailingStatus = "ACTIVE"  // 已激活，等待价格回撤触发
)

// Order 挂在模拟订单簿上的等待单。
// TargetSide 表示成交后仓位会被拉向哪个方向：
// 平空的买入单 TargetSide = LONG，平多的卖出单 TargetSide = SHORT
type Order struct {
	ID             string         `json:"id"`
	Pair           string         `json:"pair"`
	Type           OrderType      `json:"type"`
	Side           OrderSide      `json:"side"`
	TargetSide     PositionSide   `json:"targetSide"`
	Price          float64        `json:"price"` // 限价，或追踪单的激活价
	Quantity       float64        `json:"quantity"`
	TrailingStatus TrailingStatus `json:"trailingStatus,omitempty"` // 仅 TRAILING_STOP 使用
	CallbackRate   float64        `json:"callbackRate,omitempty"`   // 仅 TRAILING_STOP 使用
}

// NewLimitOrder 创建一张限价单
func NewLimitOrder(pair string, side OrderSide, target PositionSide, price, quantity float64) *Order {
	return &Order{
		ID:         uuid.NewString(),
		Pair:       pair,
		Type:       OrderLimit,
		Side:       side,
		TargetSide: target,
		Price:      price,
		Quantity:   quantity,
	}
}

// NewTrailingStopOrder 创建一张追踪止损单
func NewTrailingStopOrder(pair string, side OrderSide, target PositionSide, activation, quantity, callbackRate float64) *Order {
	return &Order{
		ID:             uuid.NewString(),
		Pair:           pair,
		Type:           OrderTrailingStop,
		Side:           side,
		TargetSide:     target,
		Price:          activation,
		Quantity:       quantity,
		TrailingStatus: TrailingPending,
		CallbackRate:   callbackRate,
	}
}
