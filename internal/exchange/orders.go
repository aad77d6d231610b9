package exchange

import (
	"math"
	"sort"

	"neat-trading-bot/internal/model"
)

// PlaceLimit 挂一个限价单。targetSide 表示成交后仓位被推向的方向
func (s *Simulator) PlaceLimit(side model.OrderSide, targetSide model.PositionSide, price, quantity float64) *model.Order {
	o := model.NewLimitOrder(s.wallet.Position.Pair, side, targetSide, price, quantity)
	s.orders = append(s.orders, o)
	s.logger.Infow("Create a new limit order",
		"pair", o.Pair, "side", o.Side, "price", o.Price, "quantity", o.Quantity)
	return o
}

// PlaceTrailingStop 挂一个追踪止损单。price 是激活价，callbackRate
// 是激活后的回撤比例 (0.01 = 1%)
func (s *Simulator) PlaceTrailingStop(side model.OrderSide, targetSide model.PositionSide, activationPrice, quantity, callbackRate float64) *model.Order {
	o := model.NewTrailingStopOrder(s.wallet.Position.Pair, side, targetSide, activationPrice, quantity, callbackRate)
	s.orders = append(s.orders, o)
	s.logger.Infow("Create a new trailing stop order",
		"pair", o.Pair, "side", o.Side, "activation", o.Price, "callbackRate", o.CallbackRate)
	return o
}

// OpenOrders 返回当前的挂单
func (s *Simulator) OpenOrders() []*model.Order {
	return s.orders
}

// HasOpenOrders 当前交易对是否还有挂单
func (s *Simulator) HasOpenOrders() bool {
	return len(s.orders) > 0
}

// CancelOpenOrders 撤销全部挂单
func (s *Simulator) CancelOpenOrders() {
	s.cancelAll("cancelled by caller")
}

func (s *Simulator) cancelAll(reason string) {
	if len(s.orders) == 0 {
		return
	}
	s.logger.Infow("Close all open orders",
		"pair", s.wallet.Position.Pair, "count", len(s.orders), "reason", reason)
	s.orders = nil
}

// CheckPendingOrders 用一根 K 线的价格区间撮合挂单。
// 两阶段扫描：先按价格从低到高处理推向 LONG 的买单 (平空)，
// 再按价格从高到低处理推向 SHORT 的卖单 (平多)。
// 每个方向一根 K 线最多产生一次成交，仓位清零后剩余挂单全部失效
func (s *Simulator) CheckPendingOrders(c model.Candle) {
	if len(s.orders) == 0 {
		return
	}

	longSide := s.sideOrders(model.PositionLong, true)
	filled := s.fillFirstMatch(c, longSide)
	if filled && s.wallet.Position.Size == 0 {
		// 平仓成交已经在 fill 里清掉了剩余挂单
		return
	}

	shortSide := s.sideOrders(model.PositionShort, false)
	s.fillFirstMatch(c, shortSide)
}

// sideOrders 取出推向给定方向的挂单，按价格排序
func (s *Simulator) sideOrders(target model.PositionSide, ascending bool) []*model.Order {
	var out []*model.Order
	for _, o := range s.orders {
		if o.TargetSide == target {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}

// fillFirstMatch 在一组同方向挂单里找第一个被 K 线触发的，成交并摘掉它
func (s *Simulator) fillFirstMatch(c model.Candle, orders []*model.Order) bool {
	for _, o := range orders {
		switch o.Type {
		case model.OrderLimit:
			if c.Low < o.Price && o.Price < c.High {
				s.executePending(o, o.Price)
				return true
			}

		case model.OrderTrailingStop:
			if o.TrailingStatus == model.TrailingPending {
				// 激活条件：价格先朝持仓有利的方向触及激活价
				if o.TargetSide == model.PositionLong && c.Low <= o.Price {
					o.TrailingStatus = model.TrailingActive
					s.logger.Infow("Trailing stop activated",
						"pair", o.Pair, "side", o.Side, "activation", o.Price)
				}
				if o.TargetSide == model.PositionShort && c.High >= o.Price {
					o.TrailingStatus = model.TrailingActive
					s.logger.Infow("Trailing stop activated",
						"pair", o.Pair, "side", o.Side, "activation", o.Price)
				}
			}
			if o.TrailingStatus == model.TrailingActive {
				// 止损价由本根 K 线的开盘价和回撤比例推出
				if o.TargetSide == model.PositionLong {
					stop := c.Open * (1 + o.CallbackRate)
					if c.High >= stop {
						s.executePending(o, stop)
						return true
					}
				} else {
					stop := c.Open * (1 - o.CallbackRate)
					if c.Low <= stop {
						s.executePending(o, stop)
						return true
					}
				}
			}
		}
	}
	return false
}

// executePending 以 maker 费率成交一张挂单并把它从簿上摘掉
func (s *Simulator) executePending(o *model.Order, price float64) {
	s.removeOrder(o)

	qty := math.Abs(o.Quantity)
	if err := s.fill(price, qty, o.Side, s.cfg.MakerFee); err != nil {
		s.logger.Errorw("Pending order rejected on execution",
			"pair", o.Pair, "side", o.Side, "price", price, "error", err)
		return
	}
	s.logger.Infow("Pending order filled",
		"pair", o.Pair, "type", o.Type, "side", o.Side, "price", price, "quantity", qty)
}

func (s *Simulator) removeOrder(target *model.Order) {
	for i, o := range s.orders {
		if o == target {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return
		}
	}
}
