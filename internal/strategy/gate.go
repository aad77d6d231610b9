package strategy

import (
	"math"
	"time"

	"neat-trading-bot/internal/model"
)

// Action 决策闸门的输出
type Action int

const (
	ActionNone Action = iota
	ActionOpenLong
	ActionOpenShort
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionOpenLong:
		return "OPEN_LONG"
	case ActionOpenShort:
		return "OPEN_SHORT"
	case ActionClose:
		return "CLOSE"
	default:
		return "NONE"
	}
}

// 平仓要求价格相对开仓均价至少移动 1%，避免在噪声里刷手续费
const minCloseMove = 0.01

// Gate 把决策网络的原始输出过滤成一个可执行动作。
// 过滤顺序：置信度阈值 → 交易时段 → 挂单占用 → 趋势过滤 → 最小平仓波动
type Gate struct {
	Threshold float64
	Session   *TradingSession
	Filter    TrendFilter
}

// Decide 产出当前 K 线上的动作。decisions 为 {买入, 卖出, 平仓} 三个置信度，
// 只有严格最大且超过阈值的那一项才算信号，并列最大视为没有信号
func (g *Gate) Decide(decisions []float64, position model.Position, price float64, hasOpenOrders bool, trend Trend, now time.Time) Action {
	if len(decisions) < 3 {
		return ActionNone
	}
	best := 0
	for i := 1; i < 3; i++ {
		if decisions[i] > decisions[best] {
			best = i
		}
	}
	if decisions[best] <= g.Threshold {
		return ActionNone
	}
	for i := 0; i < 3; i++ {
		if i != best && decisions[i] == decisions[best] {
			return ActionNone
		}
	}

	if position.Size != 0 {
		// 持仓期间时段不设限，但平仓要求价格离开仓价足够远
		if best == 2 && position.EntryPrice > 0 {
			move := math.Abs(price-position.EntryPrice) / position.EntryPrice
			if move >= minCloseMove {
				return ActionClose
			}
		}
		return ActionNone
	}

	// 开新仓的前置条件
	if g.Session != nil && !g.Session.InSession(now) {
		return ActionNone
	}
	if hasOpenOrders {
		return ActionNone
	}

	switch best {
	case 0:
		if g.Filter.AllowLong(trend) {
			return ActionOpenLong
		}
	case 1:
		if g.Filter.AllowShort(trend) {
			return ActionOpenShort
		}
	}
	return ActionNone
}
