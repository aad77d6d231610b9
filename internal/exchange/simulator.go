// Package exchange 实现离线的合约账户模拟器：钱包/持仓账本、
// 市价成交的状态机、挂单簿 (限价 + 追踪止损) 和强平检查。
// 引擎假定输入的价格和数量已经在端口边界对齐过精度，内部不做任何舍入。
package exchange

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/stats"
)

// Config 模拟器配置。手续费率为小数 (0.0004 = 0.04%)
type Config struct {
	TakerFee float64
	MakerFee float64
}

var (
	// ErrMalformedQuantity 数量为负，属于调用方错误，账户状态不变
	ErrMalformedQuantity = errors.New("malformed quantity")
	// ErrInsufficientBalance 可用余额不足以覆盖保证金和手续费
	ErrInsufficientBalance = errors.New("insufficient available balance")
)

// Simulator 模拟一个单交易对的逐仓合约账户
type Simulator struct {
	cfg    Config
	logger *zap.SugaredLogger

	wallet  model.FuturesWallet
	orders  []*model.Order
	tracker *stats.Tracker
	history []model.TradeRecord
}

// NewSimulator 初始化模拟账户。positionSide 初始为 LONG (和真实交易所
// 的单向持仓模式一致，空仓时该字段没有意义)
func NewSimulator(cfg Config, pair string, leverage int, initialCapital float64, tracker *stats.Tracker, logger *zap.SugaredLogger) *Simulator {
	if leverage <= 0 {
		leverage = 1
	}
	return &Simulator{
		cfg:     cfg,
		logger:  logger,
		tracker: tracker,
		wallet: model.FuturesWallet{
			AvailableBalance:   initialCapital,
			TotalWalletBalance: initialCapital,
			Position: model.Position{
				Pair:         pair,
				Leverage:     leverage,
				PositionSide: model.PositionLong,
			},
		},
	}
}

// Wallet 返回钱包的只读视图
func (s *Simulator) Wallet() model.FuturesWallet {
	return s.wallet
}

// Position 返回当前持仓的只读视图
func (s *Simulator) Position() model.Position {
	return s.wallet.Position
}

// TradeHistory 已平仓交易的明细
func (s *Simulator) TradeHistory() []model.TradeRecord {
	return s.history
}

// RestoreState 从快照恢复钱包、挂单和成交明细，用于断点续跑
func (s *Simulator) RestoreState(wallet model.FuturesWallet, orders []*model.Order, history []model.TradeRecord) {
	s.wallet = wallet
	s.orders = orders
	s.history = history
}

// recordTrade 登记一次平仓明细。反手时只记录被平掉的旧仓部分
func (s *Simulator) recordTrade(side model.PositionSide, entryPrice, exitPrice, oldSize, quantity, pnl, fees float64) {
	closed := math.Min(math.Abs(oldSize), quantity)
	s.history = append(s.history, model.TradeRecord{
		Pair:        s.wallet.Position.Pair,
		PosSide:     side,
		EntryPrice:  entryPrice,
		ExitPrice:   exitPrice,
		Size:        closed,
		RealizedPnL: pnl,
		Fee:         fees,
	})
}

// PositionPNL 按给定的标记价格计算未实现盈亏。
// 空仓、保证金或开仓价非正时返回 0，避免除零语义
func (s *Simulator) PositionPNL(markPrice float64) float64 {
	p := s.wallet.Position
	if p.Size == 0 || p.Margin <= 0 || p.EntryPrice <= 0 {
		return 0
	}

	delta := (markPrice - p.EntryPrice) / p.EntryPrice
	if p.PositionSide == model.PositionLong {
		return delta * p.Margin * float64(p.Leverage)
	}
	return -delta * p.Margin * float64(p.Leverage)
}

// MarkToMarket 用标记价格刷新持仓的未实现盈亏，并镜像到钱包。
// 除这两个派生字段外没有任何资金变动
func (s *Simulator) MarkToMarket(markPrice float64) {
	pnl := s.PositionPNL(markPrice)
	s.wallet.Position.UnrealizedProfit = pnl
	s.wallet.TotalUnrealizedProfit = pnl
}

// OrderMarket 市价成交 (taker 费率)。开平方向由 side 和当前持仓方向共同决定
func (s *Simulator) OrderMarket(price, quantity float64, side model.OrderSide) error {
	return s.fill(price, quantity, side, s.cfg.TakerFee)
}

// CheckPositionMargin 强平检查：保证金加未实现盈亏非正时，按当前价格
// 强制市价平仓。必须在处理挂单和新信号之前调用
func (s *Simulator) CheckPositionMargin(currentPrice float64) {
	p := s.wallet.Position
	if p.Size == 0 || p.Margin+p.UnrealizedProfit > 0 {
		return
	}

	s.logger.Infow("Position reached the liquidation price", "pair", p.Pair, "price", currentPrice)

	side := model.SideSell
	if p.PositionSide == model.PositionShort {
		side = model.SideBuy
	}
	// 强平也走普通的市价平仓路径，盈亏和胜负只被记录一次
	if err := s.fill(currentPrice, math.Abs(p.Size), side, s.cfg.TakerFee); err != nil {
		s.logger.Errorw("Liquidation order rejected", "pair", p.Pair, "error", err)
	}
}

// fill 是账本唯一的资金变动入口。
// 行为是 (side, positionSide) 上的小状态机：同向加仓 / 反向减仓或反手
func (s *Simulator) fill(price, quantity float64, side model.OrderSide, feeRate float64) error {
	wallet := &s.wallet
	position := &wallet.Position
	entryPrice := position.EntryPrice
	size := position.Size
	leverage := float64(position.Leverage)
	fees := price * quantity * feeRate
	hasPosition := size != 0

	if quantity < 0 {
		s.logger.Errorw("Cannot execute the market order, the quantity is malformed",
			"pair", position.Pair, "quantity", quantity)
		return ErrMalformedQuantity
	}

	if side == model.SideBuy {
		if position.PositionSide == model.PositionLong {
			// 同向加仓 (或从空仓开多)
			baseCost := price * quantity / leverage
			if wallet.AvailableBalance < baseCost+fees {
				s.logger.Infow("Market order rejected: insufficient available balance",
					"pair", position.Pair, "need", baseCost+fees, "have", wallet.AvailableBalance)
				return ErrInsufficientBalance
			}

			avgEntryPrice := (price*quantity + entryPrice*math.Abs(size)) / (quantity + math.Abs(size))

			position.Margin += baseCost
			position.Size += quantity
			position.EntryPrice = avgEntryPrice

			wallet.AvailableBalance -= baseCost + fees
			wallet.TotalWalletBalance -= fees

			if !hasPosition {
				s.tracker.TradeOpened(model.PositionLong)
			}
			s.tracker.AddFee(fees)

			s.logger.Infow("Take a long position",
				"pair", position.Pair, "size", quantity, "price", price, "fees", fees)
		} else {
			// 买入平空：按成交价实现盈亏，释放保证金
			pnl := s.PositionPNL(price)
			wallet.AvailableBalance += position.Margin + pnl - fees
			wallet.TotalWalletBalance += pnl - fees
			s.tracker.AddFee(fees)
			s.tracker.RecordPnL(pnl)

			position.Size += quantity
			position.Margin = math.Abs(position.Size*price) / leverage

			if position.Size == 0 {
				position.EntryPrice = 0
				position.UnrealizedProfit = 0
				s.cancelAll("position closed")
			}

			// 买入量超过空头仓位：残余部分成为新的多头
			if position.Size > 0 {
				position.EntryPrice = price
				position.PositionSide = model.PositionLong
				position.UnrealizedProfit = s.PositionPNL(price)
				wallet.AvailableBalance -= position.Margin
				s.tracker.TradeOpened(model.PositionLong)
			}

			// 胜负归属用成交前的开仓均价和成交价比较
			if hasPosition && entryPrice >= price {
				s.tracker.TradeClosed(model.PositionShort, true)
			}
			if hasPosition && entryPrice < price {
				s.tracker.TradeClosed(model.PositionShort, false)
			}
			if hasPosition {
				s.recordTrade(model.PositionShort, entryPrice, price, size, quantity, pnl, fees)
			}

			s.logger.Infow("Close the short position",
				"pair", position.Pair, "size", quantity, "price", price, "pnl", pnl, "fees", fees)
		}
	} else if side == model.SideSell {
		if position.PositionSide == model.PositionShort {
			// 同向加仓 (或从空仓开空)
			baseCost := price * quantity / leverage
			if wallet.AvailableBalance < baseCost+fees {
				s.logger.Infow("Market order rejected: insufficient available balance",
					"pair", position.Pair, "need", baseCost+fees, "have", wallet.AvailableBalance)
				return ErrInsufficientBalance
			}

			avgEntryPrice := (price*quantity + entryPrice*math.Abs(size)) / (quantity + math.Abs(size))

			position.Margin += baseCost
			position.Size -= quantity
			position.EntryPrice = avgEntryPrice

			wallet.AvailableBalance -= baseCost + fees
			wallet.TotalWalletBalance -= fees

			if !hasPosition {
				s.tracker.TradeOpened(model.PositionShort)
			}
			s.tracker.AddFee(fees)

			s.logger.Infow("Take a short position",
				"pair", position.Pair, "size", quantity, "price", price, "fees", fees)
		} else {
			// 卖出平多
			pnl := s.PositionPNL(price)
			wallet.AvailableBalance += position.Margin + pnl - fees
			wallet.TotalWalletBalance += pnl - fees
			s.tracker.AddFee(fees)
			s.tracker.RecordPnL(pnl)

			position.Size -= quantity
			position.Margin = math.Abs(position.Size*price) / leverage

			if position.Size == 0 {
				position.EntryPrice = 0
				position.UnrealizedProfit = 0
				s.cancelAll("position closed")
			}

			// 卖出量超过多头仓位：残余部分成为新的空头
			if position.Size < 0 {
				position.EntryPrice = price
				position.PositionSide = model.PositionShort
				position.UnrealizedProfit = s.PositionPNL(price)
				wallet.AvailableBalance -= position.Margin
				s.tracker.TradeOpened(model.PositionShort)
			}

			if hasPosition && entryPrice <= price {
				s.tracker.TradeClosed(model.PositionLong, true)
			}
			if hasPosition && entryPrice > price {
				s.tracker.TradeClosed(model.PositionLong, false)
			}
			if hasPosition {
				s.recordTrade(model.PositionLong, entryPrice, price, size, quantity, pnl, fees)
			}

			s.logger.Infow("Close the long position",
				"pair", position.Pair, "size", quantity, "price", price, "pnl", pnl, "fees", fees)
		}
	}

	return nil
}
