// Package backtest 把模拟账户、决策网络和历史 K 线串成完整的回测循环，
// 并提供快照续跑和种群并行评估。
package backtest

import (
	"math"

	"go.uber.org/zap"

	"neat-trading-bot/internal/exchange"
	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
	"neat-trading-bot/internal/stats"
	"neat-trading-bot/internal/strategy"
	"neat-trading-bot/pkg/ta"
)

// 连续这么多根 K 线没有任何持仓和挂单就淘汰，避免进化出只会观望的网络
const maxIdleBars = 100

// Bot 一次回测的全部状态。一个 Bot 绑定一个决策网络和一份 K 线数据
type Bot struct {
	cfg    *service.Config
	logger *zap.SugaredLogger

	sim     *exchange.Simulator
	tracker *stats.Tracker
	brain   strategy.Brain
	gate    *strategy.Gate
	risk    strategy.RiskManagement
	exit    strategy.ExitStrategy
	counter *strategy.Counter

	pairInfo model.PairInfo
	candles  []model.Candle
	vision   *ta.Vision
	trends   []strategy.Trend

	barIndex    int
	equity      []float64
	idleBars    int
	dead        bool
	deathReason string

	history *WalletHistory
}

// NewBot 按配置组装一次回测。candles 必须长于预热窗口
func NewBot(cfg *service.Config, candles []model.Candle, pairInfo model.PairInfo, brain strategy.Brain, logger *zap.SugaredLogger) (*Bot, error) {
	session, err := strategy.NewTradingSession(cfg.Strategy.TradingSession.Start, cfg.Strategy.TradingSession.End)
	if err != nil {
		return nil, err
	}

	filter := strategy.TrendFilter{
		FastPeriod: cfg.Strategy.TrendFilter.FastEMA,
		SlowPeriod: cfg.Strategy.TrendFilter.SlowEMA,
		Enabled:    cfg.Strategy.TrendFilter.FastEMA > 0,
	}

	tracker := stats.NewTracker(cfg.Backtest.InitialCapital)
	sim := exchange.NewSimulator(
		exchange.Config{TakerFee: cfg.Fees.Taker, MakerFee: cfg.Fees.Maker},
		cfg.Strategy.Pair(),
		cfg.Strategy.Leverage,
		cfg.Backtest.InitialCapital,
		tracker,
		logger,
	)

	b := &Bot{
		cfg:      cfg,
		logger:   logger,
		sim:      sim,
		tracker:  tracker,
		brain:    brain,
		pairInfo: pairInfo,
		candles:  candles,
		gate: &strategy.Gate{
			Threshold: cfg.Strategy.DecisionThreshold,
			Session:   session,
			Filter:    filter,
		},
		risk:     buildRisk(cfg.Strategy),
		exit:     buildExit(cfg.Strategy.Exit),
		counter:  strategy.NewCounter(cfg.Strategy.MaxTradeDuration),
		vision:   ta.Build(visionConfig(cfg.Vision), candles),
		trends:   filter.Series(candles),
		barIndex: ta.MinCandles,
	}

	if cfg.Backtest.SaveHistory {
		b.history = NewWalletHistory(cfg.Backtest.HistoryDir, cfg.Strategy.Pair(), logger)
	}

	return b, nil
}

func buildRisk(cfg service.StrategyConfig) strategy.RiskManagement {
	if cfg.Sizing == "risk" {
		return strategy.PositionSizeByRisk(cfg.Risk, cfg.Leverage)
	}
	return strategy.PositionSizeByPercent(cfg.Risk)
}

func buildExit(cfg service.ExitConfig) strategy.ExitStrategy {
	switch cfg.Type {
	case "basic":
		return strategy.BasicExit(cfg.ProfitTarget, cfg.LossTolerance)
	case "atr":
		return strategy.ATRExit(cfg.AtrPeriod, cfg.TakeProfitRatio*cfg.AtrMultiplier, cfg.StopLossRatio*cfg.AtrMultiplier)
	default:
		return nil
	}
}

func visionConfig(cfg service.VisionConfig) ta.Config {
	zero := service.VisionConfig{}
	if cfg == zero {
		return ta.DefaultConfig()
	}
	return ta.Config{
		EMA21: cfg.EMA21, EMA50: cfg.EMA50, EMA100: cfg.EMA100,
		RSI: cfg.RSI, CCI: cfg.CCI, MFI: cfg.MFI, ROC: cfg.ROC,
		WilliamR: cfg.WilliamR, PriceChange: cfg.PriceChange, VolOsc: cfg.VolOsc,
	}
}

// Run 跑完整个数据段 (或者直到被淘汰)，然后清掉残余仓位
func (b *Bot) Run() stats.Report {
	b.RunTo(len(b.candles))
	if b.dead {
		b.logger.Infow("Trader eliminated", "reason", b.deathReason, "bar", b.barIndex)
	}
	b.finalize()
	return b.Report()
}

// RunTo 只推进到指定的 K 线下标，不做收尾。
// 配合 Snapshot/Restore 可以分段执行
func (b *Bot) RunTo(limit int) {
	if limit > len(b.candles) {
		limit = len(b.candles)
	}
	for b.barIndex < limit && !b.dead {
		b.processBar(b.barIndex)
		b.barIndex++
	}
}

// processBar 单根 K 线的处理顺序：
// 按收盘价重估 → 强平检查 → 撮合挂单 → 决策 → 回撤水位 → 权益曲线
func (b *Bot) processBar(i int) {
	c := b.candles[i]
	price := c.Close

	b.sim.MarkToMarket(price)
	b.sim.CheckPositionMargin(price)
	b.sim.CheckPendingOrders(c)

	b.trade(i, c)

	b.sim.MarkToMarket(price)
	wallet := b.sim.Wallet()
	b.tracker.UpdateDrawdown(wallet.TotalWalletBalance)

	equity := wallet.TotalWalletBalance + wallet.TotalUnrealizedProfit
	b.equity = append(b.equity, equity)

	if b.history != nil {
		b.history.Append(c.OpenTime, wallet)
	}

	b.checkGoals(equity)
}

// trade 从决策网络取一帧输出并执行
func (b *Bot) trade(i int, c model.Candle) {
	price := c.Close
	position := b.sim.Position()
	holding := 0.0
	if position.Size != 0 {
		holding = 1.0
	}

	inputs := append([]float64{holding}, b.vision.Row(i)...)
	decisions := b.brain.FeedForward(inputs)

	action := b.gate.Decide(decisions, position, price, b.sim.HasOpenOrders(), b.trends[i], c.OpenTime)

	switch action {
	case strategy.ActionOpenLong:
		b.open(i, price, model.SideBuy, model.PositionLong)
	case strategy.ActionOpenShort:
		b.open(i, price, model.SideSell, model.PositionShort)
	case strategy.ActionClose:
		b.close(price, position)
	}

	b.tickCounters(price)
}

func (b *Bot) open(i int, price float64, side model.OrderSide, target model.PositionSide) {
	var plan strategy.ExitPlan
	if b.exit != nil {
		plan = b.exit(price, b.candles[:i+1], b.pairInfo.PricePrecision, target)
	}
	wallet := b.sim.Wallet()
	qty := b.risk(wallet.AvailableBalance, price, plan.StopLoss, b.pairInfo)
	if qty <= 0 {
		return
	}
	if err := b.sim.OrderMarket(price, qty, side); err != nil {
		return
	}
	b.counter.Reset()
	b.idleBars = 0
	b.placeExitOrders(price, qty, target, plan)
}

// placeExitOrders 按出场策略挂止盈止损。止损可以换成追踪止损
func (b *Bot) placeExitOrders(price, qty float64, target model.PositionSide, plan strategy.ExitPlan) {
	closeSide := model.SideSell
	closeTarget := model.PositionShort
	if target == model.PositionShort {
		closeSide = model.SideBuy
		closeTarget = model.PositionLong
	}

	if plan.TakeProfit > 0 {
		b.sim.PlaceLimit(closeSide, closeTarget, plan.TakeProfit, qty)
	}

	trailing := b.cfg.Strategy.Trailing
	if trailing.CallbackRate > 0 {
		activation := trailingActivation(price, plan.TakeProfit, target, trailing)
		b.sim.PlaceTrailingStop(closeSide, closeTarget, activation, qty, trailing.CallbackRate)
	} else if plan.StopLoss > 0 {
		b.sim.PlaceLimit(closeSide, closeTarget, plan.StopLoss, qty)
	}
}

// trailingActivation 推导追踪止损的激活价：优先用入场价到止盈价
// 之间的比例位置，否则退回相对入场价的固定涨跌幅
func trailingActivation(price, takeProfit float64, target model.PositionSide, cfg service.TrailingConfig) float64 {
	if cfg.PercentageToTP > 0 && takeProfit > 0 {
		return price + (takeProfit-price)*cfg.PercentageToTP
	}
	if target == model.PositionLong {
		return price * (1 + cfg.ActivationPercent)
	}
	return price * (1 - cfg.ActivationPercent)
}

func (b *Bot) close(price float64, position model.Position) {
	if position.Size == 0 {
		return
	}
	side := model.SideSell
	if position.PositionSide == model.PositionShort {
		side = model.SideBuy
	}
	if err := b.sim.OrderMarket(price, math.Abs(position.Size), side); err != nil {
		b.logger.Errorw("Failed to close the position", "error", err)
	}
}

// tickCounters 持仓时长和空闲时长的推进
func (b *Bot) tickCounters(price float64) {
	position := b.sim.Position()

	if position.Size != 0 {
		b.idleBars = 0
		if b.cfg.Strategy.MaxTradeDuration > 0 {
			b.counter.Decrement()
			if b.counter.Value() <= 0 {
				b.logger.Infow("Max trade duration reached, closing the position",
					"pair", position.Pair, "price", price)
				b.close(price, position)
				b.counter.Reset()
			}
		}
		return
	}

	b.counter.Reset()
	if !b.sim.HasOpenOrders() {
		b.idleBars++
	}
}

// checkGoals 淘汰检查：爆仓、长期不交易、或未达成训练目标
func (b *Bot) checkGoals(equity float64) {
	if equity <= 0 || b.sim.Wallet().TotalWalletBalance <= 0 {
		b.die("account blown")
		return
	}
	if b.idleBars > maxIdleBars {
		b.die("no trading activity")
		return
	}

	goals := b.cfg.Goals
	// 回撤目标不等最低交易数，超限立即淘汰
	if goals.MaxRelativeDrawdown < 0 && b.tracker.MaxRelativeDrawdown < goals.MaxRelativeDrawdown {
		b.die("drawdown beyond goal")
		return
	}

	decided := b.tracker.WinningTrades() + b.tracker.LostTrades()
	if goals.MinimumTrades <= 0 || decided < goals.MinimumTrades {
		return
	}
	if goals.WinRate > 0 && b.tracker.WinRate() < goals.WinRate {
		b.die("win rate below goal")
		return
	}
	if goals.ProfitRatio > 0 {
		if r := b.tracker.ProfitRatio(); !math.IsNaN(r) && r < goals.ProfitRatio {
			b.die("profit ratio below goal")
			return
		}
	}
}

func (b *Bot) die(reason string) {
	b.dead = true
	b.deathReason = reason
}

// finalize 收尾：按最后一根收盘价清仓并落盘钱包历史
func (b *Bot) finalize() {
	if len(b.candles) == 0 {
		return
	}
	last := b.candles[len(b.candles)-1].Close
	b.sim.MarkToMarket(last)
	if p := b.sim.Position(); p.Size != 0 {
		b.close(last, p)
	}
	b.sim.CancelOpenOrders()

	if b.history != nil {
		if err := b.history.Flush(); err != nil {
			b.logger.Errorw("Failed to save wallet history", "error", err)
		}
	}
}

// Report 汇总当前为止的回测结果
func (b *Bot) Report() stats.Report {
	if len(b.candles) == 0 {
		return stats.Report{}
	}
	start, end := b.candles[0].OpenTime, b.candles[len(b.candles)-1].OpenTime
	return b.tracker.Report(start, end, len(b.candles), b.sim.Wallet().TotalWalletBalance)
}

// Dead 是否已被淘汰
func (b *Bot) Dead() bool {
	return b.dead
}

// DeathReason 淘汰原因，存活时为空
func (b *Bot) DeathReason() string {
	return b.deathReason
}

// Equity 逐 K 线的权益曲线
func (b *Bot) Equity() []float64 {
	return b.equity
}

// FinalBalance 当前钱包总额
func (b *Bot) FinalBalance() float64 {
	return b.sim.Wallet().TotalWalletBalance
}
