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

// 实时模式保留的滚动窗口长度
const liveWindow = 500

// PaperTrader 实时纸面交易：逐根接收已收盘的 K 线，跑和回测
// 完全相同的账本和决策闸门，订单只进本地模拟账户
type PaperTrader struct {
	cfg    *service.Config
	logger *zap.SugaredLogger

	sim     *exchange.Simulator
	tracker *stats.Tracker
	brain   strategy.Brain
	gate    *strategy.Gate
	filter  strategy.TrendFilter
	risk    strategy.RiskManagement
	exit    strategy.ExitStrategy
	counter *strategy.Counter

	pairInfo model.PairInfo
	window   []model.Candle
}

func NewPaperTrader(cfg *service.Config, pairInfo model.PairInfo, brain strategy.Brain, logger *zap.SugaredLogger) (*PaperTrader, error) {
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

	return &PaperTrader{
		cfg:     cfg,
		logger:  logger,
		sim:     sim,
		tracker: tracker,
		brain:   brain,
		filter:  filter,
		gate: &strategy.Gate{
			Threshold: cfg.Strategy.DecisionThreshold,
			Session:   session,
			Filter:    filter,
		},
		risk:     buildRisk(cfg.Strategy),
		exit:     buildExit(cfg.Strategy.Exit),
		counter:  strategy.NewCounter(cfg.Strategy.MaxTradeDuration),
		pairInfo: pairInfo,
	}, nil
}

// Seed 预灌历史 K 线，让指标窗口在第一根实时 K 线前就已收敛
func (p *PaperTrader) Seed(candles []model.Candle) {
	p.window = append(p.window, candles...)
	if len(p.window) > liveWindow {
		p.window = p.window[len(p.window)-liveWindow:]
	}
}

// OnCandle 处理一根已收盘的 K 线。窗口没满之前只积累数据
func (p *PaperTrader) OnCandle(c model.Candle) {
	p.window = append(p.window, c)
	if len(p.window) > liveWindow {
		p.window = p.window[1:]
	}
	if len(p.window) < ta.MinCandles {
		return
	}

	price := c.Close
	p.sim.MarkToMarket(price)
	p.sim.CheckPositionMargin(price)
	p.sim.CheckPendingOrders(c)

	position := p.sim.Position()
	holding := 0.0
	if position.Size != 0 {
		holding = 1.0
	}

	vision := ta.Build(visionConfig(p.cfg.Vision), p.window)
	inputs := append([]float64{holding}, vision.Row(len(p.window)-1)...)
	decisions := p.brain.FeedForward(inputs)

	trend := p.filter.Detect(p.window)
	action := p.gate.Decide(decisions, position, price, p.sim.HasOpenOrders(), trend, c.OpenTime)

	switch action {
	case strategy.ActionOpenLong:
		p.open(price, model.SideBuy, model.PositionLong)
	case strategy.ActionOpenShort:
		p.open(price, model.SideSell, model.PositionShort)
	case strategy.ActionClose:
		p.close(price, position)
	}

	p.tickCounter(price)
	p.tracker.UpdateDrawdown(p.sim.Wallet().TotalWalletBalance)

	p.logger.Infow("Candle processed",
		"pair", c.Symbol, "close", price,
		"balance", p.sim.Wallet().TotalWalletBalance,
		"position", p.sim.Position().Size)
}

func (p *PaperTrader) open(price float64, side model.OrderSide, target model.PositionSide) {
	var plan strategy.ExitPlan
	if p.exit != nil {
		plan = p.exit(price, p.window, p.pairInfo.PricePrecision, target)
	}
	wallet := p.sim.Wallet()
	qty := p.risk(wallet.AvailableBalance, price, plan.StopLoss, p.pairInfo)
	if qty <= 0 {
		return
	}
	if err := p.sim.OrderMarket(price, qty, side); err != nil {
		return
	}
	p.counter.Reset()

	closeSide := model.SideSell
	closeTarget := model.PositionShort
	if target == model.PositionShort {
		closeSide = model.SideBuy
		closeTarget = model.PositionLong
	}
	if plan.TakeProfit > 0 {
		p.sim.PlaceLimit(closeSide, closeTarget, plan.TakeProfit, qty)
	}
	trailing := p.cfg.Strategy.Trailing
	if trailing.CallbackRate > 0 {
		activation := trailingActivation(price, plan.TakeProfit, target, trailing)
		p.sim.PlaceTrailingStop(closeSide, closeTarget, activation, qty, trailing.CallbackRate)
	} else if plan.StopLoss > 0 {
		p.sim.PlaceLimit(closeSide, closeTarget, plan.StopLoss, qty)
	}
}

func (p *PaperTrader) close(price float64, position model.Position) {
	if position.Size == 0 {
		return
	}
	side := model.SideSell
	if position.PositionSide == model.PositionShort {
		side = model.SideBuy
	}
	if err := p.sim.OrderMarket(price, math.Abs(position.Size), side); err != nil {
		p.logger.Errorw("Failed to close the position", "error", err)
	}
}

func (p *PaperTrader) tickCounter(price float64) {
	position := p.sim.Position()
	if position.Size == 0 {
		p.counter.Reset()
		return
	}
	if p.cfg.Strategy.MaxTradeDuration > 0 {
		p.counter.Decrement()
		if p.counter.Value() <= 0 {
			p.logger.Infow("Max trade duration reached, closing the position",
				"pair", position.Pair, "price", price)
			p.close(price, position)
			p.counter.Reset()
		}
	}
}

// Wallet 当前钱包状态
func (p *PaperTrader) Wallet() model.FuturesWallet {
	return p.sim.Wallet()
}

// Report 截至目前的统计报告
func (p *PaperTrader) Report() stats.Report {
	if len(p.window) == 0 {
		return stats.Report{}
	}
	start := p.window[0].OpenTime
	end := p.window[len(p.window)-1].OpenTime
	return p.tracker.Report(start, end, len(p.window), p.sim.Wallet().TotalWalletBalance)
}
