package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"neat-trading-bot/internal/api"
	"neat-trading-bot/internal/backtest"
	"neat-trading-bot/internal/data"
	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
	"neat-trading-bot/internal/strategy"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	live := flag.Bool("live", false, "run the live paper trading loop instead of a backtest")
	fetch := flag.Bool("fetch", false, "fetch candles from the exchange instead of local CSV")
	snapshotPath := flag.String("resume", "", "resume a backtest from a snapshot file")
	flag.Parse()

	service.InitLogger(*debug)
	defer service.Logger.Sync()
	logger := service.Logger.Sugar()

	cfg := service.LoadConfig("config")
	pair := cfg.Strategy.Pair()
	logger.Infow("Configuration loaded", "pair", pair, "interval", cfg.Strategy.Interval)

	loader := data.NewLoader(cfg.Backtest.DataDir, logger)
	pairInfo := fetchPairInfo(loader, pair, logger)

	// 观测向量的第 4 列是归一化的 RSI (前面是持仓标志和三条 EMA 距离)
	brain := strategy.NewThresholdBrain(4)

	if *live {
		runLive(cfg, pairInfo, brain, loader, logger)
		return
	}

	runBacktest(cfg, pairInfo, brain, loader, *fetch, *snapshotPath, logger)
}

func fetchPairInfo(loader *data.Loader, pair string, logger *zap.SugaredLogger) model.PairInfo {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := loader.FetchPairInfo(ctx, pair)
	if err != nil {
		logger.Warnw("Failed to fetch pair precision, falling back to defaults",
			"pair", pair, "error", err)
		return model.PairInfo{Pair: pair, PricePrecision: 2, QuantityPrecision: 3, MinQuantity: 0.001}
	}
	return info
}

func loadCandles(cfg *service.Config, loader *data.Loader, fetch bool) ([]model.Candle, error) {
	start, _ := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	end, _ := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	pair := cfg.Strategy.Pair()

	if fetch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return loader.FetchKlines(ctx, pair, cfg.Strategy.Interval, start, end)
	}
	return loader.LoadCSV(pair, cfg.Strategy.Interval, start, end)
}

func runBacktest(cfg *service.Config, pairInfo model.PairInfo, brain strategy.Brain, loader *data.Loader, fetch bool, snapshotPath string, logger *zap.SugaredLogger) {
	candles, err := loadCandles(cfg, loader, fetch)
	if err != nil {
		logger.Fatalw("Failed to load candle data", "error", err)
	}

	bot, err := backtest.NewBot(cfg, candles, pairInfo, brain, logger)
	if err != nil {
		logger.Fatalw("Failed to build the backtest", "error", err)
	}

	if snapshotPath != "" {
		snap, err := backtest.LoadSnapshot(snapshotPath)
		if err != nil {
			logger.Fatalw("Failed to load snapshot", "path", snapshotPath, "error", err)
		}
		if err := bot.Restore(snap); err != nil {
			logger.Fatalw("Failed to restore snapshot", "error", err)
		}
		logger.Infow("Backtest resumed from snapshot", "path", snapshotPath)
	}

	report := bot.Run()
	if bot.Dead() {
		logger.Infow("Trader was eliminated before the end of the data",
			"reason", bot.DeathReason())
	}
	fmt.Println(report.String())
}

func runLive(cfg *service.Config, pairInfo model.PairInfo, brain strategy.Brain, loader *data.Loader, logger *zap.SugaredLogger) {
	trader, err := backtest.NewPaperTrader(cfg, pairInfo, brain, logger)
	if err != nil {
		logger.Fatalw("Failed to build the paper trader", "error", err)
	}

	// 先用最近的历史 K 线灌满指标窗口
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval, err := service.ParseIntervalDuration(cfg.Strategy.Interval)
	if err != nil {
		logger.Fatalw("Invalid interval", "interval", cfg.Strategy.Interval, "error", err)
	}
	seedCtx, seedCancel := context.WithTimeout(ctx, time.Minute)
	seed, err := loader.FetchKlines(seedCtx, cfg.Strategy.Pair(), cfg.Strategy.Interval,
		time.Now().Add(-500*interval), time.Now())
	seedCancel()
	if err != nil {
		logger.Fatalw("Failed to seed the candle window", "error", err)
	}
	trader.Seed(seed)

	wsURL := cfg.Exchange.WSURL
	if wsURL == "" {
		wsURL = "wss://fstream.binance.com"
	}
	connector := api.NewKlineConnector(wsURL, cfg.Strategy.Pair(), cfg.Strategy.Interval, logger)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Infow("Shutting down")
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for candle := range connector.Candles() {
			trader.OnCandle(candle)
		}
	}()

	if err := connector.Run(ctx); err != nil {
		logger.Fatalw("Websocket loop failed", "error", err)
	}
	// Run 返回时 candle 通道已关闭，等消费协程清空缓冲再读报告
	<-done

	fmt.Println(trader.Report().String())
}
