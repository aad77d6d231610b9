package backtest

import (
	"sync"

	"go.uber.org/zap"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
	"neat-trading-bot/internal/stats"
	"neat-trading-bot/internal/strategy"
)

// Result 一个决策网络在同一段数据上的评估结果
type Result struct {
	Index        int
	Report       stats.Report
	FinalBalance float64
	Dead         bool
	DeathReason  string
}

// EvaluatePopulation 并行评估一组决策网络。每个网络独享一个 Bot
// (自己的模拟账户和统计器)，共享只读的 K 线数据。
// 返回切片按输入顺序排列
func EvaluatePopulation(cfg *service.Config, candles []model.Candle, pairInfo model.PairInfo, brains []strategy.Brain, logger *zap.SugaredLogger) ([]Result, error) {
	results := make([]Result, len(brains))

	var wg sync.WaitGroup
	for i, brain := range brains {
		bot, err := NewBot(cfg, candles, pairInfo, brain, logger)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func(i int, bot *Bot) {
			defer wg.Done()
			report := bot.Run()
			results[i] = Result{
				Index:        i,
				Report:       report,
				FinalBalance: bot.FinalBalance(),
				Dead:         bot.Dead(),
				DeathReason:  bot.DeathReason(),
			}
		}(i, bot)
	}
	wg.Wait()

	return results, nil
}
