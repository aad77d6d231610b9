package backtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
	"neat-trading-bot/internal/strategy"
	"neat-trading-bot/pkg/ta"
)

// holdingBrain 只看持仓标志：空仓就买，持仓就请求平仓。
// 配合闸门的最小波动规则，在上涨行情里会做出一连串多头来回
type holdingBrain struct{}

func (holdingBrain) FeedForward(inputs []float64) []float64 {
	if inputs[0] == 0 {
		return []float64{1, 0, 0}
	}
	return []float64{0, 0, 1}
}

// idleBrain 永远观望
type idleBrain struct{}

func (idleBrain) FeedForward([]float64) []float64 {
	return []float64{0, 0, 0}
}

func testConfig() *service.Config {
	return &service.Config{
		Backtest: service.BacktestConfig{InitialCapital: 1000},
		Fees:     service.FeeConfig{Taker: 0.001, Maker: 0.001},
		Strategy: service.StrategyConfig{
			Asset:             "BTC",
			Base:              "USDT",
			Interval:          "1h",
			Risk:              0.1,
			Leverage:          1,
			DecisionThreshold: 0.6,
		},
		Vision: service.VisionConfig{RSI: true, PriceChange: true},
	}
}

func testPairInfo() model.PairInfo {
	return model.PairInfo{Pair: "BTCUSDT", PricePrecision: 2, QuantityPrecision: 8, MinQuantity: 0.00001}
}

// trendingCandles 每根上涨 0.2% 的合成行情
func trendingCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	price := 100.0
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		next := price * 1.002
		out[i] = model.Candle{
			Symbol:   "BTCUSDT",
			Interval: "1h",
			Open:     price,
			High:     next * 1.001,
			Low:      price * 0.999,
			Close:    next,
			Volume:   1000,
			OpenTime: start.Add(time.Duration(i) * time.Hour),
		}
		price = next
	}
	return out
}

func TestBotRunUptrend(t *testing.T) {
	cfg := testConfig()
	candles := trendingCandles(400)

	bot, err := NewBot(cfg, candles, testPairInfo(), holdingBrain{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	report := bot.Run()

	assert.False(t, bot.Dead())
	assert.Greater(t, bot.FinalBalance(), 1000.0)
	assert.Greater(t, report.TotalTrades, 0)
	assert.Equal(t, report.TotalTrades, report.LongWinningTrade)
	assert.InDelta(t, 100, report.TotalWinRate, 1e-9)

	// 权益曲线覆盖预热之后的每根 K 线
	assert.Len(t, bot.Equity(), len(candles)-ta.MinCandles)
}

func TestBotIdleTraderIsEliminated(t *testing.T) {
	cfg := testConfig()
	candles := trendingCandles(400)

	bot, err := NewBot(cfg, candles, testPairInfo(), idleBrain{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	bot.Run()

	assert.True(t, bot.Dead())
	assert.Equal(t, "no trading activity", bot.DeathReason())
}

func TestBotGoalElimination(t *testing.T) {
	cfg := testConfig()
	// 勝率目标设成不可能达到的 1.1，第一笔平仓后就会被淘汰
	cfg.Goals = service.GoalsConfig{WinRate: 1.1, MinimumTrades: 1}
	candles := trendingCandles(400)

	bot, err := NewBot(cfg, candles, testPairInfo(), holdingBrain{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	bot.Run()

	assert.True(t, bot.Dead())
	assert.Equal(t, "win rate below goal", bot.DeathReason())
}

// decliningCandles 每根下跌 2% 的合成行情
func decliningCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	price := 100.0
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		next := price * 0.98
		out[i] = model.Candle{
			Symbol:   "BTCUSDT",
			Interval: "1h",
			Open:     price,
			High:     price * 1.001,
			Low:      next * 0.999,
			Close:    next,
			Volume:   1000,
			OpenTime: start.Add(time.Duration(i) * time.Hour),
		}
		price = next
	}
	return out
}

func TestBotDrawdownGoalIgnoresMinimumTrades(t *testing.T) {
	cfg := testConfig()
	// 回撤目标不等最低交易数：下跌行情里亏到 1% 回撤就淘汰，
	// 即使离 100 笔交易还差得远
	cfg.Goals = service.GoalsConfig{MaxRelativeDrawdown: -0.01, MinimumTrades: 100}
	candles := decliningCandles(400)

	bot, err := NewBot(cfg, candles, testPairInfo(), holdingBrain{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	bot.Run()

	assert.True(t, bot.Dead())
	assert.Equal(t, "drawdown beyond goal", bot.DeathReason())
	report := bot.Report()
	assert.Less(t, report.TotalTrades, 100)
}

func TestSnapshotResumeMatchesStraightRun(t *testing.T) {
	cfg := testConfig()
	candles := trendingCandles(400)
	info := testPairInfo()
	logger := zap.NewNop().Sugar()

	straight, err := NewBot(cfg, candles, info, holdingBrain{}, logger)
	require.NoError(t, err)
	wantReport := straight.Run()

	// 跑一半，落盘快照，再恢复到一个全新的 Bot 上继续
	first, err := NewBot(cfg, candles, info, holdingBrain{}, logger)
	require.NoError(t, err)
	first.RunTo(250)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, SaveSnapshot(path, first.Snapshot()))
	snap, err := LoadSnapshot(path)
	require.NoError(t, err)

	resumed, err := NewBot(cfg, candles, info, holdingBrain{}, logger)
	require.NoError(t, err)
	require.NoError(t, resumed.Restore(snap))
	gotReport := resumed.Run()

	assert.InDelta(t, straight.FinalBalance(), resumed.FinalBalance(), 1e-9)
	assert.Equal(t, wantReport.TotalTrades, gotReport.TotalTrades)
	assert.Equal(t, wantReport.LongWinningTrade, gotReport.LongWinningTrade)
	assert.InDelta(t, wantReport.TotalFees, gotReport.TotalFees, 1e-9)
	assert.Equal(t, len(straight.Equity()), len(resumed.Equity()))
}

func TestRestoreRejectsWrongPair(t *testing.T) {
	cfg := testConfig()
	candles := trendingCandles(200)

	bot, err := NewBot(cfg, candles, testPairInfo(), idleBrain{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	err = bot.Restore(Snapshot{Pair: "ETHUSDT"})
	assert.Error(t, err)
}

func TestEvaluatePopulation(t *testing.T) {
	cfg := testConfig()
	candles := trendingCandles(400)

	brains := []strategy.Brain{holdingBrain{}, idleBrain{}, holdingBrain{}}
	results, err := EvaluatePopulation(cfg, candles, testPairInfo(), brains, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Index)
	assert.False(t, results[0].Dead)
	assert.Greater(t, results[0].FinalBalance, 1000.0)

	assert.True(t, results[1].Dead)
	assert.Equal(t, "no trading activity", results[1].DeathReason)

	// 相同网络相同数据，结果必须一致
	assert.InDelta(t, results[0].FinalBalance, results[2].FinalBalance, 1e-9)
}
