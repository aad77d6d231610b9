package backtest

import (
	"encoding/json"
	"fmt"
	"os"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/stats"
)

// Snapshot 回测的可序列化断点：下一根要处理的 K 线下标、
// 钱包、挂单簿、统计器和循环内的计数状态。
// 从同一份 K 线数据恢复后继续跑，结果和不中断完全一致
type Snapshot struct {
	Pair         string              `json:"pair"`
	BarIndex     int                 `json:"barIndex"`
	Wallet       model.FuturesWallet `json:"wallet"`
	Orders       []*model.Order      `json:"orders"`
	TradeHistory []model.TradeRecord `json:"tradeHistory"`
	Tracker      stats.Tracker       `json:"tracker"`
	Equity       []float64           `json:"equity"`
	CounterValue int                 `json:"counterValue"`
	IdleBars     int                 `json:"idleBars"`
	Dead         bool                `json:"dead"`
	DeathReason  string              `json:"deathReason,omitempty"`
}

// Snapshot 捕获当前状态
func (b *Bot) Snapshot() Snapshot {
	return Snapshot{
		Pair:         b.cfg.Strategy.Pair(),
		BarIndex:     b.barIndex,
		Wallet:       b.sim.Wallet(),
		Orders:       b.sim.OpenOrders(),
		TradeHistory: b.sim.TradeHistory(),
		Tracker:      *b.tracker,
		Equity:       b.equity,
		CounterValue: b.counter.Value(),
		IdleBars:     b.idleBars,
		Dead:         b.dead,
		DeathReason:  b.deathReason,
	}
}

// Restore 把一个快照灌回 Bot。交易对必须匹配，K 线数据由调用方保证一致
func (b *Bot) Restore(s Snapshot) error {
	if s.Pair != b.cfg.Strategy.Pair() {
		return fmt.Errorf("snapshot pair %s does not match %s", s.Pair, b.cfg.Strategy.Pair())
	}
	if s.BarIndex > len(b.candles) {
		return fmt.Errorf("snapshot bar index %d beyond candle data (%d)", s.BarIndex, len(b.candles))
	}

	b.barIndex = s.BarIndex
	b.sim.RestoreState(s.Wallet, s.Orders, s.TradeHistory)
	*b.tracker = s.Tracker
	b.equity = s.Equity
	b.counter.Restore(s.CounterValue)
	b.idleBars = s.IdleBars
	b.dead = s.Dead
	b.deathReason = s.DeathReason
	return nil
}

// SaveSnapshot 序列化到文件
func SaveSnapshot(path string, s Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot 从文件读回快照
func LoadSnapshot(path string) (Snapshot, error) {
	var s Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, err
	}
	return s, nil
}
