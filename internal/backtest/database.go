package backtest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"neat-trading-bot/internal/model"
)

// WalletHistoryEntry 单根 K 线收盘后的钱包切片
type WalletHistoryEntry struct {
	Time   time.Time           `json:"time"`
	Wallet model.FuturesWallet `json:"wallet"`
}

// WalletHistory 在内存里积累逐 K 线的钱包快照，回测结束后一次性
// 写成 JSON 文件，供外部做权益曲线分析。写盘失败不影响回测结果
type WalletHistory struct {
	dir     string
	pair    string
	logger  *zap.SugaredLogger
	entries []WalletHistoryEntry
}

func NewWalletHistory(dir, pair string, logger *zap.SugaredLogger) *WalletHistory {
	if dir == "" {
		dir = "history"
	}
	return &WalletHistory{dir: dir, pair: pair, logger: logger}
}

func (h *WalletHistory) Append(t time.Time, wallet model.FuturesWallet) {
	h.entries = append(h.entries, WalletHistoryEntry{Time: t, Wallet: wallet})
}

// Flush 落盘到 <dir>/<pair>-wallet.json
func (h *WalletHistory) Flush() error {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(h.dir, h.pair+"-wallet.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	h.logger.Infow("Wallet history saved", "path", path, "entries", len(h.entries))
	return nil
}
