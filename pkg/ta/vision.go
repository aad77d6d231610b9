// Package ta 把 K 线序列转换成决策网络的观测矩阵。
// 每个指标先整列计算，再按 K 线下标逐行取值，全部压缩到 [0,1]。
package ta

import (
	"github.com/markcheno/go-talib"

	"neat-trading-bot/internal/model"
)

// MinCandles 观测窗口的预热长度：前这么多根 K 线不产生决策，
// 保证最慢的指标 (EMA100) 已经收敛
const MinCandles = 150

// Config 选择进入观测向量的指标列
type Config struct {
	EMA21       bool
	EMA50       bool
	EMA100      bool
	RSI         bool
	CCI         bool
	MFI         bool
	ROC         bool
	WilliamR    bool
	PriceChange bool
	VolOsc      bool
}

// DefaultConfig 全指标开启
func DefaultConfig() Config {
	return Config{
		EMA21: true, EMA50: true, EMA100: true,
		RSI: true, CCI: true, MFI: true, ROC: true,
		WilliamR: true, PriceChange: true, VolOsc: true,
	}
}

// Vision 预先算好的观测矩阵。列在 Build 时固定，行随 K 线下标取
type Vision struct {
	columns [][]float64
}

// Build 对整段 K 线计算所有启用的指标列
func Build(cfg Config, candles []model.Candle) *Vision {
	n := len(candles)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range candles {
		open[i] = c.Open
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
		volume[i] = c.Volume
	}

	v := &Vision{}
	addEMADistance := func(period int) {
		ema := talib.Ema(closes, period)
		col := make([]float64, n)
		for i := range col {
			if closes[i] != 0 {
				col[i] = normalize((closes[i]-ema[i])/closes[i], -0.05, 0.05)
			}
		}
		v.columns = append(v.columns, col)
	}

	if cfg.EMA21 {
		addEMADistance(21)
	}
	if cfg.EMA50 {
		addEMADistance(50)
	}
	if cfg.EMA100 {
		addEMADistance(100)
	}
	if cfg.RSI {
		v.addScaled(talib.Rsi(closes, 14), 0, 100)
	}
	if cfg.CCI {
		v.addScaled(talib.Cci(high, low, closes, 20), -200, 200)
	}
	if cfg.MFI {
		v.addScaled(talib.Mfi(high, low, closes, volume, 14), 0, 100)
	}
	if cfg.ROC {
		v.addScaled(talib.Roc(closes, 10), -10, 10)
	}
	if cfg.WilliamR {
		v.addScaled(talib.WillR(high, low, closes, 14), -100, 0)
	}
	if cfg.PriceChange {
		col := make([]float64, n)
		for i := range col {
			if open[i] != 0 {
				col[i] = normalize((closes[i]-open[i])/open[i], -0.05, 0.05)
			}
		}
		v.columns = append(v.columns, col)
	}
	if cfg.VolOsc {
		fast := talib.Ema(volume, 5)
		slow := talib.Ema(volume, 10)
		col := make([]float64, n)
		for i := range col {
			if slow[i] != 0 {
				col[i] = normalize((fast[i]-slow[i])/slow[i], -1, 1)
			}
		}
		v.columns = append(v.columns, col)
	}

	return v
}

// addScaled 把一列指标值线性压缩到 [0,1] 后加入矩阵
func (v *Vision) addScaled(col []float64, min, max float64) {
	out := make([]float64, len(col))
	for i, x := range col {
		out[i] = normalize(x, min, max)
	}
	v.columns = append(v.columns, out)
}

// Width 观测向量的指标列数
func (v *Vision) Width() int {
	return len(v.columns)
}

// Row 第 i 根 K 线的观测向量
func (v *Vision) Row(i int) []float64 {
	out := make([]float64, len(v.columns))
	for j, col := range v.columns {
		out[j] = col[i]
	}
	return out
}

// normalize 线性映射到 [0,1] 并夹住出界值
func normalize(x, min, max float64) float64 {
	if max == min {
		return 0
	}
	n := (x - min) / (max - min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
