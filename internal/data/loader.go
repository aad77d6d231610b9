// Package data 负责喂给回测的历史 K 线：本地 CSV 文件优先，
// 也可以从币安合约接口拉取，并获取交易对的精度元数据。
package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
)

// 币安单次 K 线请求的上限
const klineBatchLimit = 1500

// Loader 历史数据装载器
type Loader struct {
	dataDir string
	logger  *zap.SugaredLogger
	client  *futures.Client
}

func NewLoader(dataDir string, logger *zap.SugaredLogger) *Loader {
	return &Loader{
		dataDir: dataDir,
		logger:  logger,
		client:  futures.NewClient("", ""),
	}
}

// LoadCSV 从 <dataDir>/<PAIR>/_<interval>.csv 读取 K 线，
// 按 [start, end) 过滤。列顺序: 时间, 开, 高, 低, 收, 量。
// 时间列接受 RFC3339、"2006-01-02 15:04:05" 或毫秒时间戳
func (l *Loader) LoadCSV(pair, interval string, start, end time.Time) ([]model.Candle, error) {
	path := filepath.Join(l.dataDir, pair, "_"+interval+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle data: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse candle data %s: %w", path, err)
	}

	var candles []model.Candle
	for i, row := range rows {
		if len(row) < 6 {
			continue
		}
		openTime, err := parseTime(row[0])
		if err != nil {
			if i == 0 {
				continue // 表头行
			}
			return nil, fmt.Errorf("bad time at row %d of %s: %w", i, path, err)
		}
		if !start.IsZero() && openTime.Before(start) {
			continue
		}
		if !end.IsZero() && !openTime.Before(end) {
			continue
		}
		candles = append(candles, model.Candle{
			Symbol:   pair,
			Interval: interval,
			OpenTime: openTime,
			Open:     parseFloat(row[1]),
			High:     parseFloat(row[2]),
			Low:      parseFloat(row[3]),
			Close:    parseFloat(row[4]),
			Volume:   parseFloat(row[5]),
		})
	}

	l.logger.Infow("Candle data loaded", "pair", pair, "interval", interval, "count", len(candles))
	return candles, nil
}

// FetchKlines 从币安合约接口分页拉取 [start, end) 的已完成 K 线
func (l *Loader) FetchKlines(ctx context.Context, pair, interval string, start, end time.Time) ([]model.Candle, error) {
	var candles []model.Candle
	from := start.UnixMilli()
	until := end.UnixMilli()

	for from < until {
		klines, err := l.client.NewKlinesService().
			Symbol(pair).
			Interval(interval).
			StartTime(from).
			EndTime(until).
			Limit(klineBatchLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch klines: %w", err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			candles = append(candles, model.Candle{
				Symbol:    pair,
				Interval:  interval,
				OpenTime:  time.UnixMilli(k.OpenTime),
				CloseTime: time.UnixMilli(k.CloseTime),
				Open:      parseFloat(k.Open),
				High:      parseFloat(k.High),
				Low:       parseFloat(k.Low),
				Close:     parseFloat(k.Close),
				Volume:    parseFloat(k.Volume),
			})
		}
		from = klines[len(klines)-1].CloseTime + 1
	}

	l.logger.Infow("Klines fetched from exchange", "pair", pair, "interval", interval, "count", len(candles))
	return candles, nil
}

// FetchPairInfo 获取交易对的价格/数量精度和最小下单量
func (l *Loader) FetchPairInfo(ctx context.Context, pair string) (model.PairInfo, error) {
	info, err := l.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("fetch exchange info: %w", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != pair {
			continue
		}
		out := model.PairInfo{
			Pair:              pair,
			PricePrecision:    s.PricePrecision,
			QuantityPrecision: s.QuantityPrecision,
		}
		if f := s.LotSizeFilter(); f != nil {
			out.MinQuantity = parseFloat(f.MinQuantity)
		}
		return out, nil
	}
	return model.PairInfo{}, fmt.Errorf("pair %s not found in exchange info", pair)
}

func parseFloat(s string) float64 {
	f, _ := service.StringToFloat(s)
	return f
}

func parseTime(v string) (time.Time, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}
