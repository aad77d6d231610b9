// Package api 维护到交易所的实时行情连接。
// 纸面交易模式用它接收已完成的 K 线，订单仍然只进本地模拟账户。
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"neat-trading-bot/internal/model"
	"neat-trading-bot/internal/service"
)

// 断线后的重连间隔
const reconnectDelay = 5 * time.Second

// KlineConnector 订阅单交易对的 K 线推送，只把已收盘的 K 线
// 送进通道。断线自动重连，直到 ctx 取消
type KlineConnector struct {
	wsURL    string
	pair     string
	interval string
	logger   *zap.SugaredLogger

	candles chan model.Candle
}

// 币安 K 线推送的报文结构
type klineEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Kline     struct {
		StartTime int64  `json:"t"`
		EndTime   int64  `json:"T"`
		Interval  string `json:"i"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		Final     bool   `json:"x"`
	} `json:"k"`
}

func NewKlineConnector(wsURL, pair, interval string, logger *zap.SugaredLogger) *KlineConnector {
	return &KlineConnector{
		wsURL:    wsURL,
		pair:     pair,
		interval: interval,
		logger:   logger,
		candles:  make(chan model.Candle, 64),
	}
}

// Candles 已收盘 K 线的只读通道。连接永久关闭后通道关闭
func (c *KlineConnector) Candles() <-chan model.Candle {
	return c.candles
}

// Run 阻塞运行：连接、读取、断线重连，ctx 取消后返回
func (c *KlineConnector) Run(ctx context.Context) error {
	defer close(c.candles)

	endpoint := fmt.Sprintf("%s/ws/%s@kline_%s", c.wsURL, strings.ToLower(c.pair), c.interval)

	for {
		if err := c.readLoop(ctx, endpoint); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warnw("Websocket connection lost, reconnecting",
				"endpoint", endpoint, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *KlineConnector) readLoop(ctx context.Context, endpoint string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	c.logger.Infow("Websocket connected", "pair", c.pair, "interval", c.interval)

	// ctx 取消时强制断开阻塞中的读
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event klineEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Warnw("Failed to decode kline event", "error", err)
			continue
		}
		if event.EventType != "kline" || !event.Kline.Final {
			continue
		}

		candle := model.Candle{
			Symbol:    event.Symbol,
			Interval:  event.Kline.Interval,
			OpenTime:  time.UnixMilli(event.Kline.StartTime),
			CloseTime: time.UnixMilli(event.Kline.EndTime),
			Open:      mustFloat(event.Kline.Open),
			High:      mustFloat(event.Kline.High),
			Low:       mustFloat(event.Kline.Low),
			Close:     mustFloat(event.Kline.Close),
			Volume:    mustFloat(event.Kline.Volume),
		}

		select {
		case c.candles <- candle:
		case <-ctx.Done():
			return nil
		}
	}
}

func mustFloat(s string) float64 {
	f, _ := service.StringToFloat(s)
	return f
}
