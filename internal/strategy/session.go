package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TradingSession 每日交易时段，"HH:MM" 格式。
// 结束早于开始表示跨午夜的时段。时段只限制开新仓，
// 已有持仓在任何时间都可以管理
type TradingSession struct {
	startMinute int
	endMinute   int
	enabled     bool
}

// NewTradingSession 解析 "HH:MM" 时段边界。两个都为空表示不限制
func NewTradingSession(start, end string) (*TradingSession, error) {
	if start == "" && end == "" {
		return &TradingSession{}, nil
	}
	s, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("invalid session start %q: %w", start, err)
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("invalid session end %q: %w", end, err)
	}
	return &TradingSession{startMinute: s, endMinute: e, enabled: true}, nil
}

// InSession 给定时刻是否在时段内 (按 UTC 的钟面时间)
func (ts *TradingSession) InSession(t time.Time) bool {
	if !ts.enabled {
		return true
	}
	m := t.UTC().Hour()*60 + t.UTC().Minute()
	if ts.startMinute <= ts.endMinute {
		return m >= ts.startMinute && m < ts.endMinute
	}
	// 跨午夜
	return m >= ts.startMinute || m < ts.endMinute
}

func parseClock(v string) (int, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute")
	}
	return h*60 + m, nil
}
