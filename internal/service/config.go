package service

import (
	"log"

	"github.com/spf13/viper"
)

// Config 是整个程序的配置根节点
type Config struct {
	Exchange ExchangeConfig `mapstructure:"Exchange"`
	Backtest BacktestConfig `mapstructure:"Backtest"`
	Fees     FeeConfig      `mapstructure:"Fees"`
	Strategy StrategyConfig `mapstructure:"Strategy"`
	Goals    GoalsConfig    `mapstructure:"Goals"`
	Vision   VisionConfig   `mapstructure:"Vision"`
}

// ExchangeConfig 定义了交易所的连接信息 (仅数据拉取，不下真实订单)
type ExchangeConfig struct {
	Name    string
	WSURL   string
	RESTURL string
}

// BacktestConfig 定义了回测运行参数
type BacktestConfig struct {
	StartDate      string // "2022-01-01"
	EndDate        string
	InitialCapital float64
	DataDir        string // CSV 数据目录: <DataDir>/<PAIR>/_<interval>.csv
	SaveHistory    bool   // 是否保存逐K线的钱包快照
	HistoryDir     string
}

// FeeConfig 手续费率 (小数，例如 0.0004 = 0.04%)
type FeeConfig struct {
	Taker float64
	Maker float64
}

// SessionConfig 允许交易的时段，格式 "HH:MM"。为空表示全天可交易
type SessionConfig struct {
	Start string
	End   string
}

// TrendFilterConfig 趋势过滤器参数。FastEMA 为 0 表示不启用过滤
type TrendFilterConfig struct {
	FastEMA int
	SlowEMA int
}

// ExitConfig 离场策略参数
type ExitConfig struct {
	Type            string // "basic" 或 "atr"，为空表示不挂出场单
	ProfitTarget    float64
	LossTolerance   float64
	AtrPeriod       int
	AtrMultiplier   float64
	TakeProfitRatio float64
	StopLossRatio   float64
}

// TrailingConfig 追踪止损参数。CallbackRate 为 0 表示不启用
type TrailingConfig struct {
	CallbackRate      float64 // 从激活后回撤多少比例触发 (例如 0.01)
	ActivationPercent float64 // 相对当前价的激活涨跌幅
	PercentageToTP    float64 // 或者：当前价到止盈价之间的比例位置
}

// StrategyConfig 定义了交易对和策略启动参数
type StrategyConfig struct {
	Asset             string
	Base              string
	Interval          string
	Risk              float64 // 每次开仓动用的余额比例
	Sizing            string  // "percent" 或 "risk"，为空默认 percent
	Leverage          int
	MaxTradeDuration  int     // 持仓最多保留多少根K线，0 表示不限制
	DecisionThreshold float64 // 神经网络输出的置信度阈值
	TradingSession    SessionConfig
	TrendFilter       TrendFilterConfig
	Exit              ExitConfig
	Trailing          TrailingConfig
}

// GoalsConfig 淘汰标准：不满足目标的交易员在训练中被判定死亡
type GoalsConfig struct {
	WinRate             float64
	ProfitRatio         float64
	MaxRelativeDrawdown float64 // 负数，例如 -0.3
	MinimumTrades       int
}

// VisionConfig 选择哪些指标作为神经网络的输入
type VisionConfig struct {
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

// Pair 返回交易对名称，例如 "BTCUSDT"
func (c *StrategyConfig) Pair() string {
	return c.Asset + c.Base
}

// LoadConfig 读取并解析配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	if cfg.Strategy.DecisionThreshold == 0 {
		cfg.Strategy.DecisionThreshold = 0.6
	}
	if cfg.Strategy.Leverage == 0 {
		cfg.Strategy.Leverage = 1
	}

	return &cfg
}
