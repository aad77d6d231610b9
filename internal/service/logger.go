package service

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 是全局日志接口
// 在其他模块中使用：service.Logger.Info("Order filled", zap.String("pair", pair))
var Logger *zap.Logger

// InitLogger 初始化高性能的 Zap 日志
func InitLogger(debug bool) {
	config := zap.NewProductionConfig()

	// 格式化时间
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "time"

	// 回测的逐K线明细只在 debug 模式下输出，否则日志量过大
	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	var err error
	Logger, err = config.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
}
