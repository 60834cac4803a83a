package config

import (
	"fmt"
	"os"

	"github.com/mselser95/polymarket-agent/pkg/logbuffer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logBufferLines is how many recent log lines the control surface keeps.
const logBufferLines = 200

// NewLogger creates a new zap logger based on the LOG_LEVEL environment
// variable and tees it into an in-memory buffer served by the control
// surface's logs endpoint.
// Valid levels: debug, info, warn, error. Default: info.
func NewLogger() (*zap.Logger, *logbuffer.Buffer, error) {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}

	var level zapcore.Level
	err := level.UnmarshalText([]byte(levelStr))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "json"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	buffer := logbuffer.New(logBufferLines, level, zapcore.NewJSONEncoder(config.EncoderConfig))

	logger, err := config.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, buffer)
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, buffer, nil
}
