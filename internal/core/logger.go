package core

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init initializes zap's global logger
// After calling this, we use zap.L() directly.
func Init(pretty bool, level string) error {
	var config zap.Config

	if pretty {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// LogToolCall logs a tool invocation using zap's global logger
func LogToolCall(toolName string, duration float64, err error) {
	fields := []zap.Field{
		zap.String("tool", toolName),
		zap.Float64("duration_seconds", duration),
		zap.Bool("success", err == nil),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		zap.L().Error("Tool call failed", fields...)
		return
	}

	zap.L().Info("Tool call completed successfully", fields...)
}

// LogDeferredError runs fn and logs its error, if any. Intended for
// deferred cleanup calls whose errors would otherwise be discarded.
func LogDeferredError(fn func() error) {
	if err := fn(); err != nil {
		zap.L().Error("Deferred call failed", zap.Error(err))
	}
}

// LogPanicRecovery logs a recovered panic value with its location
func LogPanicRecovery(where string, recovered any) {
	zap.L().Error("Recovered from panic",
		zap.String("where", where),
		zap.Any("panic", recovered))
}
