package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/septivank/rnsync-vitals/internal/config"
)

// NewLogger creates a new structured logger. When a log file is configured the
// JSON output goes to a rotating file, optionally teed to stdout.
func NewLogger(serviceName string, cfg config.LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		parsed, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	if cfg.FilePath == "" {
		config := zap.NewProductionConfig()
		config.Level = level
		config.InitialFields = map[string]interface{}{
			"service": serviceName,
		}
		return config.Build()
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})

	sink := fileSink
	if cfg.LogToConsole {
		sink = zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), fileSink)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller()).With(zap.String("service", serviceName)), nil
}

// WithRequestID returns a logger with request_id field
func WithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}
