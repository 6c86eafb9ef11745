package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar *zap.SugaredLogger
)

func init() {
	sugar = newLogger(Options{}).Sugar()
}

// Options configures the default logger.
type Options struct {
	// Format is either "console" (default) or "json".
	Format string
	// File enables rotating file output when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func newLogger(opts Options) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	if opts.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}
	if opts.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileWriter), level))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// Configure replaces the default logger.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	sugar = newLogger(opts).Sugar()
}

// ParseLogLevel parses a log level string into a zapcore.Level.
// Valid log levels are: error, warn, info, debug.
func ParseLogLevel(s string) (zapcore.Level, error) {
	switch s {
	case "error":
		return zapcore.ErrorLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Error(format string, args ...interface{}) {
	logger().Errorf(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger().Warnf(format, args...)
}

func Info(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

func Debug(format string, args ...interface{}) {
	logger().Debugf(format, args...)
}
