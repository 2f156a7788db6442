// Package logging builds the zap loggers used by ravlbench.
package logging

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/metailurini/ravl/internal/config"
)

// Log encodings.
const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// ErrUnknownEncoding indicates a log encoding other than console or json.
var ErrUnknownEncoding = errors.New("unknown log encoding")

// New returns a logger writing to stderr at the configured level.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return NewWithSyncer(cfg, zapcore.Lock(os.Stderr))
}

// NewWithSyncer is New with an explicit destination.
func NewWithSyncer(cfg config.LogConfig, ws zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "lvl",
		TimeKey:        "ts",
		NameKey:        "component",
		CallerKey:      "callAt",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var enc zapcore.Encoder
	switch cfg.Encoding {
	case EncodingConsole, "":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case EncodingJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, cfg.Encoding)
	}

	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(lvl))

	return zap.New(core, zap.AddCaller()), nil
}

// AntsLogger routes worker pool messages into a zap logger.
type AntsLogger struct {
	logger *zap.SugaredLogger
}

// NewAntsLogger names the pool component under logger.
func NewAntsLogger(logger *zap.Logger) *AntsLogger {
	return &AntsLogger{logger: logger.Named("ants").Sugar()}
}

// Printf implements the ants logger interface. The pool only logs
// recovered worker panics, so every message is an error.
func (l *AntsLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Errorf(format, args...)
}
