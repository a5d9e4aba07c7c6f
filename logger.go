package qmcsim

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelFromStr maps a level name (debug, info, warn, error) to its zap level,
// defaulting to info
func LogLevelFromStr(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger builds a console logger on stderr. The returned level can be
// raised or lowered while the logger is in use.
func NewLogger(level string) (*zap.Logger, zap.AtomicLevel, error) {
	atom := zap.NewAtomicLevelAt(LogLevelFromStr(level))

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg := zap.Config{
		Level:            atom,
		Encoding:         "console",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, atom, err
	}
	return logger.Named("qmcsim"), atom, nil
}
