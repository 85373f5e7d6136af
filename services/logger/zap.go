// Package logsvc provides the core.Logger implementations.
package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/admissions/core"
)

// NewZapLogger builds the local logger: human readable in debug mode, JSON otherwise,
// silent in test mode.
func NewZapLogger(conf *core.Config) (*zap.Logger, error) {
	if conf.TestMode {
		return zap.NewNop(), nil
	}

	var zc zap.Config
	if conf.Debug {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.InitialFields = map[string]interface{}{"app": conf.AppName, "env": conf.Env, "build": conf.Build}

	return zc.Build(zap.AddCallerSkip(1))
}

// NewLogger returns the app logger: zap locally, Rollbar remotely.
// An optional name tags the local entries, e.g. "db".
func NewLogger(conf *core.Config, name ...string) (*RollbarLogger, error) {
	local, err := NewZapLogger(conf)
	if err != nil {
		return nil, err
	}
	if len(name) > 0 && name[0] != "" {
		local = local.Named(name[0])
	}
	return NewRollbarLogger(local, conf), nil
}

// NewNopLogger returns a logger that discards everything. Tests only.
func NewNopLogger() *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{local: zap.NewNop().Sugar()}
}
