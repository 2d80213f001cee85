// Package logger builds the zap loggers used across mailblast.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger when ginMode is "release" and a
// colored development logger otherwise.
func New(ginMode string) (*zap.Logger, error) {
	var config zap.Config
	if ginMode == "release" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return config.Build()
}

// Must is New that panics on error. Use it only in main packages.
func Must(ginMode string) *zap.Logger {
	l, err := New(ginMode)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l
}
