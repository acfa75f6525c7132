package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danmclachlan/TinyGPS/internal/web"
)

// buildLogger builds the process logger: human-readable console output on
// stderr, teed into the in-memory buffer behind /api/logs.
func buildLogger(level string, buf *web.LogBuffer) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encConf := zap.NewDevelopmentEncoderConfig()
	encConf.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewConsoleEncoder(encConf)

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	if buf != nil {
		core = zapcore.NewTee(core, zapcore.NewCore(enc, zapcore.AddSync(buf), lvl))
	}
	return zap.New(core)
}
