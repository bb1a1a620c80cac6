package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Set bundles the per-concern loggers. Built once in main and passed into
// components, so tests can swap in Nop().
type Set struct {
	App     *zap.Logger
	Request *zap.Logger
	Stream  *zap.Logger
	Error   *zap.Logger
}

func newFileCore(encoder zapcore.Encoder, path string, maxSizeMB, maxAgeDays int, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(encoder,
		zapcore.AddSync(&lumberjack.Logger{
			Filename: path, MaxSize: maxSizeMB, MaxAge: maxAgeDays, Compress: true,
		}),
		level,
	)
}

// New creates the logger set with rotating files under dir.
func New(dir string) (*Set, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	return &Set{
		// app.log (general logs)
		App: zap.New(newFileCore(encoder, filepath.Join(dir, "app.log"), 100, 28, zap.InfoLevel)),
		// request.log
		Request: zap.New(newFileCore(encoder, filepath.Join(dir, "request.log"), 50, 7, zap.InfoLevel)),
		// stream.log (chat stream lifecycle)
		Stream: zap.New(newFileCore(encoder, filepath.Join(dir, "stream.log"), 50, 7, zap.InfoLevel)),
		// error.log
		Error: zap.New(newFileCore(encoder, filepath.Join(dir, "error.log"), 100, 30, zap.ErrorLevel)),
	}, nil
}

// Nop returns a set of no-op loggers for tests.
func Nop() *Set {
	nop := zap.NewNop()
	return &Set{App: nop, Request: nop, Stream: nop, Error: nop}
}

// Sync flushes all loggers. Safe to defer in main.
func (s *Set) Sync() {
	for _, l := range []*zap.Logger{s.App, s.Request, s.Stream, s.Error} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, set.Stream, "FuncName")()
func LogDuration(ctx context.Context, logger *zap.Logger, name string) func() {
	start := time.Now()
	traceID, _ := ctx.Value("trace_id").(string)

	return func() {
		duration := time.Since(start).Milliseconds()
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", duration),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		logger.Info("Function timed", fields...)
	}
}
