package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snapsearch/internal/application/port/output"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	Level       string
	Format      string // console | json
	Dir         string // empty disables file output
	ServiceName string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

func DefaultConfig() Config {
	return Config{
		Level:       "debug",
		Format:      "console",
		Dir:         "logs",
		ServiceName: "snapsearch",
		MaxSizeMB:   50,
		MaxBackups:  5,
		MaxAgeDays:  14,
	}
}

type LoggerAdapter struct {
	sugar   *zap.SugaredLogger
	closers []func() error
}

// NewLoggerAdapter logs to stdout and, when cfg.Dir is set, to a combined
// log and an error-only log, both rotated by lumberjack.
func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), zapcore.Lock(os.Stdout), level),
	}
	var closers []func() error

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		combined := rotating(cfg, "combined.log")
		errorsOnly := rotating(cfg, "error.log")
		closers = append(closers, combined.Close, errorsOnly.Close)

		cores = append(cores,
			zapcore.NewCore(encoder("json"), zapcore.AddSync(combined), level),
			zapcore.NewCore(encoder("json"), zapcore.AddSync(errorsOnly), zap.ErrorLevel),
		)
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	if cfg.ServiceName != "" {
		l = l.Named(cfg.ServiceName)
	}
	return &LoggerAdapter{sugar: l.Sugar(), closers: closers}, nil
}

// NewFromZap wraps an existing zap logger; used by tests with zaptest and
// observer cores.
func NewFromZap(l *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func NewNop() *LoggerAdapter {
	return &LoggerAdapter{sugar: zap.NewNop().Sugar()}
}

func rotating(cfg Config, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, name),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	if strings.EqualFold(format, "json") {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{sugar: l.sugar.With(key, value)}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{sugar: l.sugar.With(args...)}
}

// Zap exposes the underlying logger for libraries that want one.
func (l *LoggerAdapter) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// Close flushes and releases the log files. Children created with WithField
// share the files but do not own them.
func (l *LoggerAdapter) Close() error {
	err := l.sugar.Sync()
	if err != nil && isStdStreamSyncErr(err) {
		err = nil
	}
	for _, c := range l.closers {
		err = multierr.Append(err, c())
	}
	l.closers = nil
	return err
}

// Sync on a terminal stdout fails with EINVAL/ENOTTY on most platforms.
func isStdStreamSyncErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
