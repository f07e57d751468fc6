package gologger

import (
	"context"
	"log/slog"
	"os"

	glog "github.com/goliatone/go-logger/glog"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

const levelTrace = slog.LevelDebug - 4
const levelFatal = slog.LevelError + 4

// SlogLogger satisfies glog.Logger on top of a slog.Logger. Fatal logs and
// does not exit; the caller decides how to stop.
type SlogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger, ctx: context.Background()}
}

// NewTextLogger writes human readable lines to stderr at or above level.
func NewTextLogger(level slog.Level) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func (l *SlogLogger) Trace(msg string, args ...any) { l.log(levelTrace, msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }
func (l *SlogLogger) Fatal(msg string, args ...any) { l.log(levelFatal, msg, args...) }

func (l *SlogLogger) WithContext(ctx context.Context) glog.Logger {
	if l == nil {
		return glog.Nop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &SlogLogger{logger: l.logger, ctx: ctx}
}

func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Log(l.ctx, level, msg, args...)
}

// SlogProvider hands out SlogLoggers tagged with the requested name.
type SlogProvider struct {
	logger *slog.Logger
}

func NewSlogProvider(logger *slog.Logger) *SlogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogProvider{logger: logger}
}

func (p *SlogProvider) GetLogger(name string) glog.Logger {
	if p == nil {
		return glog.Nop()
	}
	if name == "" {
		return NewSlogLogger(p.logger)
	}
	return NewSlogLogger(p.logger.With("logger", name))
}
