package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	yerrors "github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// ZerologProvider is the default LoggerProvider. Records are written as JSON
// lines by zerolog; the level can be changed at any time and applies to
// loggers that were already handed out.
type ZerologProvider struct {
	mu    sync.RWMutex
	base  zerolog.Logger
	level Level
}

// NewZerologProvider creates a provider writing to w.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger(),
		level: level,
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{provider: p, zl: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{provider: p, zl: p.base.With().Str("component", name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

func (p *ZerologProvider) enabled(level Level) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return level >= p.level
}

type zerologLogger struct {
	provider *ZerologProvider
	zl       zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(LevelDebug, l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(LevelInfo, l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(LevelWarn, l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(LevelError, l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{provider: l.provider, zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.provider.enabled(level)
}

func (l *zerologLogger) emit(level Level, e *zerolog.Event, msg string, fields []any) {
	if e == nil || !l.provider.enabled(level) {
		return
	}

	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = withError(e, ErrAttrKey, err)
			fields = fields[1:]
		}
	}

	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = withError(e, key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

// withError attaches err, its structured detail when the error type provides
// one, and the cockroachdb stack trace.
func withError(e *zerolog.Event, key string, err error) *zerolog.Event {
	e = e.AnErr(key, err)
	var detail zerolog.LogObjectMarshaler
	if errors.As(err, &detail) {
		e = e.Object(key+"_detail", detail)
	}
	if st := extractStacktrace(err); st != "" {
		e = e.Str(StacktraceAttrKey, st)
	}
	return e
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(os.Stderr, LevelInfo)
)

func init() {
	yerrors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), ErrorTypeKey, fmt.Sprintf("%T", w), "warning", w)
	})
}

// SetProvider replaces the package-wide provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the default logger of the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a component logger of the current provider.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetLevel sets the level of the current provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}

// SetOutput replaces the provider with a zerolog provider writing to w,
// keeping the given level.
func SetOutput(w io.Writer, level Level) {
	SetProvider(NewZerologProvider(w, level))
}
