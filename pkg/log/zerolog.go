// This file contains the zerolog-backed default implementation of Logger and
// LoggerProvider. Error values logged as fields get a stacktrace attribute
// extracted from cockroachdb/errors safe details, and warnings raised through
// pkg/errors are routed to the default logger as structured warn records.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	mberrors "github.com/aweil41/modelbench/pkg/errors"
)

func init() {
	mberrors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn("warning raised", "warning", warning)
	})
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(os.Stderr)
)

// GetLogger returns the default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a logger carrying a component identifier, for
// example "tune.gridsearch" or "experiment.runner".
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the default provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	defaultProvider.SetLevel(level)
}

// SetProvider replaces the default provider. Tests use this to capture
// output through a TestLoggerProvider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// ParseLevel converts a configuration string into a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, mberrors.NewValidationError("log_level", "must be one of debug, info, warn, error", s)
	}
}

// ZerologProvider is the default LoggerProvider, emitting JSON records
// through zerolog.
type ZerologProvider struct {
	mu   sync.RWMutex
	root zerolog.Logger
}

// NewZerologProvider creates a provider writing to w at info level.
func NewZerologProvider(w io.Writer) *ZerologProvider {
	root := zerolog.New(w).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	return &ZerologProvider{root: root}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.root}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName. The name is
// attached under ComponentKey.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.root.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Level(toZerologLevel(level))
}

// SetOutput redirects the provider's output, e.g. to a buffer in tests.
func (p *ZerologProvider) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Output(w)
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	appendFields(l.zl.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	appendFields(l.zl.Info(), fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	appendFields(l.zl.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	appendFields(l.zl.Error(), fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fieldKey(fields[i]), fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.zl.GetLevel()
}

// appendFields adds key-value pairs to an event. Values implementing
// zerolog.LogObjectMarshaler keep their structured form; plain errors are
// attached with AnErr. Either way an error value contributes a stacktrace
// attribute when its chain carries one.
func appendFields(ev *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fieldKey(fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
			if err, ok := fields[i+1].(error); ok {
				if st := extractStacktrace(err); st != "" {
					ev = ev.Str(StacktraceKey, st)
				}
			}
		case error:
			ev = ev.AnErr(key, v)
			if st := extractStacktrace(v); st != "" {
				ev = ev.Str(StacktraceKey, st)
			}
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

func fieldKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
