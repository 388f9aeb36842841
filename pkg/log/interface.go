// Package log provides structured logging for modelbench operations.
//
// The package defines a minimal, slog-compatible logging interface with a
// zerolog-backed default provider. Domain-specific attribute keys keep log
// output consistent across dataset loading, resampling, tuning, and model
// fitting, while the interface keeps implementations swappable for tests.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("tune.gridsearch").With(
//	    log.RunIDKey, runID,
//	)
//	logger.Info("Grid search started",
//	    log.OperationKey, log.OperationTune,
//	    log.CandidatesKey, 12,
//	    log.FoldsKey, 10,
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// The interface provides leveled logging with key-value fields and supports
// contextual loggers through With. Implementations must be safe for
// concurrent use; tuning runs log from multiple goroutines.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	//
	// Example:
	//
	//	logger.Debug("Evaluating fold",
	//	    log.FoldIndexKey, 3,
	//	    log.CandidateIDKey, 7,
	//	)
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If a field value is an error, implementations include it under its key
	// and may attach stack trace information extracted from the error chain.
	//
	// Example:
	//
	//	logger.Error("Model training failed",
	//	    "error", err,
	//	    log.OperationKey, log.OperationFit,
	//	    log.SamplesKey, 1000,
	//	)
	Error(msg string, fields ...any)

	// With returns a new Logger that includes the given fields in every
	// subsequent log record.
	//
	// Example:
	//
	//	contextLogger := logger.With(
	//	    log.ModelNameKey, "KNNRegressor",
	//	    log.EstimatorIDKey, "knn-001",
	//	)
	//	contextLogger.Info("Starting training")
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to avoid building expensive fields that would be discarded.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. The indirection allows
// dependency injection and capturing output in tests.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers from this provider.
	SetLevel(level Level)
}
