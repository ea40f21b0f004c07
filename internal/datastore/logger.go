package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/logging"
	gormlogger "gorm.io/gorm/logger"
)

var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar)
	loggerCloseFunc   func() error
	loggerOnce        sync.Once
	loggerMu          sync.RWMutex

	// All components write under logs/ so rotation and cleanup can treat the
	// directory as a unit.
	defaultLogPath = "logs/datastore.log"
)

// InitializeLogger initializes the datastore logger with the specified log
// file path. Safe to call multiple times; initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}
		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		datastoreLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		if err != nil {
			// Fall back to the default handler rather than failing Open.
			datastoreLogger = slog.Default().With("service", "datastore")
			loggerCloseFunc = func() error { return nil }
			initErr = errors.Newf("datastore: failed to initialize file logger: %v", err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("log_file", logFilePath).
				Build()
		}
	})

	return initErr
}

// getLogger returns the package logger, initializing it with the default
// path on first use.
func getLogger() *slog.Logger {
	loggerMu.RLock()
	if datastoreLogger != nil {
		defer loggerMu.RUnlock()
		return datastoreLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger(defaultLogPath)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return datastoreLogger
}

// CloseLogger releases the log file handle. Called on shutdown.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}

// GormLogger adapts GORM's logging interface onto the package slog logger.
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

// NewGormLogger returns a GORM logger writing through the datastore logger.
func NewGormLogger(slowThreshold time.Duration, logLevel gormlogger.LogLevel) *GormLogger {
	return &GormLogger{
		SlowThreshold: slowThreshold,
		LogLevel:      logLevel,
	}
}

// LogMode implements logger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info implements logger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Info {
		getLogger().InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn implements logger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Warn {
		getLogger().WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Error implements logger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Error {
		getLogger().ErrorContext(ctx, "GORM error",
			"msg", fmt.Sprintf(msg, data...))
	}
}

// Trace implements logger.Interface. Slow queries and errors are surfaced,
// everything else stays at debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.LogLevel >= gormlogger.Error:
		getLogger().ErrorContext(ctx, "Query failed",
			"error", err,
			"sql", sql,
			"rows", rows,
			"duration_ms", elapsed.Milliseconds())
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn:
		getLogger().WarnContext(ctx, "Slow query",
			"sql", sql,
			"rows", rows,
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", l.SlowThreshold.Milliseconds())
	case l.LogLevel >= gormlogger.Info:
		getLogger().DebugContext(ctx, "Query",
			"sql", sql,
			"rows", rows,
			"duration_ms", elapsed.Milliseconds())
	}
}
