// Package logger configures the process-wide logr logger backed by zap and
// carries it through contexts.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oakwood-commons/jsonlv/pkg/settings"
)

type loggerContextKey struct{}

// Field names attached to every entry or to ingestion-scoped loggers.
const (
	TimeStampKey   = "timestamp"
	MessageKey     = "message"
	VersionKey     = "version"
	CommitKey      = "commit"
	IngestionIDKey = "ingestion_id"
	SourceKey      = "source"
)

var (
	mu        sync.Mutex
	zapLogger *zap.Logger
	global    *logr.Logger
	discard   = logr.Discard()

	// output is where log entries go. Tests swap it.
	output io.Writer = os.Stderr
)

// Get builds the global logger on first use at the given zap level and
// returns it. Later calls return the same logger regardless of level.
func Get(level int8) *logr.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return global
	}
	zapLogger = build(output, zapcore.Level(level))
	l := zapr.NewLogger(zapLogger)
	global = &l
	return global
}

func build(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.TimeKey = TimeStampKey
	enc.MessageKey = MessageKey

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	).With([]zapcore.Field{
		zap.String(VersionKey, settings.VersionInformation.BuildVersion),
		zap.String(CommitKey, settings.VersionInformation.Commit),
	})
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// Global returns the configured logger, or a discarding one before Get.
func Global() *logr.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return global
	}
	return &discard
}

// Discard returns a logger that drops everything.
func Discard() *logr.Logger {
	return &discard
}

// WithLogger attaches log to ctx.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if cur, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && cur == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger attached to ctx, falling back to Global.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	return Global()
}

// ForIngestion derives a logger tagged with a fresh ingestion id and the
// source name. The id is returned so callers can report it.
func ForIngestion(log logr.Logger, source string) (logr.Logger, string) {
	id := uuid.NewString()
	return log.WithValues(IngestionIDKey, id, SourceKey, source), id
}

// Sync flushes buffered entries.
func Sync() {
	mu.Lock()
	z := zapLogger
	mu.Unlock()
	if z == nil {
		return
	}
	if err := z.Sync(); err != nil && !ignorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
	}
}

// ignorableSyncError reports errors that syncing a terminal or pipe returns
// on most platforms.
func ignorableSyncError(err error) bool {
	for _, errno := range []error{syscall.ENOTTY, syscall.EINVAL, syscall.EIO, syscall.EBADF} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

// reset clears the global logger. Used by tests.
func reset(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	zapLogger = nil
	global = nil
	output = w
}
