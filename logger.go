package vdiff

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/vdiff/engine"
	"github.com/gogpu/vdiff/scheduler"
	"github.com/gogpu/vdiff/shader"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for vdiff and all its sub-packages.
// By default, vdiff produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by vdiff:
//   - [slog.LevelDebug]: pipeline state, compile cache hits, texture uploads
//   - [slog.LevelInfo]: lifecycle events (engine ready, device opened)
//   - [slog.LevelWarn]: a mode failed and the passthrough fallback is shown
//   - [slog.LevelError]: the fallback failed too, nothing can be rendered
//
// Example:
//
//	vdiff.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	engine.SetLogger(l)
	shader.SetLogger(l)
	scheduler.SetLogger(l)
}

// Logger returns the current logger used by vdiff.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
