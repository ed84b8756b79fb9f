package vr

import (
	"log/slog"

	"github.com/gogpu/vr/internal/logging"
)

// SetLogger configures the logger for vr and all its sub-packages.
// By default, vr produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior). Open
// contexts use the new logger from their next record on.
//
// Log levels used by vr:
//   - [slog.LevelDebug]: per-frame diagnostics (invalid HMD pose, drain bound hit)
//   - [slog.LevelInfo]: lifecycle events (context open/close, device connect)
//   - [slog.LevelWarn]: non-fatal issues (submit failure, lens mask fallback, GPU wait timeout)
//
// Example:
//
//	vr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by vr.
// Sub-packages (tracking/, render/) share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Get()
}
