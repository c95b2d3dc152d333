// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package triad

import (
	"log/slog"

	"github.com/gogpu/triad/internal/logging"
)

// SetLogger configures the logger for triad and all its sub-packages.
// By default, triad produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by triad:
//   - [slog.LevelDebug]: per-frame diagnostics (buffer uploads, close causes)
//   - [slog.LevelInfo]: lifecycle events (stage started, stopped)
//   - [slog.LevelWarn]: non-fatal issues (dropped input, stale render keys)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	triad.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	triad.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by triad.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
