package tinylfu

import (
	"context"
	"log/slog"

	"go.uber.org/atomic"
)

// nopHandler discards every record and reports every level as disabled,
// so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr = atomic.NewPointer(slog.New(nopHandler{}))

// SetLogger configures the logger shared by every [Cache].
// By default nothing is logged; pass nil to restore that.
//
// Levels in use:
//   - [slog.LevelDebug]: maintenance passes and synchronous drains.
//   - [slog.LevelWarn]: panics recovered from removal listeners.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

func logger() *slog.Logger { return loggerPtr.Load() }
