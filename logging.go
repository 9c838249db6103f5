package atoms

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger fans records out to every non-nil handler. With no handlers the
// logger discards everything.
func NewLogger(handlers ...slog.Handler) *slog.Logger {
	live := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	if len(live) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(live) == 1 {
		return slog.New(live[0])
	}
	return slog.New(slogmulti.Fanout(live...))
}
