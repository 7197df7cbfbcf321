package togglestore

import (
	"io"
	"log/slog"
)

// discardLogger is the default when no logger is injected, matching the
// engine's default.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
