package featuregate

import (
	"io"
	"log/slog"
)

// discardLogger is the default when no logger is injected: evaluation is a
// hot path and must not pay for formatting nobody reads.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
