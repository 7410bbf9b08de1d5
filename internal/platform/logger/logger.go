package logger

import (
	"log/slog"
	"os"
)

// New returns the process-level structured logger. Services receive it via
// their WithLogger option so tests can swap in a discard handler.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
