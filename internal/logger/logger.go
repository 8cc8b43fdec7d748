package logger

import (
	"log/slog"
	"os"
)

// NewLogger initializes and returns a structured logger using slog.
// It outputs JSON-formatted logs to stdout, suitable for production.
// Debug mode lowers the level and annotates records with their source
// location; ingestion rejections are logged at debug in that mode too.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: debug,
		Level:     level,
	})
	return slog.New(handler)
}
