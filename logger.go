package match

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger allows setting a custom logger.
// It should be called before any book is created; a nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	logger = l
}

// bookLogger tags records with the market and the book instance.
func bookLogger(symbol string, bookID string) *slog.Logger {
	return logger.With("symbol", symbol, "book_id", bookID)
}
