package cli

import (
	"io"
	"log/slog"
	"os"
)

// DefaultLogLevel keeps routine store logging quiet; commands report their
// own outcome on stdout and --verbose lowers the level to debug.
const DefaultLogLevel = slog.LevelError

// NewLogger returns a logger writing to w at the given level. Output is
// text when w is a terminal and JSON otherwise, so piped output stays
// machine readable.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && isTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
