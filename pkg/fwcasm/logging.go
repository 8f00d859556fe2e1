package fwcasm

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the assembler's run logger: a text handler on console
// (warnings and up unless verbose), optionally fanned out to a JSON trace
// stream carrying debug-level detail for every pass and fusion.
func NewLogger(console io.Writer, trace io.Writer, verbose bool) *slog.Logger {
	consoleLevel := slog.LevelWarn
	if verbose {
		consoleLevel = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel}),
	}
	if trace != nil {
		handlers = append(handlers,
			slog.NewJSONHandler(trace, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return slog.New(slogmulti.Fanout(handlers...))
}
