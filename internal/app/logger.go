package app

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the structured logger shared by the engine, the socket.io
// server and the console. The serve and console commands get it through
// NewApp; check and watch call it directly with the command-line level and
// format. Components derive their own loggers with With, e.g. the server
// tags every line with the client id.
//
// level accepts any name slog understands ("debug", "INFO", "warn+2");
// anything else logs at info. format "json" selects JSON lines, everything
// else the text handler.
func NewLogger(level, format string, outW io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
