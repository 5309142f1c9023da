package cfg

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger: text on stderr and, when logFile is
// set, JSON lines appended to that file. The returned func closes the file.
func SetupLogger(logFile string, debug bool) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if logFile == "" {
		return slog.New(stderrHandler), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("Failed to open log file, using stderr only", "file", logFile, "error", err)
		return slog.New(stderrHandler), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})

	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler)), file.Close
}

// SetupLoggerWithWriters is SetupLogger with explicit sinks.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
