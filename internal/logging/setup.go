package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewServerLogger writes JSON records to w.
func NewServerLogger(w io.Writer, level slog.Level) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// ClientOptions controls where the client writes its log.
type ClientOptions struct {
	Dir   string
	Debug bool
}

// NewClientLogger logs through charmbracelet/log into a rotating file under
// opts.Dir. In debug mode records are mirrored to stderr.
func NewClientLogger(opts ClientOptions) (*SlogLogger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, err
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "weekplanner.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var w io.Writer = file
	level := charmlog.InfoLevel
	if opts.Debug {
		w = io.MultiWriter(os.Stderr, file)
		level = charmlog.DebugLevel
	}

	h := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		ReportCaller:    opts.Debug,
		Level:           level,
		Prefix:          "weekplanner",
	})

	return NewSlogLogger(slog.New(h)), file, nil
}

// Discard is a logger that drops everything. Tests use it.
func Discard() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
