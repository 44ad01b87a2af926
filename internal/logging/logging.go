package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// levels is the fixed table of accepted level names. CRITICAL shares the
// error level; critical entries carry severity=critical instead.
var levels = map[string]log.Level{
	"DEBUG":    log.DebugLevel,
	"INFO":     log.InfoLevel,
	"WARN":     log.WarnLevel,
	"WARNING":  log.WarnLevel,
	"ERROR":    log.ErrorLevel,
	"CRITICAL": log.ErrorLevel,
}

// ParseLevel maps a level name to a log level. Unknown names are an error.
func ParseLevel(name string) (log.Level, error) {
	lvl, ok := levels[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown logging level %q", name)
	}
	return lvl, nil
}

// Open returns the writer for a logging destination. "/dev/stdout" and
// "/dev/stderr" map to the process streams; anything else is appended to.
func Open(dest string) (io.WriteCloser, error) {
	switch dest {
	case "", "/dev/stdout":
		return nopCloser{os.Stdout}, nil
	case "/dev/stderr":
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// New builds a logger writing to w at the named level.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Prefix:          "steadyudp",
	}), nil
}

// Critical logs msg at error level tagged as critical.
func Critical(l *log.Logger, msg string, keyvals ...interface{}) {
	l.Error(msg, append(keyvals, "severity", "critical")...)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
