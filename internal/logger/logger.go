// Package logger holds the process-wide slog logger used by hivectl.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// L is the global logger instance. It discards all output until Init
// enables it.
var L = discard()

const (
	logPrefix     = "hivetrace-"
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	LogDir  string     // Directory for dated log files. Empty logs to Output
	Level   slog.Level // Minimum level
	JSON    bool       // JSON records instead of key=value text

	// Output receives records when LogDir is empty. Default: os.Stderr.
	Output io.Writer
	// Fs holds LogDir. Default: the OS filesystem.
	Fs afero.Fs
	// Now stamps the log file name. Default: time.Now.
	Now func() time.Time
}

var current afero.File

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) error {
	if err := Close(); err != nil {
		return err
	}
	if !opts.Enabled {
		L = discard()
		return nil
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.LogDir != "" {
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		if err := fs.MkdirAll(opts.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}

		cleanOldLogs(fs, opts.LogDir, now())

		filename := filepath.Join(opts.LogDir, FileName(now()))
		f, err := fs.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		current = f
		out = f
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(out, hopts))
	} else {
		L = slog.New(slog.NewTextHandler(out, hopts))
	}
	return nil
}

// Close releases the log file opened by Init, if any, and resets L to
// discard.
func Close() error {
	L = discard()
	if current == nil {
		return nil
	}
	err := current.Close()
	current = nil
	return err
}

// FileName returns the log file name used for the given day.
func FileName(t time.Time) string {
	return logPrefix + t.Format(dateLayout) + logSuffix
}

// ParseLevel accepts debug, info, warn and error, case-insensitively.
// Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(fs afero.Fs, logDir string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := afero.ReadDir(fs, logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// hivetrace-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			_ = fs.Remove(filepath.Join(logDir, name))
		}
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
