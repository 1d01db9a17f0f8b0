// Package logger provides a structured, JSON slog.Logger for system-wide
// logging, writing to a rotated log file under <logDir>/system.log.
//
// Grounded on the reference app's internal/logger/logger.go (JSON
// slog.Handler over a file in logDir), with the teacher's plain
// os.OpenFile append handle replaced by gopkg.in/natefinch/lumberjack.v2
// so a long-running scheduler process doesn't grow an unbounded log file.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 100
	maxBackups = 5
	maxAgeDays = 28
)

// New creates a JSON slog.Logger that writes to <logDir>/system.log,
// rotating the file per the package-level size/age/backup policy.
func New(logDir string, level slog.Level) (*slog.Logger, error) {
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "system.log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
