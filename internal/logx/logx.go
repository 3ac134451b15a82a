// Package logx configures the process-wide charmbracelet logger.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Setup sets the level and output of the default logger. An empty level
// means info.
func Setup(level string, w io.Writer) error {
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w != nil {
		log.SetOutput(w)
	}
	log.SetLevel(lvl)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.DateTime)
	return nil
}

// ToFile redirects the default logger to an append-only file at path so
// interactive output stays clean. The returned function closes the file.
func ToFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}
