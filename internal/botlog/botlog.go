// Package botlog owns the line-oriented activity log.
//
// The file is a wire contract, not incidental text: an external scraper
// derives counters from it by substring and regex match. Lines look like
//
//	[2025-03-10T09:00:00.000Z] Arbitrage executed successfully
//
// and the scraper-relevant messages are:
//
//	"Arbitrage opportunity found"
//	"Arbitrage executed successfully"
//	"Error in monitoring loop"
//	"Net profit: ([\d.]+) ETH"
//
// Changing any of these strings breaks downstream dashboards.
package botlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Logger appends timestamped lines to the activity log file.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	now func() time.Time
}

// Open opens (or creates) the log file at path, creating parent directories
// as needed.
func Open(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{f: f, now: time.Now}, nil
}

// Printf appends one formatted line with a UTC timestamp prefix.
func (l *Logger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("[%s] %s\n", l.now().UTC().Format(timestampLayout), msg)
	if _, err := l.f.WriteString(line); err != nil {
		log.Error().Err(err).Msg("Failed to append to activity log")
	}
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
