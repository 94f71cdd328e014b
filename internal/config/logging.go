package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LogLevelOff disables logging entirely. Every other level name is
// parsed by logrus (error, warn, info, debug, trace).
const LogLevelOff = "off"

// ParseLogLevel maps a configured level string onto a logrus level.
// Unknown values fall back to error, matching the default config.
func ParseLogLevel(s string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.ErrorLevel
	}
	return level
}

// SetupLogging configures the global logger from the logging section.
// Log output goes to the configured file when one is set, otherwise to
// stderr so command output on stdout stays clean. The returned closer
// owns the log file; callers close it on shutdown.
func SetupLogging(cfg LoggingConfig) (io.Closer, error) {
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level == LogLevelOff || level == "none" {
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	}

	log.SetLevel(ParseLogLevel(level))

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	path, err := ExpandPath(cfg.File)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	log.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
