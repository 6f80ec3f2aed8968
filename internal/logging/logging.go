// Package logging builds the application logger. The terminal belongs to
// the TUI, so logs go to a rotating file instead of stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// DefaultPath returns the default log file location,
// $XDG_STATE_HOME/deckforge/deckforge.log or the home equivalent.
func DefaultPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "deckforge.log"
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "deckforge", "deckforge.log")
}

// New creates a logger writing JSON lines to path at the given level
// (debug, info, warn, error). The file is rotated at 10 MB with a few
// compressed backups kept around.
func New(path, level string) (*zap.Logger, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(lvl))

	return zap.New(core, zap.AddCaller()), nil
}
