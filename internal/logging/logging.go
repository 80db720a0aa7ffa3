// Package logging builds the logrus loggers used across lazycrm.
//
// Loggers are injected, never global. Each component scopes the entry it
// receives once at construction with a "component" field, and falls back
// to a discard entry when none is given. Only main configures output.
//
// The TUI owns the terminal, so interactive runs log to a rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger output
type Config struct {
	Level  string
	Format string
	// File is the log path; empty writes to stderr
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

const timestampFormat = "2006-01-02 15:04:05.000"

// New creates a root entry from cfg. The returned closer releases the log file.
func New(cfg Config) (*logrus.Entry, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
			DisableColors:   cfg.File != "",
		})
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		w := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		logger.SetOutput(w)
		closer = w
	} else {
		logger.SetOutput(os.Stderr)
	}

	return logrus.NewEntry(logger), closer, nil
}

// Discard returns an entry that drops everything
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

// Default returns entry if non-nil, otherwise a discard entry
func Default(entry *logrus.Entry) *logrus.Entry {
	if entry != nil {
		return entry
	}
	return Discard()
}

// Component scopes entry to a named component
func Component(entry *logrus.Entry, name string) *logrus.Entry {
	return Default(entry).WithField("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
