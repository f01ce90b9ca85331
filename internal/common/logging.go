// Package common provides logging and version helpers shared by the splashcheck binaries.
package common

import (
	"os"
	"sort"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

const logTimeFormat = "2006-01-02T15:04:05Z07:00"

// LoggingConfig holds logging configuration. Outputs may name "console"
// (stderr) and "file"; the in-memory run log is always kept.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// Logger is the arbor logger used across splashcheck. Entries logged through
// a WithRunID logger can be read back with RunLog.
type Logger struct {
	arbor.ILogger
}

// NewLoggerFromConfig builds a logger from cfg. Console output goes to
// stderr because stdout carries the capture report.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console"}
	}

	l := arbor.NewLogger()
	for _, out := range outputs {
		switch out {
		case "console":
			l = l.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				Writer:     os.Stderr,
				TimeFormat: logTimeFormat,
			})
		case "file":
			l = l.WithFileWriter(fileWriterConfig(cfg))
		}
	}
	l = l.WithMemoryWriter(models.WriterConfiguration{
		Type: models.LogWriterTypeMemory,
	}).WithLevelFromString(level)

	return &Logger{ILogger: l}
}

func fileWriterConfig(cfg LoggingConfig) models.WriterConfiguration {
	path := cfg.FilePath
	if path == "" {
		path = "logs/splashcheck.log"
	}
	maxSize := int64(cfg.MaxSizeMB) * 1024 * 1024
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	backups := cfg.MaxBackups
	if backups <= 0 {
		backups = 3
	}
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   path,
		MaxSize:    maxSize,
		MaxBackups: backups,
		TimeFormat: logTimeFormat,
	}
}

// silentWriter drops every entry, including those bound for the memory log.
type silentWriter struct{}

func (w *silentWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w *silentWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *silentWriter) GetFilePath() string                   { return "" }
func (w *silentWriter) Close() error                          { return nil }

// NewSilentLogger creates a logger that discards all output. Used when a
// caller passes no logger.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{&silentWriter{}})}
}

// WithRunID returns a logger whose entries are tagged with a capture run id.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

// RunLog returns the formatted entries logged for runID, oldest first.
// The memory writer is asynchronous, so entries logged in the last few
// milliseconds may not be included yet.
func (l *Logger) RunLog(runID string) []string {
	entries, err := l.GetMemoryLogsForCorrelation(runID)
	if err != nil || len(entries) == 0 {
		return nil
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, entries[k])
	}
	return lines
}
