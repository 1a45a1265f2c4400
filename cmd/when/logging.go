package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger builds a logger writing to w at the configured level and format.
func (g *Globals) Logger(w io.Writer) *log.Logger {
	level := log.InfoLevel
	if parsed, err := log.ParseLevel(g.LogLevel); err == nil && g.LogLevel != "" {
		level = parsed
	}
	if g.Debug {
		level = log.DebugLevel
	}

	formatter := log.TextFormatter
	switch g.LogFormat {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}

// StderrLogger is Logger on standard error.
func (g *Globals) StderrLogger() *log.Logger {
	return g.Logger(os.Stderr)
}
