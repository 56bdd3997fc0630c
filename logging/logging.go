/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import (
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceExtract    = "extract"
	SourceScore      = "score"
	SourceStore      = "store"
	SourceLLM        = "llm"
	SourceIntake     = "intake"
	SourceWeb        = "web"
	SourceWebRequest = "web_request"
)

var (
	initOnce   sync.Once
	baseLogger *log.Logger
	output     io.Writer = os.Stderr
)

// Init configures the base logger and stdlib log output.
//
// Logs go to stderr so command output on stdout stays machine readable.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(output, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           levelFromEnv(),
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdLogger := baseLogger.With("source", SourceApp).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})

		stdlog.SetFlags(0)
		stdlog.SetOutput(stdLogger.Writer())
	})
}

func levelFromEnv() log.Level {
	raw := os.Getenv("BASELINE_LOG_LEVEL")
	if raw == "" {
		return log.InfoLevel
	}

	level, err := log.ParseLevel(raw)
	if err != nil {
		return log.InfoLevel
	}

	return level
}

// Logger returns a logfmt logger tagged with the provided source.
func Logger(source string) *log.Logger {
	Init()
	return baseLogger.With("source", source)
}

// StdLogger returns a stdlib logger that writes logfmt output with a source.
func StdLogger(source string) *stdlog.Logger {
	Init()
	return baseLogger.With("source", source).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}
