// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerInitializers(t *testing.T) {
	t.Parallel()

	Init()
	if l := Logger(SourceExtract); l == nil {
		t.Fatal("Logger returned nil")
	}
	if l := StdLogger(SourceWeb); l == nil {
		t.Fatal("StdLogger returned nil")
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		raw  string
		want log.Level
	}{
		{raw: "", want: log.InfoLevel},
		{raw: "debug", want: log.DebugLevel},
		{raw: "warn", want: log.WarnLevel},
		{raw: "loud", want: log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("BASELINE_LOG_LEVEL", tt.raw)
			if got := levelFromEnv(); got != tt.want {
				t.Fatalf("levelFromEnv(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
