// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/humaidq/baseline/logging"
)

// Swaps the package logger, so it must not run in parallel.
func TestImportLogKeepsSourceTag(t *testing.T) {
	var buf bytes.Buffer

	prev := logger
	logger = log.NewWithOptions(&buf, log.Options{Formatter: log.LogfmtFormatter}).With("source", logging.SourceIntake)
	defer func() { logger = prev }()

	p := NewPipeline(newStore(t))
	if _, _, err := p.ImportVoice(context.Background(), voiceText); err != nil {
		t.Fatalf("ImportVoice returned error: %v", err)
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "Imported observations") {
			line = l
		}
	}

	if line == "" {
		t.Fatalf("expected import log line, got %q", buf.String())
	}

	if n := strings.Count(line, " source="); n != 1 || !strings.Contains(line, "source=intake") {
		t.Fatalf("expected a single source=intake key, got %q", line)
	}

	if !strings.Contains(line, "source_type=voice") {
		t.Fatalf("expected source_type=voice, got %q", line)
	}
}
