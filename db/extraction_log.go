/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// ExtractionLogTTL is how long extraction log entries are kept.
	ExtractionLogTTL = 30 * 24 * time.Hour

	maxLoggedInput = 2000
)

// ExtractionLogEntry records one call to the extraction service.
type ExtractionLogEntry struct {
	ID         string          `json:"id"`
	Endpoint   string          `json:"endpoint"`
	Input      string          `json:"input"`
	Output     json.RawMessage `json:"output"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"timestamp"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// NewExtractionLogEntry builds a log entry with an id of the form
// <endpoint>/<unix millis>-<8 hex chars>. Input is capped at 2000
// characters.
func NewExtractionLogEntry(endpoint, input string, output any, duration time.Duration, now time.Time) (ExtractionLogEntry, error) {
	raw, err := json.Marshal(output)
	if err != nil {
		return ExtractionLogEntry{}, fmt.Errorf("failed to encode extraction output: %w", err)
	}

	if runes := []rune(input); len(runes) > maxLoggedInput {
		input = string(runes[:maxLoggedInput])
	}

	return ExtractionLogEntry{
		ID:         endpoint + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8],
		Endpoint:   endpoint,
		Input:      input,
		Output:     raw,
		DurationMS: duration.Milliseconds(),
		Timestamp:  now.UTC(),
		ExpiresAt:  now.UTC().Add(ExtractionLogTTL),
	}, nil
}
