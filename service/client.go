/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package service is a client for a remote extraction service exposing
// /health, /parse-voice and /parse-lab.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/humaidq/baseline/extract"
	"github.com/humaidq/baseline/logging"
)

var logger = logging.Logger(logging.SourceIntake)

var (
	ErrNoBaseURL        = errors.New("extraction service url is not set")
	ErrUnexpectedStatus = errors.New("extraction service returned unexpected status")
)

// Client calls a remote extraction service.
type Client struct {
	baseURL    string
	origin     string
	httpClient *http.Client
}

// NewClient returns a client for the service at baseURL. origin is sent
// as the Origin header, which the service checks on POST requests.
func NewClient(baseURL, origin string) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		origin:  origin,
		// Callers bound each call with a context deadline.
		httpClient: &http.Client{},
	}, nil
}

// Health is the service's health response.
type Health struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

type voiceRequest struct {
	Transcript string `json:"transcript"`
}

type labRequest struct {
	Text       string `json:"text"`
	FormatHint string `json:"format_hint,omitempty"`
}

type voiceResponse struct {
	Extracted  extract.ServiceVoice `json:"extracted"`
	DurationMS int64                `json:"duration_ms"`
}

type labResponse struct {
	Extracted  extract.ServiceLab `json:"extracted"`
	DurationMS int64              `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("failed to create request: %w", err)
	}

	var h Health
	if err := c.do(req, &h); err != nil {
		return Health{}, err
	}

	return h, nil
}

// ParseVoice sends a transcript for extraction.
func (c *Client) ParseVoice(ctx context.Context, transcript string) (extract.ServiceVoice, error) {
	var resp voiceResponse
	if err := c.post(ctx, "/parse-voice", voiceRequest{Transcript: transcript}, &resp); err != nil {
		return extract.ServiceVoice{}, err
	}

	logger.Debug("Service parsed transcript", "duration_ms", resp.DurationMS)

	return resp.Extracted, nil
}

// ParseLab sends lab report text for extraction.
func (c *Client) ParseLab(ctx context.Context, text, formatHint string) (extract.ServiceLab, error) {
	var resp labResponse
	if err := c.post(ctx, "/parse-lab", labRequest{Text: text, FormatHint: formatHint}, &resp); err != nil {
		return extract.ServiceLab{}, err
	}

	logger.Debug("Service parsed lab text", "duration_ms", resp.DurationMS, "biomarkers", len(resp.Extracted.Biomarkers))

	return resp.Extracted, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, e.Error)
		}

		return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	logger.Debug("Extraction service call finished", "path", req.URL.Path, "duration", time.Since(start))

	return nil
}
