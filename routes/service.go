/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package routes serves the extraction service and the report endpoints.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/extract"
	"github.com/humaidq/baseline/intake"
	"github.com/humaidq/baseline/score"
)

// Endpoint names, also used as extraction log prefixes.
const (
	EndpointVoice = "parse-voice"
	EndpointLab   = "parse-lab"
)

var serviceEndpoints = []string{"/" + EndpointVoice, "/" + EndpointLab}

// Deps is mapped into every request.
type Deps struct {
	// Extractor backs the parse endpoints. When nil the deterministic
	// extractors answer instead.
	Extractor intake.Extractor
	// Store holds the extraction log and the profile behind /report. It
	// may be nil, in which case nothing is logged and /report is 404.
	Store         db.Store
	AllowedOrigin string
	Engine        *score.Engine
	Now           func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now()
}

// NewApp builds the HTTP handler.
func NewApp(deps *Deps) *flamego.Flame {
	if deps.Engine == nil {
		deps.Engine = score.DefaultEngine()
	}

	f := flamego.New()
	f.Map(deps)
	f.Use(flamego.Recovery())
	f.Use(RequestLogger)
	f.Use(CORS)

	f.Get("/", Health)
	f.Get("/health", Health)

	f.Group("", func() {
		f.Post("/"+EndpointVoice, ParseVoice)
		f.Post("/"+EndpointLab, ParseLab)
	}, CheckOrigin)

	for _, path := range serviceEndpoints {
		f.Get(path, MethodNotAllowed)
		f.Put(path, MethodNotAllowed)
		f.Patch(path, MethodNotAllowed)
		f.Delete(path, MethodNotAllowed)
	}

	f.Group("", func() {
		f.Get("/report", Report)
		f.Get("/report/chart/{metric}", ReportChart)
		f.Get("/extractions", Extractions)
	}, NoCacheHeaders())

	f.NotFound(notFound(deps))

	return f
}

type healthResponse struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

type extractionResponse struct {
	Extracted  any   `json:"extracted"`
	DurationMS int64 `json:"duration_ms"`
}

// Health reports that the service is up.
func Health(c flamego.Context) {
	writeJSON(c, http.StatusOK, healthResponse{Status: "ok", Endpoints: serviceEndpoints})
}

// MethodNotAllowed answers non-POST requests to the parse endpoints.
func MethodNotAllowed(c flamego.Context) {
	writeText(c, http.StatusMethodNotAllowed, "Method not allowed")
}

// ParseVoice extracts structured fields from a transcript.
func ParseVoice(c flamego.Context, deps *Deps) {
	var request struct {
		Transcript string `json:"transcript"`
	}

	if !decodeBody(c, &request) {
		return
	}

	if request.Transcript == "" {
		writeError(c, http.StatusBadRequest, errMissingTranscript)
		return
	}

	ctx := c.Request().Context()
	start := time.Now()

	var extracted extract.ServiceVoice
	if deps.Extractor == nil {
		extracted = extract.ExtractVoiceIntake(request.Transcript).ToServiceVoice()
	} else {
		var err error
		extracted, err = deps.Extractor.ParseVoice(ctx, request.Transcript)
		if err != nil {
			logger.Error("Voice extraction failed", "error", err)
			writeError(c, http.StatusInternalServerError, errInternal)

			return
		}
	}

	duration := time.Since(start)
	deps.logExtraction(ctx, EndpointVoice, request.Transcript, extracted, duration)

	writeJSON(c, http.StatusOK, extractionResponse{Extracted: extracted, DurationMS: duration.Milliseconds()})
}

// ParseLab extracts biomarkers from lab report text.
func ParseLab(c flamego.Context, deps *Deps) {
	var request struct {
		Text       string `json:"text"`
		FormatHint string `json:"format_hint"`
	}

	if !decodeBody(c, &request) {
		return
	}

	if request.Text == "" {
		writeError(c, http.StatusBadRequest, errMissingText)
		return
	}

	ctx := c.Request().Context()
	start := time.Now()

	var extracted extract.ServiceLab
	if deps.Extractor == nil {
		extracted = extract.ParseLabReport(request.Text).ToServiceLab()
	} else {
		var err error
		extracted, err = deps.Extractor.ParseLab(ctx, request.Text, request.FormatHint)
		if err != nil {
			logger.Error("Lab extraction failed", "error", err)
			writeError(c, http.StatusInternalServerError, errInternal)

			return
		}
	}

	duration := time.Since(start)
	deps.logExtraction(ctx, EndpointLab, request.Text, extracted, duration)

	writeJSON(c, http.StatusOK, extractionResponse{Extracted: extracted, DurationMS: duration.Milliseconds()})
}

// Extractions lists the unexpired extraction log, newest first.
func Extractions(c flamego.Context, deps *Deps) {
	if deps.Store == nil {
		writeError(c, http.StatusNotFound, errNotFound)
		return
	}

	entries, err := deps.Store.Extractions(c.Request().Context(), deps.now())
	if err != nil {
		logger.Error("Failed to list extractions", "error", err)
		writeError(c, http.StatusInternalServerError, errInternal)

		return
	}

	if entries == nil {
		entries = []db.ExtractionLogEntry{}
	}

	writeJSON(c, http.StatusOK, entries)
}

func (d *Deps) logExtraction(ctx context.Context, endpoint, input string, output any, duration time.Duration) {
	if d.Store == nil {
		return
	}

	entry, err := db.NewExtractionLogEntry(endpoint, input, output, duration, d.now())
	if err != nil {
		logger.Warn("Failed to build extraction log entry", "endpoint", endpoint, "error", err)
		return
	}

	if err := d.Store.LogExtraction(ctx, entry); err != nil {
		logger.Warn("Failed to log extraction", "endpoint", endpoint, "error", err)
		return
	}

	logger.Debug("Logged extraction", "id", entry.ID, "duration_ms", entry.DurationMS)
}

// notFound mirrors the extraction service's fallthrough: preflight for
// any path, 405 for non-POST methods and 404 otherwise.
func notFound(deps *Deps) flamego.Handler {
	return func(c flamego.Context) {
		setCORSHeaders(c, deps.AllowedOrigin)

		switch c.Request().Method {
		case http.MethodOptions:
			c.ResponseWriter().WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			writeError(c, http.StatusNotFound, errNotFound)
		default:
			writeText(c, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// maxBodyBytes bounds a parse request body.
const maxBodyBytes = 1 << 20

func decodeBody(c flamego.Context, v any) bool {
	body := http.MaxBytesReader(c.ResponseWriter(), c.Request().Request.Body, maxBodyBytes)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, errBodyTooLarge)
			return false
		}

		writeError(c, http.StatusBadRequest, errInvalidBody)

		return false
	}

	return true
}

func writeJSON(c flamego.Context, status int, v any) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(c flamego.Context, status int, err error) {
	writeJSON(c, status, map[string]string{"error": err.Error()})
}

func writeText(c flamego.Context, status int, body string) {
	c.ResponseWriter().Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.ResponseWriter().WriteHeader(status)
	_, _ = c.ResponseWriter().Write([]byte(body))
}
