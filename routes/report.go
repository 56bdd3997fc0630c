/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/chart"
	"github.com/humaidq/baseline/profile"
)

// Report returns the time-series coverage report for the stored profile.
func Report(c flamego.Context, deps *Deps) {
	if deps.Store == nil {
		writeError(c, http.StatusNotFound, errNotFound)
		return
	}

	p, err := profile.Load(c.Request().Context(), deps.Store)
	if err != nil {
		logger.Error("Failed to load profile", "error", err)
		writeError(c, http.StatusInternalServerError, errInternal)

		return
	}

	writeJSON(c, http.StatusOK, p.Report(deps.Engine, deps.now()))
}

// ReportChart renders one metric's history as an HTML chart.
func ReportChart(c flamego.Context, deps *Deps) {
	if deps.Store == nil {
		writeError(c, http.StatusNotFound, errNotFound)
		return
	}

	metric, ok := biomarker.ParseMetric(c.Param("metric"))
	if !ok {
		writeError(c, http.StatusNotFound, errUnknownMetric)
		return
	}

	ctx := c.Request().Context()

	obs, err := deps.Store.All(ctx, metric)
	if err != nil {
		logger.Error("Failed to load observations", "metric", metric, "error", err)
		writeError(c, http.StatusInternalServerError, errInternal)

		return
	}

	demo, err := deps.Store.Demographics(ctx)
	if err != nil {
		logger.Error("Failed to load demographics", "error", err)
		writeError(c, http.StatusInternalServerError, errInternal)

		return
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, errInvalidSince)
			return
		}

		obs = chart.Since(obs, since)
	}

	html, err := chart.Trend(metric, obs, demo)
	if errors.Is(err, chart.ErrNoData) {
		writeError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		logger.Error("Failed to render chart", "metric", metric, "error", err)
		writeError(c, http.StatusInternalServerError, errInternal)

		return
	}

	c.ResponseWriter().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.ResponseWriter().WriteHeader(http.StatusOK)
	_, _ = c.ResponseWriter().Write([]byte(html))
}
