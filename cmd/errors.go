/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errFileRequired          = errors.New("a file argument is required")
	errMetricRequired        = errors.New("usage: chart <metric> <out.html>")
	errUnknownMetric         = errors.New("unknown metric")
	errInvalidSex            = errors.New("sex must be M or F")
	errInvalidAge            = errors.New("age must be between 18 and 100")
	errInvalidDate           = errors.New("dates must be YYYY-MM-DD")
	errLLMRequired           = errors.New("OLLAMA_URL and OLLAMA_MODEL are required")
)
