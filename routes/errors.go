/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errMissingTranscript = errors.New("transcript required")
	errMissingText       = errors.New("text required")
	errNotFound          = errors.New("not found")
	errInternal          = errors.New("internal error")
	errUnknownMetric     = errors.New("unknown metric")
	errInvalidSince      = errors.New("since must be YYYY-MM-DD")
	errInvalidBody       = errors.New("invalid request body")
	errBodyTooLarge      = errors.New("request body too large")
)
