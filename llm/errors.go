/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package llm

import "errors"

var (
	ErrNotConfigured      = errors.New("llm configuration incomplete: OLLAMA_URL and OLLAMA_MODEL must be set")
	ErrEmptyResponse      = errors.New("llm returned no choices")
	ErrNoJSONObject       = errors.New("llm response contains no JSON object")
	ErrUnexpectedStatus   = errors.New("llm returned unexpected status")
	ErrUpstreamModelError = errors.New("llm reported an error")
)
