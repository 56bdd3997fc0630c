/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrUnknownStore   = errors.New("unknown store kind")
	ErrMissingDBURL   = errors.New("DATABASE_URL is required for the postgres store")
	ErrInvalidTimeout = errors.New("extraction timeout must be positive")
)

// Config holds every environment-driven setting.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Store       string `env:"BASELINE_STORE" envDefault:"memory"`
	StateFile   string `env:"BASELINE_STATE_FILE" envDefault:"baseline.json"`

	OllamaURL   string `env:"OLLAMA_URL"`
	OllamaModel string `env:"OLLAMA_MODEL"`

	ServiceURL string        `env:"EXTRACTION_SERVICE_URL"`
	Timeout    time.Duration `env:"EXTRACTION_TIMEOUT" envDefault:"8s"`

	Port          int    `env:"PORT" envDefault:"8787"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`
}

// Parse reads the environment without validating it, so callers can
// apply overrides first.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	switch c.Store {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return ErrMissingDBURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// LLMConfigured reports whether a local model is configured.
func (c Config) LLMConfigured() bool {
	return c.OllamaURL != "" && c.OllamaModel != ""
}

// ServiceOrigin is the Origin header sent to the extraction service.
func (c Config) ServiceOrigin() string {
	if c.AllowedOrigin != "" {
		return c.AllowedOrigin
	}

	return fmt.Sprintf("http://localhost:%d", c.Port)
}
