// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "BASELINE_STORE", "BASELINE_STATE_FILE", "EXTRACTION_TIMEOUT", "PORT", "ALLOWED_ORIGIN", "OLLAMA_URL", "OLLAMA_MODEL"} {
		// Setenv restores the original value after the test.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Store != "memory" || cfg.StateFile != "baseline.json" || cfg.Timeout != 8*time.Second || cfg.Port != 8787 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	if cfg.LLMConfigured() {
		t.Fatal("expected no llm configured")
	}

	if got := cfg.ServiceOrigin(); got != "http://localhost:8787" {
		t.Fatalf("unexpected origin %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BASELINE_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/baseline")
	t.Setenv("EXTRACTION_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGIN", "https://baseline.example")
	t.Setenv("OLLAMA_URL", "http://localhost:11434")
	t.Setenv("OLLAMA_MODEL", "qwen2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Timeout != 3*time.Second || !cfg.LLMConfigured() || cfg.ServiceOrigin() != "https://baseline.example" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "memory", cfg: Config{Store: "memory", Timeout: time.Second}},
		{name: "postgres without url", cfg: Config{Store: "postgres", Timeout: time.Second}, want: ErrMissingDBURL},
		{name: "unknown store", cfg: Config{Store: "sqlite", Timeout: time.Second}, want: ErrUnknownStore},
		{name: "zero timeout", cfg: Config{Store: "memory"}, want: ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}

			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
