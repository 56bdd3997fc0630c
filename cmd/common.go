/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package cmd holds the baseline CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/baseline/config"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/intake"
	"github.com/humaidq/baseline/llm"
	"github.com/humaidq/baseline/service"
)

// GlobalFlags override the environment for every command.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "store",
		Usage: "observation store: memory or postgres (BASELINE_STORE)",
	},
	&cli.StringFlag{
		Name:  "state-file",
		Usage: "JSON file backing the memory store (BASELINE_STATE_FILE)",
	},
	&cli.StringFlag{
		Name:  "database-url",
		Usage: "PostgreSQL connection string (DATABASE_URL)",
	},
	&cli.StringFlag{
		Name:  "service-url",
		Usage: "remote extraction service (EXTRACTION_SERVICE_URL)",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "extraction service timeout (EXTRACTION_TIMEOUT)",
	},
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}

	if cmd.IsSet("store") {
		cfg.Store = cmd.String("store")
	}
	if cmd.IsSet("state-file") {
		cfg.StateFile = cmd.String("state-file")
	}
	if cmd.IsSet("database-url") {
		cfg.DatabaseURL = cmd.String("database-url")
	}
	if cmd.IsSet("service-url") {
		cfg.ServiceURL = cmd.String("service-url")
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (db.Store, func(), error) {
	store, closeStore, err := db.Open(ctx, db.Options{
		Kind:        cfg.Store,
		DatabaseURL: cfg.DatabaseURL,
		StateFile:   cfg.StateFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	return store, closeStore, nil
}

// newExtractor prefers the remote service over a local model. It returns
// nil when neither is configured.
func newExtractor(cfg config.Config) (intake.Extractor, error) {
	switch {
	case cfg.ServiceURL != "":
		c, err := service.NewClient(cfg.ServiceURL, cfg.ServiceOrigin())
		if err != nil {
			return nil, err
		}

		return c, nil
	case cfg.LLMConfigured():
		c, err := llm.NewClient(llm.Config{URL: cfg.OllamaURL, Model: cfg.OllamaModel})
		if err != nil {
			return nil, err
		}

		return c, nil
	default:
		return nil, nil
	}
}

// withPipeline opens the configured store and runs fn with an ingestion
// pipeline over it.
func withPipeline(ctx context.Context, cmd *cli.Command, fn func(*intake.Pipeline, db.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	extractor, err := newExtractor(cfg)
	if err != nil {
		return err
	}

	p := intake.NewPipeline(store, intake.WithExtractor(extractor), intake.WithTimeout(cfg.Timeout))

	return fn(p, store)
}

// readInput reads a file argument, or stdin when the argument is "-".
func readInput(cmd *cli.Command, arg string) (string, error) {
	if arg == "" {
		return "", errFileRequired
	}

	var (
		data []byte
		err  error
	)

	if arg == "-" {
		data, err = io.ReadAll(cmd.Root().Reader)
	} else {
		data, err = os.ReadFile(arg)
	}

	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", arg, err)
	}

	return string(data), nil
}

// textArg joins the arguments, or reads stdin when the only one is "-".
func textArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() == 1 && cmd.Args().First() == "-" {
		return readInput(cmd, "-")
	}

	text := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return "", errFileRequired
	}

	return text, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}
