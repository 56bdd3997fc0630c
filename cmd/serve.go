/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/baseline/intake"
	"github.com/humaidq/baseline/llm"
	"github.com/humaidq/baseline/routes"
)

var CmdServe = &cli.Command{
	Name:    "serve",
	Aliases: []string{"start"},
	Usage:   "Run the extraction service",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "port",
			Usage: "the web server port (PORT)",
		},
		&cli.StringFlag{
			Name:  "allowed-origin",
			Usage: "origin allowed besides localhost (ALLOWED_ORIGIN)",
		},
	},
	Action: serve,
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("allowed-origin") {
		cfg.AllowedOrigin = cmd.String("allowed-origin")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// The service itself never calls a remote extraction service.
	var extractor intake.Extractor
	if cfg.LLMConfigured() {
		client, err := llm.NewClient(llm.Config{URL: cfg.OllamaURL, Model: cfg.OllamaModel})
		if err != nil {
			return err
		}

		extractor = client
		appLogger.Info("Using local model for extraction", "model", client.Model())
	} else {
		appLogger.Warn("No model configured, serving deterministic extraction")
	}

	app := routes.NewApp(&routes.Deps{
		Extractor:     extractor,
		Store:         store,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:      app,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		ErrorLog:     requestStdLogger,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Starting extraction service", "port", cfg.Port, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}
