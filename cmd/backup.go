/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/intake"
)

var CmdExport = &cli.Command{
	Name:      "export",
	Usage:     "Write every stored record to a backup file",
	ArgsUsage: "<file>",
	Action:    exportBackup,
}

var CmdRestore = &cli.Command{
	Name:      "restore",
	Usage:     "Replace all stored records with a backup file",
	ArgsUsage: "<file>",
	Action:    restoreBackup,
}

func exportBackup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errFileRequired
	}

	return withPipeline(ctx, cmd, func(_ *intake.Pipeline, store db.Store) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()

		if err := db.Export(ctx, store, f, time.Now()); err != nil {
			return err
		}

		appLogger.Info("Exported backup", "path", path)

		return f.Close()
	})
}

func restoreBackup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errFileRequired
	}

	return withPipeline(ctx, cmd, func(_ *intake.Pipeline, store db.Store) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		stats, err := db.Restore(ctx, store, f)
		if err != nil {
			return err
		}

		appLogger.Info("Restored backup", "path", path, "observations", stats.Observations, "imports", stats.Imports, "rejected", stats.Rejected)

		return writeJSON(cmd.Root().Writer, stats)
	})
}
