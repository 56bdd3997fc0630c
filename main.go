/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/baseline/cmd"
	"github.com/humaidq/baseline/logging"
)

func main() {
	app := &cli.Command{
		Name:  "baseline",
		Usage: "Baseline - personal health data intake and scoring",
		Flags: cmd.GlobalFlags,
		Commands: []*cli.Command{
			cmd.CmdScore,
			cmd.CmdChart,
			cmd.CmdSummary,
			cmd.CmdExtractLab,
			cmd.CmdExtractVoice,
			cmd.CmdImportLab,
			cmd.CmdImportVoice,
			cmd.CmdImportWearable,
			cmd.CmdProfile,
			cmd.CmdExport,
			cmd.CmdRestore,
			cmd.CmdServe,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Logger(logging.SourceApp).Error("Command failed", "error", err)
		os.Exit(1)
	}
}
