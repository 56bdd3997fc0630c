/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/intake"
	"github.com/humaidq/baseline/wearable"
)

// maxParallelImports bounds concurrent lab imports.
const maxParallelImports = 4

var CmdImportLab = &cli.Command{
	Name:      "import-lab",
	Usage:     "Extract and store one or more lab reports",
	ArgsUsage: "<files...>",
	Action:    importLab,
}

var CmdImportVoice = &cli.Command{
	Name:      "import-voice",
	Usage:     "Extract and store a spoken health description",
	ArgsUsage: "<text|->",
	Action:    importVoice,
}

var CmdImportWearable = &cli.Command{
	Name:      "import-wearable",
	Usage:     "Summarise and store a daily wearable CSV export",
	ArgsUsage: "<file.csv>",
	Action:    importWearable,
}

var CmdProfile = &cli.Command{
	Name:  "profile",
	Usage: "Save demographics",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "age", Required: true},
		&cli.StringFlag{Name: "sex", Required: true, Usage: "M or F"},
		&cli.StringFlag{Name: "ethnicity"},
	},
	Action: saveProfile,
}

type labImport struct {
	File   string        `json:"file"`
	Result intake.Result `json:"result"`
	Error  string        `json:"error,omitempty"`
}

func importLab(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errFileRequired
	}

	return withPipeline(ctx, cmd, func(p *intake.Pipeline, _ db.Store) error {
		results := make([]labImport, len(files))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelImports)

		for i, file := range files {
			g.Go(func() error {
				text, err := labText(cmd, file)
				if err != nil {
					return err
				}

				res, err := p.ImportLab(gctx, filepath.Base(file), text)
				results[i] = labImport{File: file, Result: res}

				switch {
				case errors.Is(err, intake.ErrPartialImport):
					results[i].Error = err.Error()
				case err != nil:
					return fmt.Errorf("failed to import %s: %w", file, err)
				}

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		return writeJSON(cmd.Root().Writer, results)
	})
}

func importVoice(ctx context.Context, cmd *cli.Command) error {
	text, err := textArg(cmd)
	if err != nil {
		return err
	}

	return withPipeline(ctx, cmd, func(p *intake.Pipeline, _ db.Store) error {
		res, extracted, err := p.ImportVoice(ctx, text)
		if err != nil && !errors.Is(err, intake.ErrPartialImport) {
			return err
		}

		return writeJSON(cmd.Root().Writer, struct {
			Result    intake.Result `json:"result"`
			Extracted any           `json:"extracted"`
		}{res, extracted})
	})
}

func importWearable(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errFileRequired
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	days, err := wearable.ParseCSV(f)
	if err != nil {
		return err
	}

	summary := wearable.Summarize(days)

	return withPipeline(ctx, cmd, func(p *intake.Pipeline, _ db.Store) error {
		res, err := p.ImportValues(ctx, biomarker.SourceWearable, filepath.Base(path), summary.AsOf, summary.Values)
		if err != nil && !errors.Is(err, intake.ErrPartialImport) {
			return err
		}

		appLogger.Info("Imported wearable summary", "days", summary.Days, "as_of", summary.AsOf.Format("2006-01-02"))

		return writeJSON(cmd.Root().Writer, res)
	})
}

func saveProfile(ctx context.Context, cmd *cli.Command) error {
	age := int(cmd.Int("age"))
	if age < 18 || age > 100 {
		return errInvalidAge
	}

	sex, ok := biomarker.ParseSex(cmd.String("sex"))
	if !ok {
		return errInvalidSex
	}

	demo := biomarker.Demographics{Age: age, Sex: sex, Ethnicity: cmd.String("ethnicity")}

	return withPipeline(ctx, cmd, func(_ *intake.Pipeline, store db.Store) error {
		if err := store.SaveDemographics(ctx, demo); err != nil {
			return fmt.Errorf("failed to save demographics: %w", err)
		}

		return writeJSON(cmd.Root().Writer, demo)
	})
}
