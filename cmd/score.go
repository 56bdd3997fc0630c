/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/chart"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/llm"
	"github.com/humaidq/baseline/profile"
	"github.com/humaidq/baseline/score"
)

var CmdScore = &cli.Command{
	Name:  "score",
	Usage: "Score the stored profile",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the report as JSON",
		},
	},
	Action: scoreProfile,
}

var CmdChart = &cli.Command{
	Name:      "chart",
	Usage:     "Render a metric's history as an HTML chart",
	ArgsUsage: "<metric> <out.html>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "since",
			Usage: "only plot observations on or after this date (YYYY-MM-DD)",
		},
	},
	Action: renderChart,
}

var CmdSummary = &cli.Command{
	Name:   "summary",
	Usage:  "Stream a narrative summary of the report from the local model",
	Action: summarise,
}

func withProfile(ctx context.Context, cmd *cli.Command, fn func(profile.Profile, db.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := profile.Load(ctx, store)
	if err != nil {
		return err
	}

	return fn(p, store)
}

func scoreProfile(ctx context.Context, cmd *cli.Command) error {
	return withProfile(ctx, cmd, func(p profile.Profile, _ db.Store) error {
		report := p.Report(score.DefaultEngine(), time.Now())

		if cmd.Bool("json") {
			return writeJSON(cmd.Root().Writer, report)
		}

		if p.Demographics == nil {
			appLogger.Warn("No demographics saved, scoring against universal reference groups")
		}

		printReport(cmd.Root().Writer, report)

		return nil
	})
}

func printReport(w io.Writer, r score.Report) {
	fmt.Fprintf(w, "Coverage: %d%%", r.CoverageScore)
	if r.RawCoverage != nil {
		fmt.Fprintf(w, " (raw %d%%)", *r.RawCoverage)
	}
	fmt.Fprintf(w, "  Tier 1: %s  Tier 2: %s\n", r.Tier1Fraction, r.Tier2Fraction)

	if r.AvgPercentile != nil {
		fmt.Fprintf(w, "Average percentile: %d\n", *r.AvgPercentile)
	}

	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		if !res.HasData {
			continue
		}

		rows = append(rows, []string{
			res.Name,
			string(res.Standing),
			formatValue(res.Value, res.Unit),
			formatPercentile(res.Percentile),
			formatFraction(res.Freshness),
		})
	}

	if len(rows) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Category", "Standing", "Value", "Pct", "Fresh").
			Rows(rows...)
		fmt.Fprintln(w, t.Render())
	}

	if len(r.Gaps) > 0 {
		fmt.Fprintln(w, "Gaps:")
		for _, g := range r.Gaps {
			fmt.Fprintf(w, "  %-28s weight %d  %s\n", g.Name, g.Weight, g.CostToClose)
		}
	}
}

func formatValue(v *float64, unit string) string {
	if v == nil {
		return "-"
	}

	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

func formatPercentile(p *int) string {
	if p == nil {
		return "-"
	}

	return strconv.Itoa(*p)
}

func formatFraction(f *float64) string {
	if f == nil {
		return "-"
	}

	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func renderChart(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errMetricRequired
	}

	metric, ok := biomarker.ParseMetric(cmd.Args().Get(0))
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownMetric, cmd.Args().Get(0))
	}

	out := cmd.Args().Get(1)

	var since *time.Time
	if raw := cmd.String("since"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fmt.Errorf("%w: %s", errInvalidDate, raw)
		}

		since = &t
	}

	return withProfile(ctx, cmd, func(p profile.Profile, _ db.Store) error {
		obs := p.Observations[metric]
		if since != nil {
			obs = chart.Since(obs, *since)
		}

		html, err := chart.Trend(metric, obs, p.Demographics)
		if err != nil {
			return err
		}

		if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}

		appLogger.Info("Wrote chart", "metric", metric, "path", out)

		return nil
	})
}

func summarise(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cfg.LLMConfigured() {
		return errLLMRequired
	}

	client, err := llm.NewClient(llm.Config{URL: cfg.OllamaURL, Model: cfg.OllamaModel})
	if err != nil {
		return err
	}

	return withProfile(ctx, cmd, func(p profile.Profile, _ db.Store) error {
		report := p.Report(score.DefaultEngine(), time.Now())
		w := cmd.Root().Writer

		err := client.StreamReportSummary(ctx, p.Demo(), report, func(chunk string) error {
			_, err := io.WriteString(w, chunk)
			return err
		})
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w)

		return err
	})
}
