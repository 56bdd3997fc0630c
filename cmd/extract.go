/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/baseline/extract"
)

var CmdExtractLab = &cli.Command{
	Name:      "extract-lab",
	Usage:     "Print the local extraction of a lab report (text or HTML)",
	ArgsUsage: "<file|->",
	Action:    extractLab,
}

var CmdExtractVoice = &cli.Command{
	Name:      "extract-voice",
	Usage:     "Print the deterministic extraction of a transcript",
	ArgsUsage: "<text|->",
	Action:    extractVoice,
}

func extractLab(ctx context.Context, cmd *cli.Command) error {
	text, err := labText(cmd, cmd.Args().First())
	if err != nil {
		return err
	}

	return writeJSON(cmd.Root().Writer, extract.ParseLabReport(text))
}

func extractVoice(ctx context.Context, cmd *cli.Command) error {
	text, err := textArg(cmd)
	if err != nil {
		return err
	}

	return writeJSON(cmd.Root().Writer, extract.ExtractVoiceIntake(text))
}

// labText reads a lab report, flattening HTML reports to lines.
func labText(cmd *cli.Command, arg string) (string, error) {
	raw, err := readInput(cmd, arg)
	if err != nil {
		return "", err
	}

	if !isHTML(arg, raw) {
		return raw, nil
	}

	return extract.HTMLToText(strings.NewReader(raw))
}

func isHTML(name, raw string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}

	head := strings.ToLower(strings.TrimSpace(raw))
	if len(head) > 512 {
		head = head[:512]
	}

	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
