/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const leafBlocks = "p, li, h1, h2, h3, h4, h5, h6, dt, dd, pre, caption, div"

// HTMLToText flattens an HTML lab report (patient portal exports) into
// plain text with one table row or block element per line, so each
// result stays on the same line as its test name.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	var lines []string

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string

		row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			if text := collapseSpace(cell.Text()); text != "" {
				cells = append(cells, text)
			}
		})

		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	})

	doc.Find("table").Remove()

	doc.Find(leafBlocks).Each(func(_ int, block *goquery.Selection) {
		// Containers are emitted through their children.
		if block.Find(leafBlocks).Length() > 0 {
			return
		}

		if text := collapseSpace(block.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		if text := collapseSpace(doc.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
