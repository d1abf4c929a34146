// Package report renders rosters and roster summaries as text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/gradebook/internal/model"
)

const minCellWidth = 4

// RenderRoster prints the roster as an aligned table. When maxWidth is
// positive, wide text columns are truncated so each line fits.
func RenderRoster(w io.Writer, records []model.Record, maxWidth int) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}
	headers := make([]string, 0, model.FieldCount)
	for _, col := range model.Columns() {
		headers = append(headers, col.String())
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Fields())
	}
	rightAlign := map[int]bool{
		int(model.ColumnRegular): true,
		int(model.ColumnMidterm): true,
		int(model.ColumnFinal):   true,
		int(model.ColumnTotal):   true,
	}
	for _, line := range formatTable(headers, rows, rightAlign, maxWidth) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool, maxWidth int) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if maxWidth > 0 {
		shrinkWidths(widths, rightAlignCols, maxWidth)
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

// shrinkWidths narrows the widest left-aligned columns until the table,
// including single-space separators, fits maxWidth.
func shrinkWidths(widths []int, rightAlignCols map[int]bool, maxWidth int) {
	total := func() int {
		sum := len(widths) - 1
		for _, w := range widths {
			sum += w
		}
		return sum
	}
	for total() > maxWidth {
		widest := -1
		for i, w := range widths {
			if rightAlignCols[i] || w <= minCellWidth {
				continue
			}
			if widest < 0 || w > widths[widest] {
				widest = i
			}
		}
		if widest < 0 {
			return
		}
		widths[widest]--
	}
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	if displayWidth(value) > width {
		value = runewidth.Truncate(value, width, "…")
	}
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
