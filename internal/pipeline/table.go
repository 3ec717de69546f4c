package pipeline

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// columnGap separates adjacent table columns.
const columnGap = "  "

// RenderTable lays out rows under headers as a plain-text table with a dashed
// rule below the header. Column widths count East Asian wide characters as
// two cells so Hangul columns line up in a monospace font. Columns whose
// values are all integers are right-aligned.
func RenderTable(headers []string, rows [][]string) string {
	cols := len(headers)
	widths := make([]int, cols)
	numeric := make([]bool, cols)
	for c, h := range headers {
		widths[c] = displayWidth(h)
		numeric[c] = len(rows) > 0
	}
	for _, row := range rows {
		for c := 0; c < cols; c++ {
			cell := cellAt(row, c)
			if w := displayWidth(cell); w > widths[c] {
				widths[c] = w
			}
			if _, err := strconv.Atoi(cell); err != nil {
				numeric[c] = false
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells func(int) string) {
		var line strings.Builder
		for c := 0; c < cols; c++ {
			if c > 0 {
				line.WriteString(columnGap)
			}
			line.WriteString(pad(cells(c), widths[c], numeric[c]))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}

	writeRow(func(c int) string { return headers[c] })
	writeRow(func(c int) string { return strings.Repeat("-", widths[c]) })
	for _, row := range rows {
		writeRow(func(c int) string { return cellAt(row, c) })
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func cellAt(row []string, c int) string {
	if c < len(row) {
		return row[c]
	}
	return ""
}

func pad(s string, w int, right bool) string {
	gap := w - displayWidth(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// displayWidth returns the number of monospace cells s occupies.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
