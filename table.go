package paper

import "strings"

// tableOverflow is the single-line rendering of a table whose word
// floors cannot fit the width budget.
const tableOverflow = "[Table too large to fit]"

// table is the transient accumulator for one table: header cells plus
// a matrix of body cells, collected before any output is emitted.
// Styling inside tables is not supported; cells are de-styled at
// render time.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) reset() {
	t.header = nil
	t.rows = nil
}

// render lays the table out under a total-width budget and returns the
// finished grid lines, unstyled. Column widths are each column's
// longest visible line when everything fits, otherwise a
// budget-proportional share floored at the column's longest unbreakable
// word. When even the floors overflow, the table degrades to a one-line
// placeholder. An empty table renders nothing.
func (t *table) render(budget int, alignments []Alignment) []string {
	header := make([]string, len(t.header))
	for i, cell := range t.header {
		header[i] = stripStyles(cell)
	}
	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = stripStyles(cell)
		}
	}

	cols := len(header)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}

	floors := make([]int, cols)
	content := make([]int, cols)
	measure := func(i int, cell string) {
		if w := longestToken(cell); w > floors[i] {
			floors[i] = w
		}
		for _, line := range strings.Split(cell, "\n") {
			if w := stringWidth(line); w > content[i] {
				content[i] = w
			}
		}
	}
	for i, cell := range header {
		measure(i, cell)
	}
	for _, row := range rows {
		for i, cell := range row {
			measure(i, cell)
		}
	}

	total := 0
	for _, w := range content {
		total += w
	}
	usable := budget - (4 + 3*(cols-1))
	if usable < 0 {
		usable = 0
	}

	widths := make([]int, cols)
	if total < usable {
		copy(widths, content)
	} else {
		for i, w := range content {
			share := 0
			if total > 0 {
				share = usable * w / total
			}
			if share < floors[i] {
				share = floors[i]
			}
			widths[i] = share
		}
	}
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum > usable {
		return []string{tableOverflow}
	}

	var out []string
	out = append(out, tableRule(widths, "┌", "┬", "┐", "─"))
	if len(header) > 0 {
		out = append(out, tableRow(header, widths, alignments)...)
		out = append(out, tableRule(widths, "╞", "╪", "╡", "═"))
	}
	for i, row := range rows {
		if i > 0 {
			out = append(out, tableRule(widths, "├", "┼", "┤", "─"))
		}
		out = append(out, tableRow(row, widths, alignments)...)
	}
	out = append(out, tableRule(widths, "└", "┴", "┘", "─"))
	return out
}

func tableRule(widths []int, left, mid, right, fill string) string {
	var b strings.Builder
	b.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			b.WriteString(mid)
		}
		b.WriteString(strings.Repeat(fill, w+2))
	}
	b.WriteString(right)
	return b.String()
}

// tableRow renders one logical row; multi-line cells expand the row
// height to the tallest cell and short cells pad with blanks.
func tableRow(cells []string, widths []int, alignments []Alignment) []string {
	wrapped := make([][]string, len(widths))
	height := 1
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		wrapped[i] = wrapCell(cell, widths[i])
		if len(wrapped[i]) > height {
			height = len(wrapped[i])
		}
	}
	out := make([]string, 0, height)
	for line := 0; line < height; line++ {
		var b strings.Builder
		b.WriteString("│")
		for i, w := range widths {
			text := ""
			if line < len(wrapped[i]) {
				text = wrapped[i][line]
			}
			b.WriteString(" ")
			b.WriteString(alignCell(text, w, columnAlignment(alignments, i)))
			b.WriteString(" │")
		}
		out = append(out, b.String())
	}
	return out
}

func columnAlignment(alignments []Alignment, i int) Alignment {
	if i < len(alignments) {
		return alignments[i]
	}
	return AlignLeft
}

func alignCell(text string, width int, alignment Alignment) string {
	pad := width - stringWidth(text)
	if pad <= 0 {
		return text
	}
	switch alignment {
	case AlignRight:
		return strings.Repeat(" ", pad) + text
	case AlignCenter:
		left := pad / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left)
	default:
		return text + strings.Repeat(" ", pad)
	}
}

// wrapCell greedily packs segmenter tokens into lines of at most width
// columns, using one token of lookahead to decide where to break. A
// token wider than the whole column is hard-split so it can never
// overflow.
func wrapCell(text string, width int) []string {
	var lines []string
	var line string
	seg := NewSegmenter(strings.ReplaceAll(text, "\n", " "))
	for {
		tok, ok := seg.Next()
		if !ok {
			break
		}
		if line != "" && stringWidth(line)+stringWidth(tok) > width {
			seg.Undo()
			lines = append(lines, line)
			line = ""
			continue
		}
		if line == "" {
			tok = strings.TrimSpace(tok)
		}
		line += tok
		for width > 0 && stringWidth(line) > width {
			fit, rest := truncWidth(line, width)
			lines = append(lines, fit)
			line = rest
		}
	}
	if line != "" || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}
