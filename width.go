package paper

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	reflowansi "github.com/muesli/reflow/ansi"
)

// stringWidth returns the number of terminal columns a string occupies.
// Embedded color-escape sequences contribute nothing; wide (CJK) runes
// contribute two columns, combining and zero-width runes none. The
// result depends only on the visible glyphs, so measuring a string is
// idempotent under styling.
func stringWidth(s string) int {
	return reflowansi.PrintableRuneWidth(s)
}

// runeCols returns the column width of a single rune.
func runeCols(r rune) int {
	return runewidth.RuneWidth(r)
}

// stripStyles removes all ANSI escape sequences from a string. Table
// cells are de-styled before layout; styling inside tables is not
// supported.
func stripStyles(s string) string {
	return ansi.Strip(s)
}

// truncWidth returns the longest prefix of s that fits within the given
// number of columns, together with the remainder.
func truncWidth(s string, cols int) (string, string) {
	used := 0
	for i, r := range s {
		w := runeCols(r)
		if used+w > cols {
			return s[:i], s[i:]
		}
		used += w
	}
	return s, ""
}
