package paper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrWidthTooSmall is returned when the requested page width leaves too
// few content columns after the horizontal margins.
var ErrWidthTooSmall = errors.New("page width too small for margins")

// minContentWidth is the narrowest content area a page can lay out.
const minContentWidth = 40

// Placement positions the page within the terminal.
type Placement uint8

const (
	PlaceCenter Placement = iota
	PlaceLeft
	PlaceRight
)

// Request describes one document render. Zero values take defaults:
// Width 92, HMargin 6, VMargin 1, TabLength 4. Negative margin values
// mean none.
type Request struct {
	// Source is the raw Markdown (or, with Plain, arbitrary text).
	Source []byte
	// Writer receives the rendered lines.
	Writer io.Writer

	// Width is the total page width in columns, margins included.
	Width int
	// HMargin and VMargin are the blank page borders around the content.
	HMargin int
	VMargin int
	// TabLength is the number of spaces a tab expands to.
	TabLength int

	// TerminalWidth enables page placement when greater than Width;
	// zero renders flush left.
	TerminalWidth int
	Placement     Placement

	// HideURLs suppresses link and image URL annotations.
	HideURLs bool
	// NoImages replaces images with a textual placeholder.
	NoImages bool
	// Plain bypasses markup rendering and wraps the source verbatim.
	Plain bool

	// Highlighter, when set, styles fenced code blocks externally.
	Highlighter Highlighter
	// Stylesheet overrides the built-in default sheet.
	Stylesheet *Stylesheet
	// Logger receives degradation warnings; defaults to slog.Default().
	Logger *slog.Logger
	// BreakPolicy overrides the ideographic line-break tables.
	BreakPolicy *BreakPolicy
}

func (req Request) withDefaults() Request {
	if req.Width == 0 {
		req.Width = 92
	}
	if req.HMargin == 0 {
		req.HMargin = 6
	}
	if req.HMargin < 0 {
		req.HMargin = 0
	}
	if req.VMargin == 0 {
		req.VMargin = 1
	}
	if req.VMargin < 0 {
		req.VMargin = 0
	}
	if req.TabLength == 0 {
		req.TabLength = 4
	}
	return req
}

func (req Request) validate() error {
	if req.Writer == nil {
		return errors.New("render: nil writer")
	}
	content := req.Width - 2*req.HMargin
	if content < minContentWidth {
		return fmt.Errorf("%w: width %d with margin %d leaves %d content columns, need %d",
			ErrWidthTooSmall, req.Width, req.HMargin, content, minContentWidth)
	}
	return nil
}

// Render draws one document as a terminal page: top edge, vertical
// margins, content lines, and a drop shadow. It returns without output
// on a configuration error; everything else degrades inline.
func Render(req Request) error {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return err
	}

	sheet := req.Stylesheet
	if sheet == nil {
		sheet = DefaultStylesheet(DefaultProfile())
	}
	source := normalize(req.Source, req.TabLength)
	contentWidth := req.Width - 2*req.HMargin

	frame := pageFrame{
		out:       req.Writer,
		centering: placementPad(req),
		paper:     sheet.Resolve([]string{"paper"}, ""),
		shadow:    sheet.Resolve([]string{"shadow"}, ""),
		width:     req.Width,
		content:   contentWidth,
		margin:    req.HMargin,
	}
	frame.top(req.VMargin)

	if req.Plain {
		for _, line := range strings.Split(strings.TrimSuffix(string(source), "\n"), "\n") {
			for _, wrapped := range wrapPlain(line, contentWidth) {
				frame.line(wrapped)
			}
		}
	} else {
		opts := []PrinterOption{
			WithStylesheet(sheet),
			WithMargins(frame.centering, frame.marginText()),
		}
		if req.HideURLs {
			opts = append(opts, WithHiddenURLs())
		}
		if req.NoImages {
			opts = append(opts, WithoutImages())
		}
		if req.Highlighter != nil {
			opts = append(opts, WithHighlighter(req.Highlighter))
		}
		if req.Logger != nil {
			opts = append(opts, WithLogger(req.Logger))
		}
		if req.BreakPolicy != nil {
			opts = append(opts, WithBreakPolicy(*req.BreakPolicy))
		}
		printer := NewPrinter(req.Writer, contentWidth, opts...)
		for _, ev := range Events(source) {
			printer.Handle(ev)
		}
		printer.Flush()
	}

	frame.bottom(req.VMargin)
	return nil
}

func placementPad(req Request) string {
	// One extra column accounts for the shadow cell.
	span := req.TerminalWidth - req.Width - 1
	if span <= 0 {
		return ""
	}
	switch req.Placement {
	case PlaceLeft:
		return ""
	case PlaceRight:
		return strings.Repeat(" ", span)
	default:
		return strings.Repeat(" ", span/2)
	}
}

// normalize expands tabs and unifies line endings before the source is
// parsed or wrapped.
func normalize(source []byte, tab int) []byte {
	s := strings.ReplaceAll(string(source), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", strings.Repeat(" ", tab))
	return []byte(s)
}

// pageFrame draws the parts of the page that surround document content:
// the top edge, margin rows, and the offset bottom shadow.
type pageFrame struct {
	out       io.Writer
	centering string
	paper     Style
	shadow    Style
	width     int
	content   int
	margin    int
}

func (f pageFrame) marginText() string {
	return f.paper.Render(strings.Repeat(" ", f.margin))
}

func (f pageFrame) blank(shadowed bool) {
	end := "\n"
	if shadowed {
		end = f.shadow.Render(" ") + "\n"
	}
	io.WriteString(f.out, f.centering+f.paper.Render(strings.Repeat(" ", f.width))+end)
}

// top draws the page's upper edge; the shadow starts one row down.
func (f pageFrame) top(vmargin int) {
	f.blank(false)
	for i := 0; i < vmargin; i++ {
		f.blank(true)
	}
}

// bottom draws the lower margin rows and the shadow row offset one
// column right of the page.
func (f pageFrame) bottom(vmargin int) {
	for i := 0; i < vmargin; i++ {
		f.blank(true)
	}
	io.WriteString(f.out, f.centering+" "+f.shadow.Render(strings.Repeat(" ", f.width))+"\n")
}

// line writes one content line, padded to the content width, framed by
// the margins and shadow cell.
func (f pageFrame) line(text string) {
	pad := f.content - stringWidth(text)
	if pad < 0 {
		pad = 0
	}
	io.WriteString(f.out, f.centering+f.marginText()+f.paper.Render(text+strings.Repeat(" ", pad))+f.marginText()+f.shadow.Render(" ")+"\n")
}

// wrapPlain wraps one verbatim text line to the content width. The
// line's leading indentation repeats on every continuation line, and a
// token wider than the whole width is hard-split into full lines.
func wrapPlain(line string, width int) []string {
	indent := line[:indentEnd(line)]
	cont := indent
	if stringWidth(cont) >= width {
		cont = ""
	}

	var out []string
	cur := ""
	started := false
	seg := NewPreservingSegmenter(line)
	for {
		tok, ok := seg.Next()
		if !ok {
			break
		}
		if started && cur == cont {
			tok = strings.TrimLeft(tok, " \t")
			if tok == "" {
				continue
			}
		}
		if cur != "" && stringWidth(cur)+stringWidth(tok) > width {
			out = append(out, cur)
			cur = cont
			started = true
			tok = strings.TrimLeft(tok, " \t")
			if tok == "" {
				continue
			}
		}
		cur += tok
		started = true
		if stringWidth(cur) > width {
			for stringWidth(cur) > width {
				fit, rest := truncWidth(cur, width)
				if fit == "" {
					break
				}
				out = append(out, fit)
				cur = cont + rest
			}
			if strings.TrimSpace(cur) != "" {
				out = append(out, cur)
			}
			cur = cont
		}
	}
	if cur != cont || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

func indentEnd(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(line)
}
