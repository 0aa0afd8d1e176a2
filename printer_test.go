package paper

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"testing"
)

// unstyled keeps assertions readable: every style resolves to zero, so
// rendered lines carry no escape sequences.
func unstyled() PrinterOption {
	return WithStylesheet(NewStylesheet(DefaultProfile()))
}

func renderEvents(t *testing.T, width int, events []Event, opts ...PrinterOption) []string {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]PrinterOption{unstyled()}, opts...)
	p := NewPrinter(&buf, width, opts...)
	for _, ev := range events {
		p.Handle(ev)
	}
	p.Flush()
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func start(kind TagKind) Event { return Event{Kind: EventStart, Tag: Tag{Kind: kind}} }
func end(kind TagKind) Event   { return Event{Kind: EventEnd, Tag: Tag{Kind: kind}} }
func text(s string) Event      { return Event{Kind: EventText, Text: s} }

func paragraph(s string) []Event {
	return []Event{start(TagParagraph), text(s), end(TagParagraph)}
}

func TestLinesNeverOverflowContentWidth(t *testing.T) {
	var events []Event
	events = append(events, Event{Kind: EventStart, Tag: Tag{Kind: TagHeading, Level: 1}}, text("Top"), Event{Kind: EventEnd, Tag: Tag{Kind: TagHeading, Level: 1}})
	events = append(events, paragraph("some regular prose that wraps across a couple of lines at this width")...)
	events = append(events, Event{Kind: EventStart, Tag: Tag{Kind: TagBlockQuote, Quote: QuoteWarning}})
	events = append(events, paragraph("quoted text")...)
	events = append(events, end(TagBlockQuote))
	events = append(events, Event{Kind: EventRule})
	events = append(events, Event{Kind: EventStart, Tag: Tag{Kind: TagCodeBlock}}, text("code line\n"), end(TagCodeBlock))

	const width = 30
	for i, line := range renderEvents(t, width, events) {
		if got := stringWidth(line); got != width {
			t.Errorf("line %d width = %d, want %d: %q", i, got, width, line)
		}
	}
}

func TestOrderedListNumbering(t *testing.T) {
	three := 3
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagList, Start: &three}},
		start(TagItem), text("one"), end(TagItem),
		start(TagItem), text("two"), end(TagItem),
		end(TagList),
	}
	lines := renderEvents(t, 20, events)
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "3.  one") {
		t.Errorf("first item = %q, want prefix %q", lines[0], "3.  one")
	}
	if !strings.HasPrefix(lines[1], "4.  two") {
		t.Errorf("second item = %q, want prefix %q", lines[1], "4.  two")
	}
}

func TestBulletListMarkerAndContinuation(t *testing.T) {
	events := []Event{
		start(TagList),
		start(TagItem), text("a rather long item that must wrap"), end(TagItem),
		end(TagList),
	}
	lines := renderEvents(t, 20, events)
	if len(lines) < 2 {
		t.Fatalf("expected a wrapped item, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "•   a") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    ") || strings.HasPrefix(lines[1], "•") {
		t.Errorf("continuation line = %q, want blank indent", lines[1])
	}
}

func TestDeferredBlankDiscipline(t *testing.T) {
	events := append(paragraph("A"), paragraph("B")...)
	lines := renderEvents(t, 20, events)
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want exactly A, blank, B", lines)
	}
	if strings.TrimSpace(lines[1]) != "" {
		t.Errorf("middle line = %q, want blank", lines[1])
	}
	if strings.TrimSpace(lines[0]) != "A" || strings.TrimSpace(lines[2]) != "B" {
		t.Errorf("lines = %q", lines)
	}
}

func TestOverlongTokenHardSplits(t *testing.T) {
	lines := renderEvents(t, 10, paragraph("supercalifragilisticexpialidocious short"))
	want := []string{
		"supercalif",
		"ragilistic",
		"expialidoc",
		"ious      ",
		"short     ",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestCodeBlockFallbackSplitsAtWidth(t *testing.T) {
	events := []Event{
		start(TagCodeBlock),
		text("abcdefghijklmnopqrstuvwxyz1234\n"),
		end(TagCodeBlock),
	}
	lines := renderEvents(t, 24, events)
	// Top border, two content lines, language tag line.
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	for i, line := range lines {
		if strings.Contains(line, "\x1b") {
			t.Errorf("line %d contains escape codes: %q", i, line)
		}
		if got := stringWidth(line); got != 24 {
			t.Errorf("line %d width = %d: %q", i, got, line)
		}
	}
	if lines[1] != "  abcdefghijklmnopqrst  " {
		t.Errorf("first content line = %q", lines[1])
	}
	if lines[2] != "  uvwxyz1234            " {
		t.Errorf("second content line = %q", lines[2])
	}
}

func TestCodeBlockLanguageTagRightAligned(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagCodeBlock, Language: "go"}},
		text("x := 1\n"),
		end(TagCodeBlock),
	}
	lines := renderEvents(t, 24, events)
	last := lines[len(lines)-1]
	if !strings.HasSuffix(last, "go  ") {
		t.Errorf("tag line = %q, want right-aligned language", last)
	}
}

type fakeHighlighter struct {
	out string
	err error
}

func (f fakeHighlighter) Highlight(string, int, string) (string, error) {
	return f.out, f.err
}

func TestHighlighterOutputPassesThrough(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagCodeBlock, Language: "go"}},
		text("x\n"),
		end(TagCodeBlock),
	}
	hl := fakeHighlighter{out: "\x1b[31mx\x1b[0m \n"}
	lines := renderEvents(t, 24, events, WithHighlighter(hl))
	found := false
	for _, line := range lines {
		if strings.Contains(line, "\x1b[31mx") {
			found = true
		}
	}
	if !found {
		t.Errorf("highlighted output missing:\n%s", strings.Join(lines, "\n"))
	}
}

func TestHighlighterFailureFallsBack(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagCodeBlock, Language: "go"}},
		text("plain code\n"),
		end(TagCodeBlock),
	}
	hl := fakeHighlighter{err: errors.New("spawn failed")}
	lines := renderEvents(t, 24, events, WithHighlighter(hl), WithLogger(log))
	found := false
	for _, line := range lines {
		if strings.Contains(line, "plain code") {
			found = true
		}
		if strings.Contains(line, "\x1b") {
			t.Errorf("fallback line styled: %q", line)
		}
	}
	if !found {
		t.Errorf("code missing after fallback:\n%s", strings.Join(lines, "\n"))
	}
	if !strings.Contains(logs.String(), "syntax highlighting failed") {
		t.Errorf("expected a degradation warning, got %q", logs.String())
	}
}

func TestReinjectStyleRestatesAfterReset(t *testing.T) {
	base := Style{Prefix: "\x1b[48;5;254m"}
	got := reinjectStyle("\x1b[31mA\x1b[0mB", base)
	want := base.Prefix + base.Prefix + "\x1b[31m" + "A" + ansiReset + base.Prefix + "B"
	if got != want {
		t.Errorf("reinjectStyle = %q, want %q", got, want)
	}
	if got := reinjectStyle("plain", Style{}); got != "plain" {
		t.Errorf("zero style changed text: %q", got)
	}
}

func TestLinkAnnotations(t *testing.T) {
	cases := []struct {
		name string
		tag  Tag
		opts []PrinterOption
		want string
	}{
		{"url", Tag{Kind: TagLink, URL: "https://x.dev"}, nil, "click <https://x.dev>"},
		{"title and url", Tag{Kind: TagLink, URL: "https://x.dev", Title: "X"}, nil, "click <X: https://x.dev>"},
		{"title only", Tag{Kind: TagLink, Title: "X"}, nil, "click <X>"},
		{"hidden", Tag{Kind: TagLink, URL: "https://x.dev"}, []PrinterOption{WithHiddenURLs()}, "click"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := []Event{
				start(TagParagraph),
				{Kind: EventStart, Tag: tc.tag},
				text("click"),
				{Kind: EventEnd, Tag: tc.tag},
				end(TagParagraph),
			}
			lines := renderEvents(t, 40, events, tc.opts...)
			if got := strings.TrimRight(lines[0], " "); got != tc.want {
				t.Errorf("line = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBlockQuoteCalloutLabel(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagBlockQuote, Quote: QuoteNote}},
	}
	events = append(events, paragraph("body")...)
	events = append(events, end(TagBlockQuote))
	lines := renderEvents(t, 20, events)
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "┃   ⓘ Note") {
		t.Errorf("label line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "┃   body") {
		t.Errorf("body line = %q", lines[1])
	}
}

func TestPlainBlockQuoteBar(t *testing.T) {
	events := []Event{start(TagBlockQuote)}
	events = append(events, paragraph("quoted")...)
	events = append(events, end(TagBlockQuote))
	lines := renderEvents(t, 20, events)
	if !strings.HasPrefix(lines[0], "┃   quoted") {
		t.Errorf("line = %q", lines[0])
	}
}

func TestHeadingDecorations(t *testing.T) {
	h2 := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagHeading, Level: 2}},
		text("Title"),
		{Kind: EventEnd, Tag: Tag{Kind: TagHeading, Level: 2}},
	}
	lines := renderEvents(t, 20, h2)
	if lines[0] != "├─── Title      ───┤" {
		t.Errorf("h2 line = %q", lines[0])
	}

	h1 := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagHeading, Level: 1}},
		text("Top"),
		{Kind: EventEnd, Tag: Tag{Kind: TagHeading, Level: 1}},
	}
	lines = renderEvents(t, 20, h1)
	rule := strings.Repeat("─", 20)
	if len(lines) != 3 || lines[0] != rule || lines[2] != rule {
		t.Fatalf("h1 lines = %q, want rules around the title", lines)
	}
	if !strings.HasPrefix(lines[1], "    Top") {
		t.Errorf("h1 title line = %q", lines[1])
	}
}

func TestSoftAndHardBreaks(t *testing.T) {
	events := []Event{
		start(TagParagraph),
		text("a"),
		{Kind: EventSoftBreak},
		text("b"),
		{Kind: EventHardBreak},
		text("c"),
		end(TagParagraph),
	}
	lines := renderEvents(t, 20, events)
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if strings.TrimRight(lines[0], " ") != "a b" {
		t.Errorf("first line = %q, want %q", lines[0], "a b")
	}
	if strings.TrimRight(lines[1], " ") != "c" {
		t.Errorf("second line = %q, want %q", lines[1], "c")
	}
}

func TestFootnoteDefinitionLayout(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagFootnoteDefinition, Label: "1"}},
	}
	events = append(events, paragraph("the note body")...)
	events = append(events, end(TagFootnoteDefinition))
	lines := renderEvents(t, 30, events)
	if strings.TrimRight(lines[0], " ") != "1:" {
		t.Errorf("label line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    the note body") {
		t.Errorf("content line = %q", lines[1])
	}
}

func TestFootnoteReferenceInline(t *testing.T) {
	events := []Event{
		start(TagParagraph),
		text("claim"),
		{Kind: EventFootnoteReference, Text: "1"},
		end(TagParagraph),
	}
	lines := renderEvents(t, 20, events)
	if !strings.HasPrefix(lines[0], "claim[1]") {
		t.Errorf("line = %q", lines[0])
	}
}

func TestTaskListMarkers(t *testing.T) {
	events := []Event{
		start(TagList),
		start(TagItem),
		{Kind: EventTaskListMarker, Checked: true},
		text("done"),
		end(TagItem),
		start(TagItem),
		{Kind: EventTaskListMarker, Checked: false},
		text("todo"),
		end(TagItem),
		end(TagList),
	}
	lines := renderEvents(t, 30, events)
	if !strings.Contains(lines[0], "[✓] done") {
		t.Errorf("checked item = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ ] todo") {
		t.Errorf("unchecked item = %q", lines[1])
	}
}

func TestTableThroughPrinter(t *testing.T) {
	cell := func(s string) []Event {
		return []Event{start(TagTableCell), text(s), end(TagTableCell)}
	}
	events := []Event{start(TagTable), start(TagTableHead)}
	events = append(events, cell("a")...)
	events = append(events, cell("b")...)
	events = append(events, end(TagTableHead), start(TagTableRow))
	events = append(events, cell("1")...)
	events = append(events, cell("2")...)
	events = append(events, end(TagTableRow), end(TagTable))

	lines := renderEvents(t, 30, events)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"┌───┬───┐", "│ a │ b │", "╞═══╪═══╡", "│ 1 │ 2 │", "└───┴───┘"} {
		if !strings.Contains(joined, want) {
			t.Errorf("output missing %q:\n%s", want, joined)
		}
	}
	for i, line := range lines {
		if got := stringWidth(line); got != 30 {
			t.Errorf("line %d width = %d: %q", i, got, line)
		}
	}
}

func TestTableOverflowPlaceholder(t *testing.T) {
	cell := func(s string) []Event {
		return []Event{start(TagTableCell), text(s), end(TagTableCell)}
	}
	events := []Event{start(TagTable), start(TagTableHead)}
	events = append(events, cell("supercalifragilisticexpialidocious")...)
	events = append(events, cell("pneumonoultramicroscopicsilicovolcanoconiosis")...)
	events = append(events, end(TagTableHead), end(TagTable))

	lines := renderEvents(t, 40, events)
	if len(lines) != 1 || !strings.Contains(lines[0], tableOverflow) {
		t.Fatalf("lines = %q, want only the overflow placeholder", lines)
	}
}

func TestImagePlaceholder(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagImage, URL: "img.png", Title: "cap"}},
		{Kind: EventEnd, Tag: Tag{Kind: TagImage}},
	}
	lines := renderEvents(t, 40, events, WithoutImages())
	if !strings.HasPrefix(lines[0], "    [Image: cap <img.png>]") {
		t.Errorf("placeholder = %q", lines[0])
	}

	lines = renderEvents(t, 40, events, WithoutImages(), WithHiddenURLs())
	if !strings.HasPrefix(lines[0], "    [Image: cap]") {
		t.Errorf("hidden-url placeholder = %q", lines[0])
	}
}

type fakeDecoder struct {
	img image.Image
	err error
}

func (f fakeDecoder) Decode(string) (image.Image, error) { return f.img, f.err }

type fakePixels struct{ lines []string }

func (f fakePixels) Render(image.Image, int, int) []string { return f.lines }

func TestImageDecodeFailureRendersInline(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagImage, URL: "img.png"}},
		{Kind: EventEnd, Tag: Tag{Kind: TagImage}},
	}
	dec := fakeDecoder{err: fmt.Errorf("no such file")}
	lines := renderEvents(t, 40, events, WithImageDecoder(dec))
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Cannot open image") || !strings.Contains(joined, "img.png") {
		t.Errorf("fallback missing: %q", joined)
	}
}

func TestImageRendersPixelLinesAndCaption(t *testing.T) {
	events := []Event{
		{Kind: EventStart, Tag: Tag{Kind: TagImage, URL: "img.png", Title: "a caption"}},
		{Kind: EventEnd, Tag: Tag{Kind: TagImage}},
	}
	dec := fakeDecoder{img: image.NewRGBA(image.Rect(0, 0, 2, 2))}
	pix := fakePixels{lines: []string{"▀▀"}}
	lines := renderEvents(t, 40, events, WithImageDecoder(dec), WithPixelRenderer(pix))
	if !strings.HasPrefix(lines[0], "▀▀") {
		t.Errorf("pixel line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    a caption") {
		t.Errorf("caption line = %q", lines[1])
	}
}

func TestInlineCodeUsesCodeScope(t *testing.T) {
	sheet := NewStylesheet(DefaultProfile())
	sheet.Add(StyleRule{Selector: "code", Style: StyleSpec{Bold: true}})
	events := []Event{
		start(TagParagraph),
		{Kind: EventCode, Text: "x := 1"},
		end(TagParagraph),
	}
	var buf bytes.Buffer
	p := NewPrinter(&buf, 40, WithStylesheet(sheet))
	for _, ev := range events {
		p.Handle(ev)
	}
	p.Flush()
	if !strings.Contains(buf.String(), "\x1b[1m") {
		t.Errorf("inline code not styled: %q", buf.String())
	}
}

func TestNestedScopesIndentAdditively(t *testing.T) {
	events := []Event{start(TagBlockQuote), start(TagList), start(TagItem)}
	events = append(events, text("deep"))
	events = append(events, end(TagItem), end(TagList), end(TagBlockQuote))
	lines := renderEvents(t, 30, events)
	if !strings.HasPrefix(lines[0], "┃   •   deep") {
		t.Errorf("nested line = %q", lines[0])
	}
}
