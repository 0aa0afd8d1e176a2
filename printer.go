package paper

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Printer is the rendering engine: it consumes markup events, tracks a
// stack of formatting scopes, and writes complete terminal lines to its
// writer as a side effect. One Printer renders one document; create a
// new one per input.
//
// Width is the content width inside the page margins. The Printer
// assumes the caller has already rejected widths too small for the
// layout (see Request).
type Printer struct {
	out        io.Writer
	stylesheet *Stylesheet
	log        *slog.Logger

	width     int
	centering string
	margin    string

	hideURLs    bool
	noImages    bool
	highlighter Highlighter
	decoder     ImageDecoder
	pixels      PixelRenderer
	policy      BreakPolicy

	scopes      []*scope
	content     string
	buffer      strings.Builder
	table       table
	emptyQueued bool
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithStylesheet sets the style resolver. Defaults to the built-in
// sheet compiled for 256-color output.
func WithStylesheet(ss *Stylesheet) PrinterOption {
	return func(p *Printer) { p.stylesheet = ss }
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(log *slog.Logger) PrinterOption {
	return func(p *Printer) { p.log = log }
}

// WithMargins sets the centering and horizontal margin strings emitted
// around every line. The margin string should already carry the paper
// style if the page background is styled.
func WithMargins(centering, margin string) PrinterOption {
	return func(p *Printer) {
		p.centering = centering
		p.margin = margin
	}
}

// WithHighlighter enables external syntax highlighting of code blocks.
func WithHighlighter(h Highlighter) PrinterOption {
	return func(p *Printer) { p.highlighter = h }
}

// WithHiddenURLs suppresses link and image URL annotations.
func WithHiddenURLs() PrinterOption {
	return func(p *Printer) { p.hideURLs = true }
}

// WithoutImages replaces inline images with a textual placeholder.
func WithoutImages() PrinterOption {
	return func(p *Printer) { p.noImages = true }
}

// WithImageDecoder replaces the filesystem image decoder.
func WithImageDecoder(d ImageDecoder) PrinterOption {
	return func(p *Printer) { p.decoder = d }
}

// WithPixelRenderer replaces the half-block pixel renderer.
func WithPixelRenderer(r PixelRenderer) PrinterOption {
	return func(p *Printer) { p.pixels = r }
}

// WithBreakPolicy replaces the ideographic line-break tables used for
// word wrapping.
func WithBreakPolicy(policy BreakPolicy) PrinterOption {
	return func(p *Printer) { p.policy = policy }
}

// NewPrinter returns a Printer writing lines of the given content width
// to out.
func NewPrinter(out io.Writer, width int, opts ...PrinterOption) *Printer {
	p := &Printer{
		out:     out,
		width:   width,
		log:     slog.Default(),
		decoder: FileDecoder{},
		policy:  DefaultBreakPolicy(),
		scopes:  []*scope{{kind: scopePaper}},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stylesheet == nil {
		p.stylesheet = DefaultStylesheet(DefaultProfile())
	}
	if p.pixels == nil {
		p.pixels = HalfBlockRenderer{Profile: DefaultProfile()}
	}
	return p
}

func (p *Printer) push(s *scope) { p.scopes = append(p.scopes, s) }

func (p *Printer) pop() *scope {
	if len(p.scopes) <= 1 {
		return nil
	}
	s := p.scopes[len(p.scopes)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
	return s
}

func (p *Printer) top() *scope { return p.scopes[len(p.scopes)-1] }

func (p *Printer) prefixLen() int {
	total := 0
	for _, s := range p.scopes {
		total += s.prefixLen()
	}
	return total
}

func (p *Printer) suffixLen() int {
	total := 0
	for _, s := range p.scopes {
		total += s.suffixLen()
	}
	return total
}

// prefix renders the styled per-line prefix of every open scope,
// outermost first, consuming any pending list-item marker. Extra path
// segments (the code-block language context) narrow style resolution.
func (p *Printer) prefix(extra []string) (string, int) {
	var b strings.Builder
	cols := 0
	path := make([]string, 0, len(p.scopes)+len(extra))
	for _, s := range p.scopes {
		path = append(path, s.name())
		pre := s.prefix()
		if pre == "" {
			continue
		}
		style := p.stylesheet.Resolve(append(path[:len(path):len(path)], extra...), "prefix")
		b.WriteString(style.Render(pre))
		cols += stringWidth(pre)
	}
	return b.String(), cols
}

// suffix is symmetric to prefix but emits innermost scopes first.
func (p *Printer) suffix(extra []string) (string, int) {
	var out string
	cols := 0
	path := make([]string, 0, len(p.scopes)+len(extra))
	for _, s := range p.scopes {
		path = append(path, s.name())
		suf := s.suffix()
		if suf == "" {
			continue
		}
		style := p.stylesheet.Resolve(append(path[:len(path):len(path)], extra...), "suffix")
		out = style.Render(suf) + out
		cols += stringWidth(suf)
	}
	return out, cols
}

func (p *Printer) style(extra []string, token string) Style {
	path := make([]string, 0, len(p.scopes)+len(extra))
	for _, s := range p.scopes {
		path = append(path, s.name())
	}
	return p.stylesheet.Resolve(append(path, extra...), token)
}

func (p *Printer) paperStyle() Style {
	return p.stylesheet.Resolve([]string{"paper"}, "")
}

func (p *Printer) shadow() string {
	return p.stylesheet.Resolve([]string{"shadow"}, "").Render(" ")
}

func (p *Printer) line(parts ...string) {
	for _, part := range parts {
		io.WriteString(p.out, part)
	}
	io.WriteString(p.out, "\n")
}

func (p *Printer) queueEmpty() { p.emptyQueued = true }

// empty writes a blank content line under the current scope stack.
func (p *Printer) empty() {
	prefix, plen := p.prefix(nil)
	suffix, slen := p.suffix(nil)
	pad := p.width - plen - slen
	if pad < 0 {
		pad = 0
	}
	p.line(p.centering, p.margin, prefix, p.paperStyle().Render(strings.Repeat(" ", pad)), suffix, p.margin, p.shadow())
	p.emptyQueued = false
}

func (p *Printer) printRule() {
	prefix, plen := p.prefix(nil)
	suffix, slen := p.suffix(nil)
	span := p.width - plen - slen
	if span < 0 {
		span = 0
	}
	p.line(p.centering, p.margin, prefix, p.style(nil, "").Render(strings.Repeat("─", span)), suffix, p.margin, p.shadow())
}

// flush writes the pending content accumulator as one complete line and
// clears it. It is a no-op while a code block is buffering, while any
// table scope is open, or when there is nothing to write.
func (p *Printer) flush() {
	if p.buffer.Len() > 0 {
		return
	}
	for _, s := range p.scopes {
		if s.kind == scopeTable {
			return
		}
	}
	if p.content == "" {
		return
	}
	prefix, plen := p.prefix(nil)
	suffix, slen := p.suffix(nil)
	pad := p.width - stringWidth(p.content) - plen - slen
	if pad < 0 {
		pad = 0
	}
	p.line(p.centering, p.margin, prefix, p.content, p.paperStyle().Render(strings.Repeat(" ", pad)), suffix, p.margin, p.shadow())
	p.content = ""
}

// Flush forces out any pending partial line. Call it once after the
// event stream is exhausted.
func (p *Printer) Flush() { p.flush() }

func (p *Printer) inScope(kind scopeKind) bool {
	for _, s := range p.scopes {
		if s.kind == kind {
			return true
		}
	}
	return false
}

// appendCell routes text into the pending table accumulator. Cells are
// collected whole; wrapping happens at table render time, so no flush
// discipline applies here.
func (p *Printer) appendCell(text string) {
	if p.inScope(scopeTableHead) {
		if n := len(p.table.header); n > 0 {
			p.table.header[n-1] += text
		}
		return
	}
	if n := len(p.table.rows); n > 0 {
		row := p.table.rows[n-1]
		if m := len(row); m > 0 {
			row[m-1] += text
		}
	}
}

// handleText segments incoming text and packs tokens into the pending
// line, flushing when the projected width would exceed the budget.
// Tokens wider than the whole available width are hard-split so no
// line ever overflows.
func (p *Printer) handleText(text string) {
	if p.top().kind == scopeCodeBlock {
		p.buffer.WriteString(text)
		return
	}
	if p.inScope(scopeTableHead) || p.inScope(scopeTableRow) {
		p.appendCell(text)
		return
	}
	style := p.style(nil, "")
	seg := NewSegmenter(text)
	seg.SetBreakPolicy(p.policy)
	for {
		tok, ok := seg.Next()
		if !ok {
			break
		}
		avail := p.width - p.prefixLen() - p.suffixLen()
		if stringWidth(p.content)+stringWidth(tok) > avail {
			p.flush()
		}
		word := tok
		if p.content == "" {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
		}
		if stringWidth(word) > avail {
			// Overlong token: every chunk, including the remainder,
			// gets its own full line.
			for word != "" {
				fit, rest := truncWidth(word, avail)
				if fit == "" {
					runes := []rune(word)
					fit, rest = string(runes[0]), string(runes[1:])
				}
				p.content += style.Render(fit)
				p.flush()
				word = rest
			}
			continue
		}
		p.content += style.Render(word)
	}
}

func (p *Printer) printTable() {
	var alignments []Alignment
	if top := p.top(); top.kind == scopeTable {
		alignments = top.alignments
	}
	avail := p.width - p.prefixLen() - p.suffixLen()
	lines := p.table.render(avail, alignments)
	p.table.reset()
	paper := p.paperStyle()
	for _, line := range lines {
		prefix, _ := p.prefix(nil)
		suffix, _ := p.suffix(nil)
		pad := avail - stringWidth(line)
		if pad < 0 {
			pad = 0
		}
		p.line(p.centering, p.margin, prefix, paper.Render(line), paper.Render(strings.Repeat(" ", pad)), suffix, p.margin, p.shadow())
	}
}

// flushBuffer finalizes a code block: highlight or hard-wrap the raw
// buffer, then emit a blank top border, the content lines with the
// block's base style re-injected around embedded escapes, and a
// trailing right-aligned language tag.
func (p *Printer) flushBuffer() {
	top := p.top()
	if top.kind != scopeCodeBlock {
		return
	}
	lang := top.language
	langCtx := lang
	if lang == "" || p.highlighter == nil {
		langCtx = "txt"
	}
	extra := []string{langCtx}
	style := p.style(extra, "")

	// The first prefix call consumes a pending list-item marker, so it
	// must be the one drawn on the top border.
	firstPrefix, plen := p.prefix(extra)
	firstSuffix, slen := p.suffix(extra)
	avail := p.width - plen - slen
	if avail < 0 {
		avail = 0
	}

	raw := p.buffer.String()
	p.buffer.Reset()

	var content string
	if p.highlighter != nil {
		highlighted, err := p.highlighter.Highlight(lang, avail, raw)
		if err != nil {
			p.log.Warn("syntax highlighting failed, rendering code verbatim",
				"language", lang, "error", err)
			content = hardWrap(raw, avail)
		} else {
			content = highlighted
		}
	} else {
		content = hardWrap(raw, avail)
	}

	p.line(p.centering, p.margin, firstPrefix, style.Render(strings.Repeat(" ", avail)), firstSuffix, p.margin, p.shadow())

	for _, line := range splitLines(content) {
		width := stringWidth(line)
		pad := avail - width
		if pad < 0 {
			pad = 0
		}
		prefix, _ := p.prefix(extra)
		suffix, _ := p.suffix(extra)
		p.line(p.centering, p.margin, prefix, reinjectStyle(line, style), style.Render(strings.Repeat(" ", pad)), suffix, p.margin, p.shadow())
	}

	tagPad := avail - stringWidth(lang)
	if tagPad < 0 {
		tagPad = 0
	}
	prefix, _ := p.prefix(extra)
	suffix, _ := p.suffix(extra)
	tagStyle := p.style(extra, "lang-tag")
	p.line(p.centering, p.margin, prefix, style.Render(strings.Repeat(" ", tagPad)), tagStyle.Render(lang), suffix, p.margin, p.shadow())
}

// hardWrap splits raw code lines at exactly width columns and pads
// short lines with trailing spaces. No styling is applied.
func hardWrap(raw string, width int) string {
	var b strings.Builder
	for _, line := range splitLines(raw) {
		for width > 0 && stringWidth(line) > width {
			fit, rest := truncWidth(line, width)
			if fit == "" {
				break
			}
			b.WriteString(fit)
			b.WriteString("\n")
			line = rest
		}
		pad := width - stringWidth(line)
		if pad < 0 {
			pad = 0
		}
		b.WriteString(line)
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString("\n")
	}
	return b.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// reinjectStyle wraps a line in the block's base style, restating it
// after every reset embedded in highlighter output so nested styling
// survives to the end of the line.
func reinjectStyle(line string, style Style) string {
	if style.Prefix == "" {
		return line
	}
	var b strings.Builder
	b.WriteString(style.Prefix)
	for len(line) > 0 {
		esc := strings.Index(line, "\x1b[")
		if esc < 0 {
			b.WriteString(line)
			break
		}
		b.WriteString(line[:esc])
		line = line[esc:]
		end := 2
		for end < len(line) && (line[end] == ';' || (line[end] >= '0' && line[end] <= '9')) {
			end++
		}
		if end < len(line) {
			end++
		}
		seq := line[:end]
		if seq == ansiReset {
			b.WriteString(seq)
			b.WriteString(style.Prefix)
		} else {
			b.WriteString(style.Prefix)
			b.WriteString(seq)
		}
		line = line[end:]
	}
	return b.String()
}

func (p *Printer) calloutLabel(name, icon, label string) {
	style := p.stylesheet.Resolve([]string{name}, "prefix")
	p.handleText(style.Render(icon) + " " + style.Render(label))
}

func (p *Printer) startImage(tag Tag) {
	p.flush()

	if p.noImages {
		p.push(&scope{kind: scopeIndent})
		p.handleText("[Image")
		if tag.Title != "" {
			p.handleText(": ")
			p.push(&scope{kind: scopeCaption})
			p.handleText(tag.Title)
			p.pop()
		}
		if tag.URL != "" && !p.hideURLs {
			p.handleText(" <")
			p.push(&scope{kind: scopeLink})
			p.handleText(tag.URL)
			p.pop()
			p.handleText(">")
		}
		p.handleText("]")
		p.push(&scope{kind: scopeCaption})
		p.flush()
		return
	}

	avail := p.width - p.prefixLen() - p.suffixLen()
	img, err := p.decoder.Decode(tag.URL)
	if err != nil {
		p.handleText("Cannot open image ")
		p.push(&scope{kind: scopeIndent})
		p.push(&scope{kind: scopeLink})
		p.handleText(tag.URL)
		p.pop()
		p.handleText(": " + err.Error())
		p.push(&scope{kind: scopeCaption})
		p.flush()
		return
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > avail {
		scale := float64(avail) / float64(w)
		w = avail
		h = int(float64(h) * scale)
	}
	paper := p.paperStyle()
	for _, line := range p.pixels.Render(img, w, h) {
		prefix, _ := p.prefix(nil)
		suffix, _ := p.suffix(nil)
		pad := avail - stringWidth(line)
		if pad < 0 {
			pad = 0
		}
		p.line(p.centering, p.margin, prefix, line, paper.Render(strings.Repeat(" ", pad)), suffix, p.margin, p.shadow())
	}
	p.push(&scope{kind: scopeIndent})
	p.push(&scope{kind: scopeCaption})
	p.handleText(tag.Title)
}

// Handle processes one markup event, mutating the scope stack and
// writing any completed lines.
func (p *Printer) Handle(ev Event) {
	switch ev.Kind {
	case EventStart:
		if p.emptyQueued {
			p.empty()
		}
		p.handleStart(ev.Tag)
	case EventEnd:
		p.handleEnd(ev.Tag)
	case EventRule:
		p.flush()
		p.printRule()
	case EventText:
		p.handleText(ev.Text)
	case EventCode:
		p.push(&scope{kind: scopeCode})
		p.handleText(ev.Text)
		p.pop()
	case EventHTML:
		// Raw HTML is not rendered.
	case EventFootnoteReference:
		p.push(&scope{kind: scopeFootnoteRef})
		p.handleText("[" + ev.Text + "]")
		p.pop()
	case EventSoftBreak:
		p.handleText(" ")
	case EventHardBreak:
		p.flush()
	case EventTaskListMarker:
		if ev.Checked {
			p.handleText("[✓] ")
		} else {
			p.handleText("[ ] ")
		}
	}
}

func (p *Printer) handleStart(tag Tag) {
	switch tag.Kind {
	case TagParagraph:
		p.flush()
	case TagHeading:
		p.flush()
		if tag.Level == 1 {
			p.printRule()
		}
		p.push(&scope{kind: scopeHeading, level: tag.Level})
	case TagBlockQuote:
		p.flush()
		s := &scope{kind: scopeBlockQuote, quote: tag.Quote}
		p.push(s)
		switch tag.Quote {
		case QuoteNote:
			p.calloutLabel(s.name(), "ⓘ", "Note")
		case QuoteTip:
			p.calloutLabel(s.name(), "✦", "Tip")
		case QuoteImportant:
			p.calloutLabel(s.name(), "‼", "Important")
		case QuoteWarning:
			p.calloutLabel(s.name(), "▲", "Warning")
		case QuoteCaution:
			p.calloutLabel(s.name(), "⚠", "Caution")
		}
	case TagCodeBlock:
		p.flush()
		p.push(&scope{kind: scopeCodeBlock, language: tag.Language})
	case TagMetadataBlock:
		p.push(&scope{kind: scopeCodeBlock})
	case TagList:
		p.flush()
		s := &scope{kind: scopeList}
		if tag.Start != nil {
			start := *tag.Start
			s.index = &start
		}
		p.push(s)
	case TagItem:
		p.flush()
		item := &scope{kind: scopeListItem}
		if parent := p.top(); parent.kind == scopeList && parent.index != nil {
			index := *parent.index
			item.index = &index
		}
		p.push(item)
	case TagFootnoteDefinition:
		p.flush()
		p.push(&scope{kind: scopeFootnoteDef})
		p.handleText(tag.Label + ":")
		p.pop()
		p.flush()
		p.push(&scope{kind: scopeFootnoteContent})
	case TagTable:
		p.push(&scope{kind: scopeTable, alignments: tag.Alignments})
	case TagTableHead:
		p.push(&scope{kind: scopeTableHead})
	case TagTableRow:
		p.push(&scope{kind: scopeTableRow})
		p.table.rows = append(p.table.rows, nil)
	case TagTableCell:
		p.push(&scope{kind: scopeTableCell})
		if p.inScope(scopeTableHead) {
			p.table.header = append(p.table.header, "")
		} else if n := len(p.table.rows); n > 0 {
			p.table.rows[n-1] = append(p.table.rows[n-1], "")
		}
	case TagEmphasis:
		p.push(&scope{kind: scopeItalic})
	case TagStrong:
		p.push(&scope{kind: scopeBold})
	case TagStrikethrough:
		p.push(&scope{kind: scopeStrikethrough})
	case TagLink:
		p.push(&scope{kind: scopeLink, url: tag.URL, title: tag.Title})
	case TagImage:
		p.startImage(tag)
	case TagHTMLBlock:
		// No scope; content is dropped.
	}
}

func (p *Printer) handleEnd(tag Tag) {
	switch tag.Kind {
	case TagParagraph:
		p.flush()
		p.queueEmpty()
	case TagHeading:
		p.flush()
		p.pop()
		if tag.Level == 1 {
			p.printRule()
		}
		p.queueEmpty()
	case TagList:
		p.flush()
		p.pop()
		p.queueEmpty()
	case TagItem:
		p.flush()
		p.pop()
		if parent := p.top(); parent.kind == scopeList && parent.index != nil {
			*parent.index++
		}
	case TagBlockQuote:
		p.flush()
		p.pop()
		p.queueEmpty()
	case TagTable:
		p.printTable()
		p.pop()
		p.queueEmpty()
	case TagCodeBlock, TagMetadataBlock:
		p.flushBuffer()
		p.pop()
		p.queueEmpty()
	case TagLink:
		link := p.pop()
		if link == nil || link.kind != scopeLink {
			return
		}
		switch {
		case link.title != "" && link.url != "" && !p.hideURLs:
			p.handleText(fmt.Sprintf(" <%s: %s>", link.title, link.url))
		case link.url != "" && !p.hideURLs:
			p.handleText(fmt.Sprintf(" <%s>", link.url))
		case link.title != "":
			p.handleText(fmt.Sprintf(" <%s>", link.title))
		}
	case TagImage:
		p.flush()
		p.pop()
		p.pop()
		p.queueEmpty()
	case TagFootnoteDefinition:
		p.flush()
		p.pop()
		p.queueEmpty()
	case TagHTMLBlock:
	default:
		p.pop()
	}
}
