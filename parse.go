package paper

import (
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// The parser configuration never changes and a goldmark.Markdown is
// safe to share; per-call state lives in the reader passed to Parse.
var (
	markdownOnce sync.Once
	markdownInst goldmark.Markdown
)

func markdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInst = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
			),
		)
	})
	return markdownInst
}

// Events parses Markdown source and returns the markup event stream a
// Printer consumes. Tables, strikethrough, task lists, footnotes and
// GitHub-style block quote callouts ([!NOTE] and friends) are
// recognized.
func Events(source []byte) []Event {
	doc := markdownParser().Parser().Parse(gmtext.NewReader(source))
	w := &eventWalker{source: source}
	_ = ast.Walk(doc, w.walk)
	return w.events
}

type eventWalker struct {
	source []byte
	events []Event

	// Paragraph holding a recognized callout marker; text nodes that
	// lie entirely within the marker are suppressed.
	alertPara ast.Node
	alertStop int
}

func (w *eventWalker) emit(ev Event) {
	w.events = append(w.events, ev)
}

func (w *eventWalker) start(tag Tag) { w.emit(Event{Kind: EventStart, Tag: tag}) }
func (w *eventWalker) end(tag Tag)   { w.emit(Event{Kind: EventEnd, Tag: tag}) }

func (w *eventWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindDocument, ast.KindTextBlock:
		// Transparent containers: tight list items hold TextBlocks whose
		// text flows directly under the item scope.

	case ast.KindParagraph:
		if entering {
			w.start(Tag{Kind: TagParagraph})
		} else {
			w.end(Tag{Kind: TagParagraph})
		}

	case ast.KindHeading:
		tag := Tag{Kind: TagHeading, Level: node.(*ast.Heading).Level}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case ast.KindBlockquote:
		if entering {
			kind := w.detectCallout(node)
			w.start(Tag{Kind: TagBlockQuote, Quote: kind})
		} else {
			w.end(Tag{Kind: TagBlockQuote})
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			w.start(Tag{Kind: TagCodeBlock, Language: string(block.Language(w.source))})
			w.emitLines(node)
			w.end(Tag{Kind: TagCodeBlock})
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			w.start(Tag{Kind: TagCodeBlock})
			w.emitLines(node)
			w.end(Tag{Kind: TagCodeBlock})
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList:
		list := node.(*ast.List)
		tag := Tag{Kind: TagList}
		if list.IsOrdered() {
			start := list.Start
			tag.Start = &start
		}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case ast.KindListItem:
		if entering {
			w.start(Tag{Kind: TagItem})
		} else {
			w.end(Tag{Kind: TagItem})
		}

	case ast.KindThematicBreak:
		if entering {
			w.emit(Event{Kind: EventRule})
		}

	case ast.KindHTMLBlock:
		if entering {
			w.emit(Event{Kind: EventHTML, Text: string(w.rawLines(node))})
			return ast.WalkSkipChildren, nil
		}

	case ast.KindText:
		if entering {
			w.handleText(node.(*ast.Text))
		}

	case ast.KindString:
		if entering {
			w.emit(Event{Kind: EventText, Text: string(node.(*ast.String).Value)})
		}

	case ast.KindEmphasis:
		tag := Tag{Kind: TagEmphasis}
		if node.(*ast.Emphasis).Level >= 2 {
			tag.Kind = TagStrong
		}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case ast.KindCodeSpan:
		if entering {
			w.emit(Event{Kind: EventCode, Text: w.spanText(node)})
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		link := node.(*ast.Link)
		tag := Tag{Kind: TagLink, URL: string(link.Destination), Title: string(link.Title)}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(w.source))
			w.start(Tag{Kind: TagLink, URL: url})
			w.emit(Event{Kind: EventText, Text: url})
			w.end(Tag{Kind: TagLink, URL: url})
		}

	case ast.KindImage:
		img := node.(*ast.Image)
		tag := Tag{Kind: TagImage, URL: string(img.Destination), Title: string(img.Title)}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case ast.KindRawHTML:
		if entering {
			w.emit(Event{Kind: EventHTML})
			return ast.WalkSkipChildren, nil
		}

	case extast.KindStrikethrough:
		tag := Tag{Kind: TagStrikethrough}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case extast.KindTable:
		tag := Tag{Kind: TagTable, Alignments: tableAlignments(node.(*extast.Table))}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case extast.KindTableHeader:
		if entering {
			w.start(Tag{Kind: TagTableHead})
		} else {
			w.end(Tag{Kind: TagTableHead})
		}

	case extast.KindTableRow:
		if entering {
			w.start(Tag{Kind: TagTableRow})
		} else {
			w.end(Tag{Kind: TagTableRow})
		}

	case extast.KindTableCell:
		if entering {
			w.start(Tag{Kind: TagTableCell})
		} else {
			w.end(Tag{Kind: TagTableCell})
		}

	case extast.KindTaskCheckBox:
		if entering {
			w.emit(Event{Kind: EventTaskListMarker, Checked: node.(*extast.TaskCheckBox).IsChecked})
		}

	case extast.KindFootnoteLink:
		if entering {
			link := node.(*extast.FootnoteLink)
			w.emit(Event{Kind: EventFootnoteReference, Text: strconv.Itoa(link.Index)})
		}

	case extast.KindFootnote:
		footnote := node.(*extast.Footnote)
		label := string(footnote.Ref)
		if label == "" {
			label = strconv.Itoa(footnote.Index)
		}
		tag := Tag{Kind: TagFootnoteDefinition, Label: label}
		if entering {
			w.start(tag)
		} else {
			w.end(tag)
		}

	case extast.KindFootnoteList:
		// Transparent container for footnote definitions.

	case extast.KindFootnoteBacklink:
		return ast.WalkSkipChildren, nil
	}

	return ast.WalkContinue, nil
}

func (w *eventWalker) handleText(node *ast.Text) {
	if w.alertPara != nil && node.Parent() == w.alertPara && node.Segment.Stop <= w.alertStop {
		return
	}
	value := string(node.Segment.Value(w.source))
	if value != "" {
		w.emit(Event{Kind: EventText, Text: value})
	}
	if node.SoftLineBreak() {
		w.emit(Event{Kind: EventSoftBreak})
	}
	if node.HardLineBreak() {
		w.emit(Event{Kind: EventHardBreak})
	}
}

// emitLines emits one text event per raw source line of a code block.
func (w *eventWalker) emitLines(node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		w.emit(Event{Kind: EventText, Text: string(segment.Value(w.source))})
	}
}

func (w *eventWalker) rawLines(node ast.Node) []byte {
	var out []byte
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		out = append(out, segment.Value(w.source)...)
	}
	return out
}

func (w *eventWalker) spanText(node ast.Node) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(w.source))
		case *ast.String:
			b.Write(c.Value)
		}
	}
	return b.String()
}

var calloutKinds = map[string]QuoteKind{
	"[!NOTE]":      QuoteNote,
	"[!TIP]":       QuoteTip,
	"[!IMPORTANT]": QuoteImportant,
	"[!WARNING]":   QuoteWarning,
	"[!CAUTION]":   QuoteCaution,
}

// detectCallout recognizes a GitHub-style alert marker on the first
// line of a block quote. The marker line is suppressed from the text
// stream; the Printer renders the callout label instead.
func (w *eventWalker) detectCallout(quote ast.Node) QuoteKind {
	para, ok := quote.FirstChild().(*ast.Paragraph)
	if !ok || para.Lines().Len() == 0 {
		return QuotePlain
	}
	first := para.Lines().At(0)
	marker := strings.ToUpper(strings.TrimSpace(string(first.Value(w.source))))
	kind, ok := calloutKinds[marker]
	if !ok {
		return QuotePlain
	}
	w.alertPara = para
	w.alertStop = first.Stop
	return kind
}

func tableAlignments(table *extast.Table) []Alignment {
	out := make([]Alignment, len(table.Alignments))
	for i, a := range table.Alignments {
		switch a {
		case extast.AlignCenter:
			out[i] = AlignCenter
		case extast.AlignRight:
			out[i] = AlignRight
		default:
			out[i] = AlignLeft
		}
	}
	return out
}
