package paper

// EventKind discriminates the events a Printer consumes. The stream is
// produced by an external parser; the Printer never re-parses document
// text beyond its own word segmentation.
type EventKind uint8

const (
	// EventStart opens the block or inline construct named by Tag.
	EventStart EventKind = iota
	// EventEnd closes the matching construct.
	EventEnd
	// EventText carries literal text for the innermost open scope.
	EventText
	// EventCode carries an inline code span.
	EventCode
	// EventHTML carries raw HTML, which is not rendered.
	EventHTML
	// EventFootnoteReference carries a footnote label used inline.
	EventFootnoteReference
	// EventSoftBreak is a reflowable line break (renders as a space).
	EventSoftBreak
	// EventHardBreak forces a new output line.
	EventHardBreak
	// EventRule is a thematic break.
	EventRule
	// EventTaskListMarker is a task-list checkbox.
	EventTaskListMarker
)

// TagKind names the construct opened by EventStart / closed by EventEnd.
type TagKind uint8

const (
	TagParagraph TagKind = iota
	TagHeading
	TagBlockQuote
	TagCodeBlock
	TagList
	TagItem
	TagFootnoteDefinition
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagLink
	TagImage
	TagHTMLBlock
	TagMetadataBlock
)

// QuoteKind is the semantic callout class of a block quote.
type QuoteKind uint8

const (
	QuotePlain QuoteKind = iota
	QuoteNote
	QuoteTip
	QuoteImportant
	QuoteWarning
	QuoteCaution
)

// Alignment is a table column alignment.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Tag carries the parameters of a Start/End event. Only the fields
// relevant to Kind are populated.
type Tag struct {
	Kind TagKind

	// Heading level, 1 through 6.
	Level int
	// Block quote callout class.
	Quote QuoteKind
	// Ordered-list start index; nil means a bulleted list.
	Start *int
	// Fenced code block language tag ("" for indented blocks).
	Language string
	// Link or image destination and title.
	URL   string
	Title string
	// Footnote definition label.
	Label string
	// Table column alignments.
	Alignments []Alignment
}

// Event is one markup event.
type Event struct {
	Kind EventKind
	// Tag is set for EventStart and EventEnd.
	Tag Tag
	// Text is set for EventText, EventCode, EventHTML and
	// EventFootnoteReference.
	Text string
	// Checked is set for EventTaskListMarker.
	Checked bool
}
