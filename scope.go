package paper

import "fmt"

// scopeKind discriminates the formatting contexts a Printer nests.
type scopeKind uint8

const (
	scopePaper scopeKind = iota
	scopeIndent
	scopeItalic
	scopeBold
	scopeStrikethrough
	scopeLink
	scopeCaption
	scopeFootnoteDef
	scopeFootnoteRef
	scopeFootnoteContent
	scopeList
	scopeListItem
	scopeCode
	scopeCodeBlock
	scopeBlockQuote
	scopeTable
	scopeTableHead
	scopeTableRow
	scopeTableCell
	scopeHeading
)

// scope is one frame of the Printer's context stack. Only the fields
// relevant to kind are populated. The list-item marker is the single
// piece of mutable per-scope state: the first rendered line consumes it,
// later lines under the same item get blank indentation.
type scope struct {
	kind scopeKind

	url   string
	title string

	// Ordered-list counter; nil for bulleted lists and their items.
	index   *int
	handled bool

	language   string
	quote      QuoteKind
	alignments []Alignment
	level      int
}

// name returns the stable style-path segment for this scope.
func (s *scope) name() string {
	switch s.kind {
	case scopePaper:
		return "paper"
	case scopeIndent:
		return "indent"
	case scopeItalic:
		return "emphasis"
	case scopeBold:
		return "strong"
	case scopeStrikethrough:
		return "strikethrough"
	case scopeLink:
		return "link"
	case scopeCaption:
		return "caption"
	case scopeFootnoteDef:
		return "footnote-def"
	case scopeFootnoteRef:
		return "footnote-ref"
	case scopeFootnoteContent:
		return "footnote"
	case scopeList:
		if s.index != nil {
			return "ol"
		}
		return "ul"
	case scopeListItem:
		return "li"
	case scopeCode:
		return "code"
	case scopeCodeBlock:
		return "codeblock"
	case scopeBlockQuote:
		switch s.quote {
		case QuoteNote:
			return "note-blockquote"
		case QuoteTip:
			return "tip-blockquote"
		case QuoteImportant:
			return "important-blockquote"
		case QuoteWarning:
			return "warning-blockquote"
		case QuoteCaution:
			return "caution-blockquote"
		default:
			return "blockquote"
		}
	case scopeTable:
		return "table"
	case scopeTableHead:
		return "th"
	case scopeTableRow:
		return "tr"
	case scopeTableCell:
		return "td"
	case scopeHeading:
		return fmt.Sprintf("h%d", s.level)
	}
	return ""
}

// prefixLen returns the fixed column width of this scope's per-line
// prefix. It never varies for the lifetime of the scope, even though
// the prefix text itself does for list items.
func (s *scope) prefixLen() int {
	switch s.kind {
	case scopeIndent, scopeFootnoteContent, scopeListItem, scopeBlockQuote:
		return 4
	case scopeCodeBlock:
		return 2
	case scopeHeading:
		if s.level == 2 {
			return 5
		}
		return 4
	}
	return 0
}

// prefix returns the text drawn at the start of a wrapped line under
// this scope, consuming the list-item marker on first use.
func (s *scope) prefix() string {
	switch s.kind {
	case scopeIndent, scopeFootnoteContent:
		return "    "
	case scopeListItem:
		if s.handled {
			return "    "
		}
		s.handled = true
		if s.index != nil {
			return fmt.Sprintf("%-4s", fmt.Sprintf("%d.", *s.index))
		}
		return "•   "
	case scopeCodeBlock:
		return "  "
	case scopeBlockQuote:
		return "┃   "
	case scopeHeading:
		if s.level == 2 {
			return "├─── "
		}
		return "    "
	}
	return ""
}

func (s *scope) suffixLen() int {
	switch s.kind {
	case scopeCodeBlock:
		return 2
	case scopeHeading:
		if s.level == 2 {
			return 5
		}
		return 4
	}
	return 0
}

func (s *scope) suffix() string {
	switch s.kind {
	case scopeCodeBlock:
		return "  "
	case scopeHeading:
		if s.level == 2 {
			return " ───┤"
		}
		return "    "
	}
	return ""
}
