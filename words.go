package paper

import (
	"strings"
	"unicode"
)

// BreakPolicy describes where lines may not be broken in ideographic
// text. NoEndLine holds runes that must never end a line (opening
// brackets and quotes; they stay attached to the token that follows).
// NoStartLine holds runes that must never start a line (closing
// brackets and trailing punctuation; they stay attached to the token
// that precedes them). The classes are consulted only when one of the
// adjoining runes is a CJK code point.
//
// The default tables are not asserted to be complete for all East-Asian
// typography; callers with stricter requirements can substitute their
// own.
type BreakPolicy struct {
	NoEndLine   string
	NoStartLine string
}

// DefaultBreakPolicy returns the break-prohibition tables used when a
// Segmenter is created without an explicit policy.
func DefaultBreakPolicy() BreakPolicy {
	return BreakPolicy{
		NoEndLine:   "([{“‘「『（【〔〈《〖〘〚",
		NoStartLine: ")]}”’」』）】〕〉》〗〙〛、。，．！？：；・ー々",
	}
}

func (bp BreakPolicy) canBreak(prev, next rune) bool {
	if strings.ContainsRune(bp.NoEndLine, prev) {
		return false
	}
	if strings.ContainsRune(bp.NoStartLine, next) {
		return false
	}
	return true
}

// isCJK reports whether a rune belongs to the East-Asian blocks the
// segmenter treats as breakable between adjacent characters.
func isCJK(r rune) bool {
	if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
		return true
	}
	// CJK symbols/punctuation and fullwidth forms.
	return (r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xffef)
}

// Segmenter splits a source line into atomic, re-joinable tokens along
// whitespace and hyphenation boundaries. Iteration is one-shot; Undo
// rewinds exactly one step, giving consumers one token of lookahead.
//
// In the default mode a whitespace gap collapses to a single leading
// space on the following token. In preserving mode (used for plain
// rendering) the gap is carried verbatim, so concatenating every token
// reproduces the source exactly.
type Segmenter struct {
	src      []rune
	pos      int
	prev     int
	preserve bool
	policy   BreakPolicy
}

// NewSegmenter returns a segmenter over source in the default mode.
func NewSegmenter(source string) *Segmenter {
	return &Segmenter{src: []rune(source), policy: DefaultBreakPolicy()}
}

// NewPreservingSegmenter returns a segmenter that keeps whitespace runs
// verbatim.
func NewPreservingSegmenter(source string) *Segmenter {
	s := NewSegmenter(source)
	s.preserve = true
	return s
}

// SetBreakPolicy replaces the ideographic break-prohibition tables.
func (s *Segmenter) SetBreakPolicy(policy BreakPolicy) {
	s.policy = policy
}

// Next returns the next token. The second result is false once the
// source is exhausted.
func (s *Segmenter) Next() (string, bool) {
	if s.pos >= len(s.src) {
		return "", false
	}
	s.prev = s.pos

	start := s.pos
	ws := start
	for ws < len(s.src) && unicode.IsSpace(s.src[ws]) {
		ws++
	}
	if ws == len(s.src) {
		// Trailing whitespace with no word after it.
		s.pos = ws
		if s.preserve {
			return string(s.src[start:ws]), true
		}
		return " ", true
	}

	end := ws
	for end < len(s.src) {
		r := s.src[end]
		end++
		if r == '-' {
			break
		}
		if end < len(s.src) {
			n := s.src[end]
			if unicode.IsSpace(n) {
				break
			}
			if (isCJK(r) || isCJK(n)) && s.policy.canBreak(r, n) {
				break
			}
		}
	}
	s.pos = end

	word := string(s.src[ws:end])
	if ws == start {
		return word, true
	}
	if s.preserve {
		return string(s.src[start:ws]) + word, true
	}
	return " " + word, true
}

// Undo rewinds the segmenter to its position before the most recent
// call to Next. Only one step of history is kept.
func (s *Segmenter) Undo() {
	s.pos = s.prev
}

// longestToken returns the widest trimmed token in text, in columns.
// Table layout uses it as the hard floor for a column's width.
func longestToken(text string) int {
	longest := 0
	seg := NewSegmenter(text)
	for {
		tok, ok := seg.Next()
		if !ok {
			break
		}
		if w := stringWidth(strings.TrimSpace(tok)); w > longest {
			longest = w
		}
	}
	return longest
}
