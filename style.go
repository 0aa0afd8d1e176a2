package paper

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

const ansiReset = "\x1b[0m"

// DefaultProfile returns the color profile styles compile to when no
// stylesheet is supplied. 256 colors renders predictably everywhere a
// pager might land.
func DefaultProfile() termenv.Profile { return termenv.ANSI256 }

// Style describes a terminal style as an ANSI prefix sequence. The raw
// prefix form matters: code-block rendering re-injects it after every
// reset embedded in highlighter output.
type Style struct {
	Prefix string
}

// Render paints text with the style, terminated by a reset. The zero
// Style renders text unchanged.
func (s Style) Render(text string) string {
	if s.Prefix == "" {
		return text
	}
	return s.Prefix + text + ansiReset
}

// StyleSpec is one declarable style: colors in any form the terminal
// profile understands ("196", "#ff0000") plus flat attributes.
type StyleSpec struct {
	Foreground string `yaml:"fg"`
	Background string `yaml:"bg"`
	Bold       bool   `yaml:"bold"`
	Faint      bool   `yaml:"faint"`
	Italic     bool   `yaml:"italic"`
	Underline  bool   `yaml:"underline"`
	CrossOut   bool   `yaml:"strikethrough"`
}

// StyleRule binds a StyleSpec to a scope-path selector. The selector is
// a space-separated list of scope names matched as a subsequence of the
// open-scope path, outermost first, so "blockquote emphasis" styles
// emphasized text anywhere inside a block quote. Token narrows the rule
// to a decoration ("prefix", "suffix", "lang-tag"); an empty token
// styles the scope's content.
type StyleRule struct {
	Selector string    `yaml:"selector"`
	Token    string    `yaml:"token"`
	Style    StyleSpec `yaml:",inline"`
}

type compiledRule struct {
	segments []string
	token    string
	prefix   string
}

// Stylesheet resolves scope paths to styles. Matching rules compose in
// specificity order (segment count, then declaration order), so nested
// scopes accumulate attributes the way nested markup does. A path with
// no matching rules resolves to the zero Style, never an error.
type Stylesheet struct {
	profile termenv.Profile
	rules   []compiledRule
	cache   map[string]Style
}

// NewStylesheet returns an empty stylesheet compiling colors for the
// given terminal profile.
func NewStylesheet(profile termenv.Profile) *Stylesheet {
	return &Stylesheet{profile: profile, cache: map[string]Style{}}
}

// Add appends rules to the sheet. Later rules win ties.
func (ss *Stylesheet) Add(rules ...StyleRule) {
	for _, r := range rules {
		ss.rules = append(ss.rules, compiledRule{
			segments: strings.Fields(r.Selector),
			token:    r.Token,
			prefix:   compileSpec(ss.profile, r.Style),
		})
	}
	ss.cache = map[string]Style{}
}

func compileSpec(profile termenv.Profile, spec StyleSpec) string {
	var params []string
	if spec.Bold {
		params = append(params, "1")
	}
	if spec.Faint {
		params = append(params, "2")
	}
	if spec.Italic {
		params = append(params, "3")
	}
	if spec.Underline {
		params = append(params, "4")
	}
	if spec.CrossOut {
		params = append(params, "9")
	}
	if spec.Foreground != "" {
		if c := profile.Color(spec.Foreground); c != nil {
			params = append(params, c.Sequence(false))
		}
	}
	if spec.Background != "" {
		if c := profile.Color(spec.Background); c != nil {
			params = append(params, c.Sequence(true))
		}
	}
	if len(params) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(params, ";") + "m"
}

// Resolve returns the composed style for a scope path (outermost first)
// and decoration token ("" for content). Rules whose token does not
// match are skipped; content rules apply to decoration tokens as a
// fallback when no token-specific rule matches at all.
func (ss *Stylesheet) Resolve(path []string, token string) Style {
	key := strings.Join(path, "\x00") + "\x00\x00" + token
	if s, ok := ss.cache[key]; ok {
		return s
	}
	prefix := ss.compose(path, token)
	if prefix == "" && token != "" {
		prefix = ss.compose(path, "")
	}
	style := Style{Prefix: prefix}
	ss.cache[key] = style
	return style
}

func (ss *Stylesheet) compose(path []string, token string) string {
	type match struct {
		specificity int
		order       int
		prefix      string
	}
	var matches []match
	for i, rule := range ss.rules {
		if rule.token != token {
			continue
		}
		if !subsequence(rule.segments, path) {
			continue
		}
		matches = append(matches, match{len(rule.segments), i, rule.prefix})
	}
	// Insertion sort keeps declaration order stable within a
	// specificity class; rule counts are tiny.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j-1].specificity > matches[j].specificity; j-- {
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.prefix)
	}
	return b.String()
}

func subsequence(needle, haystack []string) bool {
	if len(needle) == 0 {
		return false
	}
	i := 0
	for _, s := range haystack {
		if s == needle[i] {
			i++
			if i == len(needle) {
				return true
			}
		}
	}
	return false
}

// stylesheetFile is the YAML document shape accepted by LoadStylesheet.
type stylesheetFile struct {
	Styles []StyleRule `yaml:"styles"`
}

// LoadStylesheet reads YAML rules from path and layers them over the
// built-in defaults, so user sheets only need to declare overrides.
func LoadStylesheet(path string, profile termenv.Profile) (*Stylesheet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}
	var file stylesheetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse stylesheet %s: %w", path, err)
	}
	ss := DefaultStylesheet(profile)
	ss.Add(file.Styles...)
	return ss, nil
}

// DefaultStylesheet returns the built-in sheet: dark text on a light
// page with a drop shadow, semantic callout colors, and conventional
// inline styling.
func DefaultStylesheet(profile termenv.Profile) *Stylesheet {
	ss := NewStylesheet(profile)
	ss.Add(
		StyleRule{Selector: "paper", Style: StyleSpec{Foreground: "235", Background: "255"}},
		StyleRule{Selector: "shadow", Style: StyleSpec{Background: "236"}},

		StyleRule{Selector: "h1", Style: StyleSpec{Bold: true}},
		StyleRule{Selector: "h2", Style: StyleSpec{Bold: true}},
		StyleRule{Selector: "h2", Token: "prefix", Style: StyleSpec{Faint: true}},
		StyleRule{Selector: "h2", Token: "suffix", Style: StyleSpec{Faint: true}},
		StyleRule{Selector: "h3", Style: StyleSpec{Bold: true, Italic: true}},
		StyleRule{Selector: "h4", Style: StyleSpec{Italic: true}},
		StyleRule{Selector: "h5", Style: StyleSpec{Italic: true, Faint: true}},
		StyleRule{Selector: "h6", Style: StyleSpec{Faint: true}},

		StyleRule{Selector: "emphasis", Style: StyleSpec{Italic: true}},
		StyleRule{Selector: "strong", Style: StyleSpec{Bold: true}},
		StyleRule{Selector: "strikethrough", Style: StyleSpec{CrossOut: true}},
		StyleRule{Selector: "link", Style: StyleSpec{Foreground: "26", Underline: true}},
		StyleRule{Selector: "caption", Style: StyleSpec{Italic: true, Faint: true}},

		StyleRule{Selector: "code", Style: StyleSpec{Foreground: "124"}},
		StyleRule{Selector: "codeblock", Style: StyleSpec{Foreground: "235", Background: "254"}},
		StyleRule{Selector: "codeblock", Token: "lang-tag", Style: StyleSpec{Italic: true, Faint: true}},

		StyleRule{Selector: "blockquote", Token: "prefix", Style: StyleSpec{Faint: true}},
		StyleRule{Selector: "note-blockquote", Token: "prefix", Style: StyleSpec{Foreground: "26"}},
		StyleRule{Selector: "tip-blockquote", Token: "prefix", Style: StyleSpec{Foreground: "28"}},
		StyleRule{Selector: "important-blockquote", Token: "prefix", Style: StyleSpec{Foreground: "91"}},
		StyleRule{Selector: "warning-blockquote", Token: "prefix", Style: StyleSpec{Foreground: "130"}},
		StyleRule{Selector: "caution-blockquote", Token: "prefix", Style: StyleSpec{Foreground: "124"}},

		StyleRule{Selector: "li", Token: "prefix", Style: StyleSpec{Foreground: "26"}},
		StyleRule{Selector: "footnote-ref", Style: StyleSpec{Foreground: "26"}},
		StyleRule{Selector: "footnote-def", Style: StyleSpec{Bold: true, Faint: true}},
	)
	return ss
}
