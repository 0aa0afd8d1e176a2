package paper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStyleRender(t *testing.T) {
	s := Style{Prefix: "\x1b[1m"}
	if got := s.Render("x"); got != "\x1b[1mx\x1b[0m" {
		t.Errorf("Render = %q", got)
	}
	if got := (Style{}).Render("x"); got != "x" {
		t.Errorf("zero Render = %q", got)
	}
}

func TestResolveMissReturnsZeroStyle(t *testing.T) {
	ss := NewStylesheet(DefaultProfile())
	if got := ss.Resolve([]string{"paper", "h1"}, ""); got.Prefix != "" {
		t.Errorf("empty sheet resolved to %q", got.Prefix)
	}
}

func TestResolveComposesNestedScopes(t *testing.T) {
	ss := NewStylesheet(DefaultProfile())
	ss.Add(
		StyleRule{Selector: "emphasis", Style: StyleSpec{Italic: true}},
		StyleRule{Selector: "strong", Style: StyleSpec{Bold: true}},
	)
	got := ss.Resolve([]string{"paper", "emphasis", "strong"}, "").Prefix
	if !strings.Contains(got, "\x1b[3m") || !strings.Contains(got, "\x1b[1m") {
		t.Errorf("nested styles = %q, want italic and bold", got)
	}
}

func TestResolveSpecificityOrdersComposition(t *testing.T) {
	ss := NewStylesheet(DefaultProfile())
	ss.Add(
		StyleRule{Selector: "emphasis", Style: StyleSpec{Foreground: "110"}},
		StyleRule{Selector: "blockquote emphasis", Style: StyleSpec{Foreground: "120"}},
	)
	got := ss.Resolve([]string{"paper", "blockquote", "emphasis"}, "").Prefix
	general := strings.Index(got, ";110m")
	specific := strings.Index(got, ";120m")
	if general < 0 || specific < 0 || specific < general {
		t.Errorf("composition order wrong: %q", got)
	}

	// Outside the block quote, only the general rule applies.
	got = ss.Resolve([]string{"paper", "emphasis"}, "").Prefix
	if strings.Contains(got, ";120m") {
		t.Errorf("descendant rule leaked: %q", got)
	}
}

func TestResolveTokenFallsBackToContentRule(t *testing.T) {
	ss := NewStylesheet(DefaultProfile())
	ss.Add(StyleRule{Selector: "h2", Style: StyleSpec{Bold: true}})
	if got := ss.Resolve([]string{"paper", "h2"}, "prefix"); got.Prefix != "\x1b[1m" {
		t.Errorf("token fallback = %q", got.Prefix)
	}
	ss.Add(StyleRule{Selector: "h2", Token: "prefix", Style: StyleSpec{Faint: true}})
	if got := ss.Resolve([]string{"paper", "h2"}, "prefix"); got.Prefix != "\x1b[2m" {
		t.Errorf("token rule = %q", got.Prefix)
	}
}

func TestDefaultStylesheetCoreScopes(t *testing.T) {
	ss := DefaultStylesheet(DefaultProfile())
	if got := ss.Resolve([]string{"paper"}, "").Prefix; got == "" {
		t.Error("paper style unresolved")
	}
	if got := ss.Resolve([]string{"shadow"}, "").Prefix; got == "" {
		t.Error("shadow style unresolved")
	}
	if got := ss.Resolve([]string{"paper", "strong"}, "").Prefix; !strings.Contains(got, "\x1b[1m") {
		t.Errorf("strong = %q, want bold", got)
	}
	if got := ss.Resolve([]string{"paper", "strikethrough"}, "").Prefix; !strings.Contains(got, "\x1b[9m") {
		t.Errorf("strikethrough = %q", got)
	}
}

func TestLoadStylesheetLayersOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.yaml")
	sheet := `styles:
  - selector: emphasis
    fg: "196"
    bold: true
  - selector: h2
    token: prefix
    faint: true
`
	if err := os.WriteFile(path, []byte(sheet), 0o644); err != nil {
		t.Fatal(err)
	}
	ss, err := LoadStylesheet(path, DefaultProfile())
	if err != nil {
		t.Fatal(err)
	}
	got := ss.Resolve([]string{"paper", "emphasis"}, "").Prefix
	if !strings.Contains(got, ";196m") || !strings.Contains(got, "\x1b[1m") {
		t.Errorf("user rule not applied: %q", got)
	}
	// Defaults still present underneath.
	if !strings.Contains(got, "\x1b[3m") {
		t.Errorf("default italic lost: %q", got)
	}
}

func TestLoadStylesheetErrors(t *testing.T) {
	if _, err := LoadStylesheet(filepath.Join(t.TempDir(), "missing.yaml"), DefaultProfile()); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("styles: {not: a list}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStylesheet(path, DefaultProfile()); err == nil {
		t.Error("expected error for malformed sheet")
	}
}
