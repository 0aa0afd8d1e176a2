// Package paper renders Markdown as a styled, fixed-width page in a
// terminal: word-wrapped paragraphs, lists, block quotes with semantic
// callouts, bordered tables, fenced code with optional external syntax
// highlighting, footnotes, and inline images drawn as half-block pixel
// art.
//
// The package is built around a single-pass event consumer: an external
// parser (a goldmark adapter ships with the package) produces a stream
// of block and inline markup events, and the Printer folds them through
// a stack of formatting scopes, emitting complete, width-exact terminal
// lines as it goes. Output is a line stream written to an io.Writer,
// never a buffer handed back to the caller.
//
// Example:
//
//	err := paper.Render(paper.Request{
//		Source: []byte("# Hello\n\nMarkdown in, a paper page out.\n"),
//		Writer: os.Stdout,
//		Width:  92,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Styling is driven by a Stylesheet: scope-name paths (outer to inner)
// resolve to ANSI style prefixes, with a built-in default sheet and
// optional YAML overrides.
package paper
