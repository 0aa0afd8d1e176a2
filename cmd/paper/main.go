package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/paper"
)

const (
	defaultWidth   = 92
	defaultHMargin = 6
	defaultVMargin = 1
	defaultTab     = 4
)

func main() {
	var (
		widthFlag    int
		hMargin      int
		vMargin      int
		tabLength    int
		plain        bool
		hideURLs     bool
		noImages     bool
		placeLeft    bool
		placeRight   bool
		highlightCmd string
		stylePath    string
		dev          bool
	)

	flags := pflag.NewFlagSet("paper", pflag.ExitOnError)
	flags.IntVarP(&widthFlag, "width", "w", defaultWidth, "Page width in columns, margins included")
	flags.IntVarP(&hMargin, "h-margin", "m", defaultHMargin, "Horizontal page margin")
	flags.IntVar(&vMargin, "v-margin", defaultVMargin, "Vertical page margin")
	flags.IntVar(&tabLength, "tab-length", defaultTab, "Spaces per tab")
	flags.BoolVarP(&plain, "plain", "p", false, "Render input verbatim, without Markdown")
	flags.BoolVarP(&hideURLs, "hide-urls", "u", false, "Hide link and image URLs")
	flags.BoolVarP(&noImages, "no-images", "i", false, "Replace images with a textual placeholder")
	flags.BoolVar(&placeLeft, "left", false, "Place the page at the left edge")
	flags.BoolVar(&placeRight, "right", false, "Place the page at the right edge")
	flags.StringVarP(&highlightCmd, "highlight", "H", "", "External highlighter command for code blocks (e.g. syncat)")
	flags.StringVarP(&stylePath, "style", "s", "", "Stylesheet path (default: config dir paper/paper.yaml)")
	flags.BoolVar(&dev, "dev", false, "Dump the markup event stream instead of rendering")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: paper [flags] [files...]")
		fmt.Fprintln(os.Stderr, "\nIf no file is provided, Markdown is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sheet, err := resolveStylesheet(stylePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stylesheet: %v\n", err)
		os.Exit(2)
	}

	placement := paper.PlaceCenter
	if placeLeft {
		placement = paper.PlaceLeft
	}
	if placeRight {
		placement = paper.PlaceRight
	}

	var highlighter paper.Highlighter
	if highlightCmd != "" {
		highlighter = paper.CommandHighlighter{Command: highlightCmd}
	}

	inputs := flags.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	exit := 0
	for _, input := range inputs {
		source, err := readDocument(input)
		if err != nil {
			// Keep going; the next document may still render.
			fmt.Fprintf(os.Stderr, "read %s: %v\n", input, err)
			exit = 1
			continue
		}
		if dev {
			dumpEvents(os.Stdout, source)
			continue
		}
		err = paper.Render(paper.Request{
			Source:        source,
			Writer:        os.Stdout,
			Width:         widthFlag,
			HMargin:       hMargin,
			VMargin:       vMargin,
			TabLength:     tabLength,
			TerminalWidth: terminalWidth(0),
			Placement:     placement,
			HideURLs:      hideURLs,
			NoImages:      noImages,
			Plain:         plain,
			Highlighter:   highlighter,
			Stylesheet:    sheet,
			Logger:        log,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "render %s: %v\n", input, err)
			os.Exit(1)
		}
	}
	os.Exit(exit)
}

func readDocument(input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(normalizePath(input))
}

// resolveStylesheet loads an explicit sheet, or the user config sheet
// when one exists. A missing config sheet is not an error; Render then
// uses the built-in defaults.
func resolveStylesheet(path string) (*paper.Stylesheet, error) {
	if path != "" {
		return paper.LoadStylesheet(normalizePath(path), paper.DefaultProfile())
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, nil
	}
	candidate := filepath.Join(dir, "paper", "paper.yaml")
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return paper.LoadStylesheet(candidate, paper.DefaultProfile())
}

func dumpEvents(w io.Writer, source []byte) {
	for _, ev := range paper.Events(source) {
		fmt.Fprintf(w, "%+v\n", ev)
	}
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
