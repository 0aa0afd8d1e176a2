package paper

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Highlighter turns raw code into ANSI-styled text for a code block.
// Implementations may embed arbitrary SGR sequences; the Printer
// re-injects the block's base style after every reset it finds.
type Highlighter interface {
	Highlight(language string, width int, source string) (string, error)
}

// CommandHighlighter shells out to an external highlighter such as
// syncat. The subprocess is invoked once per code block as
//
//	<command> -l <language> -w <width>
//
// with the raw code on stdin and styled text expected on stdout. The
// call blocks until the process exits; there is no timeout.
type CommandHighlighter struct {
	Command string
}

func (h CommandHighlighter) Highlight(language string, width int, source string) (string, error) {
	cmd := exec.Command(h.Command, "-l", language, "-w", strconv.Itoa(width))
	cmd.Stdin = strings.NewReader(source)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w", h.Command, err)
	}
	return out.String(), nil
}
