package format

import (
	"fmt"
	"io"
	"strings"
)

// TerminalRenderer turns markdown into styled terminal output.
type TerminalRenderer interface {
	Terminal(markdown string, width int) (string, error)
}

// WriteMarkdown writes raw markdown, ending with exactly one newline.
func WriteMarkdown(w io.Writer, md string) error {
	_, err := io.WriteString(w, strings.TrimRight(md, "\n")+"\n")
	return err
}

// WritePretty renders markdown for the terminal.
func WritePretty(w io.Writer, md string, r TerminalRenderer, width int) error {
	out, err := r.Terminal(md, width)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
