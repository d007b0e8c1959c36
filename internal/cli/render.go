package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/asmbridge/pkg/markup"
)

// maxWrapWidth caps wrapping on very wide terminals.
const maxWrapWidth = 100

type docOutputFlags struct {
	plain bool
	html  bool
}

func addDocOutputFlags(cmd *cobra.Command, flags *docOutputFlags) {
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "print plain text instead of Markdown")
	cmd.Flags().BoolVar(&flags.html, "html", false, "print HTML instead of Markdown")
	cmd.MarkFlagsMutuallyExclusive("plain", "html")
}

// writeDocument prints doc in the selected form. Plain text is wrapped to
// the terminal width when w is a terminal.
func writeDocument(w io.Writer, doc *markup.Document, flags *docOutputFlags) error {
	var out string
	switch {
	case flags.html:
		html, err := doc.AsHTML()
		if err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		out = html
	case flags.plain:
		out = doc.AsPlainText()
		if width := terminalWidth(w); width > 0 {
			out = lipgloss.NewStyle().Width(min(width, maxWrapWidth)).Render(out)
		}
	default:
		out = doc.AsMarkdown()
	}

	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

// terminalWidth returns the column count of w, or 0 when w is not a
// terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
