package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
)

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// PrintBanner writes the boxed title centered to the terminal width. Colors
// are only used when stdout is a terminal.
func PrintBanner(w io.Writer, title, subtitle string) {
	inner := len(title)
	if len(subtitle) > inner {
		inner = len(subtitle)
	}
	inner += 6

	lines := []string{
		"╔" + strings.Repeat("═", inner) + "╗",
		"║   " + title + strings.Repeat(" ", inner-3-len(title)) + "║",
		"║   " + subtitle + strings.Repeat(" ", inner-3-len(subtitle)) + "║",
		"╚" + strings.Repeat("═", inner) + "╝",
	}

	color, reset := "", ""
	if IsTerminal() {
		color, reset = colorNeonCyan, colorReset
	}

	width := termWidth()
	for _, l := range lines {
		padding := (width - inner - 2) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", padding), color, l, reset)
	}
}
