// Package render prints contact tables, styled for terminals and plain
// tab-separated text otherwise.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/rolodex/internal/contact"
)

// Options configures table rendering.
type Options struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if the writer is a TTY.
}

var headers = [4]string{"ID", "Name", "Email", "Phone"}

// Per-column cell colors: id cyan, name magenta, email green, phone yellow.
var columnColors = [4]lipgloss.AdaptiveColor{
	{Light: "6", Dark: "14"},
	{Light: "5", Dark: "13"},
	{Light: "2", Dark: "10"},
	{Light: "3", Dark: "11"},
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Contacts renders the records as a table. A styled table is used when
// the writer is a TTY and ForcePlain is unset; plain tab-aligned text
// otherwise. title is only shown in styled mode and may be empty.
func Contacts(opts Options, contacts []contact.Contact, title string) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	if len(contacts) == 0 {
		_, _ = fmt.Fprintln(w, "No contacts found.")
		return
	}

	if opts.ForcePlain || !isTTY(w) {
		plainTable(w, contacts)
		return
	}
	styledTable(w, contacts, title)
}

// PageTitle formats a list title like "Contacts — page 2 of 5 (42 total)".
func PageTitle(page, perPage int, total int64) string {
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("Contacts - page %d of %d (%d total)", page, pages, total)
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// plainTable writes tab-aligned rows suitable for pipes and scripts.
func plainTable(w io.Writer, contacts []contact.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers[:], "\t"))
	for _, c := range contacts {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone)
	}
	_ = tw.Flush()
}

// styledTable writes a lipgloss-colored table with an optional title.
func styledTable(w io.Writer, contacts []contact.Contact, title string) {
	widths := [4]int{}
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	rows := make([][4]string, len(contacts))
	for i, c := range contacts {
		rows[i] = [4]string{strconv.FormatInt(c.ID, 10), c.Name, c.Email, c.Phone}
		for col, cell := range rows[i] {
			if lw := lipgloss.Width(cell); lw > widths[col] {
				widths[col] = lw
			}
		}
	}

	if title != "" {
		_, _ = fmt.Fprintln(w, titleStyle.Render(title))
	}

	var header strings.Builder
	for col, h := range headers {
		header.WriteString(headerStyle.Width(widths[col] + 2).Render(h))
	}
	_, _ = fmt.Fprintln(w, header.String())

	for _, row := range rows {
		var line strings.Builder
		for col, cell := range row {
			style := lipgloss.NewStyle().
				Foreground(columnColors[col]).
				Width(widths[col] + 2)
			line.WriteString(style.Render(cell))
		}
		_, _ = fmt.Fprintln(w, line.String())
	}
}
