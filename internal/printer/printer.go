// Package printer renders boats, map markers and toasts for the terminal.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/OCAP2/boatsync/pkg/core"
)

func init() {
	// Users can disable with NO_COLOR.
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Boats prints boats as a table. selectedID, if present, is highlighted.
func Boats(w io.Writer, boats []core.Boat, selectedID string) {
	if len(boats) == 0 {
		yellow.Fprintln(w, "No boats found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tLENGTH\tPRICE\tLOCATION\tCONTACT")
	for _, b := range boats {
		line := fmt.Sprintf("%s\t%s\t%s\t%.1f\t%.0f\t%s\t%s",
			b.ID, b.Name, b.TypeID, b.Length, b.Price, location(b), b.ContactName)
		if b.ID == selectedID {
			line = cyan.Sprint(line)
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}

func location(b core.Boat) string {
	pos, ok := b.Position()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.4f,%.4f", pos.Latitude, pos.Longitude)
}

// Markers prints map markers, one per line.
func Markers(w io.Writer, markers []core.MapMarker) {
	if len(markers) == 0 {
		yellow.Fprintln(w, "Nothing to show on the map.")
		return
	}
	for _, m := range markers {
		title := m.Title
		if m.Icon != "" {
			title = bold.Sprint(title)
		}
		fmt.Fprintf(w, "%s  %.5f,%.5f\n", title, m.Latitude, m.Longitude)
	}
}

// Heading prints a section title.
func Heading(w io.Writer, format string, a ...any) {
	bold.Fprintf(w, format+"\n", a...)
}

// Toast prints a notification in its severity color.
func Toast(w io.Writer, n core.Notification) {
	switch n.Severity {
	case core.SeveritySuccess:
		green.Fprintf(w, "✓ %s: %s\n", n.Title, n.Message)
	case core.SeverityError:
		red.Fprintf(w, "✗ %s: %s\n", n.Title, n.Message)
	default:
		fmt.Fprintf(w, "%s: %s\n", n.Title, n.Message)
	}
}

// Error prints a formatted error with an optional hint to w and returns a
// plain error for cobra.
func Error(w io.Writer, title, explanation string, hints ...string) error {
	red.Fprintf(w, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}
	if len(hints) > 0 {
		fmt.Fprintf(w, "\n%s\n", strings.Join(hints, "\n"))
	}
	return fmt.Errorf("%s", title)
}
