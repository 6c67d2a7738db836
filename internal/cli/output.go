package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/term"

	"github.com/jacksmith/zonesync/internal/model"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// colorEnabled is set from terminal detection and can be overridden.
var colorEnabled = true

func init() {
	colorEnabled = IsTerminal(os.Stdout)
}

// SetColorEnabled overrides terminal detection.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// ColorEnabled returns whether color output is currently enabled.
func ColorEnabled() bool {
	return colorEnabled
}

// IsTerminal returns true if w is a terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + colorReset
}

// Green returns s in green if colors are enabled.
func Green(s string) string { return paint(colorGreen, s) }

// Red returns s in red if colors are enabled.
func Red(s string) string { return paint(colorRed, s) }

// Yellow returns s in yellow if colors are enabled.
func Yellow(s string) string { return paint(colorYellow, s) }

// Gray returns s in gray if colors are enabled.
func Gray(s string) string { return paint(colorGray, s) }

// StateLabel renders a feature state the way zone lists show it: inserted
// zones green, modified yellow, deleted red.
func StateLabel(s model.FeatureState) string {
	switch s {
	case model.FeatureStateInserted:
		return Green("+ " + string(s))
	case model.FeatureStateModified:
		return Yellow("~ " + string(s))
	case model.FeatureStateDeleted:
		return Red("- " + string(s))
	default:
		return Gray(string(s))
	}
}

// GeometrySummary describes g briefly, e.g. "Polygon(5)" for a polygon with
// five vertices in total.
func GeometrySummary(g orb.Geometry) string {
	if g == nil {
		return "-"
	}
	return fmt.Sprintf("%s(%d)", g.GeoJSONType(), countPoints(g))
}

func countPoints(g orb.Geometry) int {
	switch g := g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(g)
	case orb.LineString:
		return len(g)
	case orb.Ring:
		return len(g)
	case orb.MultiLineString:
		n := 0
		for _, ls := range g {
			n += len(ls)
		}
		return n
	case orb.Polygon:
		n := 0
		for _, r := range g {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range g {
			n += countPoints(p)
		}
		return n
	case orb.Collection:
		n := 0
		for _, c := range g {
			n += countPoints(c)
		}
		return n
	}
	return 0
}

// DefaultMaxNameWidth is the default maximum visible width of name columns.
const DefaultMaxNameWidth = 40

// Table formats columnar output with automatic column widths.
type Table struct {
	rows      [][]string
	colWidths []int
	maxWidths map[int]int
}

// NewTable creates a new empty table.
func NewTable() *Table {
	return &Table{}
}

// SetMaxWidth caps the visible width of a column. Longer cells are
// truncated with "...".
func (t *Table) SetMaxWidth(col, maxWidth int) {
	if t.maxWidths == nil {
		t.maxWidths = make(map[int]int)
	}
	t.maxWidths[col] = maxWidth
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	for len(t.colWidths) < len(cols) {
		t.colWidths = append(t.colWidths, 0)
	}
	for i, col := range cols {
		w := visibleWidth(col)
		if maxW, ok := t.maxWidths[i]; ok && w > maxW {
			w = maxW
		}
		t.colWidths[i] = max(t.colWidths[i], w)
	}
	t.rows = append(t.rows, cols)
}

// Len returns the number of rows added.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w with columns separated by two spaces.
// The last column is not padded.
func (t *Table) Render(w io.Writer) {
	for _, row := range t.rows {
		parts := make([]string, len(row))
		for i, col := range row {
			if maxW, ok := t.maxWidths[i]; ok {
				col = Truncate(col, maxW)
			}
			if i < len(row)-1 {
				col += strings.Repeat(" ", t.colWidths[i]-visibleWidth(col))
			}
			parts[i] = col
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}
}

// Truncate cuts s to maxWidth visible characters, ending in "..." when
// there is room for it. ANSI codes are kept and closed with a reset.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if visibleWidth(s) <= maxWidth {
		return s
	}

	const ellipsis = "..."
	limit, tail := maxWidth, ""
	if maxWidth >= len(ellipsis) {
		limit, tail = maxWidth-len(ellipsis), ellipsis
	}

	var b strings.Builder
	visible := 0
	inEscape, hasANSI := false, false
	for _, r := range s {
		if r == '\033' {
			inEscape, hasANSI = true, true
			b.WriteRune(r)
			continue
		}
		if inEscape {
			b.WriteRune(r)
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		if visible >= limit {
			break
		}
		b.WriteRune(r)
		visible++
	}
	b.WriteString(tail)
	if hasANSI {
		b.WriteString(colorReset)
	}
	return b.String()
}

// visibleWidth returns the width of s excluding ANSI escape codes.
func visibleWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			width++
		}
	}
	return width
}
