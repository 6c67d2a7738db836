package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/jacksmith/zonesync/internal/model"
)

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Skip("cannot create temp file")
	}
	defer f.Close()

	assert.False(t, IsTerminal(f), "temp file should not be a terminal")

	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf), "bytes.Buffer should not be a terminal")
}

func TestColorFunctions(t *testing.T) {
	SetColorEnabled(true)
	assert.True(t, ColorEnabled())
	assert.Equal(t, "\033[32mzone\033[0m", Green("zone"))
	assert.Equal(t, "\033[31mzone\033[0m", Red("zone"))
	assert.Equal(t, "\033[33mzone\033[0m", Yellow("zone"))
	assert.Equal(t, "\033[90mzone\033[0m", Gray("zone"))

	SetColorEnabled(false)
	assert.False(t, ColorEnabled())
	assert.Equal(t, "zone", Green("zone"))
	assert.Equal(t, "zone", Red("zone"))
	assert.Equal(t, "zone", Yellow("zone"))
	assert.Equal(t, "zone", Gray("zone"))
}

func TestStateLabel(t *testing.T) {
	SetColorEnabled(false)

	tests := []struct {
		state model.FeatureState
		want  string
	}{
		{model.FeatureStatePristine, "pristine"},
		{model.FeatureStateInserted, "+ inserted"},
		{model.FeatureStateModified, "~ modified"},
		{model.FeatureStateDeleted, "- deleted"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, StateLabel(tt.state))
		})
	}

	SetColorEnabled(true)
	defer SetColorEnabled(false)
	assert.Equal(t, Green("+ inserted"), StateLabel(model.FeatureStateInserted))
}

func TestGeometrySummary(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
		want string
	}{
		{"nil", nil, "-"},
		{"point", orb.Point{1, 2}, "Point(1)"},
		{"line", orb.LineString{{0, 0}, {1, 1}, {2, 0}}, "LineString(3)"},
		{"polygon with hole", orb.Polygon{
			{{0, 0}, {4, 0}, {4, 4}, {0, 0}},
			{{1, 1}, {2, 1}, {2, 2}, {1, 1}},
		}, "Polygon(8)"},
		{"multipolygon", orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
		}, "MultiPolygon(8)"},
		{"multipoint", orb.MultiPoint{{0, 0}, {1, 1}}, "MultiPoint(2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GeometrySummary(tt.geom))
		})
	}
}

func TestTableEmpty(t *testing.T) {
	table := NewTable()
	var buf bytes.Buffer
	table.Render(&buf)
	assert.Equal(t, "", buf.String())
	assert.Equal(t, 0, table.Len())
}

func TestTableColumnAlignment(t *testing.T) {
	table := NewTable()
	table.AddRow("zones.1", "pristine", "Parking nord")
	table.AddRow("zones.12", "modified", "Entrepôt")
	table.AddRow("zones.3", "deleted", "Quai 3")

	var buf bytes.Buffer
	table.Render(&buf)

	expected := "zones.1   pristine  Parking nord\n" +
		"zones.12  modified  Entrepôt\n" +
		"zones.3   deleted   Quai 3\n"
	assert.Equal(t, expected, buf.String())
	assert.Equal(t, 3, table.Len())
}

func TestTableWithColoredText(t *testing.T) {
	SetColorEnabled(true)
	defer SetColorEnabled(false)

	table := NewTable()
	table.AddRow("zones.1", Green("inserted"), "A")
	table.AddRow("zones.2", Red("deleted"), "B")

	var buf bytes.Buffer
	table.Render(&buf)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, visibleWidth(lines[0]), visibleWidth(lines[1]))
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"hello", 5},
		{"", 0},
		{"\033[32mhello\033[0m", 5},
		{"\033[31m\033[0m", 0},
		{"a\033[32mb\033[0mc", 3},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, visibleWidth(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"no truncation needed", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"very short max", "hello world", 3, "..."},
		{"max 1", "hello", 1, "h"},
		{"max 0", "hello", 0, ""},
		{"empty string", "", 10, ""},
		{"long name", strings.Repeat("x", 100), 20, strings.Repeat("x", 17) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxWidth)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, visibleWidth(got), tt.maxWidth)
		})
	}
}

func TestTruncateWithANSI(t *testing.T) {
	SetColorEnabled(true)
	defer SetColorEnabled(false)

	got := Truncate(Green("hello world"), 8)
	assert.Equal(t, 8, visibleWidth(got))
	assert.Contains(t, got, "...")
	assert.True(t, strings.HasSuffix(got, colorReset), "should end with ANSI reset")

	short := Green("hi")
	assert.Equal(t, short, Truncate(short, 10))
}

func TestTableSetMaxWidth(t *testing.T) {
	table := NewTable()
	table.SetMaxWidth(1, 10)
	table.AddRow("zones.1", strings.Repeat("x", 100), "end")
	table.AddRow("zones.2", "short", "end")

	var buf bytes.Buffer
	table.Render(&buf)

	output := buf.String()
	assert.Contains(t, output, "...")
	assert.NotContains(t, output, strings.Repeat("x", 11))
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.True(t, strings.HasSuffix(line, "end"))
	}
}

func TestTableUnevenRows(t *testing.T) {
	table := NewTable()
	table.AddRow("a", "b", "c")
	table.AddRow("d", "e")

	var buf bytes.Buffer
	table.Render(&buf)
	assert.Equal(t, "a  b  c\nd  e\n", buf.String())
}
