package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJournal(t *testing.T) {
	content := `version: 1
feature_type: geoimage:zones
changes:
  inserted: [new-5b0c1d2e-0000-4000-8000-000000000001]
  modified: [zones.2]
  deleted: [zones.3, "17"]
modes:
  draw: true
  modify: false
last_error: "Failed to save changes: WFS-T request failed: 500 Internal Server Error"
updated: 2025-12-02T10:30:00Z
`
	path := filepath.Join(t.TempDir(), "journal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	j, err := LoadJournal(path)
	require.NoError(t, err)

	assert.Equal(t, 1, j.Version)
	assert.Equal(t, "geoimage:zones", j.FeatureType)
	assert.Equal(t, []string{"new-5b0c1d2e-0000-4000-8000-000000000001"}, j.Changes.Inserted)
	assert.Equal(t, []string{"zones.2"}, j.Changes.Modified)
	assert.Equal(t, []string{"zones.3", "17"}, j.Changes.Deleted)
	assert.True(t, j.Modes.DrawEnabled)
	assert.False(t, j.Modes.ModifyEnabled)
	assert.Contains(t, j.LastError, "500 Internal Server Error")
	assert.Equal(t, time.Date(2025, 12, 2, 10, 30, 0, 0, time.UTC), j.Updated.UTC())
}

func TestLoadJournalRejectsBrokenInvariants(t *testing.T) {
	content := `version: 1
changes:
  inserted: [zones.1]
  deleted: [zones.1]
`
	path := filepath.Join(t.TempDir(), "journal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadJournal(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zones.1")
}

func TestLoadJournalMissingFile(t *testing.T) {
	_, err := LoadJournal(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSaveJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	in := &Journal{
		FeatureType: "geoimage:zones",
		Changes: ChangeSets{
			Inserted: []string{"new-a"},
			Modified: []string{"zones.2"},
			Deleted:  []string{"123", "draw-9"},
		},
		Modes:          Modes{ModifyEnabled: true},
		UnsavedDeletes: []string{"draw-9"},
		LastError:      "line one\nline two",
		Updated:        time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, SaveJournal(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inserted: [new-a]")
	assert.Contains(t, string(data), "last_error: |")
	assert.Contains(t, string(data), "unsaved_deletes: [draw-9]")

	out, err := LoadJournal(path)
	require.NoError(t, err)
	assert.Equal(t, JournalVersion, out.Version)
	assert.Equal(t, in.Changes, out.Changes)
	assert.Equal(t, in.Modes, out.Modes)
	assert.Equal(t, []string{"draw-9"}, out.UnsavedDeletes)
	assert.Equal(t, "line one\nline two", out.LastError)
	assert.True(t, in.Updated.Equal(out.Updated))
}

func TestSaveJournalOmitsEmptyBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	require.NoError(t, SaveJournal(path, &Journal{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "inserted")
	assert.NotContains(t, string(data), "last_error")
	assert.NotContains(t, string(data), "unsaved_deletes")

	out, err := LoadJournal(path)
	require.NoError(t, err)
	assert.True(t, out.Changes.Empty())
}

func TestFeatureAttributes(t *testing.T) {
	f := Feature{ID: "zones.1", Geometry: orb.Point{1, 2}}
	assert.Equal(t, DefaultName, f.Name())
	assert.Equal(t, DefaultType, f.Type())

	f.Set(AttrName, "")
	assert.Equal(t, DefaultName, f.Name())

	f.Set(AttrName, "Parcelle A")
	f.Set(AttrType, 3)
	assert.Equal(t, "Parcelle A", f.Name())
	assert.Equal(t, "3", f.Type())
}

func TestFeatureClone(t *testing.T) {
	f := Feature{
		ID:       "zones.1",
		Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		Properties: map[string]any{
			"name": "A",
			"tags": []any{"x"},
		},
	}
	c := f.Clone()
	c.Geometry.(orb.Polygon)[0][0] = orb.Point{9, 9}
	c.Properties["name"] = "B"
	c.Properties["tags"].([]any)[0] = "y"

	assert.Equal(t, orb.Point{0, 0}, f.Geometry.(orb.Polygon)[0][0])
	assert.Equal(t, "A", f.Properties["name"])
	assert.Equal(t, "x", f.Properties["tags"].([]any)[0])
}
