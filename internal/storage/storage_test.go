package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jacksmith/zonesync/internal/model"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Run("init in empty directory creates .zonesync structure", func(t *testing.T) {
		dir := t.TempDir()

		s, err := Init(dir, "geoimage:zones")
		require.NoError(t, err)
		require.NotNil(t, s)

		info, err := os.Stat(filepath.Join(dir, ".zonesync"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		for _, name := range []string{"config.yaml", "features.geojson", "journal.yaml"} {
			_, err = os.Stat(filepath.Join(dir, ".zonesync", name))
			require.NoError(t, err, name)
		}
	})

	t.Run("new workspace is empty", func(t *testing.T) {
		s, err := Init(t.TempDir(), "geoimage:zones")
		require.NoError(t, err)

		features, err := s.LoadFeatures()
		require.NoError(t, err)
		assert.Empty(t, features)

		j, err := s.LoadJournal()
		require.NoError(t, err)
		assert.Equal(t, model.JournalVersion, j.Version)
		assert.Equal(t, "geoimage:zones", j.FeatureType)
		assert.True(t, j.Changes.Empty())
		assert.False(t, j.Updated.IsZero())
	})

	t.Run("init in directory with existing .zonesync returns error", func(t *testing.T) {
		dir := t.TempDir()

		_, err := Init(dir, "")
		require.NoError(t, err)

		_, err = Init(dir, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestOpen(t *testing.T) {
	t.Run("open existing workspace succeeds", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Init(dir, "")
		require.NoError(t, err)

		s, err := Open(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, s.Root())
		assert.Equal(t, filepath.Join(dir, ".zonesync"), s.WorkspacePath())
	})

	t.Run("open directory without .zonesync returns error", func(t *testing.T) {
		s, err := Open(t.TempDir())
		require.Error(t, err)
		assert.Nil(t, s)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("open when .zonesync is a file returns error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".zonesync"), []byte("x"), 0644))

		s, err := Open(dir)
		require.Error(t, err)
		assert.Nil(t, s)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestFeaturesRoundTrip(t *testing.T) {
	s, err := Init(t.TempDir(), "")
	require.NoError(t, err)

	in := []model.Feature{
		{ID: "zones.1", Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, Properties: map[string]any{"name": "Carré"}},
		{ID: model.NewClientID(), Geometry: orb.Point{2.5, 48.1}},
	}
	require.NoError(t, s.SaveFeatures(in))

	out, err := s.LoadFeatures()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, in[0].Geometry, out[0].Geometry)
	assert.Equal(t, "Carré", out[0].Name())
	assert.Equal(t, in[1].ID, out[1].ID)

	_, err = os.Stat(filepath.Join(s.WorkspacePath(), "features.geojson.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadFeaturesErrors(t *testing.T) {
	s, err := Init(t.TempDir(), "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(s.WorkspacePath(), "features.geojson")))
	features, err := s.LoadFeatures()
	require.NoError(t, err)
	assert.Nil(t, features)

	require.NoError(t, os.WriteFile(filepath.Join(s.WorkspacePath(), "features.geojson"), []byte("{"), 0644))
	_, err = s.LoadFeatures()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "features.geojson")
}

func TestJournalRoundTrip(t *testing.T) {
	s, err := Init(t.TempDir(), "geoimage:zones")
	require.NoError(t, err)

	j := &model.Journal{
		FeatureType: "geoimage:zones",
		Changes: model.ChangeSets{
			Inserted: []string{"new-a"},
			Modified: []string{"zones.1"},
			Deleted:  []string{"zones.2"},
		},
		Modes:     model.Modes{ModifyEnabled: true},
		LastError: "Failed to save changes: WFS-T request failed: 500 Internal Server Error",
	}
	require.NoError(t, s.SaveJournal(j))

	got, err := s.LoadJournal()
	require.NoError(t, err)
	assert.Equal(t, j.Changes, got.Changes)
	assert.Equal(t, j.Modes, got.Modes)
	assert.Equal(t, j.LastError, got.LastError)
}

func TestLoadJournalMissing(t *testing.T) {
	s, err := Init(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(s.WorkspacePath(), "journal.yaml")))

	j, err := s.LoadJournal()
	require.NoError(t, err)
	assert.True(t, j.Changes.Empty())
}

func TestLoadJournalRejectsBrokenInvariants(t *testing.T) {
	s, err := Init(t.TempDir(), "")
	require.NoError(t, err)

	content := "version: 1\nchanges:\n  inserted: [a]\n  deleted: [a]\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.WorkspacePath(), "journal.yaml"), []byte(content), 0644))

	_, err = s.LoadJournal()
	require.Error(t, err)
}
