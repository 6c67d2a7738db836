// Package storage provides the on-disk workspace for zonesync: a
// .zonesync/ directory holding the cached working set and the journal of
// pending edits.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jacksmith/zonesync/internal/codec"
	"github.com/jacksmith/zonesync/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	// workspaceDir is the name of the workspace directory.
	workspaceDir = ".zonesync"
	// configFile is the name of the config file within .zonesync/.
	configFile = "config.yaml"
	// featuresFile caches the working set as GeoJSON.
	featuresFile = "features.geojson"
	// journalFile records change-sets, modes and the last error.
	journalFile = "journal.yaml"
)

// StorageConfig contains settings stored in .zonesync/config.yaml.
type StorageConfig struct {
	Version int `yaml:"version"`
}

// Storage provides access to a .zonesync/ directory.
type Storage struct {
	root string // path to directory containing .zonesync/
}

// Open returns a Storage for the given directory.
// Returns error if .zonesync/ does not exist.
func Open(dir string) (*Storage, error) {
	wsPath := filepath.Join(dir, workspaceDir)
	info, err := os.Stat(wsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf(".zonesync/ directory not found in %s (run zonectl init)", dir)
		}
		return nil, fmt.Errorf("failed to access .zonesync/: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf(".zonesync is not a directory")
	}

	return &Storage{root: dir}, nil
}

// Init creates .zonesync/ with an empty working set and journal.
// Returns error if .zonesync/ already exists.
func Init(dir string, featureType string) (*Storage, error) {
	wsPath := filepath.Join(dir, workspaceDir)

	if _, err := os.Stat(wsPath); err == nil {
		return nil, fmt.Errorf(".zonesync/ directory already exists in %s", dir)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to check for .zonesync/: %w", err)
	}

	if err := os.MkdirAll(wsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .zonesync/: %w", err)
	}

	cfgData, err := yaml.Marshal(&StorageConfig{Version: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(wsPath, configFile), cfgData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write config.yaml: %w", err)
	}

	s := &Storage{root: dir}
	if err := s.SaveFeatures(nil); err != nil {
		os.RemoveAll(wsPath)
		return nil, err
	}
	if err := s.SaveJournal(&model.Journal{FeatureType: featureType}); err != nil {
		os.RemoveAll(wsPath)
		return nil, err
	}
	return s, nil
}

// Root returns the root directory containing .zonesync/.
func (s *Storage) Root() string {
	return s.root
}

// WorkspacePath returns the path to the .zonesync/ directory.
func (s *Storage) WorkspacePath() string {
	return filepath.Join(s.root, workspaceDir)
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.root, workspaceDir, name)
}

// LoadFeatures reads the cached working set. A missing cache is an empty
// working set.
func (s *Storage) LoadFeatures() ([]model.Feature, error) {
	data, err := os.ReadFile(s.path(featuresFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", featuresFile, err)
	}
	features, err := codec.DecodeFeatureCollection(data, codec.EPSG4326)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", featuresFile, err)
	}
	return features, nil
}

// SaveFeatures replaces the cached working set.
func (s *Storage) SaveFeatures(features []model.Feature) error {
	data, err := codec.EncodeFeatureCollection(features)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path(featuresFile), data)
}

// LoadJournal reads the journal. A missing journal is an empty one.
func (s *Storage) LoadJournal() (*model.Journal, error) {
	j, err := model.LoadJournal(s.path(journalFile))
	if errors.Is(err, os.ErrNotExist) {
		return &model.Journal{Version: model.JournalVersion}, nil
	}
	return j, err
}

// SaveJournal writes the journal, stamping its update time.
func (s *Storage) SaveJournal(j *model.Journal) error {
	j.Updated = time.Now()
	tmp := s.path(journalFile + ".tmp")
	if err := model.SaveJournal(tmp, j); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(journalFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", journalFile, err)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
