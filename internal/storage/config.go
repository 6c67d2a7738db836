package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jacksmith/zonesync/internal/codec"
	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/wfs"
)

const (
	// userConfigFile is the name of the user configuration file (sibling to .zonesync/).
	userConfigFile = ".zonesync.yaml"
	// envFile holds optional environment overrides next to the config.
	envFile = ".env"

	// Default configuration values
	DefaultFeatureType  = "geoimage:zones"
	DefaultNamespaceURI = "http://www.geoimagesolutions.com"
	DefaultTimeout      = 30 * time.Second
)

// Environment variables overriding the config file.
const (
	EnvWFSURL       = "ZONESYNC_WFS_URL"
	EnvFeatureType  = "ZONESYNC_WFS_FEATURE_TYPE"
	EnvTimeout      = "ZONESYNC_TIMEOUT"
	EnvDeletePolicy = "ZONESYNC_DELETE_POLICY"
)

// Config represents user configuration from .zonesync.yaml.
type Config struct {
	// WFSURL is the WFS-T endpoint; reads go to the same URL.
	WFSURL string `yaml:"wfs_url"`

	// FeatureType is the qualified type name, e.g. "geoimage:zones".
	FeatureType string `yaml:"feature_type"`

	// NamespaceURI is bound to the feature type's prefix in transactions.
	NamespaceURI string `yaml:"namespace_uri"`

	// SRSName is written on transaction geometries.
	SRSName string `yaml:"srs_name"`

	// OutputFormat is requested from GetFeature.
	OutputFormat string `yaml:"output_format"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// DeletePolicy decides whether deleting an unsaved zone emits a Delete.
	DeletePolicy model.DeletePolicy `yaml:"delete_policy"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		FeatureType:  DefaultFeatureType,
		NamespaceURI: DefaultNamespaceURI,
		SRSName:      codec.URNX4326,
		OutputFormat: wfs.DefaultOutputFormat,
		Timeout:      DefaultTimeout,
		DeletePolicy: model.DeletePolicyRecordAll,
	}
}

// LoadConfig loads .zonesync.yaml if it exists, otherwise returns defaults.
// Partial config files are merged with defaults. Variables from a .env
// file next to it are added to the environment (without replacing
// variables already set), then the ZONESYNC_* variables override the file.
func (s *Storage) LoadConfig() (*Config, error) {
	return LoadConfig(s.root)
}

// LoadConfig is Storage.LoadConfig for a directory without a workspace.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, userConfigFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", userConfigFile, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", userConfigFile, err)
		}
	}

	envPath := filepath.Join(dir, envFile)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvWFSURL)); v != "" {
		c.WFSURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFeatureType)); v != "" {
		c.FeatureType = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvDeletePolicy)); v != "" {
		c.DeletePolicy = model.DeletePolicy(v)
	}
	return nil
}

// Validate checks that the config can drive a sync.
func (c *Config) Validate() error {
	if c.WFSURL == "" {
		return fmt.Errorf("wfs_url is required (set it in %s or %s)", userConfigFile, EnvWFSURL)
	}
	u, err := url.Parse(c.WFSURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("wfs_url %q is not an absolute URL", c.WFSURL)
	}
	if _, err := c.Schema(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if !c.DeletePolicy.Valid() {
		return fmt.Errorf("unknown delete_policy %q (want %s or %s)",
			c.DeletePolicy, model.DeletePolicyRecordAll, model.DeletePolicySkipUnsaved)
	}
	return nil
}

// Schema returns the transaction schema the config describes.
func (c *Config) Schema() (wfs.Schema, error) {
	prefix, featureType, err := wfs.ParseTypeName(c.FeatureType)
	if err != nil {
		return wfs.Schema{}, err
	}
	s := wfs.DefaultSchema
	s.Prefix = prefix
	s.FeatureType = featureType
	if c.NamespaceURI != "" {
		s.NamespaceURI = c.NamespaceURI
	}
	if c.SRSName != "" {
		s.SRSName = c.SRSName
	}
	if err := s.Validate(); err != nil {
		return wfs.Schema{}, err
	}
	return s, nil
}

// WriteConfig writes cfg to .zonesync.yaml.
func (s *Storage) WriteConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(s.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", userConfigFile, err)
	}
	return nil
}

// ConfigPath returns the path to the user config file.
func (s *Storage) ConfigPath() string {
	return filepath.Join(s.root, userConfigFile)
}
