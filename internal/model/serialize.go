package model

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// JournalVersion is the current journal file format.
const JournalVersion = 1

// Journal is the on-disk record of pending edits between sessions. The
// working set itself is stored separately as GeoJSON.
type Journal struct {
	Version     int        `yaml:"version"`
	FeatureType string     `yaml:"feature_type,omitempty"`
	Changes     ChangeSets `yaml:"changes"`
	Modes       Modes      `yaml:"modes"`
	// UnsavedDeletes lists deleted IDs the server never held.
	UnsavedDeletes []string  `yaml:"unsaved_deletes,omitempty"`
	LastError      string    `yaml:"last_error,omitempty"`
	Updated        time.Time `yaml:"updated"`
}

// LoadJournal loads a journal file from the given path.
func LoadJournal(path string) (*Journal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", path, err)
	}

	var j Journal
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse journal %s: %w", path, err)
	}
	if j.Version > JournalVersion {
		return nil, fmt.Errorf("journal %s has unsupported version %d", path, j.Version)
	}
	if err := j.Changes.Validate(); err != nil {
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}

	return &j, nil
}

// SaveJournal saves a journal to the given path.
// Empty buckets are omitted; ID lists use flow style.
func SaveJournal(path string, j *Journal) error {
	if j.Version == 0 {
		j.Version = JournalVersion
	}

	data, err := yaml.Marshal(buildJournalNode(j))
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write journal %s: %w", path, err)
	}
	return nil
}

// buildJournalNode creates a yaml.Node tree for a Journal with stable
// key order.
func buildJournalNode(j *Journal) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	addIntField(doc, "version", j.Version)
	if j.FeatureType != "" {
		addStringField(doc, "feature_type", j.FeatureType)
	}

	changes := &yaml.Node{Kind: yaml.MappingNode}
	if len(j.Changes.Inserted) > 0 {
		addStringSliceField(changes, "inserted", j.Changes.Inserted)
	}
	if len(j.Changes.Modified) > 0 {
		addStringSliceField(changes, "modified", j.Changes.Modified)
	}
	if len(j.Changes.Deleted) > 0 {
		addStringSliceField(changes, "deleted", j.Changes.Deleted)
	}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "changes"},
		changes,
	)

	modes := &yaml.Node{Kind: yaml.MappingNode}
	addBoolField(modes, "draw", j.Modes.DrawEnabled)
	addBoolField(modes, "modify", j.Modes.ModifyEnabled)
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "modes"},
		modes,
	)

	if len(j.UnsavedDeletes) > 0 {
		addStringSliceField(doc, "unsaved_deletes", j.UnsavedDeletes)
	}
	if j.LastError != "" {
		addMultilineStringField(doc, "last_error", j.LastError)
	}
	if !j.Updated.IsZero() {
		addTimeField(doc, "updated", j.Updated)
	}

	return doc
}

func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: "!!str"},
	)
}

func addIntField(node *yaml.Node, key string, value int) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%d", value), Tag: "!!int"},
	)
}

func addBoolField(node *yaml.Node, key string, value bool) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%t", value), Tag: "!!bool"},
	)
}

func addTimeField(node *yaml.Node, key string, t time.Time) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: t.UTC().Format(time.RFC3339)},
	)
}

func addStringSliceField(node *yaml.Node, key string, values []string) {
	seqNode := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range values {
		seqNode.Content = append(seqNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: v, Tag: "!!str"},
		)
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		seqNode,
	)
}

func addMultilineStringField(node *yaml.Node, key, value string) {
	var style yaml.Style
	if strings.Contains(value, "\n") {
		style = yaml.LiteralStyle
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: style},
	)
}
