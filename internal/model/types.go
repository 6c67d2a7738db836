// Package model defines the core data structures for zonesync.
package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Attribute keys every zone carries.
const (
	AttrName = "name"
	AttrType = "type"
)

// Display fallbacks used when a zone has no name or type.
const (
	DefaultName = "Sans nom"
	DefaultType = "Aucun type"
)

// Feature is a single zone: an identity, a geometry in EPSG:4326
// (longitude, latitude) and an open attribute map.
//
// Two features with the same ID refer to the same logical zone.
type Feature struct {
	ID         string
	Geometry   orb.Geometry
	Properties map[string]any
}

// Name returns the zone name, or DefaultName when it is unset.
func (f *Feature) Name() string {
	return f.text(AttrName, DefaultName)
}

// Type returns the zone type, or DefaultType when it is unset.
func (f *Feature) Type() string {
	return f.text(AttrType, DefaultType)
}

// Get returns the raw attribute value for key.
func (f *Feature) Get(key string) (any, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

// Set assigns an attribute, allocating the map if needed.
func (f *Feature) Set(key string, value any) {
	if f.Properties == nil {
		f.Properties = make(map[string]any)
	}
	f.Properties[key] = value
}

func (f *Feature) text(key, fallback string) string {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return fallback
	}
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" {
		return fallback
	}
	return s
}

// Clone returns a deep copy of the feature. Geometry and attribute maps are
// never shared between the clone and the original.
func (f Feature) Clone() Feature {
	out := Feature{ID: f.ID}
	if f.Geometry != nil {
		out.Geometry = orb.Clone(f.Geometry)
	}
	if f.Properties != nil {
		out.Properties = cloneProperties(f.Properties)
	}
	return out
}

func cloneProperties(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneProperties(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = cloneValue(v[i])
		}
		return out
	default:
		return v
	}
}

// CloneFeatures deep-copies a slice of features.
func CloneFeatures(in []Feature) []Feature {
	if in == nil {
		return nil
	}
	out := make([]Feature, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Modes holds the two mutually exclusive UI interaction modes.
type Modes struct {
	DrawEnabled   bool `yaml:"draw"`
	ModifyEnabled bool `yaml:"modify"`
}

// DeletePolicy decides what happens when a feature that was only ever
// inserted locally is deleted before it reaches the server.
type DeletePolicy string

const (
	// DeletePolicyRecordAll records every deleted ID, including IDs the
	// server never saw. A Delete clause is emitted for them.
	DeletePolicyRecordAll DeletePolicy = "record-all"
	// DeletePolicySkipUnsaved drops the pending insert and records nothing.
	DeletePolicySkipUnsaved DeletePolicy = "skip-unsaved"
)

// Valid reports whether p is a known policy. The empty policy is valid and
// means DeletePolicyRecordAll.
func (p DeletePolicy) Valid() bool {
	switch p {
	case "", DeletePolicyRecordAll, DeletePolicySkipUnsaved:
		return true
	}
	return false
}

// Pending is a value snapshot of everything waiting to be sent: full
// copies of inserted and modified features plus deleted IDs.
type Pending struct {
	Inserted []Feature
	Modified []Feature
	Deleted  []string
	// Revision is the tracker revision the snapshot was taken at.
	Revision uint64
}

// Empty reports whether there is nothing to send.
func (p Pending) Empty() bool {
	return len(p.Inserted) == 0 && len(p.Modified) == 0 && len(p.Deleted) == 0
}

// Count returns the total number of pending operations.
func (p Pending) Count() int {
	return len(p.Inserted) + len(p.Modified) + len(p.Deleted)
}
