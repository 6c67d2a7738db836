package model

// FeatureState represents the derived sync state of a feature.
type FeatureState string

const (
	FeatureStatePristine FeatureState = "pristine"
	FeatureStateInserted FeatureState = "inserted"
	FeatureStateModified FeatureState = "modified"
	FeatureStateDeleted  FeatureState = "deleted"
)

// ChangeSets holds the three pending-edit buckets, each an ordered list of
// feature IDs in first-recorded order.
//
// Invariants:
//   - an ID appears at most once per bucket
//   - an ID is never in both Inserted and Modified
//   - an ID in Deleted is in neither Inserted nor Modified
type ChangeSets struct {
	Inserted []string `yaml:"inserted,omitempty"`
	Modified []string `yaml:"modified,omitempty"`
	Deleted  []string `yaml:"deleted,omitempty"`
}

// ClassifyFeature returns the derived state for id.
func ClassifyFeature(id string, cs ChangeSets) FeatureState {
	switch {
	case contains(cs.Deleted, id):
		return FeatureStateDeleted
	case contains(cs.Inserted, id):
		return FeatureStateInserted
	case contains(cs.Modified, id):
		return FeatureStateModified
	default:
		return FeatureStatePristine
	}
}

// Empty reports whether no edits are pending.
func (cs ChangeSets) Empty() bool {
	return len(cs.Inserted) == 0 && len(cs.Modified) == 0 && len(cs.Deleted) == 0
}

// Reset empties all three buckets.
func (cs *ChangeSets) Reset() {
	cs.Inserted = nil
	cs.Modified = nil
	cs.Deleted = nil
}

// Clone returns an independent copy.
func (cs ChangeSets) Clone() ChangeSets {
	return ChangeSets{
		Inserted: cloneIDs(cs.Inserted),
		Modified: cloneIDs(cs.Modified),
		Deleted:  cloneIDs(cs.Deleted),
	}
}

// RecordInsert classifies id as a new feature.
//
// Re-adding an ID that was deleted in this session cancels the delete.
// When onServer is true the server still holds the zone and it becomes a
// modification; otherwise it goes back to Inserted.
func (cs *ChangeSets) RecordInsert(id string, onServer bool) {
	if remove(&cs.Deleted, id) && onServer {
		cs.Modified = appendUnique(cs.Modified, id)
		return
	}
	if contains(cs.Modified, id) {
		return
	}
	cs.Inserted = appendUnique(cs.Inserted, id)
}

// RecordModify classifies id as modified unless it is a pending insert or
// already deleted. An inserted-then-edited feature stays an insert. Returns
// true if the ID was newly added to Modified.
func (cs *ChangeSets) RecordModify(id string) bool {
	if contains(cs.Inserted, id) || contains(cs.Modified, id) || contains(cs.Deleted, id) {
		return false
	}
	cs.Modified = append(cs.Modified, id)
	return true
}

// RecordDelete purges id from Inserted and Modified and records it in
// Deleted. Under DeletePolicySkipUnsaved an ID that was only a pending
// insert is dropped without a delete. Returns true if id is now in Deleted.
func (cs *ChangeSets) RecordDelete(id string, policy DeletePolicy) bool {
	wasInserted := remove(&cs.Inserted, id)
	remove(&cs.Modified, id)
	if wasInserted && policy == DeletePolicySkipUnsaved {
		return false
	}
	cs.Deleted = appendUnique(cs.Deleted, id)
	return true
}

// Validate checks every change-set invariant.
func (cs ChangeSets) Validate() error {
	buckets := []struct {
		name string
		ids  []string
	}{
		{"inserted", cs.Inserted},
		{"modified", cs.Modified},
		{"deleted", cs.Deleted},
	}
	for _, b := range buckets {
		seen := make(map[string]bool, len(b.ids))
		for _, id := range b.ids {
			if id == "" {
				return &InvariantError{Sets: []string{b.name}, Reason: "empty ID"}
			}
			if seen[id] {
				return &InvariantError{ID: id, Sets: []string{b.name}, Reason: "duplicate ID"}
			}
			seen[id] = true
		}
	}
	for _, id := range cs.Inserted {
		if contains(cs.Modified, id) {
			return &InvariantError{ID: id, Sets: []string{"inserted", "modified"}}
		}
		if contains(cs.Deleted, id) {
			return &InvariantError{ID: id, Sets: []string{"inserted", "deleted"}}
		}
	}
	for _, id := range cs.Modified {
		if contains(cs.Deleted, id) {
			return &InvariantError{ID: id, Sets: []string{"modified", "deleted"}}
		}
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func appendUnique(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// remove deletes every occurrence of id and reports whether any was found.
func remove(ids *[]string, id string) bool {
	found := false
	out := (*ids)[:0]
	for _, v := range *ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		out = nil
	}
	*ids = out
	return found
}

func cloneIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
