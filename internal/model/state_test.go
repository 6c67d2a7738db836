package model

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFeature(t *testing.T) {
	cs := ChangeSets{
		Inserted: []string{"new-a"},
		Modified: []string{"zones.2"},
		Deleted:  []string{"zones.3"},
	}

	tests := []struct {
		name string
		id   string
		want FeatureState
	}{
		{name: "inserted", id: "new-a", want: FeatureStateInserted},
		{name: "modified", id: "zones.2", want: FeatureStateModified},
		{name: "deleted", id: "zones.3", want: FeatureStateDeleted},
		{name: "untouched", id: "zones.4", want: FeatureStatePristine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFeature(tt.id, cs))
		})
	}
}

func TestRecordModify(t *testing.T) {
	t.Run("persisted feature is recorded once", func(t *testing.T) {
		var cs ChangeSets
		assert.True(t, cs.RecordModify("zones.1"))
		assert.False(t, cs.RecordModify("zones.1"))
		assert.Equal(t, []string{"zones.1"}, cs.Modified)
	})

	t.Run("inserted feature stays an insert", func(t *testing.T) {
		var cs ChangeSets
		cs.RecordInsert("new-1", false)
		assert.False(t, cs.RecordModify("new-1"))
		assert.Empty(t, cs.Modified)
		assert.Equal(t, []string{"new-1"}, cs.Inserted)
	})
}

func TestRecordDelete(t *testing.T) {
	t.Run("purges inserted and modified", func(t *testing.T) {
		cs := ChangeSets{
			Inserted: []string{"a", "b"},
			Modified: []string{"zones.1"},
		}
		cs.RecordDelete("a", DeletePolicyRecordAll)
		cs.RecordDelete("zones.1", DeletePolicyRecordAll)

		assert.Equal(t, []string{"b"}, cs.Inserted)
		assert.Empty(t, cs.Modified)
		assert.Equal(t, []string{"a", "zones.1"}, cs.Deleted)
	})

	t.Run("repeated delete is recorded once", func(t *testing.T) {
		var cs ChangeSets
		cs.RecordDelete("zones.9", DeletePolicyRecordAll)
		cs.RecordDelete("zones.9", DeletePolicyRecordAll)
		assert.Equal(t, []string{"zones.9"}, cs.Deleted)
	})

	t.Run("skip-unsaved drops a pending insert", func(t *testing.T) {
		var cs ChangeSets
		cs.RecordInsert("new-x", false)
		recorded := cs.RecordDelete("new-x", DeletePolicySkipUnsaved)

		assert.False(t, recorded)
		assert.True(t, cs.Empty())
	})

	t.Run("skip-unsaved still records persisted features", func(t *testing.T) {
		var cs ChangeSets
		cs.RecordModify("zones.4")
		assert.True(t, cs.RecordDelete("zones.4", DeletePolicySkipUnsaved))
		assert.Equal(t, []string{"zones.4"}, cs.Deleted)
	})
}

func TestRecordInsertAfterDelete(t *testing.T) {
	t.Run("server ID comes back as a modification", func(t *testing.T) {
		var cs ChangeSets
		cs.RecordDelete("zones.5", DeletePolicyRecordAll)
		cs.RecordInsert("zones.5", true)

		assert.Empty(t, cs.Deleted)
		assert.Empty(t, cs.Inserted)
		assert.Equal(t, []string{"zones.5"}, cs.Modified)
	})

	t.Run("unsaved ID comes back as an insert", func(t *testing.T) {
		for _, id := range []string{NewClientID(), "draw-17", "zones.77"} {
			var cs ChangeSets
			cs.RecordInsert(id, false)
			cs.RecordDelete(id, DeletePolicyRecordAll)
			cs.RecordInsert(id, false)

			assert.Empty(t, cs.Deleted, id)
			assert.Empty(t, cs.Modified, id)
			assert.Equal(t, []string{id}, cs.Inserted, id)
		}
	})

	t.Run("empty reports on a returned value", func(t *testing.T) {
		build := func() ChangeSets { return ChangeSets{Deleted: []string{"zones.1"}} }
		assert.False(t, build().Empty())
		assert.True(t, ChangeSets{}.Empty())
	})
}

func TestChangeSetsValidate(t *testing.T) {
	tests := []struct {
		name    string
		cs      ChangeSets
		wantErr bool
	}{
		{name: "empty", cs: ChangeSets{}},
		{name: "disjoint", cs: ChangeSets{Inserted: []string{"a"}, Modified: []string{"b"}, Deleted: []string{"c"}}},
		{name: "inserted and modified", cs: ChangeSets{Inserted: []string{"a"}, Modified: []string{"a"}}, wantErr: true},
		{name: "inserted and deleted", cs: ChangeSets{Inserted: []string{"a"}, Deleted: []string{"a"}}, wantErr: true},
		{name: "modified and deleted", cs: ChangeSets{Modified: []string{"a"}, Deleted: []string{"a"}}, wantErr: true},
		{name: "duplicate in one set", cs: ChangeSets{Deleted: []string{"a", "a"}}, wantErr: true},
		{name: "empty ID", cs: ChangeSets{Modified: []string{""}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cs.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var invErr *InvariantError
			require.Error(t, err)
			assert.True(t, errors.As(err, &invErr))
		})
	}
}

// TestChangeSetsInvariantsHoldUnderRandomEdits drives random sequences of
// inserts, modifies and deletes and checks the invariants after each step.
func TestChangeSetsInvariantsHoldUnderRandomEdits(t *testing.T) {
	ids := []string{"zones.1", "zones.2", "zones.3", "new-a", "new-b"}
	policies := []DeletePolicy{DeletePolicyRecordAll, DeletePolicySkipUnsaved}

	for _, policy := range policies {
		rng := rand.New(rand.NewSource(42))
		var cs ChangeSets
		for step := 0; step < 2000; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(3) {
			case 0:
				cs.RecordInsert(id, rng.Intn(2) == 0)
			case 1:
				cs.RecordModify(id)
			case 2:
				cs.RecordDelete(id, policy)
			}
			require.NoError(t, cs.Validate(), "policy %s step %d", policy, step)
		}
	}
}

func TestChangeSetsClone(t *testing.T) {
	cs := ChangeSets{Inserted: []string{"a"}, Deleted: []string{"b"}}
	clone := cs.Clone()
	clone.Inserted[0] = "changed"
	clone.Deleted = append(clone.Deleted, "c")

	assert.Equal(t, []string{"a"}, cs.Inserted)
	assert.Equal(t, []string{"b"}, cs.Deleted)
}
