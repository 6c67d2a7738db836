// Package tracker owns the working set of zones and the three change-sets
// recording what has to be sent to the server.
//
// Every mutation goes through a Tracker method; values returned to callers
// are copies. The lock is never held across network I/O or while
// subscribers run.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jacksmith/zonesync/internal/codec"
	"github.com/jacksmith/zonesync/internal/logger"
	"github.com/jacksmith/zonesync/internal/metrics"
	"github.com/jacksmith/zonesync/internal/model"
)

// Fetcher returns the raw feature collection found at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCRS sets the CRS features are decoded in. Default EPSG:4326.
func WithCRS(crs string) Option {
	return func(t *Tracker) { t.crs = crs }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// WithClientIDs sets the generator for IDs of zones added without one.
func WithClientIDs(gen func() string) Option {
	return func(t *Tracker) { t.newID = gen }
}

// WithDeletePolicy sets how deletes of never-saved zones are recorded.
func WithDeletePolicy(p model.DeletePolicy) Option {
	return func(t *Tracker) { t.policy = p }
}

// Tracker is the change-set tracker. The zero value is not usable; call New.
type Tracker struct {
	fetcher Fetcher
	crs     string
	log     *slog.Logger
	newID   func() string
	policy  model.DeletePolicy

	mu       sync.Mutex
	features []model.Feature
	changes  model.ChangeSets
	modes    model.Modes
	lastErr  error
	revision uint64
	// edited holds the revision of the last local edit per ID.
	edited map[string]uint64
	// unsaved marks IDs added locally that the server never confirmed.
	// Only IDs still in Inserted or Deleted are kept.
	unsaved map[string]bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New returns an empty tracker loading through fetcher.
func New(fetcher Fetcher, opts ...Option) *Tracker {
	t := &Tracker{
		fetcher: fetcher,
		crs:     codec.EPSG4326,
		newID:   model.NewClientID,
		policy:  model.DeletePolicyRecordAll,
		edited:  make(map[string]uint64),
		unsaved: make(map[string]bool),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.L()
	}
	return t
}

// Load fetches and decodes the collection at url and replaces the working
// set with it, resetting all change-sets and the error. On failure the
// working set and change-sets are left as they were, the error is
// recorded as a *model.LoadError and also returned. A collection with a
// zone lacking an ID or with a repeated ID is a failure.
func (t *Tracker) Load(ctx context.Context, url string) error {
	features, err := t.fetch(ctx, url)
	if err != nil {
		return t.fail(err)
	}

	t.mu.Lock()
	t.features = features
	t.changes.Reset()
	t.edited = make(map[string]uint64)
	t.unsaved = make(map[string]bool)
	kind := FeaturesChanged | ChangesChanged
	if t.lastErr != nil {
		kind |= ErrorChanged
	}
	t.lastErr = nil
	rev := t.bump()
	t.mu.Unlock()

	metrics.LoadsTotal.WithLabelValues("ok").Inc()
	t.log.Info("zones_load_ok", "url", url, "count", len(features))
	t.notify(kind, rev)
	return nil
}

// Resync is Load that keeps whatever is still pending: remaining inserts
// are appended to the fresh collection, remaining modifications replace
// the server copy when the zone still exists, and remaining deletes are
// removed from it. With nothing pending it behaves exactly like Load.
func (t *Tracker) Resync(ctx context.Context, url string) error {
	features, err := t.fetch(ctx, url)
	if err != nil {
		return t.fail(err)
	}

	t.mu.Lock()
	kept := t.changes.Clone()
	byID := make(map[string]model.Feature, len(t.features))
	for _, f := range t.features {
		byID[f.ID] = f
	}

	merged := make([]model.Feature, 0, len(features))
	present := make(map[string]bool, len(features))
	for _, f := range features {
		if contains(kept.Deleted, f.ID) {
			continue
		}
		if local, ok := byID[f.ID]; ok && contains(kept.Modified, f.ID) {
			f = local
		}
		present[f.ID] = true
		merged = append(merged, f)
	}
	for _, id := range kept.Modified {
		if !present[id] {
			kept.Modified = removeID(kept.Modified, id)
			t.log.Warn("zone_modify_dropped", "id", id, "reason", "zone no longer on server")
		}
	}
	for _, id := range kept.Inserted {
		if f, ok := byID[id]; ok && !present[id] {
			merged = append(merged, f)
			present[id] = true
		}
	}

	t.features = merged
	t.changes = kept
	for _, f := range features {
		delete(t.unsaved, f.ID)
	}
	t.pruneUnsavedLocked()
	for id := range t.edited {
		if model.ClassifyFeature(id, kept) == model.FeatureStatePristine {
			delete(t.edited, id)
		}
	}
	kind := FeaturesChanged | ChangesChanged
	if t.lastErr != nil {
		kind |= ErrorChanged
	}
	t.lastErr = nil
	rev := t.bump()
	pending := t.pendingCountLocked()
	t.mu.Unlock()

	metrics.LoadsTotal.WithLabelValues("ok").Inc()
	t.log.Info("zones_load_ok", "url", url, "count", len(merged), "pending", pending)
	t.notify(kind, rev)
	return nil
}

func (t *Tracker) fetch(ctx context.Context, url string) ([]model.Feature, error) {
	start := time.Now()
	defer func() { metrics.LoadDurationMs.Observe(float64(time.Since(start).Milliseconds())) }()

	if t.fetcher == nil {
		return nil, &model.LoadError{URL: url, Err: fmt.Errorf("no fetcher configured")}
	}
	payload, err := t.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &model.LoadError{URL: url, Err: err}
	}
	features, err := codec.DecodeFeatureCollection(payload, t.crs)
	if err != nil {
		return nil, &model.LoadError{URL: url, Err: err}
	}
	if err := checkIDs(features); err != nil {
		return nil, &model.LoadError{URL: url, Err: err}
	}
	return features, nil
}

// checkIDs rejects collections a tracker could not restore: every zone
// needs an ID and no ID may appear twice.
func checkIDs(features []model.Feature) error {
	seen := make(map[string]bool, len(features))
	for i, f := range features {
		if f.ID == "" {
			return fmt.Errorf("zone %d has no id", i)
		}
		if seen[f.ID] {
			return &model.DuplicateFeatureError{ID: f.ID}
		}
		seen[f.ID] = true
	}
	return nil
}

func (t *Tracker) fail(err error) error {
	metrics.LoadsTotal.WithLabelValues("error").Inc()
	t.log.Warn("zones_load_failed", "err", err)
	t.SetError(err)
	return err
}

// Add appends f to the working set and records it as inserted. A zone
// without an ID gets a client ID. Adding an ID already in the working set
// fails with *model.DuplicateFeatureError.
func (t *Tracker) Add(f model.Feature) (model.Feature, error) {
	f = f.Clone()

	t.mu.Lock()
	if f.ID == "" {
		f.ID = t.newID()
	}
	if t.indexLocked(f.ID) >= 0 {
		t.mu.Unlock()
		return model.Feature{}, &model.DuplicateFeatureError{ID: f.ID}
	}
	t.features = append(t.features, f)
	t.changes.RecordInsert(f.ID, !t.unsaved[f.ID])
	if contains(t.changes.Inserted, f.ID) {
		t.unsaved[f.ID] = true
	}
	rev := t.bump()
	t.edited[f.ID] = rev
	t.mu.Unlock()

	t.log.Debug("zone_added", "id", f.ID)
	t.notify(FeaturesChanged|ChangesChanged, rev)
	return f.Clone(), nil
}

// Delete removes every zone with id from the working set and records id
// as deleted. It reports whether the working set held such a zone.
func (t *Tracker) Delete(id string) bool {
	t.mu.Lock()
	kept := t.features[:0]
	removed := 0
	for _, f := range t.features {
		if f.ID == id {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	for i := len(kept); i < len(t.features); i++ {
		t.features[i] = model.Feature{}
	}
	t.features = kept

	before := t.changes.Clone()
	recorded := t.changes.RecordDelete(id, t.policy)
	changed := !equalChanges(before, t.changes)
	delete(t.edited, id)
	t.pruneUnsavedLocked()

	var kind EventKind
	if removed > 0 {
		kind |= FeaturesChanged
	}
	if changed {
		kind |= ChangesChanged
	}
	var rev uint64
	if kind != 0 {
		rev = t.bump()
	}
	t.mu.Unlock()

	t.log.Debug("zone_deleted", "id", id, "found", removed > 0, "recorded", recorded)
	t.notify(kind, rev)
	return removed > 0
}

// Modify replaces the zone with f's ID in place and records it as
// modified unless it is a pending insert. An unknown ID is a no-op and
// returns false.
func (t *Tracker) Modify(f model.Feature) bool {
	f = f.Clone()

	t.mu.Lock()
	i := t.indexLocked(f.ID)
	if i < 0 {
		t.mu.Unlock()
		return false
	}
	t.features[i] = f
	kind := FeaturesChanged
	if t.changes.RecordModify(f.ID) {
		kind |= ChangesChanged
	}
	rev := t.bump()
	t.edited[f.ID] = rev
	t.mu.Unlock()

	t.log.Debug("zone_modified", "id", f.ID)
	t.notify(kind, rev)
	return true
}

// SnapshotOperations returns copies of the three ID lists.
func (t *Tracker) SnapshotOperations() model.ChangeSets {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changes.Clone()
}

// ChangeSets is SnapshotOperations.
func (t *Tracker) ChangeSets() model.ChangeSets {
	return t.SnapshotOperations()
}

// Pending returns deep copies of everything waiting to be sent, in
// change-set order.
func (t *Tracker) Pending() model.Pending {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := model.Pending{
		Deleted:  cloneStrings(t.changes.Deleted),
		Revision: t.revision,
	}
	for _, id := range t.changes.Inserted {
		if i := t.indexLocked(id); i >= 0 {
			p.Inserted = append(p.Inserted, t.features[i].Clone())
		}
	}
	for _, id := range t.changes.Modified {
		if i := t.indexLocked(id); i >= 0 {
			p.Modified = append(p.Modified, t.features[i].Clone())
		}
	}
	return p
}

// Acknowledge removes what sent carried from the change-sets after the
// server applied it. Zones edited again after sent was taken stay pending.
// When nothing changed since the snapshot every change-set ends up empty.
func (t *Tracker) Acknowledge(sent model.Pending) {
	t.mu.Lock()
	before := t.changes.Clone()
	if t.revision == sent.Revision {
		t.changes.Reset()
		t.edited = make(map[string]uint64)
	} else {
		for _, f := range sent.Inserted {
			t.changes.Inserted = removeID(t.changes.Inserted, f.ID)
			if t.edited[f.ID] > sent.Revision {
				t.log.Warn("zone_edit_after_send", "id", f.ID)
			}
		}
		for _, f := range sent.Modified {
			if t.edited[f.ID] <= sent.Revision {
				t.changes.Modified = removeID(t.changes.Modified, f.ID)
			}
		}
		for _, id := range sent.Deleted {
			t.changes.Deleted = removeID(t.changes.Deleted, id)
		}
	}
	t.pruneUnsavedLocked()
	if equalChanges(before, t.changes) {
		t.mu.Unlock()
		return
	}
	rev := t.bump()
	t.mu.Unlock()

	t.notify(ChangesChanged, rev)
}

// ClearChanges empties all three change-sets.
func (t *Tracker) ClearChanges() {
	t.mu.Lock()
	if t.changes.Empty() {
		t.mu.Unlock()
		return
	}
	t.changes.Reset()
	t.edited = make(map[string]uint64)
	t.unsaved = make(map[string]bool)
	rev := t.bump()
	t.mu.Unlock()

	t.notify(ChangesChanged, rev)
}

// UnsavedDeletes returns the deleted IDs the server never had, in
// Deleted order. Restore needs them to classify a later re-add.
func (t *Tracker) UnsavedDeletes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for _, id := range t.changes.Deleted {
		if t.unsaved[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *Tracker) pruneUnsavedLocked() {
	for id := range t.unsaved {
		if !contains(t.changes.Inserted, id) && !contains(t.changes.Deleted, id) {
			delete(t.unsaved, id)
		}
	}
}

// Features returns a deep copy of the working set.
func (t *Tracker) Features() []model.Feature {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.CloneFeatures(t.features)
}

// Feature returns a copy of the zone with id.
func (t *Tracker) Feature(id string) (model.Feature, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(id); i >= 0 {
		return t.features[i].Clone(), true
	}
	return model.Feature{}, false
}

// Len returns the size of the working set.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.features)
}

// State classifies the zone with id.
func (t *Tracker) State(id string) model.FeatureState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.ClassifyFeature(id, t.changes)
}

// Revision increases with every state change.
func (t *Tracker) Revision() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revision
}

// SetError records err as the last error, replacing any previous one.
func (t *Tracker) SetError(err error) {
	if err == nil {
		t.ClearError()
		return
	}
	t.mu.Lock()
	t.lastErr = err
	rev := t.bump()
	t.mu.Unlock()

	t.notify(ErrorChanged, rev)
}

// ClearError forgets the last error.
func (t *Tracker) ClearError() {
	t.mu.Lock()
	if t.lastErr == nil {
		t.mu.Unlock()
		return
	}
	t.lastErr = nil
	rev := t.bump()
	t.mu.Unlock()

	t.notify(ErrorChanged, rev)
}

// LastError returns the last recorded error, or nil.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// SaveError returns the last error as user-facing text, or "".
func (t *Tracker) SaveError() string {
	return model.SaveMessage(t.LastError())
}

// ToggleDraw flips draw mode. Turning it on turns modify mode off.
func (t *Tracker) ToggleDraw() model.Modes {
	t.mu.Lock()
	t.modes.DrawEnabled = !t.modes.DrawEnabled
	if t.modes.DrawEnabled {
		t.modes.ModifyEnabled = false
	}
	m := t.modes
	rev := t.bump()
	t.mu.Unlock()

	t.notify(ModesChanged, rev)
	return m
}

// ToggleModify flips modify mode and always turns draw mode off.
func (t *Tracker) ToggleModify() model.Modes {
	t.mu.Lock()
	t.modes.ModifyEnabled = !t.modes.ModifyEnabled
	t.modes.DrawEnabled = false
	m := t.modes
	rev := t.bump()
	t.mu.Unlock()

	t.notify(ModesChanged, rev)
	return m
}

// Modes returns the current mode flags.
func (t *Tracker) Modes() model.Modes {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.modes
}

// Restore replaces all state with a previously saved working set,
// change-sets and modes. unsavedDeletes lists the deleted IDs the server
// never had, as returned by UnsavedDeletes. Inconsistent input is
// rejected and leaves the tracker unchanged.
func (t *Tracker) Restore(features []model.Feature, changes model.ChangeSets, modes model.Modes, unsavedDeletes []string) error {
	if err := changes.Validate(); err != nil {
		return err
	}
	if modes.DrawEnabled && modes.ModifyEnabled {
		return fmt.Errorf("restore: draw and modify modes both enabled")
	}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if f.ID == "" {
			return fmt.Errorf("restore: zone without ID")
		}
		if seen[f.ID] {
			return &model.DuplicateFeatureError{ID: f.ID}
		}
		seen[f.ID] = true
	}
	for _, bucket := range []struct {
		name string
		ids  []string
	}{{"inserted", changes.Inserted}, {"modified", changes.Modified}} {
		for _, id := range bucket.ids {
			if !seen[id] {
				return &model.InvariantError{ID: id, Sets: []string{bucket.name}, Reason: "pending zone missing from working set"}
			}
		}
	}
	for _, id := range changes.Deleted {
		if seen[id] {
			return &model.InvariantError{ID: id, Sets: []string{"deleted"}, Reason: "deleted zone still in working set"}
		}
	}

	features = model.CloneFeatures(features)
	changes = changes.Clone()

	t.mu.Lock()
	t.features = features
	t.changes = changes
	t.modes = modes
	t.edited = make(map[string]uint64)
	t.unsaved = make(map[string]bool)
	for _, id := range unsavedDeletes {
		if contains(changes.Deleted, id) {
			t.unsaved[id] = true
		}
	}
	rev := t.bump()
	for _, id := range changes.Inserted {
		t.edited[id] = rev
		t.unsaved[id] = true
	}
	for _, id := range changes.Modified {
		t.edited[id] = rev
	}
	t.mu.Unlock()

	t.notify(FeaturesChanged|ChangesChanged|ModesChanged, rev)
	return nil
}

// Subscribe registers fn to run after every state change, synchronously
// on the goroutine that made the change. The returned function removes
// the subscription.
func (t *Tracker) Subscribe(fn func(Event)) func() {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subs, id)
			t.subMu.Unlock()
		})
	}
}

func (t *Tracker) notify(kind EventKind, rev uint64) {
	if kind == 0 {
		return
	}
	t.subMu.Lock()
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, t.subs[id])
	}
	t.subMu.Unlock()

	ev := Event{Kind: kind, Revision: rev}
	for _, fn := range fns {
		fn(ev)
	}
}

// bump advances the revision and refreshes the pending gauge. Callers hold
// t.mu.
func (t *Tracker) bump() uint64 {
	t.revision++
	metrics.PendingOperations.Set(float64(t.pendingCountLocked()))
	return t.revision
}

func (t *Tracker) pendingCountLocked() int {
	return len(t.changes.Inserted) + len(t.changes.Modified) + len(t.changes.Deleted)
}

func (t *Tracker) indexLocked(id string) int {
	for i := range t.features {
		if t.features[i].ID == id {
			return i
		}
	}
	return -1
}

func contains(ids []string, id string) bool {
	return slices.Contains(ids, id)
}

// removeID returns ids without id, always as a new slice.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneStrings(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return slices.Clone(ids)
}

func equalChanges(a, b model.ChangeSets) bool {
	return slices.Equal(a.Inserted, b.Inserted) &&
		slices.Equal(a.Modified, b.Modified) &&
		slices.Equal(a.Deleted, b.Deleted)
}
