package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
	"github.com/jacksmith/zonesync/internal/logger"
	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/storage"
	"github.com/jacksmith/zonesync/internal/syncctl"
	"github.com/jacksmith/zonesync/internal/tracker"
	"github.com/jacksmith/zonesync/internal/wfs"
)

// session is one invocation's view of the workspace: the tracker restored
// from disk and the controller talking to the configured server.
type session struct {
	store   *storage.Storage
	cfg     *storage.Config
	tracker *tracker.Tracker
	ctl     *syncctl.Controller
}

// openSession opens the workspace in the current directory and restores
// the working set, pending edits and last error recorded by the previous
// invocation.
func openSession() (*session, error) {
	s, err := storage.Open(".")
	if err != nil {
		return nil, err
	}
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	log := logger.L()
	client := wfs.NewClient(wfs.WithTimeout(cfg.Timeout), wfs.WithLogger(log))
	t := tracker.New(client,
		tracker.WithLogger(log),
		tracker.WithDeletePolicy(cfg.DeletePolicy),
	)

	features, err := s.LoadFeatures()
	if err != nil {
		return nil, err
	}
	j, err := s.LoadJournal()
	if err != nil {
		return nil, err
	}
	if j.FeatureType != "" && j.FeatureType != cfg.FeatureType && !j.Changes.Empty() {
		return nil, &cli.PendingChangesError{
			Count: len(j.Changes.Inserted) + len(j.Changes.Modified) + len(j.Changes.Deleted),
			Hint:  fmt.Sprintf("they belong to %s, not %s; push them with the old feature_type first", j.FeatureType, cfg.FeatureType),
		}
	}
	if err := t.Restore(features, j.Changes, j.Modes, j.UnsavedDeletes); err != nil {
		return nil, fmt.Errorf("workspace is inconsistent: %w", err)
	}
	if j.LastError != "" {
		t.SetError(&model.RecordedError{Message: j.LastError})
	}

	ctl, err := syncctl.New(t, client, syncctl.Config{
		TransactionURL: cfg.WFSURL,
		Schema:         schema,
		OutputFormat:   cfg.OutputFormat,
	}, syncctl.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &session{store: s, cfg: cfg, tracker: t, ctl: ctl}, nil
}

// persist writes the working set and the journal back to the workspace.
func (s *session) persist() error {
	if err := s.store.SaveFeatures(s.tracker.Features()); err != nil {
		return err
	}
	return s.store.SaveJournal(&model.Journal{
		FeatureType:    s.cfg.FeatureType,
		Changes:        s.tracker.ChangeSets(),
		Modes:          s.tracker.Modes(),
		UnsavedDeletes: s.tracker.UnsavedDeletes(),
		LastError:      s.tracker.SaveError(),
	})
}

// pendingCount returns the number of recorded edits.
func (s *session) pendingCount() int {
	cs := s.tracker.ChangeSets()
	return len(cs.Inserted) + len(cs.Modified) + len(cs.Deleted)
}

// commandContext returns the command's context, or Background when the
// command is run directly.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
