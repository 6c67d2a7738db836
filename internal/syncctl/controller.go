// Package syncctl runs the load and save cycles between a tracker and a
// WFS server.
package syncctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jacksmith/zonesync/internal/logger"
	"github.com/jacksmith/zonesync/internal/metrics"
	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/tracker"
	"github.com/jacksmith/zonesync/internal/wfs"
)

// Transactor sends a transaction document to a WFS-T endpoint.
type Transactor interface {
	Transact(ctx context.Context, url string, tx *wfs.Transaction) (*wfs.TransactionResult, error)
}

// Config names the endpoint and the feature type to synchronise.
type Config struct {
	TransactionURL string
	Schema         wfs.Schema
	// OutputFormat of GetFeature reads. Empty means wfs.DefaultOutputFormat.
	OutputFormat string
}

// Result describes a save the server applied.
type Result struct {
	Inserted int
	Updated  int
	Deleted  int
	// Server is what the server reported, if anything.
	Server *wfs.TransactionResult
	// ReloadErr is set when the reload after the save failed.
	ReloadErr error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller saves a tracker's pending edits and reloads it afterwards.
type Controller struct {
	tracker *tracker.Tracker
	client  Transactor
	builder *wfs.Builder
	txURL   string
	readURL string
	log     *slog.Logger
	flight  singleflight.Group
}

// New returns a Controller for t. The read URL is derived from the
// transaction URL and the schema's type name.
func New(t *tracker.Tracker, client Transactor, cfg Config, opts ...Option) (*Controller, error) {
	if t == nil {
		return nil, errors.New("syncctl: tracker is required")
	}
	if client == nil {
		return nil, errors.New("syncctl: transactor is required")
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("syncctl: %w", err)
	}
	readURL, err := wfs.GetFeatureURL(cfg.TransactionURL, cfg.Schema.TypeName(), cfg.OutputFormat)
	if err != nil {
		return nil, fmt.Errorf("syncctl: %w", err)
	}

	c := &Controller{
		tracker: t,
		client:  client,
		builder: wfs.NewBuilder(cfg.Schema),
		txURL:   cfg.TransactionURL,
		readURL: readURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.L()
	}
	return c, nil
}

// ReadURL returns the GetFeature URL loads use.
func (c *Controller) ReadURL() string { return c.readURL }

// TransactionURL returns the WFS-T endpoint.
func (c *Controller) TransactionURL() string { return c.txURL }

// Tracker returns the controlled tracker.
func (c *Controller) Tracker() *tracker.Tracker { return c.tracker }

// Load replaces the tracker's working set with the server's collection.
// A failure is recorded in the tracker and returned.
func (c *Controller) Load(ctx context.Context) error {
	return c.tracker.Load(ctx, c.readURL)
}

// Preview builds the transaction Save would send, without sending it.
func (c *Controller) Preview() (*wfs.Transaction, error) {
	return c.builder.BuildPending(c.tracker.Pending())
}

// Save sends every pending edit as one transaction.
//
// The pending edits are copied before the request is made; edits made
// while it is in flight are left for the next save. With nothing pending
// it records model.ErrNoChanges and makes no request. A rejected or
// undelivered transaction leaves the change-sets untouched. On success
// the sent edits are cleared and the tracker is reloaded once from
// ReadURL. Every error is recorded in the tracker and also returned; a
// reload failure is returned together with the Result.
//
// Concurrent calls share a single save.
func (c *Controller) Save(ctx context.Context) (*Result, error) {
	v, err, shared := c.flight.Do("save", func() (any, error) {
		return c.save(ctx)
	})
	if shared {
		c.log.Debug("zones_save_shared")
	}
	res, _ := v.(*Result)
	return res, err
}

func (c *Controller) save(ctx context.Context) (*Result, error) {
	pending := c.tracker.Pending()
	if pending.Empty() {
		metrics.SavesTotal.WithLabelValues("no_changes").Inc()
		c.log.Info("zones_save_skipped", "reason", "no changes")
		c.tracker.SetError(model.ErrNoChanges)
		return nil, model.ErrNoChanges
	}

	tx, err := c.builder.BuildPending(pending)
	if err != nil {
		metrics.SavesTotal.WithLabelValues("error").Inc()
		c.log.Warn("zones_save_build_failed", "err", err)
		c.tracker.SetError(err)
		return nil, err
	}

	counts := tx.Counts()
	start := time.Now()
	server, err := c.client.Transact(ctx, c.txURL, tx)
	metrics.SaveDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.SavesTotal.WithLabelValues(failureLabel(err)).Inc()
		c.log.Warn("zones_save_failed", "err", err, "pending", counts.Total())
		c.tracker.SetError(err)
		return nil, err
	}

	metrics.SavesTotal.WithLabelValues("ok").Inc()
	metrics.TransactionOpsTotal.WithLabelValues("insert").Add(float64(counts.Inserts))
	metrics.TransactionOpsTotal.WithLabelValues("update").Add(float64(counts.Updates))
	metrics.TransactionOpsTotal.WithLabelValues("delete").Add(float64(counts.Deletes))
	c.log.Info("zones_save_ok",
		"inserts", counts.Inserts,
		"updates", counts.Updates,
		"deletes", counts.Deletes,
	)

	c.tracker.Acknowledge(pending)
	c.tracker.ClearError()

	res := &Result{
		Inserted: counts.Inserts,
		Updated:  counts.Updates,
		Deleted:  counts.Deletes,
		Server:   server,
	}
	if err := c.tracker.Resync(ctx, c.readURL); err != nil {
		res.ReloadErr = err
		return res, err
	}
	return res, nil
}

func failureLabel(err error) string {
	var rejected *model.TransactionRejectedError
	var transport *model.TransportError
	switch {
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &transport):
		return "transport"
	}
	return "error"
}
