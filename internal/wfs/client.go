package wfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jacksmith/zonesync/internal/logger"
	"github.com/jacksmith/zonesync/internal/model"
)

// DefaultTimeout bounds each request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 64 << 20

// Client talks to one WFS server over HTTP.
type Client struct {
	http *http.Client
	log  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient returns a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.L()
	}
	return c
}

// Fetch GETs url and returns the body. Any status outside 2xx is an error.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: "GET " + url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &model.TransportError{Op: "read " + url, Err: err}
	}
	c.log.Debug("wfs_fetch",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if detail, ok := IsExceptionReport(body); ok && detail != "" {
			return nil, fmt.Errorf("GET %s: %s: %s", url, resp.Status, detail)
		}
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	if detail, ok := IsExceptionReport(body); ok {
		return nil, fmt.Errorf("GET %s: exception report: %s", url, detail)
	}
	return body, nil
}

// Transact POSTs tx to url. Transport failures are *model.TransportError;
// a non-2xx status or an exception report is
// *model.TransactionRejectedError.
func (c *Client) Transact(ctx context.Context, url string, tx *Transaction) (*TransactionResult, error) {
	body := tx.Bytes()
	if body == nil {
		return nil, fmt.Errorf("transaction could not be written")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	counts := tx.Counts()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("wfs_transaction_failed", "url", url, "err", err)
		return nil, &model.TransportError{Op: "POST " + url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &model.TransportError{Op: "read " + url, Err: err}
	}
	dur := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := IsExceptionReport(respBody)
		c.log.Warn("wfs_transaction_rejected",
			"url", url,
			"status", resp.StatusCode,
			"detail", detail,
			"duration_ms", dur.Milliseconds(),
		)
		return nil, &model.TransactionRejectedError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     detail,
		}
	}

	result, err := ParseTransactionResponse(resp.StatusCode, resp.Status, respBody)
	if err != nil {
		c.log.Warn("wfs_transaction_rejected",
			"url", url,
			"status", resp.StatusCode,
			"err", err,
			"duration_ms", dur.Milliseconds(),
		)
		return nil, err
	}
	c.log.Info("wfs_transaction_ok",
		"url", url,
		"inserts", counts.Inserts,
		"updates", counts.Updates,
		"deletes", counts.Deletes,
		"duration_ms", dur.Milliseconds(),
	)
	return result, nil
}
