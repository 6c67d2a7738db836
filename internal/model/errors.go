package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoChanges is returned by a save attempted with nothing pending. It is
// informational: no request is sent.
var ErrNoChanges = errors.New("no changes to save")

// LoadError indicates that fetching or decoding the feature collection
// failed. The working set is left untouched.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load zones: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// TransactionRejectedError indicates the server did not apply a
// transaction, either through a non-2xx status or an exception report.
type TransactionRejectedError struct {
	StatusCode int
	Status     string // e.g. "500 Internal Server Error"
	Detail     string // server-supplied explanation, if any
}

func (e *TransactionRejectedError) Error() string {
	msg := "WFS-T request failed"
	if e.Status != "" {
		msg += ": " + e.Status
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// TransportError indicates the request itself failed before any response
// was received.
type TransportError struct {
	Op  string // e.g. "POST https://example.org/wfs"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DuplicateFeatureError indicates an add for an ID already in the working
// set.
type DuplicateFeatureError struct {
	ID string
}

func (e *DuplicateFeatureError) Error() string {
	return fmt.Sprintf("zone %s already exists", e.ID)
}

// InvariantError indicates change-sets that break the disjointness rules.
type InvariantError struct {
	ID     string
	Sets   []string
	Reason string
}

func (e *InvariantError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "ID in more than one change-set"
	}
	if e.ID == "" {
		return fmt.Sprintf("invalid change-sets (%s): %s", strings.Join(e.Sets, ", "), reason)
	}
	return fmt.Sprintf("invalid change-sets (%s): %s: %s", strings.Join(e.Sets, ", "), reason, e.ID)
}

// RecordedError is a save error restored from the journal. Only its
// rendered message survives between sessions.
type RecordedError struct {
	Message string
}

func (e *RecordedError) Error() string { return e.Message }

// IsSaveFailure reports whether err is a recoverable failure to apply a
// transaction (rejected or never delivered).
func IsSaveFailure(err error) bool {
	var rejected *TransactionRejectedError
	var transport *TransportError
	return errors.As(err, &rejected) || errors.As(err, &transport)
}

// SaveMessage renders err as the human-readable text shown to the user.
// It returns "" for a nil error.
func SaveMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoChanges) {
		return "No changes to save"
	}
	var recorded *RecordedError
	if errors.As(err, &recorded) {
		return recorded.Message
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return fmt.Sprintf("Failed to load zones: %v", loadErr.Err)
	}
	return "Failed to save changes: " + err.Error()
}
