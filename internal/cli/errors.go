package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacksmith/zonesync/internal/model"
)

// NotFoundError indicates a zone was not in the working set.
type NotFoundError struct {
	Type string // "zone"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Type, e.ID)
}

// ValidationError indicates a bad flag or argument.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// PendingChangesError is returned when an operation would discard edits
// that have not been pushed.
type PendingChangesError struct {
	Count int
	Hint  string
}

func (e *PendingChangesError) Error() string {
	msg := fmt.Sprintf("%d pending change(s) would be discarded", e.Count)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

// FormatError returns a user-friendly error message.
// Save failures already carry their own prefix and are shown as is.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if model.IsSaveFailure(err) || errors.Is(err, model.ErrNoChanges) {
		return "error: " + model.SaveMessage(err)
	}
	return "error: " + strings.TrimSpace(err.Error())
}
