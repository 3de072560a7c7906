// Package fault defines the error taxonomy shared by the engines: four kind
// sentinels that concrete errors wrap. NotFound, Conflict and
// PreconditionFailed are terminal logical facts and must never be retried;
// Transient covers infrastructure failures that have not taken effect yet.
package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrTransient          = errors.New("transient failure")
)

// KindOf returns the taxonomy sentinel err carries, or nil for unclassified
// errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrPreconditionFailed, ErrTransient} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// AsTransient tags an unclassified error as transient. Errors already
// carrying a kind pass through untouched, so a terminal precondition can
// never be promoted into something a caller would retry.
func AsTransient(err error) error {
	if err == nil || KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
