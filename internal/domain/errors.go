package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced entity does not exist or is no longer active.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller does not own the entity it tries to mutate.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput means the request was rejected before anything was persisted.
	ErrInvalidInput = errors.New("invalid input")
)

// DeliveryError classifies a failed notification send. Permanent failures
// (blocked bot, dead chat) deactivate the reminder; transient ones are retried.
type DeliveryError struct {
	Permanent bool
	Err       error
}

func (e *DeliveryError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("delivery failed (%s): %v", kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsPermanentDelivery reports whether err is a delivery failure that must not
// be retried.
func IsPermanentDelivery(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Permanent
}
