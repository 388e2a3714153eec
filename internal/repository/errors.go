package repository

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey reports a create/create race on (station_id, price_date): two
// writers both observed no record and both attempted the insert. Callers resolve
// it by retrying the upsert once as a pure merge; it is never user-visible.
var ErrDuplicateKey = errors.New("duplicate key for station/date")

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

// UnavailableError represents an unreachable backing store. Distinguishable from
// validation failures so callers can map it to a retryable status.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) IsTransient() bool {
	return true
}
