package catalog

import "errors"

var (
	// ErrNotFound is returned when a catalog record does not exist.
	ErrNotFound = errors.New("catalog: record not found")

	// ErrDestinationBusy is returned when a destination cannot be deleted
	// because at least one associated transfer is still in a non-terminal
	// status.
	ErrDestinationBusy = errors.New("catalog: destination has unfinished transfers")
)
