package store

import (
	"context"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	Close() error

	// Migrate creates the schema if needed.
	Migrate(ctx context.Context) error

	// CreateEvent inserts the event unless it overlaps an existing one,
	// in which case it returns ErrEventConflict. The check and the insert
	// run in one transaction.
	CreateEvent(ctx context.Context, create *Event) (*Event, error)
	// ListEvents returns matching events ordered by start.
	ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error)
}
