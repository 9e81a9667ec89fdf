package transfer

import (
	"context"

	"github.com/mintlify/pipebird-showcase/pkg/models"

	"github.com/mintlify/pipebird-showcase/internal/destination"
	"github.com/mintlify/pipebird-showcase/internal/source"
)

// SourceConn is the slice of a source connection the transfer path reads
// through.
type SourceConn interface {
	Dialect() source.Dialect
	QueryValue(ctx context.Context, query string, args []interface{}) (interface{}, bool, error)
	Stream(ctx context.Context, query string, args []interface{}, fn func(values []interface{}) error) error
	Close() error
}

// ConnectFunc opens a connection to an origin database.
type ConnectFunc func(ctx context.Context, src *models.Source) (SourceConn, error)

// Connect is the production ConnectFunc.
func Connect(ctx context.Context, src *models.Source) (SourceConn, error) {
	conn, err := source.Connect(ctx, src)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// LoaderFactory builds the loader variant for a destination.
type LoaderFactory interface {
	NewLoader(ctx context.Context, dst *models.Destination, table destination.Table) (destination.Loader, error)
}

// Notifier announces finalized transfers. Implementations own their error
// handling; delivery problems must never reach the transfer outcome.
type Notifier interface {
	NotifyFinalized(ctx context.Context, transferID string)
}
