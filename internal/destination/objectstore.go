package destination

import (
	"context"
	"fmt"
	"io"

	"github.com/mintlify/pipebird-showcase/internal/objectstore"
)

// snapshotPrefix is where finished object-store snapshots land in the shared
// bucket, as opposed to the transient staging prefix warehouses use.
const snapshotPrefix = "snapshots"

// objectStoreLoader uploads the compressed stream as-is and signs a
// short-lived retrieval URL. It holds no connection and no transaction, so
// the protocol's transactional methods do nothing.
type objectStoreLoader struct {
	store objectstore.Store
	url   string
}

var _ Loader = (*objectStoreLoader)(nil)

func (l *objectStoreLoader) Begin(context.Context) error       { return nil }
func (l *objectStoreLoader) CreateTable(context.Context) error { return nil }

func (l *objectStoreLoader) Stage(ctx context.Context, data io.Reader) error {
	key, err := l.store.Upload(ctx, data, snapshotPrefix, ".csv.gz")
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	url, err := l.store.Sign(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to sign snapshot %q: %w", key, err)
	}
	l.url = url
	return nil
}

func (l *objectStoreLoader) Upsert(context.Context) error   { return nil }
func (l *objectStoreLoader) TearDown(context.Context) error { return nil }
func (l *objectStoreLoader) Commit(context.Context) error   { return nil }
func (l *objectStoreLoader) Rollback(context.Context) error { return nil }

func (l *objectStoreLoader) ObjectURL() string { return l.url }

func (l *objectStoreLoader) Close() error { return nil }
