package destination

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/mintlify/pipebird-showcase/pkg/logger"
	"github.com/mintlify/pipebird-showcase/pkg/models"

	"github.com/mintlify/pipebird-showcase/internal/objectstore"
)

// execer and txHandle are the slices of database/sql the warehouse loaders
// touch, kept narrow so tests can script failures without a live warehouse.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type txHandle interface {
	execer
	Commit() error
	Rollback() error
}

type sqlConn interface {
	Begin(ctx context.Context) (txHandle, error)
	Close() error
}

// dbConn adapts *sql.DB to sqlConn.
type dbConn struct {
	db *sql.DB
}

func (c dbConn) Begin(ctx context.Context) (txHandle, error) {
	return c.db.BeginTx(ctx, nil)
}

func (c dbConn) Close() error { return c.db.Close() }

// warehouseBase carries the state and transaction plumbing both warehouse
// dialects share. Dialect-specific SQL lives in the embedding loaders.
type warehouseBase struct {
	dst       *models.Destination
	table     Table
	store     objectstore.Store
	staging   StagingConfig
	conn      sqlConn
	tx        txHandle
	stagedKey string
	stageName string
}

func newWarehouseBase(dst *models.Destination, table Table, f *Factory, conn sqlConn) warehouseBase {
	return warehouseBase{
		dst:       dst,
		table:     table,
		store:     f.Store,
		staging:   f.Staging,
		conn:      conn,
		stageName: "staging_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

func (w *warehouseBase) Begin(ctx context.Context) error {
	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx
	return nil
}

func (w *warehouseBase) Commit(context.Context) error {
	if w.tx == nil {
		return fmt.Errorf("no open transaction to commit")
	}
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	w.tx = nil
	return nil
}

// Rollback reverts the open transaction and cleans up the staged object if
// one was uploaded. It is a no-op before Begin has succeeded, so the
// orchestrator's failure path can call it unconditionally once a loader
// exists.
func (w *warehouseBase) Rollback(ctx context.Context) error {
	if w.stagedKey != "" {
		if err := w.store.Remove(ctx, w.stagedKey); err != nil {
			logger.Warnf("Failed to remove staged object %s during rollback: %v", w.stagedKey, err)
		}
		w.stagedKey = ""
	}
	if w.tx == nil {
		return nil
	}
	err := w.tx.Rollback()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// TearDown deletes the staged object. The staging table is session-scoped
// and needs no explicit drop.
func (w *warehouseBase) TearDown(ctx context.Context) error {
	if w.stagedKey == "" {
		return nil
	}
	if err := w.store.Remove(ctx, w.stagedKey); err != nil {
		return fmt.Errorf("failed to remove staged object %q: %w", w.stagedKey, err)
	}
	w.stagedKey = ""
	return nil
}

// ObjectURL is empty for warehouses; rows land in tables, not objects.
func (w *warehouseBase) ObjectURL() string { return "" }

func (w *warehouseBase) Close() error { return w.conn.Close() }

func (w *warehouseBase) exec(ctx context.Context, query string) error {
	if w.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	if _, err := w.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// uploadStaging pushes the compressed stream to the shared bucket and
// remembers the key for COPY and TearDown.
func (w *warehouseBase) uploadStaging(ctx context.Context, data io.Reader) error {
	key, err := w.store.Upload(ctx, data, w.staging.Prefix, ".csv.gz")
	if err != nil {
		return fmt.Errorf("failed to upload staging object: %w", err)
	}
	w.stagedKey = key
	return nil
}

func (w *warehouseBase) stagedLocation() string {
	return fmt.Sprintf("s3://%s/%s", w.staging.Bucket, w.stagedKey)
}

// quoteIdent double-quotes an identifier. Redshift and Snowflake both accept
// the SQL standard form.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// qualifiedTarget renders schema.table for the destination's target table.
func (w *warehouseBase) qualifiedTarget() string {
	return quoteIdent(w.dst.Schema) + "." + quoteIdent(w.table.Name)
}

func quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// columnDefs renders the wide-varchar column list used for both the target
// and staging tables. Snapshots are typed at read time, not load time.
func columnDefs(columns []string, varcharType string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " " + varcharType
	}
	return strings.Join(defs, ", ")
}

// nonKeyColumns returns the columns outside the upsert identity.
func (w *warehouseBase) nonKeyColumns() []string {
	keys := make(map[string]bool, len(w.table.Primary))
	for _, k := range w.table.Primary {
		keys[k] = true
	}
	var rest []string
	for _, c := range w.table.Columns {
		if !keys[c] {
			rest = append(rest, c)
		}
	}
	return rest
}
