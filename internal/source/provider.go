// Package source connects to origin databases and reads from them through an
// engine-neutral query surface. Five engines are supported: POSTGRES,
// COCKROACHDB, REDSHIFT, MYSQL and MSSQL.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mintlify/pipebird-showcase/pkg/database"
	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// ErrUnreachable wraps connection failures so callers can map them to a
// transfer-fatal outcome without inspecting driver error strings.
var ErrUnreachable = errors.New("source: database unreachable")

// Conn is an open handle to a source database.
type Conn struct {
	db      *sql.DB
	dialect Dialect
}

// Connect resolves the dialect for the source's engine, opens a pool and
// verifies it with a bounded ping.
func Connect(ctx context.Context, src *models.Source) (*Conn, error) {
	d, err := DialectFor(src.Engine)
	if err != nil {
		return nil, err
	}
	db, err := database.ConnectSQL(ctx, d.DriverName(), d.DSN(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %s:%d: %v", ErrUnreachable, src.Host, src.Port, err)
	}
	return &Conn{db: db, dialect: d}, nil
}

// Dialect returns the dialect queries against this connection must be built
// with.
func (c *Conn) Dialect() Dialect {
	return c.dialect
}

// QueryValue runs a single-column query and returns the first row's value.
// ok is false when the query matched no rows.
func (c *Conn) QueryValue(ctx context.Context, query string, args []interface{}) (interface{}, bool, error) {
	var v interface{}
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query failed: %w", err)
	}
	return v, true, nil
}

// Stream runs a query and invokes fn once per row with the scanned values in
// column order. A non-nil error from fn stops the scan and is returned.
func (c *Conn) Stream(ctx context.Context, query string, args []interface{}, fn func(values []interface{}) error) error {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row stream failed: %w", err)
	}
	return nil
}

// ExecUnsafe runs raw SQL the neutral builder cannot express. Callers own the
// text; nothing is quoted or bound.
func (c *Conn) ExecUnsafe(ctx context.Context, raw string) error {
	if _, err := c.db.ExecContext(ctx, raw); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (c *Conn) Close() error {
	return c.db.Close()
}
