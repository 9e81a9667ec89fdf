package destination

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// Redshift caps varchar at 64K bytes.
const redshiftVarchar = "varchar(65535)"

// redshiftLoader speaks the postgres wire protocol and loads via COPY from
// the shared bucket into a session-scoped temp table, then merges with the
// classic delete-and-insert pattern.
type redshiftLoader struct {
	warehouseBase
}

var _ Loader = (*redshiftLoader)(nil)

func redshiftDSN(dst *models.Destination) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(dst.Username, dst.Password),
		Host:   fmt.Sprintf("%s:%d", dst.Host, dst.Port),
		Path:   "/" + dst.Database,
	}
	return u.String()
}

func (l *redshiftLoader) CreateTable(ctx context.Context) error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		l.qualifiedTarget(), columnDefs(l.table.Columns, redshiftVarchar))
	if err := l.exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create target table: %w", err)
	}
	return nil
}

func (l *redshiftLoader) Stage(ctx context.Context, data io.Reader) error {
	if err := l.uploadStaging(ctx, data); err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE TEMP TABLE %s (%s)",
		quoteIdent(l.stageName), columnDefs(l.table.Columns, redshiftVarchar))
	if err := l.exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	copyStmt := fmt.Sprintf(
		"COPY %s (%s) FROM '%s' ACCESS_KEY_ID '%s' SECRET_ACCESS_KEY '%s' FORMAT AS CSV IGNOREHEADER 1 GZIP",
		quoteIdent(l.stageName), quotedList(l.table.Columns), l.stagedLocation(),
		l.staging.AccessKeyID, l.staging.SecretAccessKey)
	if err := l.exec(ctx, copyStmt); err != nil {
		return fmt.Errorf("failed to copy staged object: %w", err)
	}
	return nil
}

// Upsert deletes target rows that collide on the primary key and inserts the
// full staging table. Redshift has no native MERGE worth using here.
func (l *redshiftLoader) Upsert(ctx context.Context) error {
	target := l.qualifiedTarget()
	stage := quoteIdent(l.stageName)

	del := fmt.Sprintf("DELETE FROM %s USING %s WHERE %s", target, stage,
		joinKeyEquality(target, stage, l.table.Primary))
	if err := l.exec(ctx, del); err != nil {
		return fmt.Errorf("failed to delete colliding rows: %w", err)
	}

	ins := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		target, quotedList(l.table.Columns), quotedList(l.table.Columns), stage)
	if err := l.exec(ctx, ins); err != nil {
		return fmt.Errorf("failed to insert staged rows: %w", err)
	}
	return nil
}

func joinKeyEquality(left, right string, keys []string) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " AND "
		}
		out += fmt.Sprintf("%s.%s = %s.%s", left, quoteIdent(k), right, quoteIdent(k))
	}
	return out
}
