package destination

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// snowflakeLoader loads via COPY INTO a session-scoped temporary table and
// merges into the target with MERGE.
type snowflakeLoader struct {
	warehouseBase
}

var _ Loader = (*snowflakeLoader)(nil)

// snowflakeDSN treats the destination host as the Snowflake account
// identifier; the driver derives the endpoint from it.
func snowflakeDSN(dst *models.Destination) (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   dst.Host,
		User:      dst.Username,
		Password:  dst.Password,
		Database:  dst.Database,
		Schema:    dst.Schema,
		Warehouse: dst.Warehouse,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake DSN: %w", err)
	}
	return dsn, nil
}

func (l *snowflakeLoader) CreateTable(ctx context.Context) error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		l.qualifiedTarget(), columnDefs(l.table.Columns, "varchar"))
	if err := l.exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create target table: %w", err)
	}
	return nil
}

func (l *snowflakeLoader) Stage(ctx context.Context, data io.Reader) error {
	if err := l.uploadStaging(ctx, data); err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s)",
		quoteIdent(l.stageName), columnDefs(l.table.Columns, "varchar"))
	if err := l.exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	copyStmt := fmt.Sprintf(
		"COPY INTO %s (%s) FROM '%s' CREDENTIALS = (AWS_KEY_ID='%s' AWS_SECRET_KEY='%s') "+
			"FILE_FORMAT = (TYPE = CSV SKIP_HEADER = 1 FIELD_OPTIONALLY_ENCLOSED_BY = '\"' COMPRESSION = GZIP)",
		quoteIdent(l.stageName), quotedList(l.table.Columns), l.stagedLocation(),
		l.staging.AccessKeyID, l.staging.SecretAccessKey)
	if err := l.exec(ctx, copyStmt); err != nil {
		return fmt.Errorf("failed to copy staged object: %w", err)
	}
	return nil
}

func (l *snowflakeLoader) Upsert(ctx context.Context) error {
	target := l.qualifiedTarget()
	stage := quoteIdent(l.stageName)

	var sb strings.Builder
	fmt.Fprintf(&sb, "MERGE INTO %s t USING %s s ON ", target, stage)
	for i, k := range l.table.Primary {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "t.%s = s.%s", quoteIdent(k), quoteIdent(k))
	}

	// A table whose every column is part of the key has nothing to update on
	// match.
	if rest := l.nonKeyColumns(); len(rest) > 0 {
		sb.WriteString(" WHEN MATCHED THEN UPDATE SET ")
		for i, c := range rest {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "t.%s = s.%s", quoteIdent(c), quoteIdent(c))
		}
	}

	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	sb.WriteString(quotedList(l.table.Columns))
	sb.WriteString(") VALUES (")
	for i, c := range l.table.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "s.%s", quoteIdent(c))
	}
	sb.WriteString(")")

	if err := l.exec(ctx, sb.String()); err != nil {
		return fmt.Errorf("failed to merge staged rows: %w", err)
	}
	return nil
}
