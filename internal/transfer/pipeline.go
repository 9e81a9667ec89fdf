package transfer

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/mintlify/pipebird-showcase/pkg/logger"
	"github.com/mintlify/pipebird-showcase/pkg/models"
	"github.com/mintlify/pipebird-showcase/pkg/utils"

	"github.com/mintlify/pipebird-showcase/internal/source"
)

// Snapshot starts the extraction for one transfer and returns the resulting
// byte stream: a gzip-compressed CSV whose header row carries the
// destination-side column names. The query selects only the configured
// columns, filtered by tenant and strictly newer than the share's watermark.
//
// Rows move demand-driven through an in-process pipe. The consumer's read
// rate is the row scan rate against the source cursor, so a slow destination
// suspends extraction instead of buffering the result set. Closing the
// returned reader aborts the query.
func Snapshot(ctx context.Context, conn SourceConn, schema string, view *models.View, cfg *models.Configuration, share *models.Share) io.ReadCloser {
	srcCols := make([]string, len(cfg.Columns))
	header := make([]string, len(cfg.Columns))
	for i, col := range cfg.Columns {
		srcCols[i] = col.SourceColumn()
		header[i] = col.NameInDestination
	}

	tenant, _ := view.TenantColumn()
	lastMod, _ := view.LastModifiedColumn()
	q := source.SelectQuery{
		Schema:  schema,
		Table:   view.TableName,
		Columns: srcCols,
		Conditions: []source.Condition{
			{Column: tenant.Name, Op: source.OpEqual, Value: share.TenantID},
			{Column: lastMod.Name, Op: source.OpGreater, Value: share.LastModifiedAt},
		},
	}
	text, args := q.Build(conn.Dialect())

	pr, pw := io.Pipe()
	go func() {
		rows := 0
		gz := gzip.NewWriter(pw)
		cw := csv.NewWriter(gz)

		err := func() error {
			if err := cw.Write(header); err != nil {
				return err
			}
			record := make([]string, len(srcCols))
			err := conn.Stream(ctx, text, args, func(values []interface{}) error {
				for i, v := range values {
					record[i] = utils.RenderCell(v)
				}
				rows++
				rowsExtracted.Inc()
				return cw.Write(record)
			})
			if err != nil {
				return err
			}
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			return gz.Close()
		}()

		if err != nil {
			logger.Errorf("Snapshot stream of %s failed after %d rows: %v", view.TableName, rows, err)
			pw.CloseWithError(err)
			return
		}
		logger.Debugf("Snapshot stream of %s finished: %d rows", view.TableName, rows)
		pw.Close()
	}()
	return pr
}
