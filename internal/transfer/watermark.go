package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/mintlify/pipebird-showcase/pkg/models"
	"github.com/mintlify/pipebird-showcase/pkg/utils"

	"github.com/mintlify/pipebird-showcase/internal/source"
)

// ResolveWatermark finds the newest last-modified value visible for the
// share's tenant. ok is false when the tenant has no rows at all, which
// cancels the transfer: there is no baseline to diff against.
func ResolveWatermark(ctx context.Context, conn SourceConn, schema string, view *models.View, share *models.Share) (time.Time, bool, error) {
	lastMod, found := view.LastModifiedColumn()
	if !found {
		return time.Time{}, false, fmt.Errorf("view %s has no last-modified column", view.ID)
	}
	tenant, found := view.TenantColumn()
	if !found {
		return time.Time{}, false, fmt.Errorf("view %s has no tenant column", view.ID)
	}

	q := source.SelectQuery{
		Schema:  schema,
		Table:   view.TableName,
		Columns: []string{lastMod.Name},
		Conditions: []source.Condition{
			{Column: tenant.Name, Op: source.OpEqual, Value: share.TenantID},
		},
		OrderBy:    lastMod.Name,
		Descending: true,
		Limit:      1,
	}
	text, args := q.Build(conn.Dialect())

	val, ok, err := conn.QueryValue(ctx, text, args)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("watermark query failed: %w", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}

	mark, err := utils.ParseTimestamp(val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse watermark value: %w", err)
	}
	return mark, true, nil
}
