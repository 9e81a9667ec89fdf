// Package catalog persists the control-plane state of the transfer engine:
// transfers and their status transitions, shares and watermarks, column
// configurations, views, sources, destinations, results, webhooks and the
// audit log.
package catalog

import (
	"context"
	"time"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// Store is the catalog contract the transfer engine runs against. Status
// transitions and result upserts are durable writes visible to any concurrent
// reader immediately.
type Store interface {
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)
	GetShare(ctx context.Context, id string) (*models.Share, error)
	GetConfiguration(ctx context.Context, id string) (*models.Configuration, error)
	GetView(ctx context.Context, id string) (*models.View, error)
	GetSource(ctx context.Context, id string) (*models.Source, error)
	GetDestination(ctx context.Context, id string) (*models.Destination, error)
	GetTransferResult(ctx context.Context, transferID string) (*models.TransferResult, error)
	ListWebhooks(ctx context.Context) ([]models.Webhook, error)

	// ClaimTransfer atomically moves a transfer from STARTED to PENDING and
	// reports whether this caller won the claim. False means the transfer is
	// missing, already claimed or already terminal.
	ClaimTransfer(ctx context.Context, id string) (bool, error)

	// FinalizeTransfer sets a terminal status on a transfer.
	FinalizeTransfer(ctx context.Context, id string, status models.TransferStatus) error

	// UpsertTransferResult creates or replaces the result row keyed by
	// transfer id.
	UpsertTransferResult(ctx context.Context, result *models.TransferResult) error

	// AdvanceShareWatermark sets the share's lastModifiedAt watermark.
	AdvanceShareWatermark(ctx context.Context, shareID string, watermark time.Time) error

	// DeleteDestination removes a destination unless any transfer of a share
	// pointing at it is non-terminal. On rejection it writes an audit log
	// entry and returns ErrDestinationBusy; the precondition check and the
	// delete happen atomically.
	DeleteDestination(ctx context.Context, id string) error

	// AppendLog writes an audit record. Missing id and timestamp are filled
	// in by the store.
	AppendLog(ctx context.Context, entry *models.LogEntry) error
}
