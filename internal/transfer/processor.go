// Package transfer runs the incremental replication state machine: claim the
// transfer, resolve the tenant's watermark, stream the delta through the
// compression pipeline into the destination loader, then finalize and
// notify.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mintlify/pipebird-showcase/pkg/logger"
	"github.com/mintlify/pipebird-showcase/pkg/models"

	"github.com/mintlify/pipebird-showcase/internal/catalog"
	"github.com/mintlify/pipebird-showcase/internal/destination"
)

// ErrAlreadyProcessed marks transfers that are past STARTED when processing
// begins. The catalog is not touched; the caller just gets the error.
var ErrAlreadyProcessed = errors.New("transfer already claimed or finalized")

// Processor owns the end-to-end execution of single transfers. Each
// ProcessTransfer call opens its own source and destination connections, so
// instances are safe for concurrent use.
type Processor struct {
	Store    catalog.Store
	Connect  ConnectFunc
	Loaders  LoaderFactory
	Notifier Notifier
}

func NewProcessor(store catalog.Store, connect ConnectFunc, loaders LoaderFactory, notifier Notifier) *Processor {
	return &Processor{Store: store, Connect: connect, Loaders: loaders, Notifier: notifier}
}

// outcome carries a successful run's result into finalization.
type outcome struct {
	status    models.TransferStatus
	objectURL string
	boundary  time.Time
}

// ProcessTransfer executes one transfer to a terminal status. It returns nil
// for COMPLETE and CANCELLED outcomes and the causing error for FAILED ones.
// A transfer that is not in STARTED status is rejected without any catalog
// write; losing the claim to a concurrent processor aborts silently.
func (p *Processor) ProcessTransfer(ctx context.Context, id string) error {
	start := time.Now()
	defer func() { transferDuration.Observe(time.Since(start).Seconds()) }()

	t, err := p.Store.GetTransfer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load transfer %q: %w", id, err)
	}
	if t.Status != models.TransferStarted {
		return fmt.Errorf("%w: transfer %q is %s", ErrAlreadyProcessed, id, t.Status)
	}
	claimed, err := p.Store.ClaimTransfer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to claim transfer %q: %w", id, err)
	}
	if !claimed {
		logger.Warnf("Transfer %s was claimed concurrently; skipping", id)
		return nil
	}
	logger.Infof("Processing transfer %s for share %s", id, t.ShareID)

	out, err := p.run(ctx, t)
	if err != nil {
		logger.Errorf("Transfer %s failed: %v", id, err)
		p.finalize(ctx, id, models.TransferFailed, "")
		p.notify(ctx, id)
		return err
	}

	if out.status == models.TransferCancelled {
		logger.Infof("Transfer %s cancelled: nothing new to sync", id)
		p.finalize(ctx, id, models.TransferCancelled, "")
		p.notify(ctx, id)
		return nil
	}

	p.finalize(ctx, id, models.TransferComplete, out.objectURL)
	if err := p.Store.AdvanceShareWatermark(ctx, t.ShareID, out.boundary); err != nil {
		p.notify(ctx, id)
		return fmt.Errorf("failed to advance watermark for share %q: %w", t.ShareID, err)
	}
	logger.Infof("Transfer %s complete; share %s watermark is now %s",
		id, t.ShareID, out.boundary.UTC().Format(time.RFC3339Nano))
	p.notify(ctx, id)
	return nil
}

// run does everything between a won claim and finalization. The loader stays
// nil until the destination branch constructs one; rollback happens only
// when a failure strikes after that point.
func (p *Processor) run(ctx context.Context, t *models.Transfer) (*outcome, error) {
	share, err := p.Store.GetShare(ctx, t.ShareID)
	if err != nil {
		return nil, fmt.Errorf("failed to load share %q: %w", t.ShareID, err)
	}
	dst, err := p.Store.GetDestination(ctx, share.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load destination %q: %w", share.DestinationID, err)
	}
	cfg, err := p.Store.GetConfiguration(ctx, share.ConfigurationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %q: %w", share.ConfigurationID, err)
	}
	view, err := p.Store.GetView(ctx, cfg.ViewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load view %q: %w", cfg.ViewID, err)
	}
	src, err := p.Store.GetSource(ctx, view.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", view.SourceID, err)
	}
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(view); err != nil {
		return nil, err
	}

	conn, err := p.Connect(ctx, src)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	boundary, ok, err := ResolveWatermark(ctx, conn, src.Schema, view, share)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Infof("Tenant %s has no rows in %s; cancelling", share.TenantID, view.TableName)
		return &outcome{status: models.TransferCancelled}, nil
	}
	if !boundary.After(share.LastModifiedAt) {
		logger.Infof("Share %s has no rows newer than its watermark; cancelling", share.ID)
		return &outcome{status: models.TransferCancelled}, nil
	}

	loader, err := p.Loaders.NewLoader(ctx, dst, tableFor(dst, view, cfg))
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	if err := p.load(ctx, conn, loader, src.Schema, view, cfg, share); err != nil {
		if rbErr := loader.Rollback(ctx); rbErr != nil {
			logger.Errorf("Rollback of transfer %s failed: %v", t.ID, rbErr)
		}
		return nil, err
	}
	return &outcome{
		status:    models.TransferComplete,
		objectURL: loader.ObjectURL(),
		boundary:  boundary,
	}, nil
}

// load drives the loader protocol over the compressed snapshot stream.
func (p *Processor) load(ctx context.Context, conn SourceConn, loader destination.Loader, schema string, view *models.View, cfg *models.Configuration, share *models.Share) error {
	if err := loader.Begin(ctx); err != nil {
		return err
	}
	if err := loader.CreateTable(ctx); err != nil {
		return err
	}
	stream := Snapshot(ctx, conn, schema, view, cfg, share)
	defer stream.Close()
	if err := loader.Stage(ctx, stream); err != nil {
		return err
	}
	if err := loader.Upsert(ctx); err != nil {
		return err
	}
	if err := loader.TearDown(ctx); err != nil {
		return err
	}
	return loader.Commit(ctx)
}

// finalize converges every terminal path: the status write, the result
// upsert and the finalized metric. Write failures here are logged, not
// returned; the transfer's fate is already decided.
func (p *Processor) finalize(ctx context.Context, id string, status models.TransferStatus, objectURL string) {
	if err := p.Store.FinalizeTransfer(ctx, id, status); err != nil {
		logger.Errorf("Failed to write %s status for transfer %s: %v", status, id, err)
	}
	result := &models.TransferResult{
		TransferID:  id,
		FinalizedAt: time.Now().UTC(),
		ObjectURL:   objectURL,
	}
	if err := p.Store.UpsertTransferResult(ctx, result); err != nil {
		logger.Errorf("Failed to upsert result for transfer %s: %v", id, err)
	}
	transfersFinalized.WithLabelValues(string(status)).Inc()
}

func (p *Processor) notify(ctx context.Context, id string) {
	if p.Notifier == nil {
		return
	}
	p.Notifier.NotifyFinalized(ctx, id)
}

// tableFor maps the configured columns onto the destination table shape.
// The destination's own table name wins over the view's when set.
func tableFor(dst *models.Destination, view *models.View, cfg *models.Configuration) destination.Table {
	name := dst.TableName
	if name == "" {
		name = view.TableName
	}
	cols := make([]string, len(cfg.Columns))
	for i, c := range cfg.Columns {
		cols[i] = c.NameInDestination
	}
	var pk []string
	for _, c := range cfg.PrimaryKeyColumns(view) {
		pk = append(pk, c.NameInDestination)
	}
	return destination.Table{Name: name, Columns: cols, Primary: pk}
}
