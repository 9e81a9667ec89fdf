package cli

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mintlify/pipebird-showcase/internal/catalog"
	"github.com/mintlify/pipebird-showcase/internal/config"
	"github.com/mintlify/pipebird-showcase/internal/destination"
	"github.com/mintlify/pipebird-showcase/internal/objectstore"
	"github.com/mintlify/pipebird-showcase/internal/transfer"
	"github.com/mintlify/pipebird-showcase/internal/webhook"
	"github.com/mintlify/pipebird-showcase/pkg/database"
	"github.com/mintlify/pipebird-showcase/pkg/logger"
)

func runTransfers(opts *ProcessOptions, transferIDs []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}

	ctx := context.Background()

	mongoClient, err := database.ConnectMongo(ctx, cfg.CatalogMongoURI)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	store := catalog.NewMongoStore(mongoClient, cfg.CatalogDatabase)

	objects, err := objectstore.NewMinioStore(objectstore.Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Bucket:          cfg.S3Bucket,
		UseSSL:          cfg.S3UseSSL,
		SignTTL:         cfg.S3SignedURLTTL,
	})
	if err != nil {
		return err
	}

	loaders := &destination.Factory{
		Store: objects,
		Staging: destination.StagingConfig{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3StagingPrefix,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		},
	}

	notifier := webhook.NewNotifier(store, cfg.WebhookTimeout, cfg.WebhookRateLimit)
	processor := transfer.NewProcessor(store, transfer.Connect, loaders, notifier)

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	fmt.Printf("Processing %d transfer(s)...\n", len(transferIDs))

	group := new(errgroup.Group)
	group.SetLimit(concurrency)
	for _, id := range transferIDs {
		group.Go(func() error {
			if err := processor.ProcessTransfer(ctx, id); err != nil {
				return fmt.Errorf("transfer %s: %w", id, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	fmt.Println("All transfers finished.")
	return nil
}
