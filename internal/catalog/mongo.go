package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// Collection names in the catalog database.
const (
	collTransfers      = "transfers"
	collShares         = "shares"
	collConfigurations = "configurations"
	collViews          = "views"
	collSources        = "sources"
	collDestinations   = "destinations"
	collResults        = "transferResults"
	collWebhooks       = "webhooks"
	collLogs           = "logs"
)

// MongoStore is the production Store backed by a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore wraps an already connected client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) findByID(ctx context.Context, coll, id string, out interface{}) error {
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s %q: %w", coll, id, err)
	}
	return nil
}

func (s *MongoStore) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	var t models.Transfer
	if err := s.findByID(ctx, collTransfers, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *MongoStore) GetShare(ctx context.Context, id string) (*models.Share, error) {
	var sh models.Share
	if err := s.findByID(ctx, collShares, id, &sh); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *MongoStore) GetConfiguration(ctx context.Context, id string) (*models.Configuration, error) {
	var c models.Configuration
	if err := s.findByID(ctx, collConfigurations, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) GetView(ctx context.Context, id string) (*models.View, error) {
	var v models.View
	if err := s.findByID(ctx, collViews, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *MongoStore) GetSource(ctx context.Context, id string) (*models.Source, error) {
	var src models.Source
	if err := s.findByID(ctx, collSources, id, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *MongoStore) GetDestination(ctx context.Context, id string) (*models.Destination, error) {
	var d models.Destination
	if err := s.findByID(ctx, collDestinations, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MongoStore) GetTransferResult(ctx context.Context, transferID string) (*models.TransferResult, error) {
	var r models.TransferResult
	if err := s.findByID(ctx, collResults, transferID, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) ListWebhooks(ctx context.Context) ([]models.Webhook, error) {
	cursor, err := s.db.Collection(collWebhooks).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer cursor.Close(ctx)

	var hooks []models.Webhook
	if err := cursor.All(ctx, &hooks); err != nil {
		return nil, fmt.Errorf("failed to decode webhooks: %w", err)
	}
	return hooks, nil
}

// ClaimTransfer is a conditional update filtered on the STARTED status, so
// exactly one of any number of concurrent claimants matches the document.
func (s *MongoStore) ClaimTransfer(ctx context.Context, id string) (bool, error) {
	res, err := s.db.Collection(collTransfers).UpdateOne(ctx,
		bson.M{"_id": id, "status": models.TransferStarted},
		bson.M{"$set": bson.M{"status": models.TransferPending}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim transfer %q: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) FinalizeTransfer(ctx context.Context, id string, status models.TransferStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	res, err := s.db.Collection(collTransfers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to finalize transfer %q: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpsertTransferResult(ctx context.Context, result *models.TransferResult) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(collResults).ReplaceOne(ctx,
		bson.M{"_id": result.TransferID}, result, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert result for transfer %q: %w", result.TransferID, err)
	}
	return nil
}

func (s *MongoStore) AdvanceShareWatermark(ctx context.Context, shareID string, watermark time.Time) error {
	res, err := s.db.Collection(collShares).UpdateOne(ctx,
		bson.M{"_id": shareID},
		bson.M{"$set": bson.M{"lastModifiedAt": watermark}},
	)
	if err != nil {
		return fmt.Errorf("failed to advance watermark for share %q: %w", shareID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDestination runs the busy check and the delete inside one session
// transaction so a transfer claimed between the two cannot slip through.
func (s *MongoStore) DeleteDestination(ctx context.Context, id string) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cursor, err := s.db.Collection(collShares).Find(sc, bson.M{"destinationId": id})
		if err != nil {
			return nil, fmt.Errorf("failed to list shares for destination %q: %w", id, err)
		}
		var shares []models.Share
		if err := cursor.All(sc, &shares); err != nil {
			return nil, fmt.Errorf("failed to decode shares: %w", err)
		}

		shareIDs := make([]string, 0, len(shares))
		for _, sh := range shares {
			shareIDs = append(shareIDs, sh.ID)
		}
		if len(shareIDs) > 0 {
			busy, err := s.db.Collection(collTransfers).CountDocuments(sc, bson.M{
				"shareId": bson.M{"$in": shareIDs},
				"status":  bson.M{"$in": []models.TransferStatus{models.TransferStarted, models.TransferPending}},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to count pending transfers: %w", err)
			}
			if busy > 0 {
				return nil, ErrDestinationBusy
			}
		}

		res, err := s.db.Collection(collDestinations).DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("failed to delete destination %q: %w", id, err)
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})

	if errors.Is(err, ErrDestinationBusy) {
		logErr := s.AppendLog(ctx, &models.LogEntry{
			Domain: models.LogDomainDestination,
			Action: models.LogActionDelete,
			Meta:   fmt.Sprintf("delete of destination %s rejected: unfinished transfers", id),
		})
		if logErr != nil {
			return fmt.Errorf("failed to write audit entry: %w (after %w)", logErr, err)
		}
	}
	return err
}

func (s *MongoStore) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Collection(collLogs).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}
