package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fariasdev/mycar-sync/internal/models"
)

// MongoHistoryCollection implements HistoryCollection for MongoDB.
type MongoHistoryCollection struct {
	Collection *mongo.Collection
}

// GetHistoryByID finds a history record by its local ID.
func (c *MongoHistoryCollection) GetHistoryByID(ctx context.Context, id string) (*models.MaintenanceHistory, error) {
	var record models.MaintenanceHistory
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find history error: %w", err)
	}
	return &record, nil
}

// UpsertHistory fully replaces the history row, inserting it if absent.
// History is append/delete only: upserting a row in PENDING_UPDATE is a
// caller bug and is rejected.
func (c *MongoHistoryCollection) UpsertHistory(ctx context.Context, record models.MaintenanceHistory) error {
	if record.SyncState == models.SyncStatePendingUpdate {
		return fmt.Errorf("history records cannot be PENDING_UPDATE")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	if err != nil {
		return fmt.Errorf("upsert history error: %w", err)
	}
	return nil
}

// MarkHistoryPendingDelete transitions the record to PENDING_DELETE.
func (c *MongoHistoryCollection) MarkHistoryPendingDelete(ctx context.Context, id string, updatedAtMillis int64) error {
	update := bson.M{"$set": bson.M{
		"sync_state":        models.SyncStatePendingDelete,
		"updated_at_millis": updatedAtMillis,
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mark history pending delete error: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalDeleteHistory hard-removes the history row.
func (c *MongoHistoryCollection) FinalDeleteHistory(ctx context.Context, id string) error {
	_, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete history error: %w", err)
	}
	return nil
}

// ListHistoryForCar returns user-visible history for a car, most recent
// service first, excluding rows awaiting remote delete confirmation.
func (c *MongoHistoryCollection) ListHistoryForCar(ctx context.Context, carID string) ([]models.MaintenanceHistory, error) {
	filter := bson.M{
		"car_id":     carID,
		"sync_state": bson.M{"$ne": models.SyncStatePendingDelete},
	}
	opts := options.Find().SetSort(bson.D{{Key: "service_date_millis", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list history error: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.MaintenanceHistory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode history error: %w", err)
	}
	return records, nil
}

// ListPendingHistory returns history records in any of the given sync
// states, in ascending creation order. An empty carID matches all cars.
func (c *MongoHistoryCollection) ListPendingHistory(ctx context.Context, carID string, states ...models.SyncState) ([]models.MaintenanceHistory, error) {
	filter := bson.M{"sync_state": bson.M{"$in": states}}
	if carID != "" {
		filter["car_id"] = carID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at_millis", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending history error: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.MaintenanceHistory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode pending history error: %w", err)
	}
	return records, nil
}

// ReplaceAllHistoryForCar applies the remote history list for a car under
// the same remote-wins-except-pending policy as tasks.
func (c *MongoHistoryCollection) ReplaceAllHistoryForCar(ctx context.Context, carID string, records []models.MaintenanceHistory) error {
	cursor, err := c.Collection.Find(ctx, bson.M{"car_id": carID})
	if err != nil {
		return fmt.Errorf("read history for replace error: %w", err)
	}
	var existing []models.MaintenanceHistory
	if err := cursor.All(ctx, &existing); err != nil {
		return fmt.Errorf("decode history for replace error: %w", err)
	}

	byRemoteID := make(map[int64]models.MaintenanceHistory)
	for _, row := range existing {
		if row.RemoteID != nil {
			byRemoteID[*row.RemoteID] = row
		}
	}

	var ops []mongo.WriteModel
	seen := make(map[int64]bool)
	for _, record := range records {
		if record.RemoteID == nil {
			continue
		}
		seen[*record.RemoteID] = true
		if local, ok := byRemoteID[*record.RemoteID]; ok {
			if local.IsPending() {
				continue
			}
			record.ID = local.ID
			record.CreatedAtMillis = local.CreatedAtMillis
			if record.UpdatedAtMillis < local.UpdatedAtMillis {
				record.UpdatedAtMillis = local.UpdatedAtMillis
			}
		} else {
			record.ID = uuid.NewString()
			now := time.Now().UnixMilli()
			if record.CreatedAtMillis == 0 {
				record.CreatedAtMillis = now
			}
			if record.UpdatedAtMillis == 0 {
				record.UpdatedAtMillis = now
			}
		}
		record.CarID = carID
		record.SyncState = models.SyncStateSynced
		ops = append(ops, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": record.ID}).
			SetReplacement(record).
			SetUpsert(true))
	}
	for _, row := range existing {
		if row.IsPending() {
			continue
		}
		if row.RemoteID == nil || !seen[*row.RemoteID] {
			ops = append(ops, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": row.ID}))
		}
	}
	if len(ops) == 0 {
		return nil
	}
	_, err = c.Collection.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("replace history error: %w", err)
	}
	return nil
}
