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

// MongoCarCollection implements CarCollection for MongoDB.
type MongoCarCollection struct {
	Collection *mongo.Collection
}

// GetCarByID finds a car by its local ID.
func (c *MongoCarCollection) GetCarByID(ctx context.Context, id string) (*models.UserCar, error) {
	var car models.UserCar
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find car error: %w", err)
	}
	return &car, nil
}

// GetCurrentCar returns the currently selected car, or ErrNotFound when the
// user has not selected one.
func (c *MongoCarCollection) GetCurrentCar(ctx context.Context) (*models.UserCar, error) {
	filter := bson.M{
		"is_current": true,
		"sync_state": bson.M{"$ne": models.SyncStatePendingDelete},
	}
	var car models.UserCar
	err := c.Collection.FindOne(ctx, filter).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find current car error: %w", err)
	}
	return &car, nil
}

// SetCurrentCar marks the given car as current and clears the flag on every
// other car.
func (c *MongoCarCollection) SetCurrentCar(ctx context.Context, id string) error {
	_, err := c.Collection.UpdateMany(ctx, bson.M{"is_current": true}, bson.M{"$set": bson.M{"is_current": false}})
	if err != nil {
		return fmt.Errorf("clear current car error: %w", err)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_current": true}})
	if err != nil {
		return fmt.Errorf("set current car error: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertCar fully replaces the car row, inserting it if absent.
func (c *MongoCarCollection) UpsertCar(ctx context.Context, car models.UserCar) error {
	opts := options.Replace().SetUpsert(true)
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": car.ID}, car, opts)
	if err != nil {
		return fmt.Errorf("upsert car error: %w", err)
	}
	return nil
}

// MarkCarPendingDelete transitions the car to PENDING_DELETE.
func (c *MongoCarCollection) MarkCarPendingDelete(ctx context.Context, id string, updatedAtMillis int64) error {
	update := bson.M{"$set": bson.M{
		"sync_state":        models.SyncStatePendingDelete,
		"is_current":        false,
		"updated_at_millis": updatedAtMillis,
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mark car pending delete error: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalDeleteCar hard-removes the car row.
func (c *MongoCarCollection) FinalDeleteCar(ctx context.Context, id string) error {
	_, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete car error: %w", err)
	}
	return nil
}

// ListCars returns the user-visible cars.
func (c *MongoCarCollection) ListCars(ctx context.Context) ([]models.UserCar, error) {
	filter := bson.M{"sync_state": bson.M{"$ne": models.SyncStatePendingDelete}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at_millis", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list cars error: %w", err)
	}
	defer cursor.Close(ctx)

	var cars []models.UserCar
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("decode cars error: %w", err)
	}
	return cars, nil
}

// ListPendingCars returns cars in any of the given sync states, in ascending
// creation order.
func (c *MongoCarCollection) ListPendingCars(ctx context.Context, states ...models.SyncState) ([]models.UserCar, error) {
	filter := bson.M{"sync_state": bson.M{"$in": states}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at_millis", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending cars error: %w", err)
	}
	defer cursor.Close(ctx)

	var cars []models.UserCar
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("decode pending cars error: %w", err)
	}
	return cars, nil
}

// ReplaceAllCars applies the remote car list under the remote-wins-except-
// pending policy. The current-car selection is local-only state and is
// carried over from the matching local row.
func (c *MongoCarCollection) ReplaceAllCars(ctx context.Context, cars []models.UserCar) error {
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("read cars for replace error: %w", err)
	}
	var existing []models.UserCar
	if err := cursor.All(ctx, &existing); err != nil {
		return fmt.Errorf("decode cars for replace error: %w", err)
	}

	byRemoteID := make(map[int64]models.UserCar)
	for _, row := range existing {
		if row.RemoteID != nil {
			byRemoteID[*row.RemoteID] = row
		}
	}

	var ops []mongo.WriteModel
	seen := make(map[int64]bool)
	for _, car := range cars {
		if car.RemoteID == nil {
			continue
		}
		seen[*car.RemoteID] = true
		if local, ok := byRemoteID[*car.RemoteID]; ok {
			if local.SyncState != models.SyncStateSynced {
				continue
			}
			car.ID = local.ID
			car.IsCurrent = local.IsCurrent
			car.CreatedAtMillis = local.CreatedAtMillis
			if car.UpdatedAtMillis < local.UpdatedAtMillis {
				car.UpdatedAtMillis = local.UpdatedAtMillis
			}
		} else {
			car.ID = uuid.NewString()
			now := time.Now().UnixMilli()
			if car.CreatedAtMillis == 0 {
				car.CreatedAtMillis = now
			}
			if car.UpdatedAtMillis == 0 {
				car.UpdatedAtMillis = now
			}
		}
		car.SyncState = models.SyncStateSynced
		ops = append(ops, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": car.ID}).
			SetReplacement(car).
			SetUpsert(true))
	}
	for _, row := range existing {
		if row.SyncState != models.SyncStateSynced {
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
		return fmt.Errorf("replace cars error: %w", err)
	}
	return nil
}
