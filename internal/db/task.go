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

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MongoTaskCollection implements TaskCollection for MongoDB.
type MongoTaskCollection struct {
	Collection *mongo.Collection
}

// GetTaskByID finds a task by its local ID.
func (c *MongoTaskCollection) GetTaskByID(ctx context.Context, id string) (*models.MaintenanceTask, error) {
	var task models.MaintenanceTask
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task error: %w", err)
	}
	return &task, nil
}

// UpsertTask fully replaces the task row, inserting it if absent. The caller
// owns the sync-state transition; the stored state is whatever the task
// carries.
func (c *MongoTaskCollection) UpsertTask(ctx context.Context, task models.MaintenanceTask) error {
	opts := options.Replace().SetUpsert(true)
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task, opts)
	if err != nil {
		return fmt.Errorf("upsert task error: %w", err)
	}
	return nil
}

// MarkTaskPendingDelete transitions the task to PENDING_DELETE without
// touching its payload fields.
func (c *MongoTaskCollection) MarkTaskPendingDelete(ctx context.Context, id string, updatedAtMillis int64) error {
	update := bson.M{"$set": bson.M{
		"sync_state":        models.SyncStatePendingDelete,
		"updated_at_millis": updatedAtMillis,
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mark task pending delete error: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalDeleteTask hard-removes the task row.
func (c *MongoTaskCollection) FinalDeleteTask(ctx context.Context, id string) error {
	_, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task error: %w", err)
	}
	return nil
}

// ListTasksForCar returns the user-visible tasks for a car, excluding rows
// awaiting remote delete confirmation.
func (c *MongoTaskCollection) ListTasksForCar(ctx context.Context, carID string) ([]models.MaintenanceTask, error) {
	filter := bson.M{
		"car_id":     carID,
		"sync_state": bson.M{"$ne": models.SyncStatePendingDelete},
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date_millis", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks error: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.MaintenanceTask
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks error: %w", err)
	}
	return tasks, nil
}

// ListPendingTasks returns tasks in any of the given sync states, in
// ascending creation order. An empty carID matches all cars.
func (c *MongoTaskCollection) ListPendingTasks(ctx context.Context, carID string, states ...models.SyncState) ([]models.MaintenanceTask, error) {
	filter := bson.M{"sync_state": bson.M{"$in": states}}
	if carID != "" {
		filter["car_id"] = carID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at_millis", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks error: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.MaintenanceTask
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode pending tasks error: %w", err)
	}
	return tasks, nil
}

// ReplaceAllTasksForCar applies the remote task list for a car. Rows still
// in a PENDING_* state are left untouched so in-flight local edits survive a
// concurrent pull; everything else is remote-wins: synced rows missing from
// the remote set are removed, matching rows are overwritten keeping their
// local ID, and unknown remote rows are inserted under a fresh local ID.
func (c *MongoTaskCollection) ReplaceAllTasksForCar(ctx context.Context, carID string, tasks []models.MaintenanceTask) error {
	cursor, err := c.Collection.Find(ctx, bson.M{"car_id": carID})
	if err != nil {
		return fmt.Errorf("read tasks for replace error: %w", err)
	}
	var existing []models.MaintenanceTask
	if err := cursor.All(ctx, &existing); err != nil {
		return fmt.Errorf("decode tasks for replace error: %w", err)
	}

	byRemoteID := make(map[int64]models.MaintenanceTask)
	for _, row := range existing {
		if row.RemoteID != nil {
			byRemoteID[*row.RemoteID] = row
		}
	}

	var ops []mongo.WriteModel
	seen := make(map[int64]bool)
	for _, task := range tasks {
		if task.RemoteID == nil {
			continue
		}
		seen[*task.RemoteID] = true
		if local, ok := byRemoteID[*task.RemoteID]; ok {
			if local.IsPending() {
				continue
			}
			task.ID = local.ID
			// Remote payloads carry no timestamps; keep the local ones so
			// updated_at_millis never goes backwards.
			task.CreatedAtMillis = local.CreatedAtMillis
			if task.UpdatedAtMillis < local.UpdatedAtMillis {
				task.UpdatedAtMillis = local.UpdatedAtMillis
			}
		} else {
			task.ID = uuid.NewString()
			now := time.Now().UnixMilli()
			if task.CreatedAtMillis == 0 {
				task.CreatedAtMillis = now
			}
			if task.UpdatedAtMillis == 0 {
				task.UpdatedAtMillis = now
			}
		}
		task.CarID = carID
		task.SyncState = models.SyncStateSynced
		ops = append(ops, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": task.ID}).
			SetReplacement(task).
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
		return fmt.Errorf("replace tasks error: %w", err)
	}
	return nil
}
