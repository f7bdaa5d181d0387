package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
)

// Local write operations. Each one commits synchronously against the record
// store and tags the row with its pending-operation marker; the network is
// never touched here.

// CreateTaskLocal stores a new task as PENDING_CREATE. A missing ID is
// filled with a fresh UUID; creating an ID that already exists is an error.
func (e *Engine) CreateTaskLocal(ctx context.Context, task models.MaintenanceTask) (*models.MaintenanceTask, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if _, err := e.tasks.GetTaskByID(ctx, task.ID); err == nil {
		return nil, NewError(KindLocalStore, "create task", fmt.Errorf("task %s already exists", task.ID))
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, NewError(KindLocalStore, "create task", err)
	}

	now := e.nowMs()
	task.RemoteID = nil
	task.SyncState = models.SyncStatePendingCreate
	if task.Status == "" {
		task.Status = models.TaskStatusUpcoming
	}
	task.CreatedAtMillis = now
	task.UpdatedAtMillis = now
	if err := e.tasks.UpsertTask(ctx, task); err != nil {
		return nil, NewError(KindLocalStore, "create task", err)
	}
	return &task, nil
}

// UpdateTaskLocal applies a local edit. The transition is evaluated against
// the row's current state: a row still PENDING_CREATE stays PENDING_CREATE
// (the create has not landed, no separate update op is needed), a SYNCED or
// PENDING_UPDATE row becomes PENDING_UPDATE, and a PENDING_DELETE row
// cannot be edited.
func (e *Engine) UpdateTaskLocal(ctx context.Context, task models.MaintenanceTask) (*models.MaintenanceTask, error) {
	existing, err := e.tasks.GetTaskByID(ctx, task.ID)
	if err != nil {
		return nil, NewError(KindLocalStore, "update task", err)
	}

	switch existing.SyncState {
	case models.SyncStatePendingCreate:
		task.RemoteID = nil
		task.SyncState = models.SyncStatePendingCreate
	case models.SyncStatePendingDelete:
		return nil, NewError(KindInconsistentState, "update task", fmt.Errorf("task %s is pending delete", task.ID))
	default:
		task.RemoteID = existing.RemoteID
		task.SyncState = models.SyncStatePendingUpdate
	}
	task.CarID = existing.CarID
	// Edits change the payload only; the COMPLETED transition belongs to
	// MarkTaskCompleted.
	task.Status = existing.Status
	task.CreatedAtMillis = existing.CreatedAtMillis
	task.UpdatedAtMillis = e.nowMs()
	if err := e.tasks.UpsertTask(ctx, task); err != nil {
		return nil, NewError(KindLocalStore, "update task", err)
	}
	return &task, nil
}

// MarkTaskCompleted marks a task COMPLETED and appends a history record
// built from the task's payload, both as local pending mutations.
func (e *Engine) MarkTaskCompleted(ctx context.Context, taskID string, completionMillis int64) error {
	task, err := e.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return NewError(KindLocalStore, "complete task", err)
	}
	if task.SyncState == models.SyncStatePendingDelete {
		return NewError(KindInconsistentState, "complete task", fmt.Errorf("task %s is pending delete", taskID))
	}

	task.Status = models.TaskStatusCompleted
	if task.SyncState == models.SyncStateSynced {
		task.SyncState = models.SyncStatePendingUpdate
	}
	task.UpdatedAtMillis = completionMillis
	if err := e.tasks.UpsertTask(ctx, *task); err != nil {
		return NewError(KindLocalStore, "complete task", err)
	}

	record := models.MaintenanceHistory{
		ID:                uuid.NewString(),
		CarID:             task.CarID,
		TaskType:          task.Type,
		ServiceDateMillis: completionMillis,
		MileageKm:         task.DueMileageKm,
		Notes:             task.Description,
		SyncState:         models.SyncStatePendingCreate,
		CreatedAtMillis:   completionMillis,
		UpdatedAtMillis:   completionMillis,
	}
	if err := e.history.UpsertHistory(ctx, record); err != nil {
		return NewError(KindLocalStore, "complete task", err)
	}
	return nil
}

// DeleteTaskLocal deletes a task. A row still PENDING_CREATE is purged
// immediately and never reaches the remote; anything else is marked
// PENDING_DELETE and removed only after the remote delete is confirmed.
func (e *Engine) DeleteTaskLocal(ctx context.Context, taskID string) error {
	task, err := e.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return NewError(KindLocalStore, "delete task", err)
	}
	if task.SyncState == models.SyncStatePendingCreate {
		if err := e.tasks.FinalDeleteTask(ctx, taskID); err != nil {
			return NewError(KindLocalStore, "delete task", err)
		}
		return nil
	}
	if err := e.tasks.MarkTaskPendingDelete(ctx, taskID, e.nowMs()); err != nil {
		return NewError(KindLocalStore, "delete task", err)
	}
	return nil
}

// AddHistoryRecord stores a manual history entry as PENDING_CREATE.
func (e *Engine) AddHistoryRecord(ctx context.Context, record models.MaintenanceHistory) (*models.MaintenanceHistory, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := e.nowMs()
	record.RemoteID = nil
	record.SyncState = models.SyncStatePendingCreate
	record.CreatedAtMillis = now
	record.UpdatedAtMillis = now
	if err := e.history.UpsertHistory(ctx, record); err != nil {
		return nil, NewError(KindLocalStore, "add history", err)
	}
	return &record, nil
}

// DeleteHistoryRecord deletes a history entry under the same purge-or-mark
// rule as tasks.
func (e *Engine) DeleteHistoryRecord(ctx context.Context, id string) error {
	record, err := e.history.GetHistoryByID(ctx, id)
	if err != nil {
		return NewError(KindLocalStore, "delete history", err)
	}
	if record.SyncState == models.SyncStatePendingCreate {
		if err := e.history.FinalDeleteHistory(ctx, id); err != nil {
			return NewError(KindLocalStore, "delete history", err)
		}
		return nil
	}
	if err := e.history.MarkHistoryPendingDelete(ctx, id, e.nowMs()); err != nil {
		return NewError(KindLocalStore, "delete history", err)
	}
	return nil
}

// AddCarLocal stores a new car as PENDING_CREATE. The first car added
// becomes current automatically.
func (e *Engine) AddCarLocal(ctx context.Context, car models.UserCar) (*models.UserCar, error) {
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	now := e.nowMs()
	car.RemoteID = nil
	car.SyncState = models.SyncStatePendingCreate
	car.CreatedAtMillis = now
	car.UpdatedAtMillis = now

	existing, err := e.cars.ListCars(ctx)
	if err != nil {
		return nil, NewError(KindLocalStore, "add car", err)
	}
	if len(existing) == 0 {
		car.IsCurrent = true
	}
	if err := e.cars.UpsertCar(ctx, car); err != nil {
		return nil, NewError(KindLocalStore, "add car", err)
	}
	if car.IsCurrent {
		if err := e.cars.SetCurrentCar(ctx, car.ID); err != nil {
			return nil, NewError(KindLocalStore, "add car", err)
		}
	}
	return &car, nil
}

// UpdateCarLocal applies a local car edit under the task transition rules.
func (e *Engine) UpdateCarLocal(ctx context.Context, car models.UserCar) (*models.UserCar, error) {
	existing, err := e.cars.GetCarByID(ctx, car.ID)
	if err != nil {
		return nil, NewError(KindLocalStore, "update car", err)
	}
	switch existing.SyncState {
	case models.SyncStatePendingCreate:
		car.RemoteID = nil
		car.SyncState = models.SyncStatePendingCreate
	case models.SyncStatePendingDelete:
		return nil, NewError(KindInconsistentState, "update car", fmt.Errorf("car %s is pending delete", car.ID))
	default:
		car.RemoteID = existing.RemoteID
		car.SyncState = models.SyncStatePendingUpdate
	}
	car.IsCurrent = existing.IsCurrent
	car.CreatedAtMillis = existing.CreatedAtMillis
	car.UpdatedAtMillis = e.nowMs()
	if err := e.cars.UpsertCar(ctx, car); err != nil {
		return nil, NewError(KindLocalStore, "update car", err)
	}
	return &car, nil
}

// DeleteCarLocal deletes a car under the purge-or-mark rule.
func (e *Engine) DeleteCarLocal(ctx context.Context, id string) error {
	car, err := e.cars.GetCarByID(ctx, id)
	if err != nil {
		return NewError(KindLocalStore, "delete car", err)
	}
	if car.SyncState == models.SyncStatePendingCreate {
		if err := e.cars.FinalDeleteCar(ctx, id); err != nil {
			return NewError(KindLocalStore, "delete car", err)
		}
		return nil
	}
	if err := e.cars.MarkCarPendingDelete(ctx, id, e.nowMs()); err != nil {
		return NewError(KindLocalStore, "delete car", err)
	}
	return nil
}

// SetCurrentCar selects the car all car-scoped syncs and alerts target.
func (e *Engine) SetCurrentCar(ctx context.Context, id string) error {
	if err := e.cars.SetCurrentCar(ctx, id); err != nil {
		return NewError(KindLocalStore, "set current car", err)
	}
	return nil
}
