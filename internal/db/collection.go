package db

import (
	"context"

	"github.com/fariasdev/mycar-sync/internal/models"
)

// TaskCollection defines the interface for maintenance task storage.
// ListTasksForCar excludes rows marked PENDING_DELETE; those stay in storage
// until the remote delete is confirmed but are invisible to user-facing
// queries. ReplaceAllTasksForCar applies remote truth for a car while
// leaving any PENDING_* rows untouched.
type TaskCollection interface {
	GetTaskByID(ctx context.Context, id string) (*models.MaintenanceTask, error)
	UpsertTask(ctx context.Context, task models.MaintenanceTask) error
	MarkTaskPendingDelete(ctx context.Context, id string, updatedAtMillis int64) error
	FinalDeleteTask(ctx context.Context, id string) error
	ListTasksForCar(ctx context.Context, carID string) ([]models.MaintenanceTask, error)
	ListPendingTasks(ctx context.Context, carID string, states ...models.SyncState) ([]models.MaintenanceTask, error)
	ReplaceAllTasksForCar(ctx context.Context, carID string, tasks []models.MaintenanceTask) error
}

// HistoryCollection defines the interface for maintenance history storage.
// History rows are append/delete only; there is no update path.
type HistoryCollection interface {
	GetHistoryByID(ctx context.Context, id string) (*models.MaintenanceHistory, error)
	UpsertHistory(ctx context.Context, record models.MaintenanceHistory) error
	MarkHistoryPendingDelete(ctx context.Context, id string, updatedAtMillis int64) error
	FinalDeleteHistory(ctx context.Context, id string) error
	ListHistoryForCar(ctx context.Context, carID string) ([]models.MaintenanceHistory, error)
	ListPendingHistory(ctx context.Context, carID string, states ...models.SyncState) ([]models.MaintenanceHistory, error)
	ReplaceAllHistoryForCar(ctx context.Context, carID string, records []models.MaintenanceHistory) error
}

// CarCollection defines the interface for user car storage.
type CarCollection interface {
	GetCarByID(ctx context.Context, id string) (*models.UserCar, error)
	GetCurrentCar(ctx context.Context) (*models.UserCar, error)
	SetCurrentCar(ctx context.Context, id string) error
	UpsertCar(ctx context.Context, car models.UserCar) error
	MarkCarPendingDelete(ctx context.Context, id string, updatedAtMillis int64) error
	FinalDeleteCar(ctx context.Context, id string) error
	ListCars(ctx context.Context) ([]models.UserCar, error)
	ListPendingCars(ctx context.Context, states ...models.SyncState) ([]models.UserCar, error)
	ReplaceAllCars(ctx context.Context, cars []models.UserCar) error
}
