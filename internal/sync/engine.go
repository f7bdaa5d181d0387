package sync

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
)

// RemoteClient is the remote API surface the engine pushes to and pulls
// from. Implementations return errors classified with this package's Error
// type. Task and history calls are keyed by the owning car's remote ID.
type RemoteClient interface {
	CreateCar(ctx context.Context, car models.UserCar) (int64, error)
	UpdateCar(ctx context.Context, car models.UserCar) error
	DeleteCar(ctx context.Context, remoteID int64) error
	GetCars(ctx context.Context) ([]models.UserCar, error)

	CreateTask(ctx context.Context, carRemoteID int64, task models.MaintenanceTask) (int64, error)
	UpdateTask(ctx context.Context, carRemoteID int64, task models.MaintenanceTask) error
	DeleteTask(ctx context.Context, remoteID int64) error
	GetTasksForCar(ctx context.Context, carRemoteID int64) ([]models.MaintenanceTask, error)

	CreateHistory(ctx context.Context, carRemoteID int64, record models.MaintenanceHistory) (int64, error)
	DeleteHistory(ctx context.Context, remoteID int64) error
	GetHistoryForCar(ctx context.Context, carRemoteID int64) ([]models.MaintenanceHistory, error)
}

// Engine reconciles the local record store with the remote API. All its
// operations are synchronous; the scheduler owns invocation cadence and
// serializes full syncs, so the engine assumes a single logical writer.
type Engine struct {
	tasks   db.TaskCollection
	history db.HistoryCollection
	cars    db.CarCollection
	remote  RemoteClient
	nowMs   func() int64
}

// NewEngine creates a sync engine over the given store collections and
// remote client.
func NewEngine(store *db.Collections, remote RemoteClient) *Engine {
	return &Engine{
		tasks:   store.Tasks,
		history: store.History,
		cars:    store.Cars,
		remote:  remote,
		nowMs:   func() int64 { return time.Now().UnixMilli() },
	}
}

// carRemoteID resolves the remote ID of the car owning a record. A record
// whose car has not been pushed yet cannot reach the remote API.
func (e *Engine) carRemoteID(ctx context.Context, carID string) (int64, error) {
	car, err := e.cars.GetCarByID(ctx, carID)
	if err != nil {
		return 0, NewError(KindLocalStore, "resolve car", err)
	}
	if car.RemoteID == nil {
		return 0, NewError(KindInconsistentState, "resolve car", errors.New("car has no remote id; push cars first"))
	}
	return *car.RemoteID, nil
}

// PushPendingCars flushes pending car mutations to the remote API:
// creates in ascending creation order, then updates, then deletes. The
// first failure aborts the pass; already-confirmed rows stay SYNCED.
func (e *Engine) PushPendingCars(ctx context.Context) error {
	creates, err := e.cars.ListPendingCars(ctx, models.SyncStatePendingCreate)
	if err != nil {
		return NewError(KindLocalStore, "list pending cars", err)
	}
	for _, car := range creates {
		remoteID, err := e.remote.CreateCar(ctx, car)
		if err != nil {
			return err
		}
		car.RemoteID = &remoteID
		car.SyncState = models.SyncStateSynced
		if err := e.cars.UpsertCar(ctx, car); err != nil {
			return NewError(KindLocalStore, "confirm car create", err)
		}
	}

	updates, err := e.cars.ListPendingCars(ctx, models.SyncStatePendingUpdate)
	if err != nil {
		return NewError(KindLocalStore, "list pending cars", err)
	}
	for _, car := range updates {
		if car.RemoteID == nil {
			log.WithField("car_id", car.ID).Warn("PENDING_UPDATE car has no remote id, skipping")
			continue
		}
		if err := e.remote.UpdateCar(ctx, car); err != nil {
			return err
		}
		car.SyncState = models.SyncStateSynced
		if err := e.cars.UpsertCar(ctx, car); err != nil {
			return NewError(KindLocalStore, "confirm car update", err)
		}
	}

	deletes, err := e.cars.ListPendingCars(ctx, models.SyncStatePendingDelete)
	if err != nil {
		return NewError(KindLocalStore, "list pending cars", err)
	}
	for _, car := range deletes {
		if car.RemoteID == nil {
			log.WithField("car_id", car.ID).Warn("PENDING_DELETE car has no remote id, skipping")
			continue
		}
		if err := e.remote.DeleteCar(ctx, *car.RemoteID); err != nil {
			return err
		}
		if err := e.cars.FinalDeleteCar(ctx, car.ID); err != nil {
			return NewError(KindLocalStore, "confirm car delete", err)
		}
	}
	return nil
}

// PushPending flushes pending task and history mutations to the remote API.
// carID scopes the pass to one car; empty means all cars. Within each
// record type: creates first in ascending creation order, then updates,
// then deletes. The first remote failure aborts the remainder of the pass
// and the failed row is retried verbatim on the next invocation.
func (e *Engine) PushPending(ctx context.Context, carID string) error {
	if err := e.pushTasks(ctx, carID); err != nil {
		return err
	}
	return e.pushHistory(ctx, carID)
}

func (e *Engine) pushTasks(ctx context.Context, carID string) error {
	creates, err := e.tasks.ListPendingTasks(ctx, carID, models.SyncStatePendingCreate)
	if err != nil {
		return NewError(KindLocalStore, "list pending tasks", err)
	}
	for _, task := range creates {
		carRemoteID, err := e.carRemoteID(ctx, task.CarID)
		if err != nil {
			return err
		}
		remoteID, err := e.remote.CreateTask(ctx, carRemoteID, task)
		if err != nil {
			return err
		}
		task.RemoteID = &remoteID
		task.SyncState = models.SyncStateSynced
		if err := e.tasks.UpsertTask(ctx, task); err != nil {
			return NewError(KindLocalStore, "confirm task create", err)
		}
	}

	updates, err := e.tasks.ListPendingTasks(ctx, carID, models.SyncStatePendingUpdate)
	if err != nil {
		return NewError(KindLocalStore, "list pending tasks", err)
	}
	for _, task := range updates {
		if task.RemoteID == nil {
			log.WithField("task_id", task.ID).Warn("PENDING_UPDATE task has no remote id, skipping")
			continue
		}
		carRemoteID, err := e.carRemoteID(ctx, task.CarID)
		if err != nil {
			return err
		}
		if err := e.remote.UpdateTask(ctx, carRemoteID, task); err != nil {
			return err
		}
		task.SyncState = models.SyncStateSynced
		if err := e.tasks.UpsertTask(ctx, task); err != nil {
			return NewError(KindLocalStore, "confirm task update", err)
		}
	}

	deletes, err := e.tasks.ListPendingTasks(ctx, carID, models.SyncStatePendingDelete)
	if err != nil {
		return NewError(KindLocalStore, "list pending tasks", err)
	}
	for _, task := range deletes {
		if task.RemoteID == nil {
			// Unreachable per the create-purge invariant; keep the row
			// visible in logs rather than failing the whole pass.
			log.WithField("task_id", task.ID).Warn("PENDING_DELETE task has no remote id, skipping")
			continue
		}
		if err := e.remote.DeleteTask(ctx, *task.RemoteID); err != nil {
			return err
		}
		if err := e.tasks.FinalDeleteTask(ctx, task.ID); err != nil {
			return NewError(KindLocalStore, "confirm task delete", err)
		}
	}
	return nil
}

func (e *Engine) pushHistory(ctx context.Context, carID string) error {
	creates, err := e.history.ListPendingHistory(ctx, carID, models.SyncStatePendingCreate)
	if err != nil {
		return NewError(KindLocalStore, "list pending history", err)
	}
	for _, record := range creates {
		carRemoteID, err := e.carRemoteID(ctx, record.CarID)
		if err != nil {
			return err
		}
		remoteID, err := e.remote.CreateHistory(ctx, carRemoteID, record)
		if err != nil {
			return err
		}
		record.RemoteID = &remoteID
		record.SyncState = models.SyncStateSynced
		if err := e.history.UpsertHistory(ctx, record); err != nil {
			return NewError(KindLocalStore, "confirm history create", err)
		}
	}

	deletes, err := e.history.ListPendingHistory(ctx, carID, models.SyncStatePendingDelete)
	if err != nil {
		return NewError(KindLocalStore, "list pending history", err)
	}
	for _, record := range deletes {
		if record.RemoteID == nil {
			log.WithField("history_id", record.ID).Warn("PENDING_DELETE history has no remote id, skipping")
			continue
		}
		if err := e.remote.DeleteHistory(ctx, *record.RemoteID); err != nil {
			return err
		}
		if err := e.history.FinalDeleteHistory(ctx, record.ID); err != nil {
			return NewError(KindLocalStore, "confirm history delete", err)
		}
	}
	return nil
}

// SyncFromRemote replaces the local synced state for a car with remote
// truth. Both the task list and the history list are fetched before either
// collection is replaced, so the two stay mutually consistent for alert
// generation. Rows still in a PENDING_* state are never clobbered.
func (e *Engine) SyncFromRemote(ctx context.Context, carID string) error {
	car, err := e.cars.GetCarByID(ctx, carID)
	if err != nil {
		return NewError(KindLocalStore, "load car", err)
	}
	if car.RemoteID == nil {
		// Nothing to pull: the car itself has not reached the remote yet.
		log.WithField("car_id", carID).Warn("skipping pull for car without remote id")
		return nil
	}

	tasks, err := e.remote.GetTasksForCar(ctx, *car.RemoteID)
	if err != nil {
		return err
	}
	records, err := e.remote.GetHistoryForCar(ctx, *car.RemoteID)
	if err != nil {
		return err
	}

	if err := e.tasks.ReplaceAllTasksForCar(ctx, carID, tasks); err != nil {
		return NewError(KindLocalStore, "replace tasks", err)
	}
	if err := e.history.ReplaceAllHistoryForCar(ctx, carID, records); err != nil {
		return NewError(KindLocalStore, "replace history", err)
	}
	return nil
}

// SyncAll runs a full reconciliation: push pending cars, pull the car list,
// and, only if a current car is selected, push pending tasks and history and
// pull that car's maintenance state. No current car is a valid terminal
// state, not an error. The first failing stage short-circuits the rest.
func (e *Engine) SyncAll(ctx context.Context) error {
	if err := e.PushPendingCars(ctx); err != nil {
		return err
	}

	remoteCars, err := e.remote.GetCars(ctx)
	if err != nil {
		return err
	}
	if err := e.cars.ReplaceAllCars(ctx, remoteCars); err != nil {
		return NewError(KindLocalStore, "replace cars", err)
	}

	current, err := e.cars.GetCurrentCar(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Debug("no current car selected, full sync is a no-op")
			return nil
		}
		return NewError(KindLocalStore, "load current car", err)
	}

	if err := e.PushPending(ctx, ""); err != nil {
		return err
	}
	return e.SyncFromRemote(ctx, current.ID)
}
