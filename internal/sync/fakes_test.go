package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
)

// In-memory store fakes mirroring the Mongo collection semantics, including
// the pending-rows-survive-replace policy.

type fakeTaskCollection struct {
	rows map[string]models.MaintenanceTask
	err  error
}

func newFakeTasks() *fakeTaskCollection {
	return &fakeTaskCollection{rows: make(map[string]models.MaintenanceTask)}
}

func (f *fakeTaskCollection) GetTaskByID(_ context.Context, id string) (*models.MaintenanceTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	task, ok := f.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &task, nil
}

func (f *fakeTaskCollection) UpsertTask(_ context.Context, task models.MaintenanceTask) error {
	if f.err != nil {
		return f.err
	}
	f.rows[task.ID] = task
	return nil
}

func (f *fakeTaskCollection) MarkTaskPendingDelete(_ context.Context, id string, updatedAtMillis int64) error {
	task, ok := f.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	task.SyncState = models.SyncStatePendingDelete
	task.UpdatedAtMillis = updatedAtMillis
	f.rows[id] = task
	return nil
}

func (f *fakeTaskCollection) FinalDeleteTask(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeTaskCollection) ListTasksForCar(_ context.Context, carID string) ([]models.MaintenanceTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	var tasks []models.MaintenanceTask
	for _, task := range f.rows {
		if task.CarID == carID && task.SyncState != models.SyncStatePendingDelete {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (f *fakeTaskCollection) ListPendingTasks(_ context.Context, carID string, states ...models.SyncState) ([]models.MaintenanceTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[models.SyncState]bool)
	for _, state := range states {
		wanted[state] = true
	}
	var tasks []models.MaintenanceTask
	for _, task := range f.rows {
		if !wanted[task.SyncState] {
			continue
		}
		if carID != "" && task.CarID != carID {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAtMillis < tasks[j].CreatedAtMillis })
	return tasks, nil
}

func (f *fakeTaskCollection) ReplaceAllTasksForCar(_ context.Context, carID string, tasks []models.MaintenanceTask) error {
	if f.err != nil {
		return f.err
	}
	byRemoteID := make(map[int64]models.MaintenanceTask)
	for _, row := range f.rows {
		if row.CarID == carID && row.RemoteID != nil {
			byRemoteID[*row.RemoteID] = row
		}
	}
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
			task.CreatedAtMillis = local.CreatedAtMillis
			if task.UpdatedAtMillis < local.UpdatedAtMillis {
				task.UpdatedAtMillis = local.UpdatedAtMillis
			}
		} else {
			task.ID = uuid.NewString()
		}
		task.CarID = carID
		task.SyncState = models.SyncStateSynced
		f.rows[task.ID] = task
	}
	for id, row := range f.rows {
		if row.CarID != carID || row.IsPending() {
			continue
		}
		if row.RemoteID == nil || !seen[*row.RemoteID] {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeHistoryCollection struct {
	rows map[string]models.MaintenanceHistory
	err  error
}

func newFakeHistory() *fakeHistoryCollection {
	return &fakeHistoryCollection{rows: make(map[string]models.MaintenanceHistory)}
}

func (f *fakeHistoryCollection) GetHistoryByID(_ context.Context, id string) (*models.MaintenanceHistory, error) {
	record, ok := f.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &record, nil
}

func (f *fakeHistoryCollection) UpsertHistory(_ context.Context, record models.MaintenanceHistory) error {
	if f.err != nil {
		return f.err
	}
	if record.SyncState == models.SyncStatePendingUpdate {
		return fmt.Errorf("history records cannot be PENDING_UPDATE")
	}
	f.rows[record.ID] = record
	return nil
}

func (f *fakeHistoryCollection) MarkHistoryPendingDelete(_ context.Context, id string, updatedAtMillis int64) error {
	record, ok := f.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	record.SyncState = models.SyncStatePendingDelete
	record.UpdatedAtMillis = updatedAtMillis
	f.rows[id] = record
	return nil
}

func (f *fakeHistoryCollection) FinalDeleteHistory(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeHistoryCollection) ListHistoryForCar(_ context.Context, carID string) ([]models.MaintenanceHistory, error) {
	var records []models.MaintenanceHistory
	for _, record := range f.rows {
		if record.CarID == carID && record.SyncState != models.SyncStatePendingDelete {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ServiceDateMillis > records[j].ServiceDateMillis })
	return records, nil
}

func (f *fakeHistoryCollection) ListPendingHistory(_ context.Context, carID string, states ...models.SyncState) ([]models.MaintenanceHistory, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[models.SyncState]bool)
	for _, state := range states {
		wanted[state] = true
	}
	var records []models.MaintenanceHistory
	for _, record := range f.rows {
		if !wanted[record.SyncState] {
			continue
		}
		if carID != "" && record.CarID != carID {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAtMillis < records[j].CreatedAtMillis })
	return records, nil
}

func (f *fakeHistoryCollection) ReplaceAllHistoryForCar(_ context.Context, carID string, records []models.MaintenanceHistory) error {
	if f.err != nil {
		return f.err
	}
	byRemoteID := make(map[int64]models.MaintenanceHistory)
	for _, row := range f.rows {
		if row.CarID == carID && row.RemoteID != nil {
			byRemoteID[*row.RemoteID] = row
		}
	}
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
		}
		record.CarID = carID
		record.SyncState = models.SyncStateSynced
		f.rows[record.ID] = record
	}
	for id, row := range f.rows {
		if row.CarID != carID || row.IsPending() {
			continue
		}
		if row.RemoteID == nil || !seen[*row.RemoteID] {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeCarCollection struct {
	rows map[string]models.UserCar
	err  error
}

func newFakeCars() *fakeCarCollection {
	return &fakeCarCollection{rows: make(map[string]models.UserCar)}
}

func (f *fakeCarCollection) GetCarByID(_ context.Context, id string) (*models.UserCar, error) {
	if f.err != nil {
		return nil, f.err
	}
	car, ok := f.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &car, nil
}

func (f *fakeCarCollection) GetCurrentCar(_ context.Context) (*models.UserCar, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, car := range f.rows {
		if car.IsCurrent && car.SyncState != models.SyncStatePendingDelete {
			return &car, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeCarCollection) SetCurrentCar(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return db.ErrNotFound
	}
	for key, car := range f.rows {
		car.IsCurrent = key == id
		f.rows[key] = car
	}
	return nil
}

func (f *fakeCarCollection) UpsertCar(_ context.Context, car models.UserCar) error {
	if f.err != nil {
		return f.err
	}
	f.rows[car.ID] = car
	return nil
}

func (f *fakeCarCollection) MarkCarPendingDelete(_ context.Context, id string, updatedAtMillis int64) error {
	car, ok := f.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	car.SyncState = models.SyncStatePendingDelete
	car.IsCurrent = false
	car.UpdatedAtMillis = updatedAtMillis
	f.rows[id] = car
	return nil
}

func (f *fakeCarCollection) FinalDeleteCar(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeCarCollection) ListCars(_ context.Context) ([]models.UserCar, error) {
	if f.err != nil {
		return nil, f.err
	}
	var cars []models.UserCar
	for _, car := range f.rows {
		if car.SyncState != models.SyncStatePendingDelete {
			cars = append(cars, car)
		}
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].CreatedAtMillis < cars[j].CreatedAtMillis })
	return cars, nil
}

func (f *fakeCarCollection) ListPendingCars(_ context.Context, states ...models.SyncState) ([]models.UserCar, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[models.SyncState]bool)
	for _, state := range states {
		wanted[state] = true
	}
	var cars []models.UserCar
	for _, car := range f.rows {
		if wanted[car.SyncState] {
			cars = append(cars, car)
		}
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].CreatedAtMillis < cars[j].CreatedAtMillis })
	return cars, nil
}

func (f *fakeCarCollection) ReplaceAllCars(_ context.Context, cars []models.UserCar) error {
	if f.err != nil {
		return f.err
	}
	byRemoteID := make(map[int64]models.UserCar)
	for _, row := range f.rows {
		if row.RemoteID != nil {
			byRemoteID[*row.RemoteID] = row
		}
	}
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
		}
		car.SyncState = models.SyncStateSynced
		f.rows[car.ID] = car
	}
	for id, row := range f.rows {
		if row.SyncState != models.SyncStateSynced {
			continue
		}
		if row.RemoteID == nil || !seen[*row.RemoteID] {
			delete(f.rows, id)
		}
	}
	return nil
}

// fakeRemote records every call in order and can be programmed to fail a
// specific operation or serve canned pull data.
type fakeRemote struct {
	nextID int64
	calls  []string
	fail   map[string]error

	remoteCars    []models.UserCar
	remoteTasks   []models.MaintenanceTask
	remoteHistory []models.MaintenanceHistory
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100, fail: make(map[string]error)}
}

func (f *fakeRemote) record(op string) error {
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeRemote) countCalls(op string) int {
	n := 0
	for _, call := range f.calls {
		if call == op {
			n++
		}
	}
	return n
}

func (f *fakeRemote) CreateCar(_ context.Context, car models.UserCar) (int64, error) {
	if err := f.record("CreateCar"); err != nil {
		return 0, err
	}
	f.nextID++
	car.RemoteID = int64Ptr(f.nextID)
	car.SyncState = models.SyncStateSynced
	f.remoteCars = append(f.remoteCars, car)
	return f.nextID, nil
}

func (f *fakeRemote) UpdateCar(_ context.Context, car models.UserCar) error {
	return f.record("UpdateCar")
}

func (f *fakeRemote) DeleteCar(_ context.Context, remoteID int64) error {
	return f.record("DeleteCar")
}

func (f *fakeRemote) GetCars(_ context.Context) ([]models.UserCar, error) {
	if err := f.record("GetCars"); err != nil {
		return nil, err
	}
	return f.remoteCars, nil
}

func (f *fakeRemote) CreateTask(_ context.Context, carRemoteID int64, task models.MaintenanceTask) (int64, error) {
	if err := f.record("CreateTask:" + task.Title); err != nil {
		return 0, err
	}
	f.nextID++
	task.RemoteID = int64Ptr(f.nextID)
	task.SyncState = models.SyncStateSynced
	f.remoteTasks = append(f.remoteTasks, task)
	return f.nextID, nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, carRemoteID int64, task models.MaintenanceTask) error {
	return f.record("UpdateTask:" + task.Title)
}

func (f *fakeRemote) DeleteTask(_ context.Context, remoteID int64) error {
	return f.record("DeleteTask")
}

func (f *fakeRemote) GetTasksForCar(_ context.Context, carRemoteID int64) ([]models.MaintenanceTask, error) {
	if err := f.record("GetTasksForCar"); err != nil {
		return nil, err
	}
	return f.remoteTasks, nil
}

func (f *fakeRemote) CreateHistory(_ context.Context, carRemoteID int64, record models.MaintenanceHistory) (int64, error) {
	if err := f.record("CreateHistory"); err != nil {
		return 0, err
	}
	f.nextID++
	record.RemoteID = int64Ptr(f.nextID)
	record.SyncState = models.SyncStateSynced
	f.remoteHistory = append(f.remoteHistory, record)
	return f.nextID, nil
}

func (f *fakeRemote) DeleteHistory(_ context.Context, remoteID int64) error {
	return f.record("DeleteHistory")
}

func (f *fakeRemote) GetHistoryForCar(_ context.Context, carRemoteID int64) ([]models.MaintenanceHistory, error) {
	if err := f.record("GetHistoryForCar"); err != nil {
		return nil, err
	}
	return f.remoteHistory, nil
}

// newTestEngine wires an engine over fresh fakes with a fixed clock.
func newTestEngine() (*Engine, *fakeTaskCollection, *fakeHistoryCollection, *fakeCarCollection, *fakeRemote) {
	tasks := newFakeTasks()
	history := newFakeHistory()
	cars := newFakeCars()
	remote := newFakeRemote()
	engine := &Engine{
		tasks:   tasks,
		history: history,
		cars:    cars,
		remote:  remote,
		nowMs:   func() int64 { return 1_700_000_000_000 },
	}
	return engine, tasks, history, cars, remote
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
