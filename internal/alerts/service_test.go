package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
)

type stubTaskCollection struct {
	db.TaskCollection
	tasks []models.MaintenanceTask
	err   error
}

func (s *stubTaskCollection) ListTasksForCar(_ context.Context, _ string) ([]models.MaintenanceTask, error) {
	return s.tasks, s.err
}

type stubCarCollection struct {
	db.CarCollection
	current *models.UserCar
	err     error
}

func (s *stubCarCollection) GetCurrentCar(_ context.Context) (*models.UserCar, error) {
	if s.current == nil && s.err == nil {
		return nil, db.ErrNotFound
	}
	return s.current, s.err
}

func newTestService(tasks *stubTaskCollection, cars *stubCarCollection) *Service {
	return &Service{
		tasks: tasks,
		cars:  cars,
		nowMs: func() int64 { return testNow },
	}
}

func TestForCar_PartitionsByDueDate(t *testing.T) {
	overdueDue := testNow - 10*dayMillis
	upcomingDue := testNow + 3*dayMillis
	tasks := &stubTaskCollection{tasks: []models.MaintenanceTask{
		{ID: "late", CarID: "car1", Title: "Frenos", DueDateMillis: &overdueDue},
		{ID: "soon", CarID: "car1", Title: "Aceite", DueDateMillis: &upcomingDue},
	}}

	alerts, err := newTestService(tasks, &stubCarCollection{}).ForCar(context.Background(), "car1")
	require.NoError(t, err)

	require.Len(t, alerts, 2)
	assert.Equal(t, "overdue_late", alerts[0].ID)
	assert.Equal(t, models.AlertLevelCritical, alerts[0].Level)
	assert.Equal(t, "upcoming_soon", alerts[1].ID)
}

func TestForCar_SkipsCompletedTasks(t *testing.T) {
	due := testNow - 5*dayMillis
	tasks := &stubTaskCollection{tasks: []models.MaintenanceTask{
		{ID: "done", CarID: "car1", Title: "Hecho", Status: models.TaskStatusCompleted, DueDateMillis: &due},
	}}

	alerts, err := newTestService(tasks, &stubCarCollection{}).ForCar(context.Background(), "car1")
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, "info_all_good", alerts[0].ID)
}

func TestForCar_TaskWithoutDueDateIsUpcoming(t *testing.T) {
	tasks := &stubTaskCollection{tasks: []models.MaintenanceTask{
		{ID: "open", CarID: "car1", Title: "Sin fecha"},
	}}

	alerts, err := newTestService(tasks, &stubCarCollection{}).ForCar(context.Background(), "car1")
	require.NoError(t, err)

	// No due date means the upcoming branch drops it and the sentinel shows.
	require.Len(t, alerts, 1)
	assert.Equal(t, "info_all_good", alerts[0].ID)
}

func TestForCurrentCar_NoSelectionIsEmpty(t *testing.T) {
	alerts, err := newTestService(&stubTaskCollection{}, &stubCarCollection{}).ForCurrentCar(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alerts)
}

func TestForCurrentCar_DelegatesToSelectedCar(t *testing.T) {
	due := testNow + 1*dayMillis
	tasks := &stubTaskCollection{tasks: []models.MaintenanceTask{
		{ID: "soon", CarID: "car1", Title: "Aceite", DueDateMillis: &due},
	}}
	cars := &stubCarCollection{current: &models.UserCar{ID: "car1", IsCurrent: true}}

	alerts, err := newTestService(tasks, cars).ForCurrentCar(context.Background())
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, "upcoming_soon", alerts[0].ID)
}
