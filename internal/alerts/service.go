package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
)

// Service derives the alert feed for a car from the record store. It
// partitions the stored tasks into overdue and upcoming and hands them to
// Generate; nothing is cached between calls.
type Service struct {
	tasks db.TaskCollection
	cars  db.CarCollection
	nowMs func() int64
}

// NewService creates an alert service over the given collections.
func NewService(store *db.Collections) *Service {
	return &Service{
		tasks: store.Tasks,
		cars:  store.Cars,
		nowMs: func() int64 { return time.Now().UnixMilli() },
	}
}

// ForCar generates the alert feed for one car.
func (s *Service) ForCar(ctx context.Context, carID string) ([]models.VehicleAlert, error) {
	tasks, err := s.tasks.ListTasksForCar(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("load tasks for alerts: %w", err)
	}

	now := s.nowMs()
	var overdue, upcoming []models.MaintenanceTask
	for _, task := range tasks {
		if task.Status == models.TaskStatusCompleted {
			continue
		}
		if task.DueDateMillis != nil && *task.DueDateMillis < now {
			overdue = append(overdue, task)
		} else {
			upcoming = append(upcoming, task)
		}
	}
	return Generate(overdue, upcoming, now), nil
}

// ForCurrentCar generates the alert feed for the selected car. With no car
// selected there is nothing to alert on.
func (s *Service) ForCurrentCar(ctx context.Context) ([]models.VehicleAlert, error) {
	car, err := s.cars.GetCurrentCar(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load current car for alerts: %w", err)
	}
	return s.ForCar(ctx, car.ID)
}
