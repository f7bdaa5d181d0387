package remote

import (
	"github.com/fariasdev/mycar-sync/internal/models"
)

// Wire types for the remote maintenance API. The server owns the integer
// IDs; local UUIDs never cross this boundary.

type carDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Plate string `json:"plate,omitempty"`
}

type carRequest struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Plate string `json:"plate,omitempty"`
}

func toCarRequest(car models.UserCar) carRequest {
	return carRequest{
		Name:  car.Name,
		Brand: car.Brand,
		Model: car.Model,
		Year:  car.Year,
		Plate: car.Plate,
	}
}

func (d carDTO) toModel() models.UserCar {
	id := d.ID
	return models.UserCar{
		RemoteID:  &id,
		Name:      d.Name,
		Brand:     d.Brand,
		Model:     d.Model,
		Year:      d.Year,
		Plate:     d.Plate,
		SyncState: models.SyncStateSynced,
	}
}

type taskDTO struct {
	ID            int64  `json:"id"`
	CarID         int64  `json:"carId"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	DueDateMillis *int64 `json:"dueDateMillis,omitempty"`
	DueMileageKm  *int   `json:"dueMileageKm,omitempty"`
	Severity      string `json:"severity"`
	Status        string `json:"status"`
}

type taskRequest struct {
	CarID         int64  `json:"carId"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	DueDateMillis *int64 `json:"dueDateMillis,omitempty"`
	DueMileageKm  *int   `json:"dueMileageKm,omitempty"`
	Severity      string `json:"severity"`
	Status        string `json:"status"`
}

func toTaskRequest(carRemoteID int64, task models.MaintenanceTask) taskRequest {
	return taskRequest{
		CarID:         carRemoteID,
		Type:          task.Type,
		Title:         task.Title,
		Description:   task.Description,
		DueDateMillis: task.DueDateMillis,
		DueMileageKm:  task.DueMileageKm,
		Severity:      string(task.Severity),
		Status:        string(task.Status),
	}
}

func (d taskDTO) toModel() models.MaintenanceTask {
	id := d.ID
	return models.MaintenanceTask{
		RemoteID:      &id,
		Type:          d.Type,
		Title:         d.Title,
		Description:   d.Description,
		DueDateMillis: d.DueDateMillis,
		DueMileageKm:  d.DueMileageKm,
		Severity:      models.Severity(d.Severity),
		Status:        models.TaskStatus(d.Status),
		SyncState:     models.SyncStateSynced,
	}
}

type historyDTO struct {
	ID                int64    `json:"id"`
	CarID             int64    `json:"carId"`
	TaskType          string   `json:"taskType"`
	ServiceDateMillis int64    `json:"serviceDateMillis"`
	MileageKm         *int     `json:"mileageKm,omitempty"`
	WorkshopName      string   `json:"workshopName,omitempty"`
	Cost              *float64 `json:"cost,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

type historyRequest struct {
	CarID             int64    `json:"carId"`
	TaskType          string   `json:"taskType"`
	ServiceDateMillis int64    `json:"serviceDateMillis"`
	MileageKm         *int     `json:"mileageKm,omitempty"`
	WorkshopName      string   `json:"workshopName,omitempty"`
	Cost              *float64 `json:"cost,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

func toHistoryRequest(carRemoteID int64, record models.MaintenanceHistory) historyRequest {
	return historyRequest{
		CarID:             carRemoteID,
		TaskType:          record.TaskType,
		ServiceDateMillis: record.ServiceDateMillis,
		MileageKm:         record.MileageKm,
		WorkshopName:      record.WorkshopName,
		Cost:              record.Cost,
		Notes:             record.Notes,
	}
}

func (d historyDTO) toModel() models.MaintenanceHistory {
	id := d.ID
	return models.MaintenanceHistory{
		RemoteID:          &id,
		TaskType:          d.TaskType,
		ServiceDateMillis: d.ServiceDateMillis,
		MileageKm:         d.MileageKm,
		WorkshopName:      d.WorkshopName,
		Cost:              d.Cost,
		Notes:             d.Notes,
		SyncState:         models.SyncStateSynced,
	}
}
