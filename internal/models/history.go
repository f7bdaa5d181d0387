package models

// MaintenanceHistory represents a completed-service record for a car.
// History rows are append/delete only: they are created when a task is
// completed or entered manually, and never transition to PENDING_UPDATE.
type MaintenanceHistory struct {
	ID                string    `json:"id" bson:"_id"`
	RemoteID          *int64    `json:"remote_id,omitempty" bson:"remote_id,omitempty"`
	CarID             string    `json:"car_id" bson:"car_id"`
	TaskType          string    `json:"task_type" bson:"task_type"`
	ServiceDateMillis int64     `json:"service_date_millis" bson:"service_date_millis"`
	MileageKm         *int      `json:"mileage_km,omitempty" bson:"mileage_km,omitempty"`
	WorkshopName      string    `json:"workshop_name,omitempty" bson:"workshop_name,omitempty"`
	Cost              *float64  `json:"cost,omitempty" bson:"cost,omitempty"` // in USD
	Notes             string    `json:"notes,omitempty" bson:"notes,omitempty"`
	SyncState         SyncState `json:"sync_state" bson:"sync_state"`
	CreatedAtMillis   int64     `json:"created_at_millis" bson:"created_at_millis"`
	UpdatedAtMillis   int64     `json:"updated_at_millis" bson:"updated_at_millis"`
}

// IsPending reports whether the record carries an unconfirmed local mutation.
func (h MaintenanceHistory) IsPending() bool {
	return h.SyncState != SyncStateSynced
}
