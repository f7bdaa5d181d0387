package models

// SyncState marks a record's position in the offline sync lifecycle.
type SyncState string

const (
	SyncStateSynced        SyncState = "SYNCED"
	SyncStatePendingCreate SyncState = "PENDING_CREATE"
	SyncStatePendingUpdate SyncState = "PENDING_UPDATE"
	SyncStatePendingDelete SyncState = "PENDING_DELETE"
)

// Severity is the user-assigned importance of a maintenance task.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// TaskStatus is the completion status of a maintenance task.
type TaskStatus string

const (
	TaskStatusUpcoming  TaskStatus = "UPCOMING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// MaintenanceTask represents a scheduled maintenance task for a car.
// ID is generated locally and never changes; RemoteID is assigned by the
// remote API once the create has been pushed and is nil while the row is
// still PENDING_CREATE.
type MaintenanceTask struct {
	ID              string     `json:"id" bson:"_id"`
	RemoteID        *int64     `json:"remote_id,omitempty" bson:"remote_id,omitempty"`
	CarID           string     `json:"car_id" bson:"car_id"`
	Type            string     `json:"type" bson:"type"` // "oil_change", "tire_rotation", "brake_service", "battery_service", "inspection"
	Title           string     `json:"title" bson:"title"`
	Description     string     `json:"description,omitempty" bson:"description,omitempty"`
	DueDateMillis   *int64     `json:"due_date_millis,omitempty" bson:"due_date_millis,omitempty"`
	DueMileageKm    *int       `json:"due_mileage_km,omitempty" bson:"due_mileage_km,omitempty"`
	Severity        Severity   `json:"severity" bson:"severity"`
	Status          TaskStatus `json:"status" bson:"status"`
	SyncState       SyncState  `json:"sync_state" bson:"sync_state"`
	CreatedAtMillis int64      `json:"created_at_millis" bson:"created_at_millis"`
	UpdatedAtMillis int64      `json:"updated_at_millis" bson:"updated_at_millis"`
}

// IsPending reports whether the task carries an unconfirmed local mutation.
func (t MaintenanceTask) IsPending() bool {
	return t.SyncState != SyncStateSynced
}
