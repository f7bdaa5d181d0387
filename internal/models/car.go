package models

// UserCar represents a vehicle owned by the user. Cars follow the same sync
// lifecycle as tasks; exactly one car may be current at a time.
type UserCar struct {
	ID              string    `json:"id" bson:"_id"`
	RemoteID        *int64    `json:"remote_id,omitempty" bson:"remote_id,omitempty"`
	Name            string    `json:"name" bson:"name"`
	Brand           string    `json:"brand" bson:"brand"`
	Model           string    `json:"model" bson:"model"`
	Year            int       `json:"year" bson:"year"`
	Plate           string    `json:"plate,omitempty" bson:"plate,omitempty"`
	IsCurrent       bool      `json:"is_current" bson:"is_current"`
	SyncState       SyncState `json:"sync_state" bson:"sync_state"`
	CreatedAtMillis int64     `json:"created_at_millis" bson:"created_at_millis"`
	UpdatedAtMillis int64     `json:"updated_at_millis" bson:"updated_at_millis"`
}
