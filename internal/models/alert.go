package models

// AlertLevel is the ranked severity of a derived vehicle alert.
type AlertLevel string

const (
	AlertLevelCritical       AlertLevel = "CRITICAL"
	AlertLevelImportant      AlertLevel = "IMPORTANT"
	AlertLevelRecommendation AlertLevel = "RECOMMENDATION"
	AlertLevelInfo           AlertLevel = "INFO"
)

// Rank returns the sort rank of the level; lower sorts first.
func (l AlertLevel) Rank() int {
	switch l {
	case AlertLevelCritical:
		return 0
	case AlertLevelImportant:
		return 1
	case AlertLevelRecommendation:
		return 2
	default:
		return 3
	}
}

// VehicleAlert is a derived alert over the reconciled task list. Alerts are
// regenerated from scratch on every pass and never persisted.
type VehicleAlert struct {
	ID              string     `json:"id"`
	Level           AlertLevel `json:"level"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	RelatedTaskID   string     `json:"related_task_id,omitempty"`
	CreatedAtMillis int64      `json:"created_at_millis"`
}
