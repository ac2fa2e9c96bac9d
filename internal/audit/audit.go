package audit

import "time"

// Entry is one row in the worker audit trail. The background worker writes
// an entry for every queue item it processes, successful or not.
type Entry struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	EventType    string    `json:"event_type" gorm:"column:event_type"`
	InspectionID string    `json:"inspection_id" gorm:"column:inspection_id"`
	WorkerID     string    `json:"worker_id" gorm:"column:worker_id"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	ProcessedAt  time.Time `json:"processed_at" gorm:"column:processed_at"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "worker_audit"
}

const (
	EventInspectionProcessed = "inspection.processed"

	StatusOK    = "ok"
	StatusError = "error"
)
