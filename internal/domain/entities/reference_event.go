package entities

import "time"

// ReferenceEventType describes what happened to a reference record
type ReferenceEventType string

const (
	ReferenceCreated ReferenceEventType = "created"
	ReferenceUpdated ReferenceEventType = "updated"
	ReferenceDeleted ReferenceEventType = "deleted"
)

// ReferenceEvent is published on admin writes so caches over the read
// surface can be invalidated. Resource names the record kind the change
// affects (e.g. "procedure_code", "medication").
type ReferenceEvent struct {
	ID        string             `json:"id"`
	Type      ReferenceEventType `json:"type"`
	Resource  string             `json:"resource"`
	RecordID  string             `json:"record_id"`
	Timestamp time.Time          `json:"timestamp"`
}
