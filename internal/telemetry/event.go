package telemetry

import "time"

type EventType string

const (
	EventTaskCreated     EventType = "task_created"
	EventTaskDeleted     EventType = "task_deleted"
	EventVerifyStarted   EventType = "verify_started"
	EventVerifySucceeded EventType = "verify_succeeded"
	EventVerifyFailed    EventType = "verify_failed"
	EventVerifyRetried   EventType = "verify_retried"
	EventVerifyCancelled EventType = "verify_cancelled"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
