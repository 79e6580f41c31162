package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period          string            `json:"period"`
	EventCounts     map[EventType]int `json:"event_counts"`
	TasksCreated    int               `json:"tasks_created"`
	TasksVerified   int               `json:"tasks_verified"`
	VerifyAttempts  int               `json:"verify_attempts"`
	VerifyFailures  int               `json:"verify_failures"`
	Retries         int               `json:"retries"`
	Cancellations   int               `json:"cancellations"`
	AttemptsByKind  map[string]int    `json:"attempts_by_method"`
	FailuresByKind  map[string]int    `json:"failures_by_method"`
	AvgProcessingMS float64           `json:"avg_processing_ms"`
}

// CalculateStats computes verification funnel stats from events.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:         since.Format("2006-01-02"),
		EventCounts:    make(map[EventType]int),
		AttemptsByKind: make(map[string]int),
		FailuresByKind: make(map[string]int),
	}

	var totalMS float64
	var timedResults int

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}
		method, _ := metadata["method"].(string)

		switch event.Type {
		case EventTaskCreated:
			stats.TasksCreated++
		case EventVerifyStarted:
			stats.VerifyAttempts++
			if method != "" {
				stats.AttemptsByKind[method]++
			}
		case EventVerifySucceeded:
			stats.TasksVerified++
			if ms, ok := metadata["processing_ms"].(float64); ok {
				totalMS += ms
				timedResults++
			}
		case EventVerifyFailed:
			stats.VerifyFailures++
			if method != "" {
				stats.FailuresByKind[method]++
			}
			if ms, ok := metadata["processing_ms"].(float64); ok {
				totalMS += ms
				timedResults++
			}
		case EventVerifyRetried:
			stats.Retries++
		case EventVerifyCancelled:
			stats.Cancellations++
		}
	}

	if timedResults > 0 {
		stats.AvgProcessingMS = totalMS / float64(timedResults)
	}
	return stats, nil
}
