package models

import "time"

type ProgressEventType string

const (
	EventBatchStarted   ProgressEventType = "batch_started"
	EventItemSkipped    ProgressEventType = "item_skipped"
	EventItemProcessing ProgressEventType = "item_processing"
	EventItemDone       ProgressEventType = "item_done"
	EventItemError      ProgressEventType = "item_error"
	EventBatchCompleted ProgressEventType = "batch_completed"
	EventBatchFailed    ProgressEventType = "batch_failed"
)

// ProgressEvent is a real state transition emitted by the scheduler.
type ProgressEvent struct {
	Type      ProgressEventType `json:"type"`
	SKU       string            `json:"sku"`
	ItemID    string            `json:"id,omitempty"`
	FinalName string            `json:"finalName,omitempty"`
	Error     string            `json:"error,omitempty"`
	Total     int               `json:"total"`
	Completed int               `json:"completed"`
	Timestamp time.Time         `json:"timestamp"`
}

// Terminal reports whether no further events follow for the batch.
func (e ProgressEvent) Terminal() bool {
	return e.Type == EventBatchCompleted || e.Type == EventBatchFailed
}
