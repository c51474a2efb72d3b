package orchestrator

import "photo-sku-backend/internal/models"

// Observer receives every state transition of a batch as it happens.
// Publish is called from the scheduler's goroutines and must not block.
type Observer interface {
	Publish(event models.ProgressEvent)
}

type ObserverFunc func(event models.ProgressEvent)

func (f ObserverFunc) Publish(event models.ProgressEvent) {
	f(event)
}
