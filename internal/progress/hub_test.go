package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/orchestrator"
	"photo-sku-backend/internal/progress"
)

var _ orchestrator.Observer = (*progress.Hub)(nil)

func TestHub_DeliversToMatchingSKU(t *testing.T) {
	hub := progress.NewHub(4)
	events, cancel := hub.Subscribe("123456")
	defer cancel()
	other, cancelOther := hub.Subscribe("654321")
	defer cancelOther()

	hub.Publish(models.ProgressEvent{Type: models.EventItemDone, SKU: "123456", ItemID: "a"})

	ev := <-events
	assert.Equal(t, "a", ev.ItemID)
	assert.Empty(t, other)
}

func TestHub_DropsWhenSubscriberIsFull(t *testing.T) {
	hub := progress.NewHub(1)
	events, cancel := hub.Subscribe("123456")
	defer cancel()

	hub.Publish(models.ProgressEvent{SKU: "123456", ItemID: "a"})
	hub.Publish(models.ProgressEvent{SKU: "123456", ItemID: "b"})

	assert.Len(t, events, 1)
	last, ok := hub.Last("123456")
	require.True(t, ok)
	assert.Equal(t, "b", last.ItemID)
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := progress.NewHub(1)
	events, cancel := hub.Subscribe("123456")
	assert.Equal(t, 1, hub.Subscribers("123456"))

	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("123456"))

	assert.NotPanics(t, func() {
		hub.Publish(models.ProgressEvent{SKU: "123456"})
	})
}

func TestHub_Forget(t *testing.T) {
	hub := progress.NewHub(0)
	hub.Publish(models.ProgressEvent{SKU: "123456", Type: models.EventBatchCompleted})
	hub.Forget("123456")
	_, ok := hub.Last("123456")
	assert.False(t, ok)
}
