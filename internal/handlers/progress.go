package handlers

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/progress"
)

const heartbeatInterval = 15 * time.Second

type ProgressHandler struct {
	hub        *progress.Hub
	skuPattern *regexp.Regexp
	heartbeat  time.Duration
}

func NewProgressHandler(hub *progress.Hub, skuPattern *regexp.Regexp) *ProgressHandler {
	return &ProgressHandler{hub: hub, skuPattern: skuPattern, heartbeat: heartbeatInterval}
}

// Stream godoc
// @Summary     Stream batch progress
// @Description Server-sent events for the SKU. Each event is a real scheduler transition
// @Description (batch_started, item_skipped, item_processing, item_done, item_error, batch_completed,
// @Description batch_failed) carrying the file id. The stream ends after a terminal event.
// @Description EventSource clients may pass the bearer token as access_token.
// @Tags        progress
// @Produce     text/event-stream
// @Security    Bearer
// @Param       sku path string true "Product SKU"
// @Success     200 {object} models.ProgressEvent
// @Failure     400 {object} models.ErrorResponse
// @Router      /progress/{sku} [get]
func (h *ProgressHandler) Stream(c *gin.Context) {
	sku, ok := validSKUParam(c, h.skuPattern)
	if !ok {
		return
	}

	events, cancel := h.hub.Subscribe(sku)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// A batch already in flight is reported from its latest state.
	if ev, ok := h.hub.Last(sku); ok && !ev.Terminal() {
		c.SSEvent(string(ev.Type), ev)
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			c.SSEvent(string(ev.Type), ev)
			c.Writer.Flush()
			if ev.Terminal() {
				return
			}
		}
	}
}
