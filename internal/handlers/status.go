package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/progress"
)

type StatusHandler struct {
	hub        *progress.Hub
	ledgers    ledger.Store
	skuPattern *regexp.Regexp
}

func NewStatusHandler(hub *progress.Hub, ledgers ledger.Store, skuPattern *regexp.Regexp) *StatusHandler {
	return &StatusHandler{hub: hub, ledgers: ledgers, skuPattern: skuPattern}
}

// GetStatus godoc
// @Summary     Get the current state of a SKU
// @Description Returns the latest progress event seen for the SKU, the counts of its stored ledger and the results that failed.
// @Tags        progress
// @Produce     json
// @Security    Bearer
// @Param       sku path string true "Product SKU"
// @Success     200 {object} models.StatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /status/{sku} [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	sku, ok := validSKUParam(c, h.skuPattern)
	if !ok {
		return
	}

	response := models.StatusResponse{SKU: sku}
	if ev, ok := h.hub.Last(sku); ok {
		response.LastEvent = &ev
		response.Running = !ev.Terminal()
	}

	l, err := h.ledgers.Read(c.Request.Context(), sku)
	switch {
	case err == nil:
		counts := l.Counts()
		response.Counts = &counts
		response.UpdatedAt = &l.UpdatedAt
		response.Failed = l.Failed()
	case errors.Is(err, ledger.ErrNotFound):
		if response.LastEvent == nil {
			respondError(c, err)
			return
		}
	default:
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
