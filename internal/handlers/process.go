package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/apperrors"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/models"
)

// BatchRunner is the part of the scheduler the HTTP layer drives.
type BatchRunner interface {
	Process(ctx context.Context, sku string, items []models.MediaItem) (*models.BatchLedger, error)
	Retry(ctx context.Context, sku string) (*models.BatchLedger, error)
}

type ProcessHandler struct {
	runner     BatchRunner
	ledgers    ledger.Store
	skuPattern *regexp.Regexp
}

func NewProcessHandler(runner BatchRunner, ledgers ledger.Store, skuPattern *regexp.Regexp) *ProcessHandler {
	return &ProcessHandler{
		runner:     runner,
		ledgers:    ledgers,
		skuPattern: skuPattern,
	}
}

// Process godoc
// @Summary     Process a SKU batch
// @Description Names every file as {sku}_{NNN}, skips videos, and sends images through background removal
// @Description in windows of MAX_CONCURRENT. Returns one result per submitted file in submission order.
// @Description success is false when any file ended in error. A rejected PhotoRoom key aborts the
// @Description remaining windows and answers 502 with the partial ledger.
// @Tags        process
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ProcessRequest true "Batch to process"
// @Success     200 {object} models.ProcessResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ProcessResponse
// @Router      /process [post]
func (h *ProcessHandler) Process(c *gin.Context) {
	var req models.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.CodeValidation, validationMessage(err)))
		return
	}

	// The batch outlives a dropped connection; its ledger is still written.
	ctx := context.WithoutCancel(c.Request.Context())
	l, err := h.runner.Process(ctx, req.SKU, req.Files)
	respondBatch(c, l, err)
}

// Retry godoc
// @Summary     Retry failed files of a SKU batch
// @Description Re-runs only the files recorded with status error. Done and skipped files are kept and
// @Description cost no PhotoRoom calls. Retried files keep their id and final name.
// @Tags        process
// @Produce     json
// @Security    Bearer
// @Param       sku path string true "Product SKU"
// @Success     200 {object} models.ProcessResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ProcessResponse
// @Router      /process/{sku}/retry [post]
func (h *ProcessHandler) Retry(c *gin.Context) {
	sku, ok := h.skuParam(c)
	if !ok {
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	l, err := h.runner.Retry(ctx, sku)
	respondBatch(c, l, err)
}

// GetLedger godoc
// @Summary     Get the stored ledger for a SKU
// @Tags        process
// @Produce     json
// @Security    Bearer
// @Param       sku path string true "Product SKU"
// @Success     200 {object} models.ProcessResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /ledger/{sku} [get]
func (h *ProcessHandler) GetLedger(c *gin.Context) {
	sku, ok := h.skuParam(c)
	if !ok {
		return
	}

	l, err := h.ledgers.Read(c.Request.Context(), sku)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProcessResponse(l))
}

func (h *ProcessHandler) skuParam(c *gin.Context) (string, bool) {
	return validSKUParam(c, h.skuPattern)
}

func validSKUParam(c *gin.Context, pattern *regexp.Regexp) (string, bool) {
	sku := c.Param("sku")
	if !pattern.MatchString(sku) {
		badRequest(c, fmt.Sprintf("sku %q does not match %s", sku, pattern), nil)
		return "", false
	}
	return sku, true
}

// respondBatch answers with the ledger whenever one exists, even when the
// run also returned an error.
func respondBatch(c *gin.Context, l *models.BatchLedger, err error) {
	if err == nil {
		c.JSON(http.StatusOK, models.NewProcessResponse(l))
		return
	}
	if l == nil {
		respondError(c, err)
		return
	}

	_ = c.Error(err)
	response := models.NewProcessResponse(l)
	response.Success = false
	response.Error = err.Error()
	c.JSON(apperrors.MetadataFor(classify(err).Code()).HTTPStatus, response)
}
