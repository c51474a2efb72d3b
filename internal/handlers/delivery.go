package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/apperrors"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/packager"
	"photo-sku-backend/internal/services"
)

type DeliveryHandler struct {
	delivery *services.DeliveryService
	cleanup  *services.CleanupService
}

func NewDeliveryHandler(delivery *services.DeliveryService, cleanup *services.CleanupService) *DeliveryHandler {
	return &DeliveryHandler{delivery: delivery, cleanup: cleanup}
}

// Download godoc
// @Summary     Download a SKU's processed files as ZIP
// @Description Packages done outputs and skipped videos under their final names, plus manifest.json
// @Description describing every file. includeOriginals adds the originals of failed files under
// @Description originals/. cleanup removes the SKU's files and ledger once the archive is built.
// @Tags        delivery
// @Accept      json
// @Produce     application/zip
// @Security    Bearer
// @Param       request body models.DownloadRequest true "Download options"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /download [post]
func (h *DeliveryHandler) Download(c *gin.Context) {
	var req models.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.CodeValidation, validationMessage(err)))
		return
	}

	archive, err := h.delivery.Package(c.Request.Context(), req.SKU, packager.Options{IncludeOriginals: req.IncludeOriginals}, req.Cleanup)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Name))
	c.Header("Content-Length", strconv.Itoa(len(archive.Data)))
	c.Data(http.StatusOK, packager.ContentTypeZip, archive.Data)
}

// Telegram godoc
// @Summary     Send a SKU's archive to Telegram
// @Description Posts {sku}.zip to the chat given in the request or TELEGRAM_CHAT_ID.
// @Tags        delivery
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.TelegramRequest true "Telegram delivery"
// @Success     200 {object} models.TelegramResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /telegram [post]
func (h *DeliveryHandler) Telegram(c *gin.Context) {
	var req models.TelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.CodeValidation, validationMessage(err)))
		return
	}

	response, err := h.delivery.SendToTelegram(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Cleanup godoc
// @Summary     Remove a SKU's files and ledger
// @Tags        delivery
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CleanupRequest true "SKU to clean up"
// @Success     200 {object} models.CleanupResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /cleanup [post]
func (h *DeliveryHandler) Cleanup(c *gin.Context) {
	var req models.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.CodeValidation, validationMessage(err)))
		return
	}

	if err := h.cleanup.CleanupSKU(c.Request.Context(), req.SKU); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CleanupResponse{Success: true, SKU: req.SKU})
}
