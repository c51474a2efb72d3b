package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/models"
)

// NewHealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the API and the configured storage and ledger backends
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func NewHealthHandler(storageBackend, ledgerBackend string) gin.HandlerFunc {
	response := models.HealthResponse{
		Status:  "ok",
		Storage: storageBackend,
		Ledger:  ledgerBackend,
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response)
	}
}
