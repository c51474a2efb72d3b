package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"photo-sku-backend/internal/apperrors"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/orchestrator"
	"photo-sku-backend/internal/storage"
)

// classify maps domain errors onto an application error code.
func classify(err error) *apperrors.Error {
	if appErr := apperrors.As(err); appErr != nil {
		return appErr
	}
	switch {
	case errors.Is(err, orchestrator.ErrValidation), errors.Is(err, storage.ErrInvalidPath):
		return apperrors.Wrap(apperrors.CodeValidation, err, err.Error())
	case errors.Is(err, orchestrator.ErrCredential):
		return apperrors.Wrap(apperrors.CodeCredential, err, err.Error())
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, err, err.Error())
	}
	return apperrors.Wrap(apperrors.CodeInternal, err, "")
}

func respondError(c *gin.Context, err error) {
	appErr := classify(err)
	meta := apperrors.MetadataFor(appErr.Code())
	_ = c.Error(err)
	c.JSON(meta.HTTPStatus, models.ErrorResponse{
		Error:   meta.PublicMessage,
		Message: appErr.Message(),
		Code:    string(appErr.Code()),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	detail := message
	if err != nil {
		detail = message + ": " + err.Error()
	}
	respondError(c, apperrors.New(apperrors.CodeValidation, detail))
}
