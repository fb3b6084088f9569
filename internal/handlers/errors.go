package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// respondError maps service errors to status codes. Public callers get
// guidance text that tells "already signed", "not permitted" and "bad link"
// apart without revealing which tokens or emails exist.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Some contract variables are missing or invalid",
			Code:   "invalid_variables",
			Fields: verr.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Contract not found or link invalid", Code: "not_found"})
	case errors.Is(err, domain.ErrAlreadySigned):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "This email has already signed the contract", Code: "already_signed"})
	case errors.Is(err, domain.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "You are not authorized to sign this contract. Please contact the contract creator", Code: "not_authorized"})
	case errors.Is(err, domain.ErrContractCancelled):
		c.JSON(http.StatusGone, ErrorResponse{Error: "This contract has been cancelled", Code: "contract_cancelled"})
	case errors.Is(err, domain.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many attempts, please try again later", Code: "too_many_attempts"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"})
	case errors.Is(err, domain.ErrRenderFailed):
		logger.Error("render failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate the PDF, please try again", Code: "render_failed"})
	case errors.Is(err, services.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Object storage is not configured", Code: "storage_disabled"})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "internal_error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_input"})
}
