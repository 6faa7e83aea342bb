package api

import (
	"net/http"

	"gymslot/internal/apperr"
	"gymslot/internal/logger"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"Reservation.CapacityExceeded"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using its kind and code. Failures never leak the
// underlying cause to the client.
func RespondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	status := StatusFor(appErr.Kind)

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"path", c.FullPath(),
			"code", appErr.Code,
			"error", err,
		)
	}

	c.JSON(status, ErrorResponse{Error: appErr.Description, Code: appErr.Code})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}
