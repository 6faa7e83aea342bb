package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const validationCode = "Request.ValidationError"

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error" example:"validation failed"`
	Code    string            `json:"code" example:"Request.ValidationError"`
	Details []ValidationError `json:"details,omitempty"`
}

// ValidationErrors flattens validator field errors. Any other error yields
// nil.
func ValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// RespondBindError answers a failed ShouldBind call. Field level failures
// are listed in details; malformed bodies only carry the message.
func RespondBindError(c *gin.Context, err error) {
	details := ValidationErrors(err)
	if details == nil {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: err.Error(), Code: validationCode})
		return
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:   "validation failed",
		Code:    validationCode,
		Details: details,
	})
}
