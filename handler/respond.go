package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Bhati90/workw-sub001/service"
)

// respondError maps service errors to HTTP responses: validation failures
// are the user's problem (400), stale ids/indexes are 404, anything else
// is a 500
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// bindingErrorMessage renders gin binding failures into a user-facing
// message, unpacking validator field errors when present
func bindingErrorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("field '%s' failed '%s' validation", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return "Invalid request"
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
}
