package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openalpha/api/internal/apperr"
)

// writeError maps an error's kind to a status code and a stable code string.
// Unrecognized errors become a generic 500; no internal detail leaks.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperr.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, apperr.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrDependency):
		status, code = http.StatusBadGateway, "dependency"
	}

	c.JSON(status, gin.H{"error": apperr.Message(err), "code": code})
}
