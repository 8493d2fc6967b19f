package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"board-api/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// respondError maps core failures to transport statuses. NotFound and
// Forbidden stay distinguishable all the way to the wire.
func respondError(c echo.Context, err error) error {
	var verr domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
