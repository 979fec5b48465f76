package handler // handler defines the HTTP layer of the API

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
	"github.com/hostaria/hotel-reservation-api/internal/service"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// getUserID extracts the authenticated user's ID from the context.  JWTAuth
// stores the raw "sub" claim, which arrives as float64 from the JSON
// decoder.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// fail translates domain and repository errors into HTTP responses so all
// handlers report the same shapes.
func fail(c echo.Context, err error) error {
	var invalidTransition *billing.InvalidTransitionError
	var consistency *billing.ConsistencyError
	switch {
	case errors.Is(err, billing.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &invalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": invalidTransition.Error()})
	case errors.Is(err, service.ErrRoomUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is not available"})
	case errors.Is(err, repository.ErrRoomNumberTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room number already in use"})
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrInvoiceLineNotFound),
		errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &consistency):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": consistency.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
