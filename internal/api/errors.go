package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moviedeck/moviedeck/internal/catalog/tmdb"
	"github.com/moviedeck/moviedeck/internal/session"
)

// intentError maps a failed intent to an HTTP error. Catalog failures carry
// the same fixed message the read model shows.
func (s *Server) intentError(err error) error {
	var validation *session.ValidationError
	var opErr *tmdb.OperationError

	switch {
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Message)
	case errors.As(err, &opErr):
		return echo.NewHTTPError(http.StatusBadGateway, opErr.Message)
	case errors.Is(err, tmdb.ErrCatalogUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error().Err(err).Msg("Failed to save state")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save state")
	}
}

// movieID parses the :id path parameter. Catalog ids are positive.
func movieID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
