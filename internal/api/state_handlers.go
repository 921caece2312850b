package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moviedeck/moviedeck/internal/movies"
	"github.com/moviedeck/moviedeck/internal/session"
	"github.com/moviedeck/moviedeck/internal/theme"
)

// StateResponse is every read model in one document, for a client that just
// connected.
type StateResponse struct {
	Movies  movies.Snapshot  `json:"movies"`
	Session session.Snapshot `json:"session"`
	Theme   theme.Snapshot   `json:"theme"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GET /api/v1/state
func (s *Server) getState(c echo.Context) error {
	state := StateResponse{
		Session: s.session.Snapshot(),
		Theme:   s.theme.Snapshot(),
	}
	if state.Session.Authenticated {
		state.Movies = s.movies.Snapshot()
	}
	return c.JSON(http.StatusOK, state)
}

// POST /api/v1/auth/login
func (s *Server) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if remaining := s.authLimiter.LockoutRemaining(req.Username); remaining > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many failed attempts, please try again later")
	}

	if err := s.session.Login(c.Request().Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, session.ErrValidationFailed) {
			s.authLimiter.RecordFailedAttempt(req.Username)
		}
		return s.intentError(err)
	}

	s.authLimiter.RecordSuccessfulLogin(req.Username)
	return c.JSON(http.StatusOK, s.session.Snapshot())
}

// POST /api/v1/auth/logout
func (s *Server) logout(c echo.Context) error {
	if err := s.session.Logout(c.Request().Context()); err != nil {
		return s.intentError(err)
	}
	return c.JSON(http.StatusOK, s.session.Snapshot())
}

// GET /api/v1/auth/status
func (s *Server) authStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Snapshot())
}

// GET /api/v1/theme
func (s *Server) getTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, s.theme.Snapshot())
}

// POST /api/v1/theme/toggle
func (s *Server) toggleTheme(c echo.Context) error {
	if _, err := s.theme.Toggle(c.Request().Context()); err != nil {
		return s.intentError(err)
	}
	return c.JSON(http.StatusOK, s.theme.Snapshot())
}
