package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviedeck/moviedeck/internal/catalog"
)

type FavoriteStatus struct {
	ID       int  `json:"id"`
	Favorite bool `json:"isFavorite"`
}

// GET /api/v1/favorites
func (s *Server) listFavorites(c echo.Context) error {
	return c.JSON(http.StatusOK, s.movies.Cards(s.images, s.movies.Favorites()))
}

// POST /api/v1/favorites
// Adding a movie that is already a favorite is not an error; the response
// is 200 instead of 201.
func (s *Server) addFavorite(c echo.Context) error {
	var movie catalog.Movie
	if err := c.Bind(&movie); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if movie.ID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "movie id is required")
	}

	added, err := s.movies.AddToFavorites(c.Request().Context(), movie)
	if err != nil {
		return s.intentError(err)
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return c.JSON(status, s.movies.Cards(s.images, s.movies.Favorites()))
}

// GET /api/v1/favorites/:id
func (s *Server) getFavorite(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FavoriteStatus{ID: id, Favorite: s.movies.IsFavorite(id)})
}

// DELETE /api/v1/favorites/:id
func (s *Server) removeFavorite(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}

	if _, err := s.movies.RemoveFromFavorites(c.Request().Context(), id); err != nil {
		return s.intentError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
