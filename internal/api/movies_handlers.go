package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moviedeck/moviedeck/internal/movies"
)

type TrendingResponse struct {
	Movies []movies.Card         `json:"movies"`
	Status movies.StatusSnapshot `json:"status"`
}

type SearchResponse struct {
	Query   string                `json:"query"`
	Results []movies.Card         `json:"results"`
	Status  movies.StatusSnapshot `json:"status"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

func (s *Server) trendingResponse() TrendingResponse {
	return TrendingResponse{
		Movies: s.movies.Cards(s.images, s.movies.Trending()),
		Status: s.movies.Status(),
	}
}

func (s *Server) searchResponse() SearchResponse {
	state := s.movies.Search()
	return SearchResponse{
		Query:   state.Query,
		Results: s.movies.Cards(s.images, state.Results),
		Status:  s.movies.Status(),
	}
}

// GET /api/v1/movies/trending
// Loads the list on first use; ?refresh=true always reloads it.
func (s *Server) getTrending(c echo.Context) error {
	ctx := c.Request().Context()

	var err error
	if c.QueryParam("refresh") == "true" {
		err = s.movies.FetchTrending(ctx)
	} else {
		err = s.movies.EnsureTrending(ctx)
	}
	if err != nil {
		return s.intentError(err)
	}

	return c.JSON(http.StatusOK, s.trendingResponse())
}

// POST /api/v1/movies/trending/refresh
func (s *Server) refreshTrending(c echo.Context) error {
	if err := s.movies.FetchTrending(c.Request().Context()); err != nil {
		return s.intentError(err)
	}
	return c.JSON(http.StatusOK, s.trendingResponse())
}

// GET /api/v1/movies/search
func (s *Server) getSearch(c echo.Context) error {
	return c.JSON(http.StatusOK, s.searchResponse())
}

// POST /api/v1/movies/search
// Commits the query and searches right away. Blank queries are rejected.
func (s *Server) submitSearch(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	if err := s.runSearch(c.Request().Context(), req.Query); err != nil {
		return s.intentError(err)
	}
	return c.JSON(http.StatusOK, s.searchResponse())
}

// PUT /api/v1/movies/search/query
func (s *Server) setSearchQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.commitQuery(c.Request().Context(), req.Query); err != nil {
		return s.intentError(err)
	}
	return c.JSON(http.StatusOK, s.searchResponse())
}

// DELETE /api/v1/movies/search
func (s *Server) clearSearch(c echo.Context) error {
	if err := s.resetSearch(c.Request().Context()); err != nil {
		return s.intentError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /api/v1/movies/:id
func (s *Server) getMovie(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}

	if err := s.movies.FetchByID(c.Request().Context(), id); err != nil {
		return s.intentError(err)
	}

	detail := s.movies.Current()
	if detail == nil || detail.ID != id {
		return echo.NewHTTPError(http.StatusNotFound, "movie not found")
	}

	return c.JSON(http.StatusOK, movies.NewDetailView(detail, s.images, s.movies.IsFavorite(id)))
}

// DELETE /api/v1/movies/current
func (s *Server) clearCurrent(c echo.Context) error {
	s.movies.ClearCurrent()
	return c.NoContent(http.StatusNoContent)
}

// commitQuery makes query the committed search query and moves every idle
// search box to it.
func (s *Server) commitQuery(ctx context.Context, query string) error {
	if err := s.movies.SetSearchQuery(ctx, query); err != nil {
		return err
	}
	s.syncSearchInputs(query)
	return nil
}

// runSearch commits query and, when it is not blank, searches for it.
func (s *Server) runSearch(ctx context.Context, query string) error {
	if err := s.commitQuery(ctx, query); err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	return s.movies.SearchByQuery(ctx, query)
}

// resetSearch empties the committed query and the results, which puts the
// trending list back in view. Any search in flight is superseded.
func (s *Server) resetSearch(ctx context.Context) error {
	if err := s.commitQuery(ctx, ""); err != nil {
		return err
	}
	return s.movies.SearchByQuery(ctx, "")
}
