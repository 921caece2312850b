// Package tmdb is the catalog client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/catalog"
	"github.com/moviedeck/moviedeck/internal/config"
)

const defaultLanguage = "en-US"

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.CatalogConfig
	images     catalog.Images
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.CatalogConfig, logger zerolog.Logger) *Client {
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		images: catalog.Images{BaseURL: cfg.ImageBaseURL},
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Images returns the image URL builder for this provider.
func (c *Client) Images() catalog.Images {
	return c.images
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.doRequest(ctx, "/configuration", c.baseParams(), &result)
}

// FetchTrending returns the first page of the weekly trending movies.
func (c *Client) FetchTrending(ctx context.Context) ([]catalog.Movie, error) {
	if !c.IsConfigured() {
		return nil, opError("trending", MsgTrendingFailed, ErrAPIKeyMissing)
	}

	var response ListResponse
	if err := c.doRequest(ctx, "/trending/movie/week", c.baseParams(), &response); err != nil {
		return nil, opError("trending", MsgTrendingFailed, err)
	}

	movies := toMovies(response.Results)
	c.logger.Debug().Int("results", len(movies)).Msg("Fetched trending movies")
	return movies, nil
}

// Search returns the first page of movies matching query. Adult titles are
// excluded.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Movie, error) {
	if !c.IsConfigured() {
		return nil, opError("search", MsgSearchFailed, ErrAPIKeyMissing)
	}

	params := c.baseParams()
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("include_adult", "false")

	var response ListResponse
	if err := c.doRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, opError("search", MsgSearchFailed, err)
	}

	movies := toMovies(response.Results)
	c.logger.Debug().
		Str("query", query).
		Int("results", len(movies)).
		Msg("Movie search completed")
	return movies, nil
}

// FetchDetail returns the detail record for id with videos and credits
// appended. A missing id yields ErrNotFound; other failures are
// OperationErrors.
func (c *Client) FetchDetail(ctx context.Context, id int) (*catalog.MovieDetail, error) {
	if !c.IsConfigured() {
		return nil, opError("detail", MsgDetailFailed, ErrAPIKeyMissing)
	}

	params := c.baseParams()
	params.Set("append_to_response", "videos,credits")

	var details MovieDetails
	if err := c.doRequest(ctx, "/movie/"+strconv.Itoa(id), params, &details); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, opError("detail", MsgDetailFailed, err)
	}
	if details.ID == 0 {
		return nil, ErrNotFound
	}

	return toMovieDetail(details), nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("language", c.config.Language)
	return params
}

// doRequest performs a GET against path and decodes the JSON body into result.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) error {
	endpoint := c.config.BaseURL + path
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Str("url", endpoint).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// toMovies drops records without an id; the catalog keys everything on it.
func toMovies(results []MovieResult) []catalog.Movie {
	movies := make([]catalog.Movie, 0, len(results))
	for _, r := range results {
		if r.ID == 0 {
			continue
		}
		movies = append(movies, catalog.Movie{
			ID:           r.ID,
			Title:        r.Title,
			PosterPath:   r.PosterPath,
			BackdropPath: r.BackdropPath,
			ReleaseDate:  r.ReleaseDate,
			VoteAverage:  r.VoteAverage,
			Overview:     r.Overview,
			GenreIDs:     r.GenreIDs,
		})
	}
	return movies
}

func toMovieDetail(d MovieDetails) *catalog.MovieDetail {
	detail := &catalog.MovieDetail{
		Movie: catalog.Movie{
			ID:           d.ID,
			Title:        d.Title,
			PosterPath:   d.PosterPath,
			BackdropPath: d.BackdropPath,
			ReleaseDate:  d.ReleaseDate,
			VoteAverage:  d.VoteAverage,
			Overview:     d.Overview,
		},
		Runtime: d.Runtime,
		Tagline: d.Tagline,
		Status:  d.Status,
	}

	seen := make(map[int]struct{}, len(d.Genres))
	for _, g := range d.Genres {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		detail.Genres = append(detail.Genres, catalog.Genre{ID: g.ID, Name: g.Name})
		detail.GenreIDs = append(detail.GenreIDs, g.ID)
	}

	for _, pc := range d.ProductionCompanies {
		detail.ProductionCompanies = append(detail.ProductionCompanies, catalog.ProductionCompany{
			ID:       pc.ID,
			Name:     pc.Name,
			LogoPath: pc.LogoPath,
		})
	}

	if d.Videos != nil {
		detail.Videos = &catalog.Videos{Results: make([]catalog.Video, 0, len(d.Videos.Results))}
		for _, v := range d.Videos.Results {
			if v.Key == "" || v.Site == "" {
				continue
			}
			detail.Videos.Results = append(detail.Videos.Results, catalog.Video{
				Key:  v.Key,
				Name: v.Name,
				Site: v.Site,
				Type: v.Type,
			})
		}
	}

	if d.Credits != nil {
		detail.Credits = &catalog.Credits{Cast: make([]catalog.CastMember, 0, len(d.Credits.Cast))}
		for _, cm := range d.Credits.Cast {
			detail.Credits.Cast = append(detail.Credits.Cast, catalog.CastMember{
				ID:          cm.ID,
				Name:        cm.Name,
				Character:   cm.Character,
				ProfilePath: cm.ProfilePath,
			})
		}
	}

	return detail
}
