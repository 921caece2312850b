//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/api/handlers"
	apimw "github.com/moviedeck/moviedeck/internal/api/middleware"
	"github.com/moviedeck/moviedeck/internal/api/ratelimit"
	"github.com/moviedeck/moviedeck/internal/catalog"
	"github.com/moviedeck/moviedeck/internal/config"
	"github.com/moviedeck/moviedeck/internal/movies"
	"github.com/moviedeck/moviedeck/internal/search"
	"github.com/moviedeck/moviedeck/internal/session"
	"github.com/moviedeck/moviedeck/internal/theme"
	"github.com/moviedeck/moviedeck/internal/websocket"
)

const limiterCleanupInterval = 5 * time.Minute

// Services are the state owners the API exposes. Scheduler and Logs are
// optional.
type Services struct {
	Movies    *movies.Service
	Session   *session.Service
	Theme     *theme.Service
	Images    catalog.Images
	Scheduler handlers.TaskRunner
	Logs      LogsProvider
}

// Server handles HTTP requests for the MovieDeck API.
type Server struct {
	echo      *echo.Echo
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	clock     clockwork.Clock
	startTime time.Time

	movies    *movies.Service
	session   *session.Service
	theme     *theme.Service
	images    catalog.Images
	scheduler handlers.TaskRunner
	logs      LogsProvider

	authLimiter *ratelimit.AuthLimiter

	inputsMu sync.Mutex
	inputs   map[*websocket.Client]*search.Input
}

// NewServer creates a new API server instance. hub may be nil, in which case
// no WebSocket endpoint is served.
func NewServer(svc Services, hub *websocket.Hub, cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		hub:         hub,
		logger:      logger.With().Str("component", "api").Logger(),
		cfg:         cfg,
		clock:       clock,
		startTime:   clock.Now(),
		movies:      svc.Movies,
		session:     svc.Session,
		theme:       svc.Theme,
		images:      svc.Images,
		scheduler:   svc.Scheduler,
		logs:        svc.Logs,
		authLimiter: ratelimit.NewAuthLimiter(clock),
		inputs:      make(map[*websocket.Client]*search.Input),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupRealtime()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(apimw.SecurityHeaders())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)
	api.GET("/state", s.getState)

	auth := api.Group("/auth")
	auth.POST("/login", s.login, s.authLimiter.Middleware())
	auth.POST("/logout", s.logout)
	auth.GET("/status", s.authStatus)

	themeGroup := api.Group("/theme")
	themeGroup.GET("", s.getTheme)
	themeGroup.POST("/toggle", s.toggleTheme)

	requireSession := apimw.RequireSession(s.session.IsAuthenticated)

	moviesGroup := api.Group("/movies", requireSession)
	moviesGroup.GET("/trending", s.getTrending)
	moviesGroup.POST("/trending/refresh", s.refreshTrending)
	moviesGroup.GET("/search", s.getSearch)
	moviesGroup.POST("/search", s.submitSearch)
	moviesGroup.DELETE("/search", s.clearSearch)
	moviesGroup.PUT("/search/query", s.setSearchQuery)
	moviesGroup.DELETE("/current", s.clearCurrent)
	moviesGroup.GET("/:id", s.getMovie)

	favorites := api.Group("/favorites", requireSession)
	favorites.GET("", s.listFavorites)
	favorites.POST("", s.addFavorite)
	favorites.GET("/:id", s.getFavorite)
	favorites.DELETE("/:id", s.removeFavorite)

	system := api.Group("/system")
	if s.logs != nil {
		NewLogsHandlers(s.logs).RegisterRoutes(system.Group("/logs"))
	}
	if s.scheduler != nil {
		handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(system.Group("/tasks"))
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// StartMaintenance runs periodic housekeeping until ctx is done.
func (s *Server) StartMaintenance(ctx context.Context) {
	s.authLimiter.StartCleanup(ctx, limiterCleanupInterval)
}

// Shutdown gracefully stops the server and any pending search input timers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	s.inputsMu.Lock()
	for client, in := range s.inputs {
		in.Close()
		delete(s.inputs, client)
	}
	s.inputsMu.Unlock()

	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	response := map[string]any{
		"version":   config.Version,
		"startTime": s.startTime.Format(time.RFC3339),
		"uptime":    s.clock.Since(s.startTime).Round(time.Second).String(),
	}
	if s.hub != nil {
		response["clients"] = s.hub.ClientCount()
		response["droppedBroadcasts"] = s.hub.Dropped()
	}
	return c.JSON(http.StatusOK, response)
}
